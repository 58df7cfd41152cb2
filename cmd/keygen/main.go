package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/arnavshah/weekly-score-api/internal/config"
	"github.com/arnavshah/weekly-score-api/pkg/auth"
)

func main() {
	config.LoadDotEnv()

	if len(os.Args) < 2 {
		fmt.Println("Usage: keygen <name>")
		os.Exit(1)
	}

	name := os.Args[1]
	if strings.Contains(name, ".") {
		fmt.Println("Error: key name may not contain '.'")
		os.Exit(1)
	}
	secret := os.Getenv("API_MASTER_SECRET")
	if secret == "" {
		fmt.Println("Error: API_MASTER_SECRET not found in .env")
		os.Exit(1)
	}

	apiKey := auth.GenerateHMACKey(secret, name)
	fmt.Printf("Generated Key for %s:\n%s\n", name, apiKey)
}
