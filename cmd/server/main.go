package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/arnavshah/weekly-score-api/internal/config"
	"github.com/arnavshah/weekly-score-api/pkg/auth"
	"github.com/arnavshah/weekly-score-api/pkg/database"
	"github.com/arnavshah/weekly-score-api/pkg/handlers"
	"github.com/arnavshah/weekly-score-api/pkg/scoring"
	"github.com/gin-gonic/gin"
)

func main() {
	// Try root and parent directories for flexibility
	config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	if cfg.GinMode == "" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(cfg.GinMode)
	}

	params, err := config.LoadParams(cfg.ScoreParamsFile)
	if err != nil {
		log.Fatalf("could not load score params: %v", err)
	}
	calc, err := scoring.NewCalculator(params)
	if err != nil {
		log.Fatalf("invalid score params: %v", err)
	}

	db, err := database.InitDB(cfg.DatabaseURL, cfg.DataPath)
	if err != nil {
		log.Fatalf("could not open database: %v", err)
	}
	if err := auth.EnsureAdminExists(db, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatalf("could not create admin user: %v", err)
	}

	var logHandler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	if gin.Mode() == gin.DebugMode {
		logHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	h := handlers.New(db, cfg, calc, slog.New(logHandler))

	r := gin.Default()
	h.Register(r)

	log.Printf("Server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("could not run server: %v", err)
	}
}
