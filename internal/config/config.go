// Package config loads server settings from the environment and scoring
// params from an optional YAML file.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/arnavshah/weekly-score-api/pkg/scoring"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultBaseWeekMinutes is a 45 hour week.
const DefaultBaseWeekMinutes = 2700

// Config holds everything the server reads from the environment
type Config struct {
	Port            string
	GinMode         string
	DatabaseURL     string // Postgres DSN; SQLite at DataPath when empty
	DataPath        string
	JWTSecret       string
	APIMasterSecret string
	AdminUsername   string
	AdminPassword   string
	BaseWeekMinutes float64
	ScoreParamsFile string
}

// LoadDotEnv loads the first .env found in the working directory or its parents
func LoadDotEnv() {
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			return
		}
	}
}

// Load reads the configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:            getenv("PORT", "8000"),
		GinMode:         os.Getenv("GIN_MODE"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		DataPath:        getenv("DATA_PATH", "weekly_score.db"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		APIMasterSecret: os.Getenv("API_MASTER_SECRET"),
		AdminUsername:   getenv("ADMIN_USERNAME", "admin"),
		AdminPassword:   getenv("ADMIN_PASSWORD", "admin123"),
		BaseWeekMinutes: DefaultBaseWeekMinutes,
		ScoreParamsFile: os.Getenv("SCORE_PARAMS_FILE"),
	}

	if raw := os.Getenv("BASE_WEEK_MINUTES"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("BASE_WEEK_MINUTES must be a positive number, got %q", raw)
		}
		cfg.BaseWeekMinutes = v
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

// LoadParams overlays the YAML file at path on the default params and
// validates the result. An empty path yields the defaults.
func LoadParams(path string) (scoring.Params, error) {
	params := scoring.DefaultParams()
	if path == "" {
		return params, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return params, fmt.Errorf("failed to read score params %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &params); err != nil {
		return params, fmt.Errorf("failed to parse score params %s: %w", path, err)
	}
	if err := params.Validate(); err != nil {
		return params, err
	}
	return params, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
