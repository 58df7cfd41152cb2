package handler

import (
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/arnavshah/weekly-score-api/internal/config"
	"github.com/arnavshah/weekly-score-api/pkg/auth"
	"github.com/arnavshah/weekly-score-api/pkg/database"
	"github.com/arnavshah/weekly-score-api/pkg/handlers"
	"github.com/arnavshah/weekly-score-api/pkg/scoring"
	"github.com/gin-gonic/gin"
)

var r *gin.Engine

func init() {
	// Load .env if it exists (for local testing with vercel dev)
	config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	params, err := config.LoadParams(cfg.ScoreParamsFile)
	if err != nil {
		log.Fatalf("could not load score params: %v", err)
	}
	calc, err := scoring.NewCalculator(params)
	if err != nil {
		log.Fatalf("invalid score params: %v", err)
	}

	// Initialize DB
	db, err := database.InitDB(cfg.DatabaseURL, cfg.DataPath)
	if err != nil {
		log.Fatalf("could not open database: %v", err)
	}
	if err := auth.EnsureAdminExists(db, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Printf("could not create admin user: %v", err)
	}

	h := handlers.New(db, cfg, calc, slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	// Initialize Gin
	gin.SetMode(gin.ReleaseMode)
	r = gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	h.Register(r)
}

// Handler is the entry point for Vercel Go Runtime
func Handler(w http.ResponseWriter, req *http.Request) {
	r.ServeHTTP(w, req)
}
