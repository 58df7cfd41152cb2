package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/arnavshah/weekly-score-api/internal/config"
	"github.com/arnavshah/weekly-score-api/pkg/auth"
	"github.com/arnavshah/weekly-score-api/pkg/database"
	"github.com/arnavshah/weekly-score-api/pkg/models"
	"github.com/arnavshah/weekly-score-api/pkg/scoring"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ctxUser      = "user"
	ctxAPIKey    = "apiKey"
	ctxRequestID = "requestID"

	requestIDHeader = "X-Request-ID"
)

// Handler contains dependencies for the route handlers
type Handler struct {
	DB     *gorm.DB
	Config *config.Config
	Calc   *scoring.Calculator
	Log    *slog.Logger
}

// New builds a Handler. A nil logger discards application events.
func New(db *gorm.DB, cfg *config.Config, calc *scoring.Calculator, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{DB: db, Config: cfg, Calc: calc, Log: logger}
}

func (h *Handler) logger(c *gin.Context) *slog.Logger {
	return h.Log.With("request_id", c.GetString(ctxRequestID))
}

// RequestID stamps every request with an ID, reusing a well-formed incoming one
func (h *Handler) RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	token := c.GetHeader("Authorization")
	// Strip "Bearer " if present
	if len(token) > 7 && strings.EqualFold(token[:7], "Bearer ") {
		token = token[7:]
	}
	return strings.TrimSpace(token)
}

// AuthMiddleware verifies the JWT token and loads the user it was issued to
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		claims, err := auth.VerifyToken([]byte(h.Config.JWTSecret), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		// the user may have been deleted or demoted since the token was issued
		var user database.User
		if err := h.DB.First(&user, claims.UserID).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(ctxUser, &user)
		c.Next()
	}
}

// RequireAdmin rejects users without the admin role. It must run after AuthMiddleware.
func (h *Handler) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !currentUser(c).IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin role required"})
			return
		}
		c.Next()
	}
}

// APIKeyMiddleware verifies HMAC integration keys and enforces their daily limit
func (h *Handler) APIKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := bearerToken(c)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "API Key required"})
			return
		}

		name, err := auth.VerifyHMACKey(h.Config.APIMasterSecret, key)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid API Key signature"})
			return
		}

		apiKey, err := auth.TouchAPIKey(h.DB, key, name)
		if err != nil {
			h.respondError(c, err)
			c.Abort()
			return
		}

		if apiKey.RevokedAt != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "API Key revoked"})
			return
		}

		var today database.APIUsage
		err = h.DB.Where("key_id = ? AND date = ?", apiKey.ID, time.Now().Format("2006-01-02")).Limit(1).Find(&today).Error
		if err != nil {
			h.respondError(c, err)
			c.Abort()
			return
		}
		if apiKey.RateLimit > 0 && today.RequestCount >= apiKey.RateLimit {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Daily request limit reached"})
			return
		}

		c.Set(ctxAPIKey, apiKey)
		c.Next()
	}
}

func currentUser(c *gin.Context) *database.User {
	return c.MustGet(ctxUser).(*database.User)
}

func paramID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, &ErrValidation{Field: "id", Message: "must be a positive integer"}
	}
	return uint(id), nil
}

// Login handles password login for any user
func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user database.User
	if err := h.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := auth.CreateToken([]byte(h.Config.JWTSecret), &user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create token"})
		return
	}

	h.logger(c).Info("user logged in", "user_id", user.ID)
	c.JSON(http.StatusOK, models.LoginResponse{AccessToken: token, TokenType: "bearer", User: &user})
}
