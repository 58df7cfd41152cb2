package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/arnavshah/weekly-score-api/pkg/auth"
	"github.com/arnavshah/weekly-score-api/pkg/database"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultRateLimit = auth.DefaultRateLimit

// GenerateKey creates a new integration key using the HMAC strategy
func (h *Handler) GenerateKey(c *gin.Context) {
	var req struct {
		Name      string `json:"name" binding:"required,max=64"`
		RateLimit int    `json:"rate_limit" binding:"gte=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || strings.Contains(req.Name, ".") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required and may not contain '.'"})
		return
	}
	if h.Config.APIMasterSecret == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "API_MASTER_SECRET is not configured"})
		return
	}

	if req.RateLimit == 0 {
		req.RateLimit = defaultRateLimit
	}

	key := auth.GenerateHMACKey(h.Config.APIMasterSecret, req.Name)
	apiKey := database.APIKey{
		Key:        key,
		Name:       req.Name,
		KeyPreview: auth.KeyPreview(key),
		RateLimit:  req.RateLimit,
	}

	// the same name always signs to the same key, so a revoked name is reactivated
	var existing database.APIKey
	if err := h.DB.Where(&database.APIKey{Key: key}).Limit(1).Find(&existing).Error; err != nil {
		h.respondError(c, err)
		return
	}
	switch {
	case existing.ID != 0 && existing.RevokedAt == nil:
		c.JSON(http.StatusConflict, gin.H{"error": "A key with this name already exists"})
		return
	case existing.ID != 0:
		err := h.DB.Model(&existing).Updates(map[string]interface{}{
			"revoked_at": nil,
			"rate_limit": req.RateLimit,
		}).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not reactivate key"})
			return
		}
		apiKey.ID = existing.ID
	default:
		if err := h.DB.Create(&apiKey).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create key record"})
			return
		}
	}

	h.logger(c).Info("integration key created", "key_id", apiKey.ID, "name", apiKey.Name)
	c.JSON(http.StatusOK, gin.H{
		"id":   apiKey.ID,
		"name": req.Name,
		"key":  key,
	})
}

// ListKeys returns all integration keys
func (h *Handler) ListKeys(c *gin.Context) {
	var keys []database.APIKey
	if err := h.DB.Order("id").Find(&keys).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"keys": keys})
}

// RevokeKey disables an integration key. Its record and usage history stay
// so that the signed key cannot register itself again.
func (h *Handler) RevokeKey(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	res := h.DB.Model(&database.APIKey{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", time.Now())
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not revoke key"})
		return
	}
	if res.RowsAffected == 0 {
		h.respondError(c, &ErrNotFound{Entity: "key"})
		return
	}
	h.logger(c).Info("integration key revoked", "key_id", id)
	c.JSON(http.StatusOK, gin.H{"message": "Key revoked"})
}

// UpdateKeyLimit updates the daily request limit for a key
func (h *Handler) UpdateKeyLimit(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	var req struct {
		RateLimit int `json:"rate_limit" form:"rate_limit"`
	}

	// Try JSON first, then Form/Query
	if err := c.ShouldBindJSON(&req); err != nil {
		if err := c.ShouldBindQuery(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "rate_limit is required"})
			return
		}
	}

	if req.RateLimit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rate limit"})
		return
	}

	res := h.DB.Model(&database.APIKey{}).Where("id = ?", id).Update("rate_limit", req.RateLimit)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update key limit"})
		return
	}
	if res.RowsAffected == 0 {
		h.respondError(c, &ErrNotFound{Entity: "key"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rate limit updated successfully"})
}

// GetUsage returns the last 30 days of usage for a key
func (h *Handler) GetUsage(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	var usage []database.APIUsage
	if err := h.DB.Where("key_id = ?", id).Order("date desc").Limit(30).Find(&usage).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"usage": usage})
}

// RecordUsage counts one request and the weeks it scored against today's
// usage row of the calling key
func (h *Handler) RecordUsage(c *gin.Context, weeksScored int) {
	apiKeyRaw, exists := c.Get(ctxAPIKey)
	if !exists {
		return
	}
	apiKey := apiKeyRaw.(*database.APIKey)

	today := time.Now().Format("2006-01-02")

	// Use OnConflict for a single-query upsert (supported by both Postgres and SQLite)
	err := h.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"request_count": gorm.Expr("request_count + ?", 1),
			"weeks_scored":  gorm.Expr("weeks_scored + ?", weeksScored),
		}),
	}).Create(&database.APIUsage{
		KeyID:        apiKey.ID,
		Date:         today,
		RequestCount: 1,
		WeeksScored:  weeksScored,
	}).Error
	if err != nil {
		h.logger(c).Warn("could not record usage", "key_id", apiKey.ID, "error", err)
	}
}
