package handlers

import (
	"net/http"

	"github.com/arnavshah/weekly-score-api/pkg/database"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func notify(db *gorm.DB, userID uint, kind, message string, taskID *uint) error {
	return db.Create(&database.Notification{
		UserID:  userID,
		Kind:    kind,
		Message: message,
		TaskID:  taskID,
	}).Error
}

// ListNotifications returns the caller's notifications, newest first
func (h *Handler) ListNotifications(c *gin.Context) {
	q := h.DB.Where("user_id = ?", currentUser(c).ID)
	if c.Query("unread") == "true" {
		q = q.Where("read = ?", false)
	}

	var notes []database.Notification
	if err := q.Order("created_at desc").Order("id desc").Limit(100).Find(&notes).Error; err != nil {
		h.respondError(c, err)
		return
	}

	var unread int64
	if err := h.DB.Model(&database.Notification{}).Where("user_id = ? AND read = ?", currentUser(c).ID, false).Count(&unread).Error; err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notes, "unread": unread})
}

// MarkNotificationRead marks one of the caller's notifications as read
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	res := h.DB.Model(&database.Notification{}).
		Where("id = ? AND user_id = ?", id, currentUser(c).ID).
		Update("read", true)
	if res.Error != nil {
		h.respondError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		h.respondError(c, &ErrNotFound{Entity: "notification"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

// MarkAllNotificationsRead marks every unread notification of the caller as read
func (h *Handler) MarkAllNotificationsRead(c *gin.Context) {
	res := h.DB.Model(&database.Notification{}).
		Where("user_id = ? AND read = ?", currentUser(c).ID, false).
		Update("read", true)
	if res.Error != nil {
		h.respondError(c, res.Error)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": res.RowsAffected})
}
