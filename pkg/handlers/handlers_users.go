package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/arnavshah/weekly-score-api/pkg/auth"
	"github.com/arnavshah/weekly-score-api/pkg/database"
	"github.com/arnavshah/weekly-score-api/pkg/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Me returns the authenticated user
func (h *Handler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": currentUser(c)})
}

// UpdatePreferences stores the user's theme
func (h *Handler) UpdatePreferences(c *gin.Context) {
	var req models.PreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := currentUser(c)
	if err := h.DB.Model(user).Update("theme", req.Theme).Error; err != nil {
		h.respondError(c, err)
		return
	}
	user.Theme = req.Theme
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// ChangePassword replaces the user's password after checking the current one
func (h *Handler) ChangePassword(c *gin.Context) {
	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := currentUser(c)
	if !auth.CheckPasswordHash(req.CurrentPassword, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Current password is incorrect"})
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.DB.Model(user).Update("password_hash", hash).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

// ListUsers returns every user
func (h *Handler) ListUsers(c *gin.Context) {
	var users []database.User
	if err := h.DB.Order("username").Find(&users).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// CreateUser adds a user with a password and role
func (h *Handler) CreateUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	var count int64
	if err := h.DB.Model(&database.User{}).Where("username = ?", req.Username).Count(&count).Error; err != nil {
		h.respondError(c, err)
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Username already taken"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	user := database.User{
		Username:     req.Username,
		DisplayName:  req.DisplayName,
		PasswordHash: hash,
		Role:         req.Role,
	}
	if user.Role == "" {
		user.Role = database.RoleMember
	}
	if user.DisplayName == "" {
		user.DisplayName = user.Username
	}

	if err := h.DB.Create(&user).Error; err != nil {
		h.respondError(c, err)
		return
	}

	h.logger(c).Info("user created", "user_id", user.ID, "role", user.Role)
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

// UpdateUserRole changes a user's role and notifies them
func (h *Handler) UpdateUserRole(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var req models.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if id == currentUser(c).ID && req.Role != database.RoleAdmin {
		h.respondError(c, &ErrForbidden{Action: "remove your own admin role"})
		return
	}

	var user database.User
	if err := h.DB.First(&user, id).Error; err != nil {
		h.respondError(c, err)
		return
	}

	if user.Role != req.Role {
		err := h.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&user).Update("role", req.Role).Error; err != nil {
				return err
			}
			return notify(tx, user.ID, "role_changed", fmt.Sprintf("Your role is now %s", req.Role), nil)
		})
		if err != nil {
			h.respondError(c, err)
			return
		}
		user.Role = req.Role
		h.logger(c).Info("user role changed", "user_id", user.ID, "role", user.Role)
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// DeleteUser removes a user together with their weeks and notifications.
// Their tasks stay, unassigned.
func (h *Handler) DeleteUser(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if id == currentUser(c).ID {
		h.respondError(c, &ErrForbidden{Action: "delete yourself"})
		return
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		var user database.User
		if err := tx.First(&user, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&database.Task{}).Where("assignee_id = ?", id).Update("assignee_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&database.Notification{}).Error; err != nil {
			return err
		}
		var goalIDs []uint
		if err := tx.Model(&database.WeeklyGoal{}).Where("user_id = ?", id).Pluck("id", &goalIDs).Error; err != nil {
			return err
		}
		if len(goalIDs) > 0 {
			if err := tx.Where("weekly_goal_id IN ?", goalIDs).Delete(&database.PlannedGoal{}).Error; err != nil {
				return err
			}
			if err := tx.Where("weekly_goal_id IN ?", goalIDs).Delete(&database.UnplannedEntry{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&database.WeeklyGoal{}, goalIDs).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.logger(c).Info("user deleted", "user_id", id)
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}
