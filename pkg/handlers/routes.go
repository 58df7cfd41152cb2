package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Version is reported by the root endpoint
const Version = "1.0.0"

// Register mounts every route on r
func (h *Handler) Register(r *gin.Engine) {
	r.Use(h.RequestID())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Weekly Score API",
			"version": Version,
		})
	})

	r.POST("/auth/login", h.Login)

	// Member Endpoints
	api := r.Group("/api")
	api.Use(h.AuthMiddleware())
	{
		api.GET("/me", h.Me)
		api.PUT("/me/preferences", h.UpdatePreferences)
		api.PUT("/me/password", h.ChangePassword)

		api.GET("/tasks", h.ListTasks)
		api.POST("/tasks", h.CreateTask)
		api.POST("/tasks/import", h.ImportTasksCSV)
		api.GET("/tasks/:id", h.GetTask)
		api.PUT("/tasks/:id", h.UpdateTask)
		api.DELETE("/tasks/:id", h.DeleteTask)

		api.GET("/notifications", h.ListNotifications)
		api.PUT("/notifications/:id/read", h.MarkNotificationRead)
		api.POST("/notifications/read-all", h.MarkAllNotificationsRead)

		api.POST("/weeks/validate", h.ValidateWeek)
		api.GET("/weeks/:weekStart", h.GetWeek)
		api.PUT("/weeks/:weekStart", h.PutWeek)
		api.POST("/score", h.ScorePreview)
		api.GET("/leaderboard", h.Leaderboard)
		api.GET("/params", h.GetParams)
	}

	// Admin Endpoints
	admin := r.Group("/admin")
	admin.Use(h.AuthMiddleware(), h.RequireAdmin())
	{
		admin.GET("/users", h.ListUsers)
		admin.POST("/users", h.CreateUser)
		admin.PUT("/users/:id/role", h.UpdateUserRole)
		admin.DELETE("/users/:id", h.DeleteUser)

		admin.POST("/keys", h.GenerateKey)
		admin.GET("/keys", h.ListKeys)
		admin.PUT("/keys/:id", h.UpdateKeyLimit)
		admin.DELETE("/keys/:id", h.RevokeKey)
		admin.GET("/usage/:id", h.GetUsage)
	}

	// Integration Endpoints
	integrations := r.Group("/integrations")
	integrations.Use(h.APIKeyMiddleware())
	{
		integrations.GET("/leaderboard", h.IntegrationLeaderboard)
		integrations.GET("/usage", h.GetMyUsage)
	}
}
