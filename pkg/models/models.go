package models

import (
	"github.com/arnavshah/weekly-score-api/pkg/database"
	"github.com/arnavshah/weekly-score-api/pkg/scoring"
)

// MaxMinutes bounds any single minute field accepted over the API
const MaxMinutes = 100000

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the access token and the logged-in user
type LoginResponse struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	User        *database.User `json:"user"`
}

// CreateUserRequest is the body of POST /admin/users
type CreateUserRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=64"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"display_name" binding:"max=128"`
	Role        string `json:"role" binding:"omitempty,oneof=admin member"`
}

// UpdateRoleRequest is the body of PUT /admin/users/:id/role
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=admin member"`
}

// PreferencesRequest is the body of PUT /api/me/preferences
type PreferencesRequest struct {
	Theme string `json:"theme" binding:"required,oneof=light dark system"`
}

// ChangePasswordRequest is the body of PUT /api/me/password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

// CreateTaskRequest is the body of POST /api/tasks
type CreateTaskRequest struct {
	Title       string  `json:"title" binding:"required,max=200"`
	Description string  `json:"description" binding:"max=5000"`
	Status      string  `json:"status" binding:"omitempty,oneof=todo in_progress done"`
	Priority    string  `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate     *string `json:"due_date" binding:"omitempty,datetime=2006-01-02"`
	AssigneeID  *uint   `json:"assignee_id"`
}

// UpdateTaskRequest is the body of PUT /api/tasks/:id; nil fields are left unchanged
type UpdateTaskRequest struct {
	Title         *string `json:"title" binding:"omitempty,min=1,max=200"`
	Description   *string `json:"description" binding:"omitempty,max=5000"`
	Status        *string `json:"status" binding:"omitempty,oneof=todo in_progress done"`
	Priority      *string `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate       *string `json:"due_date" binding:"omitempty,datetime=2006-01-02"`
	ClearDueDate  bool    `json:"clear_due_date"`
	AssigneeID    *uint   `json:"assignee_id"`
	ClearAssignee bool    `json:"clear_assignee"`
}

// PlannedItemInput is one planned goal row as submitted
type PlannedItemInput struct {
	Name          string  `json:"name" binding:"max=200"`
	TargetMinutes float64 `json:"target_minutes" binding:"lte=100000"`
	ActualMinutes float64 `json:"actual_minutes" binding:"lte=100000"`
	IsCompleted   bool    `json:"is_completed"`
}

// UnplannedItemInput is one unplanned work row as submitted
type UnplannedItemInput struct {
	Name          string  `json:"name" binding:"max=200"`
	ActualMinutes float64 `json:"actual_minutes" binding:"lte=100000"`
}

// WeekRequest is the body of PUT /api/weeks/:weekStart
type WeekRequest struct {
	LeaveMinutes    float64              `json:"leave_minutes" binding:"lte=100000"`
	OvertimeMinutes float64              `json:"overtime_minutes" binding:"lte=100000"`
	Planned         []PlannedItemInput   `json:"planned" binding:"max=100,dive"`
	Unplanned       []UnplannedItemInput `json:"unplanned" binding:"max=100,dive"`
}

// ScoreRequest is the body of POST /api/score. BaseMinutes defaults to the
// configured weekly base when omitted.
type ScoreRequest struct {
	BaseMinutes *float64 `json:"base_minutes" binding:"omitempty,lte=100000"`
	WeekRequest
}

// WeekResponse is a stored (or empty) week together with its score
type WeekResponse struct {
	UserID          uint                      `json:"user_id"`
	WeekStart       string                    `json:"week_start"`
	Saved           bool                      `json:"saved"`
	LeaveMinutes    float64                   `json:"leave_minutes"`
	OvertimeMinutes float64                   `json:"overtime_minutes"`
	Planned         []database.PlannedGoal    `json:"planned"`
	Unplanned       []database.UnplannedEntry `json:"unplanned"`
	Breakdown       scoring.Breakdown         `json:"breakdown"`
	Terms           []scoring.Term            `json:"terms"`
}

// ScoreResponse is the result of a stateless score computation
type ScoreResponse struct {
	Breakdown scoring.Breakdown `json:"breakdown"`
	Terms     []scoring.Term    `json:"terms"`
}

// LeaderboardEntry is one user's final score for a week
type LeaderboardEntry struct {
	Rank        int     `json:"rank"`
	UserID      uint    `json:"user_id"`
	Username    string  `json:"username"`
	DisplayName string  `json:"display_name"`
	Score       float64 `json:"score"`
	PlanlyScore float64 `json:"planly_score"`
	HasWeek     bool    `json:"has_week"`
}

// LeaderboardResponse ranks users for one week
type LeaderboardResponse struct {
	WeekStart string             `json:"week_start"`
	Entries   []LeaderboardEntry `json:"entries"`
}

// ImportRowError explains why a CSV row was skipped
type ImportRowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// ImportResult summarises a bulk task import
type ImportResult struct {
	Created int              `json:"created"`
	Skipped int              `json:"skipped"`
	Errors  []ImportRowError `json:"errors,omitempty"`
	TaskIDs []uint           `json:"task_ids"`
}

// ValidationIssue is one problem found in a submitted week
type ValidationIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
