package handlers

import (
	"errors"
	"math"
	"net/http"
	"strings"

	"github.com/arnavshah/weekly-score-api/internal/week"
	"github.com/arnavshah/weekly-score-api/pkg/database"
	"github.com/arnavshah/weekly-score-api/pkg/models"
	"github.com/arnavshah/weekly-score-api/pkg/scoring"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func nonNegative(x float64) float64 {
	if math.IsNaN(x) || x < 0 {
		return 0
	}
	return x
}

// weekParam resolves the :weekStart path segment to the key of its week
func weekParam(c *gin.Context) (string, error) {
	key, err := week.Parse(c.Param("weekStart"))
	if err != nil {
		return "", &ErrValidation{Field: "weekStart", Message: "expected YYYY-MM-DD"}
	}
	return key, nil
}

// goalFromRequest builds the stored form of a submitted week. Leave is
// clamped to [0, base] and every minute field to >= 0.
func goalFromRequest(userID uint, weekStart string, base float64, req *models.WeekRequest) *database.WeeklyGoal {
	goal := &database.WeeklyGoal{
		UserID:          userID,
		WeekStart:       weekStart,
		LeaveMinutes:    math.Min(nonNegative(req.LeaveMinutes), base),
		OvertimeMinutes: nonNegative(req.OvertimeMinutes),
		Planned:         make([]database.PlannedGoal, 0, len(req.Planned)),
		Unplanned:       make([]database.UnplannedEntry, 0, len(req.Unplanned)),
	}
	for _, p := range req.Planned {
		goal.Planned = append(goal.Planned, database.PlannedGoal{
			Name:          strings.TrimSpace(p.Name),
			TargetMinutes: nonNegative(p.TargetMinutes),
			ActualMinutes: nonNegative(p.ActualMinutes),
			IsCompleted:   p.IsCompleted,
		})
	}
	for _, u := range req.Unplanned {
		goal.Unplanned = append(goal.Unplanned, database.UnplannedEntry{
			Name:          strings.TrimSpace(u.Name),
			ActualMinutes: nonNegative(u.ActualMinutes),
		})
	}
	return goal
}

func (h *Handler) weekResponse(goal *database.WeeklyGoal, saved bool) models.WeekResponse {
	b := h.Calc.Compute(goal.ScoringWeek(h.Config.BaseWeekMinutes))
	planned := goal.Planned
	if planned == nil {
		planned = []database.PlannedGoal{}
	}
	unplanned := goal.Unplanned
	if unplanned == nil {
		unplanned = []database.UnplannedEntry{}
	}
	return models.WeekResponse{
		UserID:          goal.UserID,
		WeekStart:       goal.WeekStart,
		Saved:           saved,
		LeaveMinutes:    goal.LeaveMinutes,
		OvertimeMinutes: goal.OvertimeMinutes,
		Planned:         planned,
		Unplanned:       unplanned,
		Breakdown:       b,
		Terms:           b.Terms(),
	}
}

// GetWeek returns the caller's week with its live score. A week that was
// never saved comes back empty.
func (h *Handler) GetWeek(c *gin.Context) {
	key, err := weekParam(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	user := currentUser(c)
	goal, err := database.FindWeek(h.DB, user.ID, key)
	saved := true
	if errors.Is(err, gorm.ErrRecordNotFound) {
		goal = &database.WeeklyGoal{UserID: user.ID, WeekStart: key}
		saved = false
	} else if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.weekResponse(goal, saved))
}

// PutWeek replaces the caller's week and returns it scored
func (h *Handler) PutWeek(c *gin.Context) {
	key, err := weekParam(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var req models.WeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := currentUser(c)
	goal := goalFromRequest(user.ID, key, h.Config.BaseWeekMinutes, &req)
	if err := database.SaveWeek(h.DB, goal); err != nil {
		h.respondError(c, err)
		return
	}

	resp := h.weekResponse(goal, true)
	h.logger(c).Info("week saved",
		"user_id", user.ID,
		"week_start", key,
		"planned", len(goal.Planned),
		"unplanned", len(goal.Unplanned),
		"score", scoring.Round(resp.Breakdown.Score, 2),
	)
	c.JSON(http.StatusOK, resp)
}

// ScorePreview scores a submitted week without storing it
func (h *Handler) ScorePreview(c *gin.Context) {
	var req models.ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	base := h.Config.BaseWeekMinutes
	if req.BaseMinutes != nil {
		base = nonNegative(*req.BaseMinutes)
	}
	goal := goalFromRequest(0, "", base, &req.WeekRequest)
	b := h.Calc.Compute(goal.ScoringWeek(base))
	c.JSON(http.StatusOK, models.ScoreResponse{Breakdown: b, Terms: b.Terms()})
}

// GetParams returns the scoring params and weekly base in effect
func (h *Handler) GetParams(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"params":            h.Calc.Params(),
		"base_week_minutes": h.Config.BaseWeekMinutes,
		"current_week":      week.Current(),
	})
}
