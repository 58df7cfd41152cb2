package handlers

import (
	"net/http"
	"sort"

	"github.com/arnavshah/weekly-score-api/internal/week"
	"github.com/arnavshah/weekly-score-api/pkg/database"
	"github.com/arnavshah/weekly-score-api/pkg/models"
	"github.com/arnavshah/weekly-score-api/pkg/scoring"
	"github.com/gin-gonic/gin"
)

// leaderboard scores every user for the week. Users who saved nothing score 0.
func (h *Handler) leaderboard(weekStart string) (*models.LeaderboardResponse, error) {
	var users []database.User
	if err := h.DB.Find(&users).Error; err != nil {
		return nil, err
	}
	weeks, err := database.WeeksFor(h.DB, weekStart)
	if err != nil {
		return nil, err
	}

	entries := make([]models.LeaderboardEntry, 0, len(users))
	for _, u := range users {
		e := models.LeaderboardEntry{
			UserID:      u.ID,
			Username:    u.Username,
			DisplayName: u.DisplayName,
		}
		if goal, ok := weeks[u.ID]; ok {
			b := h.Calc.Compute(goal.ScoringWeek(h.Config.BaseWeekMinutes))
			e.Score = scoring.Round(b.Score, 2)
			e.PlanlyScore = scoring.Round(b.PlanlyScore, 4)
			e.HasWeek = true
		}
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Username < entries[j].Username
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}

	return &models.LeaderboardResponse{WeekStart: weekStart, Entries: entries}, nil
}

// weekQuery reads ?week=, defaulting to the current week
func weekQuery(c *gin.Context) (string, error) {
	raw := c.Query("week")
	if raw == "" {
		return week.Current(), nil
	}
	key, err := week.Parse(raw)
	if err != nil {
		return "", &ErrValidation{Field: "week", Message: "expected YYYY-MM-DD"}
	}
	return key, nil
}

// Leaderboard ranks all users for a week
func (h *Handler) Leaderboard(c *gin.Context) {
	key, err := weekQuery(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	board, err := h.leaderboard(key)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, board)
}

// IntegrationLeaderboard serves the leaderboard to integration keys and
// records the weeks scored against the key's usage
func (h *Handler) IntegrationLeaderboard(c *gin.Context) {
	key, err := weekQuery(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	board, err := h.leaderboard(key)
	if err != nil {
		h.respondError(c, err)
		return
	}

	scored := 0
	for _, e := range board.Entries {
		if e.HasWeek {
			scored++
		}
	}
	h.RecordUsage(c, scored)

	c.JSON(http.StatusOK, board)
}
