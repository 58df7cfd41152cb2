package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/arnavshah/weekly-score-api/pkg/models"
	"github.com/gin-gonic/gin"
)

// ValidateWeek checks a submitted week for entries that would be stored but
// are probably mistakes. Nothing is saved.
func (h *Handler) ValidateWeek(c *gin.Context) {
	var req models.WeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	issues := weekIssues(&req, h.Config.BaseWeekMinutes)
	c.JSON(http.StatusOK, gin.H{
		"valid":  len(issues) == 0,
		"issues": issues,
		"stats": gin.H{
			"planned_count":   len(req.Planned),
			"unplanned_count": len(req.Unplanned),
		},
	})
}

func weekIssues(req *models.WeekRequest, base float64) []models.ValidationIssue {
	issues := []models.ValidationIssue{}
	add := func(field, format string, args ...interface{}) {
		issues = append(issues, models.ValidationIssue{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if req.LeaveMinutes < 0 {
		add("leave_minutes", "negative leave is stored as 0")
	} else if req.LeaveMinutes > base {
		add("leave_minutes", "leave exceeds the %.0f minute week and is capped", base)
	}
	if req.OvertimeMinutes < 0 {
		add("overtime_minutes", "negative overtime is stored as 0")
	}

	// Check for duplicate names
	seen := make(map[string]bool)
	for i, p := range req.Planned {
		field := fmt.Sprintf("planned[%d]", i)
		name := strings.ToLower(strings.TrimSpace(p.Name))
		if name == "" {
			add(field+".name", "planned goal has no name")
		} else if seen[name] {
			add(field+".name", "duplicate planned goal: %s", p.Name)
		}
		seen[name] = true

		if p.TargetMinutes <= 0 {
			add(field+".target_minutes", "goal without a target adds nothing to the score")
		}
		if p.ActualMinutes < 0 {
			add(field+".actual_minutes", "negative minutes are stored as 0")
		}
		if p.IsCompleted && p.ActualMinutes <= 0 {
			add(field+".is_completed", "completed goal has no recorded minutes and earns no credit")
		}
	}

	for i, u := range req.Unplanned {
		field := fmt.Sprintf("unplanned[%d]", i)
		if strings.TrimSpace(u.Name) == "" {
			add(field+".name", "unplanned entry has no name")
		}
		if u.ActualMinutes <= 0 {
			add(field+".actual_minutes", "unplanned entry has no minutes")
		}
	}

	return issues
}
