package database

import (
	"errors"

	"github.com/arnavshah/weekly-score-api/pkg/scoring"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func byPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position")
}

// FindWeek loads a user's week with its rows in entry order. It returns
// gorm.ErrRecordNotFound when nothing was saved for that week.
func FindWeek(db *gorm.DB, userID uint, weekStart string) (*WeeklyGoal, error) {
	var goal WeeklyGoal
	err := db.Preload("Planned", byPosition).
		Preload("Unplanned", byPosition).
		Where("user_id = ? AND week_start = ?", userID, weekStart).
		First(&goal).Error
	if err != nil {
		return nil, err
	}
	return &goal, nil
}

// WeeksFor loads every saved week starting on weekStart, keyed by user ID
func WeeksFor(db *gorm.DB, weekStart string) (map[uint]*WeeklyGoal, error) {
	var goals []WeeklyGoal
	err := db.Preload("Planned", byPosition).
		Preload("Unplanned", byPosition).
		Where("week_start = ?", weekStart).
		Find(&goals).Error
	if err != nil {
		return nil, err
	}

	byUser := make(map[uint]*WeeklyGoal, len(goals))
	for i := range goals {
		byUser[goals[i].UserID] = &goals[i]
	}
	return byUser, nil
}

// SaveWeek replaces the stored week for goal.UserID and goal.WeekStart with goal.
// Rows are renumbered in slice order.
func SaveWeek(db *gorm.DB, goal *WeeklyGoal) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var existing WeeklyGoal
		err := tx.Where("user_id = ? AND week_start = ?", goal.UserID, goal.WeekStart).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Omit(clause.Associations).Create(goal).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			goal.ID = existing.ID
			goal.CreatedAt = existing.CreatedAt
			if err := tx.Model(&existing).Updates(map[string]interface{}{
				"leave_minutes":    goal.LeaveMinutes,
				"overtime_minutes": goal.OvertimeMinutes,
			}).Error; err != nil {
				return err
			}
			goal.UpdatedAt = existing.UpdatedAt
			if err := tx.Where("weekly_goal_id = ?", goal.ID).Delete(&PlannedGoal{}).Error; err != nil {
				return err
			}
			if err := tx.Where("weekly_goal_id = ?", goal.ID).Delete(&UnplannedEntry{}).Error; err != nil {
				return err
			}
		}

		for i := range goal.Planned {
			goal.Planned[i].ID = 0
			goal.Planned[i].WeeklyGoalID = goal.ID
			goal.Planned[i].Position = i
		}
		for i := range goal.Unplanned {
			goal.Unplanned[i].ID = 0
			goal.Unplanned[i].WeeklyGoalID = goal.ID
			goal.Unplanned[i].Position = i
		}
		if len(goal.Planned) > 0 {
			if err := tx.Create(&goal.Planned).Error; err != nil {
				return err
			}
		}
		if len(goal.Unplanned) > 0 {
			if err := tx.Create(&goal.Unplanned).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ScoringWeek converts the stored week into calculator input
func (g *WeeklyGoal) ScoringWeek(baseMinutes float64) scoring.Week {
	w := scoring.Week{
		BaseMinutes:     baseMinutes,
		LeaveMinutes:    g.LeaveMinutes,
		OvertimeMinutes: g.OvertimeMinutes,
		Planned:         make([]scoring.PlannedItem, 0, len(g.Planned)),
		Unplanned:       make([]scoring.UnplannedItem, 0, len(g.Unplanned)),
	}
	for _, p := range g.Planned {
		w.Planned = append(w.Planned, scoring.PlannedItem{
			Name:          p.Name,
			TargetMinutes: p.TargetMinutes,
			ActualMinutes: p.ActualMinutes,
			IsCompleted:   p.IsCompleted,
		})
	}
	for _, u := range g.Unplanned {
		w.Unplanned = append(w.Unplanned, scoring.UnplannedItem{
			Name:          u.Name,
			ActualMinutes: u.ActualMinutes,
		})
	}
	return w
}
