// Package scoring computes the weekly performance score from planned and
// unplanned work, capacity, leave and overtime.
package scoring

// PlannedItem is one weekly goal with a target effort and the reported actual effort.
type PlannedItem struct {
	Name          string  `json:"name" yaml:"name"`
	TargetMinutes float64 `json:"target_minutes" yaml:"target_minutes"`
	ActualMinutes float64 `json:"actual_minutes" yaml:"actual_minutes"`
	IsCompleted   bool    `json:"is_completed" yaml:"is_completed"`
}

// UnplannedItem is ad-hoc work logged without a target.
type UnplannedItem struct {
	Name          string  `json:"name" yaml:"name"`
	ActualMinutes float64 `json:"actual_minutes" yaml:"actual_minutes"`
}

// Week is everything a user reports for one week.
type Week struct {
	BaseMinutes     float64         `json:"base_minutes" yaml:"base_minutes"`
	LeaveMinutes    float64         `json:"leave_minutes" yaml:"leave_minutes"`
	OvertimeMinutes float64         `json:"overtime_minutes" yaml:"overtime_minutes"`
	Planned         []PlannedItem   `json:"planned" yaml:"planned"`
	Unplanned       []UnplannedItem `json:"unplanned" yaml:"unplanned"`
}

// Input pairs a week with the params to score it with.
type Input struct {
	Week   Week
	Params Params
}

// ItemBreakdown is the per-row accounting of a planned item.
type ItemBreakdown struct {
	Name            string  `json:"name"`
	TargetMinutes   float64 `json:"target_minutes"`
	ActualMinutes   float64 `json:"actual_minutes"`
	IsCompleted     bool    `json:"is_completed"`
	Penalty         float64 `json:"penalty_minutes"`
	EffectiveActual float64 `json:"effective_actual_minutes"`
	RawEfficiency   float64 `json:"raw_efficiency"` // target / effective actual, uncapped
	Efficiency      float64 `json:"efficiency"`     // RawEfficiency capped at 1
	Weight          float64 `json:"weight"`         // share of capacity, percent
	Contribution    float64 `json:"contribution"`   // Efficiency * Weight, percent
}

// Breakdown holds every intermediate quantity of a score computation.
// Fractions (PlanlyScore, penalties, bonuses) are on a 0-1 scale; Score is in points.
type Breakdown struct {
	BaseMinutes     float64 `json:"base_minutes"`
	LeaveMinutes    float64 `json:"leave_minutes"`
	OvertimeMinutes float64 `json:"overtime_minutes"`
	TAllow          float64 `json:"t_allow"`

	SumPlannedMinutes float64 `json:"sum_planned_minutes"`
	SumActualPlanned  float64 `json:"sum_actual_planned"`
	UnplannedMinutes  float64 `json:"unplanned_minutes"`
	TotalActual       float64 `json:"total_actual"`

	OvertimeUsed  float64 `json:"overtime_used"`
	OvertimeBonus float64 `json:"overtime_bonus"`

	Items       []ItemBreakdown `json:"items"`
	PlanlyScore float64         `json:"planly_score"`

	OpenMinutes             float64 `json:"open_minutes"`
	PenaltyP1               float64 `json:"penalty_p1"`
	IdleMinutes             float64 `json:"idle_minutes"`
	PenaltyEASA             float64 `json:"penalty_easa"`
	UncoveredPlannedMinutes float64 `json:"uncovered_planned_minutes"`
	IncompleteCapPenaltyRaw float64 `json:"incomplete_cap_penalty_raw"`

	SavedMinutes          float64 `json:"saved_minutes"`
	FreeAllowance         float64 `json:"free_allowance"`
	RemainingUnplannedPct float64 `json:"remaining_unplanned_pct"`
	UnplannedBonus        float64 `json:"unplanned_bonus"`
	BonusB                float64 `json:"bonus_b"`

	RawScore float64 `json:"raw_score"`
	Score    float64 `json:"score"`
}

// Term is one labelled component of the score, in percentage points.
type Term struct {
	Label   string  `json:"label"`
	Percent float64 `json:"percent"`
}

// Terms lists the signed components of the final score, rounded for display.
func (b Breakdown) Terms() []Term {
	return []Term{
		{Label: "planned", Percent: Round(100*b.PlanlyScore, 2)},
		{Label: "bonus", Percent: Round(100*b.BonusB, 2)},
		{Label: "overtime", Percent: Round(100*b.OvertimeBonus, 2)},
		{Label: "open work", Percent: Round(-100*b.PenaltyP1, 2)},
		{Label: "idle capacity", Percent: Round(-100*b.PenaltyEASA, 2)},
		{Label: "incomplete capacity", Percent: Round(-100*b.IncompleteCapPenaltyRaw, 2)},
	}
}
