package scoring

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-9

func score(w Week) Breakdown {
	return Compute(Input{Week: w, Params: DefaultParams()})
}

func TestCompute_CapacityFloor(t *testing.T) {
	tests := []struct {
		name   string
		base   float64
		leave  float64
		expect float64
	}{
		{"no leave", 2700, 0, 2700},
		{"partial leave", 2700, 480, 2220},
		{"all leave", 2700, 2700, 0},
		{"leave above base", 100, 300, 0},
		{"negative leave", 100, -50, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := score(Week{BaseMinutes: tt.base, LeaveMinutes: tt.leave})
			assert.Equal(t, tt.expect, b.TAllow)
			assert.GreaterOrEqual(t, b.TAllow, 0.0)
		})
	}
}

func TestCompute_EmptyWeek(t *testing.T) {
	b := score(Week{BaseMinutes: 2700})

	assert.Equal(t, 2700.0, b.TAllow)
	assert.Zero(t, b.Score)
	assert.Zero(t, b.PlanlyScore)
	assert.Zero(t, b.PenaltyP1)
	assert.Zero(t, b.PenaltyEASA)
	assert.Zero(t, b.IncompleteCapPenaltyRaw)
	assert.Zero(t, b.BonusB)
	assert.Zero(t, b.OvertimeBonus)
	assert.Empty(t, b.Items)
}

func TestCompute_UntouchedItemHasNoCredit(t *testing.T) {
	for _, base := range []float64{100, 2700} {
		b := score(Week{
			BaseMinutes: base,
			Planned:     []PlannedItem{{Name: "design review", TargetMinutes: 100}},
		})
		require.Len(t, b.Items, 1)
		assert.Zero(t, b.Items[0].Efficiency)
		assert.Zero(t, b.Items[0].Contribution)
		assert.Zero(t, b.PlanlyScore)
	}
}

func TestCompute_CompletedExactIsOptimal(t *testing.T) {
	done := score(Week{
		BaseMinutes: 100,
		Planned:     []PlannedItem{{Name: "a", TargetMinutes: 100, ActualMinutes: 100, IsCompleted: true}},
	})
	require.Len(t, done.Items, 1)
	assert.Equal(t, 1.0, done.Items[0].Efficiency)
	assert.Equal(t, 100.0, done.Items[0].Weight)
	assert.Equal(t, 100.0, done.Items[0].Contribution)
	assert.Equal(t, 1.0, done.PlanlyScore)
	assert.InDelta(t, 100.0, done.Score, eps)

	open := score(Week{
		BaseMinutes: 100,
		Planned:     []PlannedItem{{Name: "a", TargetMinutes: 100, ActualMinutes: 100}},
	})
	assert.InDelta(t, 10.0, open.Items[0].Penalty, eps)
	assert.InDelta(t, 1/1.1, open.PlanlyScore, eps)
	assert.Less(t, open.PlanlyScore, done.PlanlyScore)
}

func TestCompute_OverrunLowersEfficiency(t *testing.T) {
	prev := math.Inf(1)
	for _, actual := range []float64{100, 101, 120, 150, 300, 1000} {
		b := score(Week{
			BaseMinutes: 2700,
			Planned:     []PlannedItem{{TargetMinutes: 100, ActualMinutes: actual}},
		})
		eff := b.Items[0].Efficiency
		assert.Less(t, eff, prev, "actual=%v", actual)
		prev = eff
	}
}

func TestScoreItem_Branches(t *testing.T) {
	tests := []struct {
		name      string
		item      PlannedItem
		penalty   float64
		effective float64
		eff       float64
	}{
		{"untouched", PlannedItem{TargetMinutes: 100}, 0, 0, 0},
		{"untouched but completed", PlannedItem{TargetMinutes: 100, IsCompleted: true}, 0, 0, 0},
		{"completed over target", PlannedItem{TargetMinutes: 100, ActualMinutes: 125, IsCompleted: true}, 0, 125, 0.8},
		{"completed under target", PlannedItem{TargetMinutes: 100, ActualMinutes: 50, IsCompleted: true}, 0, 50, 1},
		{"overrun", PlannedItem{TargetMinutes: 100, ActualMinutes: 150}, 60, 160, 0.625},
		{"exact not completed", PlannedItem{TargetMinutes: 100, ActualMinutes: 100}, 10, 110, 100.0 / 110},
		{"shortage", PlannedItem{TargetMinutes: 100, ActualMinutes: 50}, 60, 160, 0.625},
		{"zero target with work", PlannedItem{ActualMinutes: 30}, 30, 30, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := scoreItem(tt.item, 0.1, 1000)
			assert.InDelta(t, tt.penalty, row.Penalty, eps)
			assert.InDelta(t, tt.effective, row.EffectiveActual, eps)
			assert.InDelta(t, tt.eff, row.Efficiency, eps)
			assert.InDelta(t, row.Efficiency*row.Weight, row.Contribution, eps)
		})
	}
}

func TestCompute_ScoreIsClamped(t *testing.T) {
	capped := DefaultParams()
	capped.ScoreCap = 50

	inputs := []Input{
		{Week: Week{BaseMinutes: 2700, Planned: []PlannedItem{{TargetMinutes: 2700}}}, Params: DefaultParams()},
		{Week: Week{BaseMinutes: 100, Planned: []PlannedItem{{TargetMinutes: 100, ActualMinutes: 100, IsCompleted: true}}}, Params: capped},
		{Week: Week{
			BaseMinutes:     100,
			OvertimeMinutes: 1e6,
			Planned:         []PlannedItem{{TargetMinutes: 100, ActualMinutes: 100, IsCompleted: true}},
			Unplanned:       []UnplannedItem{{ActualMinutes: 1e6}},
		}, Params: DefaultParams()},
		{Week: Week{BaseMinutes: math.NaN(), LeaveMinutes: math.Inf(1)}, Params: Params{ScoreCap: math.NaN()}},
		{Week: Week{BaseMinutes: 1, Planned: []PlannedItem{{TargetMinutes: math.MaxFloat64, ActualMinutes: math.MaxFloat64}, {TargetMinutes: math.MaxFloat64, ActualMinutes: math.MaxFloat64}}}, Params: DefaultParams()},
	}
	for i, in := range inputs {
		b := Compute(in)
		limit := sanitizeNonNegative(in.Params.ScoreCap)
		assert.GreaterOrEqual(t, b.Score, 0.0, "input %d", i)
		assert.LessOrEqual(t, b.Score, limit, "input %d", i)
	}

	b := Compute(inputs[0])
	assert.InDelta(t, -35.0, b.RawScore, eps)
	assert.Zero(t, b.Score)

	b = Compute(inputs[1])
	assert.Equal(t, 50.0, b.Score)
}

func TestCompute_OverflowStaysFinite(t *testing.T) {
	huge := []PlannedItem{
		{TargetMinutes: 1e308, ActualMinutes: 1e308},
		{TargetMinutes: 1e308, ActualMinutes: 1e308},
	}
	weeks := []Week{
		{BaseMinutes: 1, Planned: huge},
		{BaseMinutes: 2700, Planned: huge, Unplanned: []UnplannedItem{{ActualMinutes: 1e308}, {ActualMinutes: 1e308}}},
		{BaseMinutes: 1e308, OvertimeMinutes: 1e308, Planned: []PlannedItem{{TargetMinutes: 1e308, ActualMinutes: 1e308, IsCompleted: true}}, Unplanned: []UnplannedItem{{ActualMinutes: 1e308}}},
	}
	for i, w := range weeks {
		b := score(w)

		_, err := json.Marshal(b)
		require.NoError(t, err, "week %d", i)

		assert.GreaterOrEqual(t, b.PlanlyScore, 0.0, "week %d", i)
		assert.LessOrEqual(t, b.PlanlyScore, 1.0, "week %d", i)
		assert.LessOrEqual(t, b.PenaltyP1, DefaultParams().BMax, "week %d", i)
		assert.LessOrEqual(t, b.BonusB, DefaultParams().BMax, "week %d", i)
		assert.False(t, math.IsInf(b.TotalActual, 0), "week %d", i)
		assert.False(t, math.IsInf(b.RawScore, 0), "week %d", i)
		assert.GreaterOrEqual(t, b.Score, 0.0, "week %d", i)
		assert.LessOrEqual(t, b.Score, DefaultParams().ScoreCap, "week %d", i)
		for _, row := range b.Items {
			assert.False(t, math.IsInf(row.EffectiveActual, 0), "week %d", i)
			assert.False(t, math.IsInf(row.Weight, 0), "week %d", i)
		}
	}
}

func TestCompute_OvertimeAttribution(t *testing.T) {
	tests := []struct {
		name     string
		overtime float64
		unplan   float64
		used     float64
	}{
		{"overtime smaller than overage", 100, 200, 100},
		{"overtime larger than overage", 1000, 200, 500},
		{"no unplanned work", 1000, -1, 300},
		{"no overtime declared", 0, 200, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := Week{
				BaseMinutes:     2700,
				OvertimeMinutes: tt.overtime,
				Planned:         []PlannedItem{{TargetMinutes: 2700, ActualMinutes: 3000, IsCompleted: true}},
			}
			if tt.unplan >= 0 {
				w.Unplanned = []UnplannedItem{{ActualMinutes: tt.unplan}}
			}
			b := score(w)

			assert.Equal(t, tt.used, b.OvertimeUsed)
			assert.LessOrEqual(t, b.OvertimeUsed, math.Min(tt.overtime, math.Max(0, b.TotalActual-b.TAllow)))
			assert.InDelta(t, tt.used/2700*0.5, b.OvertimeBonus, eps)
		})
	}

	b := score(Week{
		BaseMinutes:     2700,
		OvertimeMinutes: 600,
		Planned:         []PlannedItem{{TargetMinutes: 2000, ActualMinutes: 2000, IsCompleted: true}},
	})
	assert.Zero(t, b.OvertimeUsed)
	assert.Zero(t, b.OvertimeBonus)
}

func TestCompute_Idempotent(t *testing.T) {
	in := Input{
		Week: Week{
			BaseMinutes:     2700,
			LeaveMinutes:    240,
			OvertimeMinutes: 90,
			Planned: []PlannedItem{
				{Name: "release", TargetMinutes: 900, ActualMinutes: 1000},
				{Name: "docs", TargetMinutes: 300, ActualMinutes: 200, IsCompleted: true},
				{Name: "triage", TargetMinutes: 600},
			},
			Unplanned: []UnplannedItem{{Name: "incident", ActualMinutes: 480}},
		},
		Params: DefaultParams(),
	}
	planned := append([]PlannedItem(nil), in.Week.Planned...)

	first := Compute(in)
	second := Compute(in)

	assert.Equal(t, first, second)
	assert.Equal(t, planned, in.Week.Planned)
}

func TestCompute_FullMarksWeek(t *testing.T) {
	b := score(Week{
		BaseMinutes: 2700,
		Planned:     []PlannedItem{{Name: "week", TargetMinutes: 2700, ActualMinutes: 2700, IsCompleted: true}},
	})

	assert.Equal(t, 2700.0, b.TAllow)
	assert.Equal(t, 2700.0, b.SumPlannedMinutes)
	assert.Equal(t, 1.0, b.PlanlyScore)
	assert.Zero(t, b.PenaltyP1)
	assert.Zero(t, b.PenaltyEASA)
	assert.Zero(t, b.IncompleteCapPenaltyRaw)
	assert.Zero(t, b.BonusB)
	assert.InDelta(t, 100.0, b.Score, eps)
}

func TestCompute_SanitizesMalformedNumbers(t *testing.T) {
	b := score(Week{
		BaseMinutes:     1000,
		LeaveMinutes:    math.NaN(),
		OvertimeMinutes: -20,
		Planned: []PlannedItem{
			{TargetMinutes: -100, ActualMinutes: 50},
			{TargetMinutes: math.Inf(1), ActualMinutes: math.NaN()},
		},
		Unplanned: []UnplannedItem{{ActualMinutes: math.Inf(-1)}, {}},
	})

	assert.Equal(t, 1000.0, b.TAllow)
	assert.Zero(t, b.LeaveMinutes)
	assert.Zero(t, b.OvertimeMinutes)
	assert.Zero(t, b.SumPlannedMinutes)
	assert.Equal(t, 50.0, b.SumActualPlanned)
	assert.Zero(t, b.UnplannedMinutes)
	assert.False(t, math.IsNaN(b.Score))
}

func TestCompute_IdleCapacityPenalty(t *testing.T) {
	b := score(Week{
		BaseMinutes: 1000,
		Planned:     []PlannedItem{{TargetMinutes: 300, ActualMinutes: 300, IsCompleted: true}},
	})

	assert.InDelta(t, 0.3, b.PlanlyScore, eps)
	assert.Equal(t, 700.0, b.IdleMinutes)
	assert.InDelta(t, 0.25, b.PenaltyEASA, eps)
	assert.Zero(t, b.IncompleteCapPenaltyRaw)
	assert.InDelta(t, 5.0, b.Score, eps)
}

func TestCompute_OpenWorkPenalties(t *testing.T) {
	b := score(Week{
		BaseMinutes: 1000,
		Planned: []PlannedItem{
			{TargetMinutes: 600, ActualMinutes: 600, IsCompleted: true},
			{TargetMinutes: 400, ActualMinutes: 100},
		},
	})

	assert.Equal(t, 300.0, b.OpenMinutes)
	assert.InDelta(t, 0.1, b.PenaltyP1, eps) // 0.5*0.3 capped at BMax
	assert.Equal(t, 300.0, b.UncoveredPlannedMinutes)
	assert.InDelta(t, 0.075, b.IncompleteCapPenaltyRaw, eps)
	assert.Zero(t, b.PenaltyEASA)
}

func TestCompute_TimeSavedBonus(t *testing.T) {
	b := score(Week{
		BaseMinutes: 1000,
		Planned:     []PlannedItem{{TargetMinutes: 1000, ActualMinutes: 800, IsCompleted: true}},
	})

	assert.Equal(t, 1.0, b.Items[0].Efficiency)
	assert.InDelta(t, 1.25, b.Items[0].RawEfficiency, eps)
	assert.Equal(t, 200.0, b.SavedMinutes)
	assert.Zero(t, b.IncompleteCapPenaltyRaw)
	assert.InDelta(t, 0.1, b.BonusB, eps)
	assert.InDelta(t, 110.0, b.Score, eps)
}

func TestCompute_RemainingUnplannedBonus(t *testing.T) {
	b := score(Week{
		BaseMinutes: 1000,
		Planned:     []PlannedItem{{TargetMinutes: 500, ActualMinutes: 500, IsCompleted: true}},
		Unplanned:   []UnplannedItem{{Name: "support", ActualMinutes: 900}},
	})

	assert.Equal(t, 500.0, b.FreeAllowance)
	assert.InDelta(t, 40.0, b.RemainingUnplannedPct, eps)
	assert.InDelta(t, 0.2, b.UnplannedBonus, eps)
	assert.InDelta(t, 0.1, b.BonusB, eps)
	assert.InDelta(t, 60.0, b.Score, eps)
}

func TestCalculator_ValidatesParams(t *testing.T) {
	_, err := NewCalculator(DefaultParams())
	require.NoError(t, err)

	bad := []func(*Params){
		func(p *Params) { p.BMax = 2 },
		func(p *Params) { p.EtaMax = -0.1 },
		func(p *Params) { p.ScoreCap = 0 },
		func(p *Params) { p.Alpha = math.NaN() },
		func(p *Params) { p.Mu = -1 },
		func(p *Params) { p.Kappa = math.Inf(1) },
		func(p *Params) { p.ScoreCap = math.Inf(1) },
	}
	for i, mutate := range bad {
		p := DefaultParams()
		mutate(&p)
		_, err := NewCalculator(p)
		assert.Error(t, err, "case %d", i)
	}
}

func TestCalculator_MatchesCompute(t *testing.T) {
	c, err := NewCalculator(DefaultParams())
	require.NoError(t, err)

	w := Week{
		BaseMinutes: 2400,
		Planned:     []PlannedItem{{TargetMinutes: 1200, ActualMinutes: 1300}},
		Unplanned:   []UnplannedItem{{ActualMinutes: 200}},
	}
	assert.Equal(t, Compute(Input{Week: w, Params: DefaultParams()}), c.Compute(w))
	assert.Equal(t, DefaultParams(), c.Params())
}

func TestTerms(t *testing.T) {
	b := score(Week{
		BaseMinutes: 1000,
		Planned:     []PlannedItem{{TargetMinutes: 300, ActualMinutes: 300, IsCompleted: true}},
	})
	terms := b.Terms()
	require.Len(t, terms, 6)
	assert.Equal(t, Term{Label: "planned", Percent: 30}, terms[0])
	assert.Equal(t, Term{Label: "idle capacity", Percent: -25}, terms[4])
}

func TestRound(t *testing.T) {
	assert.Equal(t, 33.33, Round(100.0/3, 2))
	assert.Equal(t, 66.7, Round(200.0/3, 1))
	assert.Equal(t, -2.5, Round(-2.46, 1))
}
