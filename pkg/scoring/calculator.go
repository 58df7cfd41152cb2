package scoring

import "math"

// overtimeRate is the share of mu paid per unit of consumed overtime.
const overtimeRate = 0.5

// Calculator scores weeks with a fixed, validated set of params
type Calculator struct {
	params Params
}

// NewCalculator validates the params once and returns a calculator using them
func NewCalculator(p Params) (*Calculator, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Calculator{params: p}, nil
}

// Params returns the params the calculator was built with
func (c *Calculator) Params() Params {
	return c.params
}

// Compute scores a week
func (c *Calculator) Compute(w Week) Breakdown {
	return compute(w, c.params)
}

// Compute scores the input. It never fails: malformed numbers are treated as 0
// and out-of-range params are coerced into range.
func Compute(in Input) Breakdown {
	return compute(in.Week, in.Params.sanitized())
}

func compute(w Week, p Params) Breakdown {
	base := sanitizeNonNegative(w.BaseMinutes)
	leave := sanitizeNonNegative(w.LeaveMinutes)
	overtime := sanitizeNonNegative(w.OvertimeMinutes)
	tAllow := math.Max(0, base-leave)

	b := Breakdown{
		BaseMinutes:     base,
		LeaveMinutes:    leave,
		OvertimeMinutes: overtime,
		TAllow:          tAllow,
		Items:           make([]ItemBreakdown, 0, len(w.Planned)),
	}

	// Σ efficiency * target; the capacity-weighted sum before normalisation
	var weighted float64
	for _, it := range w.Planned {
		row := scoreItem(it, p.Alpha, tAllow)
		b.SumPlannedMinutes = add(b.SumPlannedMinutes, row.TargetMinutes)
		b.SumActualPlanned = add(b.SumActualPlanned, row.ActualMinutes)
		switch {
		case !row.IsCompleted:
			b.OpenMinutes = add(b.OpenMinutes, math.Max(0, row.TargetMinutes-row.ActualMinutes))
		case row.ActualMinutes > 0:
			b.SavedMinutes = add(b.SavedMinutes, math.Max(0, row.TargetMinutes-row.ActualMinutes))
		}
		weighted = add(weighted, row.Efficiency*row.TargetMinutes)
		b.Items = append(b.Items, row)
	}
	for _, it := range w.Unplanned {
		b.UnplannedMinutes = add(b.UnplannedMinutes, sanitizeNonNegative(it.ActualMinutes))
	}
	b.TotalActual = add(b.SumActualPlanned, b.UnplannedMinutes)

	b.OvertimeUsed = math.Min(overtime, math.Max(0, b.TotalActual-tAllow))
	b.OvertimeBonus = finite(ratio(b.OvertimeUsed, tAllow) * p.Mu * overtimeRate)

	if tAllow > 0 {
		b.PlanlyScore = ratio(weighted, math.Max(tAllow, b.SumPlannedMinutes))
	}

	if tAllow > 0 && b.SumPlannedMinutes > 0 {
		b.PenaltyP1 = math.Min(p.BMax, finite(p.Beta*ratio(b.OpenMinutes, tAllow)))

		b.IdleMinutes = math.Max(0, tAllow-math.Max(b.SumPlannedMinutes, b.TotalActual))
		b.PenaltyEASA = finite(p.Kappa * math.Max(0, ratio(b.IdleMinutes, tAllow)-p.EtaMax))

		// time saved on completed items is not incomplete capacity
		b.UncoveredPlannedMinutes = math.Max(0, math.Min(b.SumPlannedMinutes, tAllow)-b.TotalActual-b.SavedMinutes)
		b.IncompleteCapPenaltyRaw = finite(p.IncompletePenalty * ratio(b.UncoveredPlannedMinutes, tAllow))
	}

	if tAllow > 0 {
		excess := math.Max(0, tAllow-b.TotalActual)
		savedBonus := finite(p.Lambda * ratio(math.Min(b.SavedMinutes, excess), tAllow))

		b.FreeAllowance = math.Max(0, tAllow-b.SumPlannedMinutes)
		b.RemainingUnplannedPct = finite(math.Max(0, ratio(b.UnplannedMinutes-b.FreeAllowance, tAllow)*100))
		b.UnplannedBonus = finite(p.Lambda * b.RemainingUnplannedPct / 100)

		b.BonusB = math.Min(p.BMax, finite(savedBonus+b.UnplannedBonus))
	}

	b.RawScore = finite(100 * (b.PlanlyScore + b.BonusB + b.OvertimeBonus - b.PenaltyP1 - b.PenaltyEASA - b.IncompleteCapPenaltyRaw))
	b.Score = clamp(b.RawScore, 0, p.ScoreCap)
	return b
}

// scoreItem applies the completion and penalty rules to one planned item.
func scoreItem(it PlannedItem, alpha, tAllow float64) ItemBreakdown {
	t := sanitizeNonNegative(it.TargetMinutes)
	a := sanitizeNonNegative(it.ActualMinutes)
	row := ItemBreakdown{
		Name:          it.Name,
		TargetMinutes: t,
		ActualMinutes: a,
		IsCompleted:   it.IsCompleted,
		Weight:        finite(ratio(t, tAllow) * 100),
	}

	switch {
	case a == 0:
		// untouched: no credit
		return row
	case it.IsCompleted:
		row.EffectiveActual = a
	case a > t:
		row.Penalty = finite((a - t) + alpha*t)
	case a == t:
		row.Penalty = finite(alpha * t)
	default:
		row.Penalty = finite((t - a) + alpha*t)
	}
	if !it.IsCompleted {
		row.EffectiveActual = add(t, row.Penalty)
	}

	// finishing under target is rewarded through BonusB, not above-1 efficiency
	row.RawEfficiency = ratio(t, row.EffectiveActual)
	row.Efficiency = math.Min(1, row.RawEfficiency)
	row.Contribution = row.Efficiency * row.Weight
	return row
}
