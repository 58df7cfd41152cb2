package scoring

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// rejects NaN and ±Inf; gte and gt alone let +Inf through
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
	return v
}

// Params holds the tunable weights of the weekly score.
// Weights are non-negative; BMax and EtaMax are fractions in [0,1].
type Params struct {
	Alpha             float64 `json:"alpha" yaml:"alpha" validate:"finite,gte=0"`                           // flat inefficiency tax, fraction of target
	Beta              float64 `json:"beta" yaml:"beta" validate:"finite,gte=0"`                             // open-work penalty slope
	BMax              float64 `json:"b_max" yaml:"b_max" validate:"finite,gte=0,lte=1"`                     // cap on BonusB and PenaltyP1
	EtaMax            float64 `json:"eta_max" yaml:"eta_max" validate:"finite,gte=0,lte=1"`                 // idle fraction tolerated before PenaltyEASA
	Kappa             float64 `json:"kappa" yaml:"kappa" validate:"finite,gte=0"`                           // idle penalty slope
	Lambda            float64 `json:"lambda" yaml:"lambda" validate:"finite,gte=0"`                         // bonus slope
	Mu                float64 `json:"mu" yaml:"mu" validate:"finite,gte=0"`                                 // overtime weight
	ScoreCap          float64 `json:"score_cap" yaml:"score_cap" validate:"finite,gt=0"`                    // upper bound of Score, in points
	IncompletePenalty float64 `json:"incomplete_penalty" yaml:"incomplete_penalty" validate:"finite,gte=0"` // weight of planned capacity left unworked
}

// DefaultParams returns the constants the application scores with.
func DefaultParams() Params {
	return Params{
		Alpha:             0.1,
		Beta:              0.5,
		BMax:              0.1,
		EtaMax:            0.2,
		Kappa:             0.5,
		Lambda:            0.5,
		Mu:                1.0,
		ScoreCap:          120,
		IncompletePenalty: 0.25,
	}
}

// Validate checks every field against its documented range.
func (p Params) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid score params: %w", err)
	}
	return nil
}

// sanitized coerces every field into range so Compute stays total
// even with unvalidated params.
func (p Params) sanitized() Params {
	return Params{
		Alpha:             sanitizeNonNegative(p.Alpha),
		Beta:              sanitizeNonNegative(p.Beta),
		BMax:              clamp(sanitizeNonNegative(p.BMax), 0, 1),
		EtaMax:            clamp(sanitizeNonNegative(p.EtaMax), 0, 1),
		Kappa:             sanitizeNonNegative(p.Kappa),
		Lambda:            sanitizeNonNegative(p.Lambda),
		Mu:                sanitizeNonNegative(p.Mu),
		ScoreCap:          sanitizeNonNegative(p.ScoreCap),
		IncompletePenalty: sanitizeNonNegative(p.IncompletePenalty),
	}
}
