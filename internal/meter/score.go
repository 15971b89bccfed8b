package meter

// #region imports
import (
	"errors"
	"math"

	"github.com/s86039924-byte/stress-dost-engine/internal/trigger"
)

// #endregion

// #region errors

// ErrInvalidOption reports an option index that is out of range, or an
// option-based response against a trigger that carries no options.
var ErrInvalidOption = errors.New("invalid option")

// #endregion

// #region config

// Config holds the tunable scoring constants. Defaults follow the documented
// calibration; everything here is injected, nothing is ambient.
type Config struct {
	DecayFactor       float64 // fraction of each meter retained per update (natural recovery)
	SensitizationRate float64 // impact growth per repeat after a negative reaction
	HabituationRate   float64 // impact shrink per repeat otherwise
	FastSlowBoundary  float64 // seconds; at or above is "slow" for sarcasm scoring
	SlowBoundary      float64 // seconds; at or above is "slow" for the performance modifier
	BiasFloor         float64 // personality bias multiplier lower bound
	BiasCeil          float64 // personality bias multiplier upper bound

	DifficultyBaseline  float64
	DifficultyIncrement float64
	DifficultyMin       float64
	DifficultyMax       float64
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		DecayFactor:       0.95,
		SensitizationRate: 0.1,
		HabituationRate:   0.1,
		FastSlowBoundary:  3.0,
		SlowBoundary:      5.0,
		BiasFloor:         0.5,
		BiasCeil:          1.5,

		DifficultyBaseline:  1.0,
		DifficultyIncrement: 0.1,
		DifficultyMin:       0.5,
		DifficultyMax:       2.0,
	}
}

// #endregion

// #region score

// Option weights by the tone of the chosen reaction.
const (
	weightNegative = 0.9
	weightPositive = 0.3
	weightNeutral  = 0.5
)

// Score computes the raw meter impact of a trigger response, before repeat
// and performance modifiers, personality bias, and clamping. Pure.
func Score(cfg Config, trg trigger.Trigger, resp trigger.Response) (float64, error) {
	switch trg.Kind {
	case trigger.KindOptionBased:
		if len(trg.Options) == 0 || resp.SelectedOption == nil {
			return 0, ErrInvalidOption
		}
		idx := *resp.SelectedOption
		if idx < 0 || idx >= len(trg.Options) {
			return 0, ErrInvalidOption
		}
		var w float64
		switch trg.Options[idx].Tone {
		case trigger.ToneNegative:
			w = weightNegative
		case trigger.TonePositive:
			w = weightPositive
		default:
			w = weightNeutral
		}
		return trg.Value * w, nil

	case trigger.KindSarcasm:
		// 2x2 on (slow reaction) x (question answered correctly).
		slow := resp.TimeTaken >= cfg.FastSlowBoundary
		var w float64
		switch {
		case slow && !resp.AnswerCorrect:
			w = 1.0
		case slow && resp.AnswerCorrect:
			w = 0.6
		case !slow && !resp.AnswerCorrect:
			w = 0.4
		default:
			w = 0.1
		}
		return trg.Value * w, nil

	case trigger.KindMotivation:
		// Relief applies directly; value is conventionally negative.
		return trg.Value, nil
	}
	return 0, nil
}

// #endregion

// #region repeat-modifier

// RepeatModifier applies sensitization or habituation when the same trigger
// text has been shown before. A previously negative reaction ruminates and
// grows the impact, capped at 95% of the meter range; otherwise familiarity
// shrinks it, floored at 10% of the base impact.
func RepeatModifier(cfg Config, impact float64, repeatCount int, previousNegative bool) float64 {
	if repeatCount <= 0 {
		return impact
	}
	if previousNegative {
		modified := impact * (1.0 + cfg.SensitizationRate*float64(repeatCount))
		return clamp(modified, -0.95, 0.95)
	}
	factor := math.Pow(1.0-cfg.HabituationRate, float64(repeatCount))
	modified := impact * factor
	floor := impact * 0.1
	if math.Abs(modified) < math.Abs(floor) {
		return floor
	}
	return modified
}

// #endregion

// #region performance-modifier

// PerformanceModifier scales impact by how the underlying question went.
// Fast correct answers dampen the hit, slow wrong answers amplify it.
func PerformanceModifier(cfg Config, impact float64, questionTime float64, correct bool) float64 {
	quick := questionTime < cfg.FastSlowBoundary
	slow := questionTime >= cfg.SlowBoundary

	var mod float64
	switch {
	case correct && quick:
		mod = 0.85
	case correct:
		mod = 1.0
	case quick:
		mod = 1.10
	case slow:
		mod = 1.20
	default:
		mod = 1.15
	}
	return impact * mod
}

// #endregion

// #region bias

// ClampBias bounds a personality bias multiplier to the configured band.
func ClampBias(cfg Config, bias float64) float64 {
	return clamp(bias, cfg.BiasFloor, cfg.BiasCeil)
}

// #endregion

// #region apply

// Apply decays all meters, adds delta to the target category, and clamps
// every meter back into [0, 1]. Pure; returns the new state.
func Apply(cfg Config, m Meters, cat trigger.Category, delta float64) Meters {
	next := Meters{
		Fear:        m.Fear * cfg.DecayFactor,
		Thoughts:    m.Thoughts * cfg.DecayFactor,
		Frustration: m.Frustration * cfg.DecayFactor,
	}
	next.set(cat, clamp(next.Get(cat)+delta, 0, 1))
	next.Fear = clamp(next.Fear, 0, 1)
	next.Thoughts = clamp(next.Thoughts, 0, 1)
	next.Frustration = clamp(next.Frustration, 0, 1)
	return next
}

// #endregion
