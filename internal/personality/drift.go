package personality

// #region imports
import "github.com/s86039924-byte/stress-dost-engine/internal/trigger"

// #endregion

// #region performance

// Performance is one answered question's outcome, as seen by the adaptive
// personality drift.
type Performance struct {
	Correct      bool
	ResponseTime float64
	Category     trigger.Category
}

// #endregion

// #region drift

// Drift nudges a vector from recent performance and returns a fresh copy.
// Sustained high accuracy signals coasting; sustained failure erodes
// resilience; a single stress category dominating hints at tunnel vision.
func Drift(v Vector, recent []Performance) Vector {
	out := v.Clone()
	if len(recent) < 3 {
		return out
	}

	var correct int
	var timeSum float64
	categories := map[trigger.Category]int{}
	for _, p := range recent {
		if p.Correct {
			correct++
		}
		timeSum += p.ResponseTime
		categories[p.Category]++
	}
	accuracy := float64(correct) / float64(len(recent))
	avgTime := timeSum / float64(len(recent))

	if accuracy > 0.85 {
		out[TraitIntrinsicMotivation] = clamp01(out.get(TraitIntrinsicMotivation) - 0.05)
		if avgTime < 20 {
			out[TraitImpulsivity] = clamp01(out.get(TraitImpulsivity) + 0.08)
		}
	}
	if accuracy < 0.5 {
		out[TraitResilience] = clamp01(out.get(TraitResilience) - 0.05)
		if accuracy < 0.3 {
			out[TraitStressSensitivity] = clamp01(out.get(TraitStressSensitivity) + 0.08)
		}
	}
	if len(categories) == 1 && len(recent) >= 5 {
		out[TraitDistractionResistance] = clamp01(out.get(TraitDistractionResistance) - 0.05)
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion
