package meter

// #region imports
import (
	"github.com/s86039924-byte/stress-dost-engine/internal/trigger"
)

// #endregion

// #region meters

// Meters holds the three stress dimensions, each clamped to [0, 1].
type Meters struct {
	Fear        float64 `json:"fear"`
	Thoughts    float64 `json:"thoughts"`
	Frustration float64 `json:"frustration"`
}

// Get returns the meter for a category.
func (m Meters) Get(c trigger.Category) float64 {
	switch c {
	case trigger.CategoryFear:
		return m.Fear
	case trigger.CategoryThoughts:
		return m.Thoughts
	case trigger.CategoryFrustration:
		return m.Frustration
	}
	return 0
}

func (m *Meters) set(c trigger.Category, v float64) {
	switch c {
	case trigger.CategoryFear:
		m.Fear = v
	case trigger.CategoryThoughts:
		m.Thoughts = v
	case trigger.CategoryFrustration:
		m.Frustration = v
	}
}

// Dominant returns the highest meter and its value. Ties resolve in the
// fear, thoughts, frustration order.
func (m Meters) Dominant() (trigger.Category, float64) {
	best := trigger.CategoryFear
	bestVal := m.Fear
	if m.Thoughts > bestVal {
		best, bestVal = trigger.CategoryThoughts, m.Thoughts
	}
	if m.Frustration > bestVal {
		best, bestVal = trigger.CategoryFrustration, m.Frustration
	}
	return best, bestVal
}

// Average returns the mean of the three meters.
func (m Meters) Average() float64 {
	return (m.Fear + m.Thoughts + m.Frustration) / 3
}

// Severity classifies overall stress from the meter average.
func (m Meters) Severity() string {
	avg := m.Average()
	switch {
	case avg < 0.3:
		return "low"
	case avg < 0.6:
		return "moderate"
	default:
		return "high"
	}
}

// Max returns the highest single meter value.
func (m Meters) Max() float64 {
	_, v := m.Dominant()
	return v
}

// #endregion

// #region clamp

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// #endregion
