// Package selector decides which source serves the next trigger, keeping
// each session's dataset/generated split near 50/50 over its lifetime.
//
// The policy is counter-balanced rather than alternating: before each
// selection the under-represented source is preferred, ties break on an
// unbiased coin flip, and a failed generation substitutes a dataset trigger
// while still counting toward the dataset side. The ratio therefore
// converges regardless of provider outages and never blocks delivery.
package selector

// #region imports
import (
	"context"
	"math/rand"
	"sync"

	"github.com/s86039924-byte/stress-dost-engine/internal/catalog"
	"github.com/s86039924-byte/stress-dost-engine/internal/genai"
	"github.com/s86039924-byte/stress-dost-engine/internal/trigger"
)

// #endregion

// #region generator

// Generator abstracts the generative trigger provider.
type Generator interface {
	Generate(ctx context.Context, req genai.Request) (trigger.Trigger, error)
}

// #endregion

// #region counts

// Counts tracks per-session trigger deliveries by source.
type Counts struct {
	Dataset   int `json:"dataset"`
	Generated int `json:"generated"`
}

// Total is the number of triggers shown.
func (c Counts) Total() int { return c.Dataset + c.Generated }

// #endregion

// #region selector

// Selector computes source preference and wraps both sources. It holds no
// per-session state; counters live on the session.
type Selector struct {
	catalog *catalog.Catalog
	gen     Generator

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a selector. gen may be nil, in which case every selection
// prefers the dataset.
func New(cat *catalog.Catalog, gen Generator, seed int64) *Selector {
	return &Selector{
		catalog: cat,
		gen:     gen,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// HasGenerator reports whether a generative provider is wired.
func (s *Selector) HasGenerator() bool { return s.gen != nil }

// Preferred returns the currently under-represented source for the given
// counts. Ties resolve by an unbiased coin flip.
func (s *Selector) Preferred(c Counts) trigger.Source {
	if s.gen == nil {
		return trigger.SourceDataset
	}
	switch {
	case c.Generated < c.Dataset:
		return trigger.SourceGenerated
	case c.Dataset < c.Generated:
		return trigger.SourceDataset
	}
	s.mu.Lock()
	flip := s.rng.Intn(2) == 0
	s.mu.Unlock()
	if flip {
		return trigger.SourceGenerated
	}
	return trigger.SourceDataset
}

// FromDataset picks a catalog trigger for the category, honoring the
// session's seen set and an optional kind requirement.
func (s *Selector) FromDataset(cat trigger.Category, kind trigger.Kind, seen map[string]bool) (trigger.Trigger, error) {
	return s.catalog.Lookup(cat, kind, seen)
}

// Generate calls the provider. The caller must not hold any session lock
// across this call; it may suspend up to the adapter's timeout.
func (s *Selector) Generate(ctx context.Context, req genai.Request) (trigger.Trigger, error) {
	return s.gen.Generate(ctx, req)
}

// #endregion
