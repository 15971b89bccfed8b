// Package catalog loads and indexes the static, hand-authored trigger
// dataset. The index is read-only after load and shared across sessions;
// per-session "already shown" bookkeeping stays with the caller.
package catalog

// #region imports
import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/s86039924-byte/stress-dost-engine/internal/trigger"
)

// #endregion

// #region errors

// ErrCategoryEmpty reports a category with no catalog entries. This is a
// configuration defect, surfaced at startup validation.
var ErrCategoryEmpty = errors.New("category empty")

// #endregion

// #region file-schema

type entrySpec struct {
	Text    string       `yaml:"text"`
	Kind    string       `yaml:"kind"`
	Value   float64      `yaml:"value"`
	Options []optionSpec `yaml:"options"`
}

type optionSpec struct {
	Text string `yaml:"text"`
	Tone string `yaml:"tone"`
}

// #endregion

// #region catalog

// Catalog is the indexed trigger dataset.
type Catalog struct {
	byCategory map[trigger.Category][]trigger.Trigger

	mu  sync.Mutex
	rng *rand.Rand
}

// Load reads a YAML catalog file, keyed by category, and validates every
// entry. Any malformed entry fails the whole load.
func Load(path string, seed int64) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var raw map[string][]entrySpec
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	entries := make(map[trigger.Category][]trigger.Trigger, len(raw))
	for name, specs := range raw {
		cat := trigger.Category(name)
		if !cat.Valid() {
			return nil, fmt.Errorf("catalog: unknown category %q", name)
		}
		for i, spec := range specs {
			trg, err := spec.toTrigger(cat)
			if err != nil {
				return nil, fmt.Errorf("catalog: %s[%d]: %w", name, i, err)
			}
			entries[cat] = append(entries[cat], trg)
		}
	}
	return New(entries, seed)
}

// New builds a catalog from pre-built entries and validates that every
// category has at least one trigger.
func New(entries map[trigger.Category][]trigger.Trigger, seed int64) (*Catalog, error) {
	c := &Catalog{
		byCategory: entries,
		rng:        rand.New(rand.NewSource(seed)),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (s entrySpec) toTrigger(cat trigger.Category) (trigger.Trigger, error) {
	kind := trigger.Kind(s.Kind)
	if !kind.Valid() {
		return trigger.Trigger{}, fmt.Errorf("unknown kind %q", s.Kind)
	}
	if s.Text == "" {
		return trigger.Trigger{}, errors.New("missing text")
	}
	if math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
		return trigger.Trigger{}, errors.New("value not finite")
	}

	trg := trigger.Trigger{
		Category: cat,
		Kind:     kind,
		Source:   trigger.SourceDataset,
		Text:     s.Text,
		Value:    s.Value,
	}
	if kind == trigger.KindOptionBased {
		if len(s.Options) == 0 {
			return trigger.Trigger{}, errors.New("option_based entry without options")
		}
		for _, o := range s.Options {
			tone := trigger.OptionTone(o.Tone)
			if !tone.Valid() {
				return trigger.Trigger{}, fmt.Errorf("unknown option tone %q", o.Tone)
			}
			trg.Options = append(trg.Options, trigger.Option{Text: o.Text, Tone: tone})
		}
	} else if len(s.Options) > 0 {
		return trigger.Trigger{}, fmt.Errorf("%s entry carries options", kind)
	}
	return trg, nil
}

// #endregion

// #region validate

// Validate checks that every category has at least one entry.
func (c *Catalog) Validate() error {
	for _, cat := range trigger.Categories() {
		if len(c.byCategory[cat]) == 0 {
			return fmt.Errorf("%w: %s", ErrCategoryEmpty, cat)
		}
	}
	return nil
}

// Size returns the number of entries under a category.
func (c *Catalog) Size(cat trigger.Category) int {
	return len(c.byCategory[cat])
}

// #endregion

// #region lookup

// Lookup picks one trigger under cat, optionally restricted to kind (empty
// kind means any). Entries whose text appears in seen are avoided until the
// pool is exhausted, then reuse is allowed. When a kind restriction leaves
// no candidates, the restriction is relaxed rather than failing the request.
func (c *Catalog) Lookup(cat trigger.Category, kind trigger.Kind, seen map[string]bool) (trigger.Trigger, error) {
	pool := c.byCategory[cat]
	if len(pool) == 0 {
		return trigger.Trigger{}, fmt.Errorf("%w: %s", ErrCategoryEmpty, cat)
	}

	candidates := filter(pool, kind, seen)
	if len(candidates) == 0 {
		// Exhausted unseen entries of this kind; allow reuse.
		candidates = filter(pool, kind, nil)
	}
	if len(candidates) == 0 {
		// Nothing of this kind at all; relax the kind restriction.
		candidates = filter(pool, "", seen)
	}
	if len(candidates) == 0 {
		candidates = pool
	}

	c.mu.Lock()
	pick := candidates[c.rng.Intn(len(candidates))]
	c.mu.Unlock()
	return pick, nil
}

func filter(pool []trigger.Trigger, kind trigger.Kind, seen map[string]bool) []trigger.Trigger {
	var out []trigger.Trigger
	for _, t := range pool {
		if kind != "" && t.Kind != kind {
			continue
		}
		if seen != nil && seen[t.Text] {
			continue
		}
		out = append(out, t)
	}
	return out
}

// #endregion
