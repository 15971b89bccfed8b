package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/s86039924-byte/stress-dost-engine/internal/trigger"
)

const testCatalogYAML = `fear:
  - text: "The clock is running out."
    kind: sarcasm
    value: 0.6
  - text: "What happens if this goes wrong?"
    kind: option_based
    value: 0.7
    options:
      - text: "Everything falls apart"
        tone: negative
      - text: "I adapt and move on"
        tone: positive
      - text: "Hard to say"
        tone: neutral
thoughts:
  - text: "Interesting choice. Most people pick the other one."
    kind: sarcasm
    value: 0.5
frustration:
  - text: "You have solved harder problems than this."
    kind: motivation
    value: -0.3
`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "triggers.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	c, err := Load(writeCatalog(t, testCatalogYAML), 1)
	if err != nil {
		t.Fatal(err)
	}
	if c.Size(trigger.CategoryFear) != 2 {
		t.Fatalf("fear size = %d", c.Size(trigger.CategoryFear))
	}

	trg, err := c.Lookup(trigger.CategoryFrustration, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if trg.Kind != trigger.KindMotivation || trg.Value != -0.3 {
		t.Fatalf("unexpected trigger %+v", trg)
	}
	if trg.Source != trigger.SourceDataset {
		t.Fatalf("source = %s", trg.Source)
	}
}

func TestLoadMissingCategory(t *testing.T) {
	_, err := Load(writeCatalog(t, "fear:\n  - text: x\n    kind: sarcasm\n    value: 0.5\n"), 1)
	if !errors.Is(err, ErrCategoryEmpty) {
		t.Fatalf("expected ErrCategoryEmpty, got %v", err)
	}
}

func TestLoadRejectsMalformedEntries(t *testing.T) {
	cases := []string{
		"fear:\n  - text: x\n    kind: bogus\n    value: 0.5\n",
		"fear:\n  - kind: sarcasm\n    value: 0.5\n",
		"fear:\n  - text: x\n    kind: option_based\n    value: 0.5\n",
		"fear:\n  - text: x\n    kind: option_based\n    value: 0.5\n    options:\n      - text: y\n        tone: angry\n",
	}
	for i, content := range cases {
		if _, err := Load(writeCatalog(t, content), 1); err == nil {
			t.Fatalf("case %d: expected load error", i)
		}
	}
}

func TestLookupKindFilter(t *testing.T) {
	c, err := Load(writeCatalog(t, testCatalogYAML), 1)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		trg, err := c.Lookup(trigger.CategoryFear, trigger.KindOptionBased, nil)
		if err != nil {
			t.Fatal(err)
		}
		if trg.Kind != trigger.KindOptionBased {
			t.Fatalf("kind filter ignored: %s", trg.Kind)
		}
	}
}

func TestLookupKindRelaxesWhenAbsent(t *testing.T) {
	c, err := Load(writeCatalog(t, testCatalogYAML), 1)
	if err != nil {
		t.Fatal(err)
	}
	// thoughts has no option_based entry; lookup still serves something.
	trg, err := c.Lookup(trigger.CategoryThoughts, trigger.KindOptionBased, nil)
	if err != nil {
		t.Fatal(err)
	}
	if trg.Category != trigger.CategoryThoughts {
		t.Fatalf("category = %s", trg.Category)
	}
}

func TestLookupAvoidsSeenUntilExhausted(t *testing.T) {
	c, err := Load(writeCatalog(t, testCatalogYAML), 42)
	if err != nil {
		t.Fatal(err)
	}

	seen := map[string]bool{}
	texts := map[string]bool{}
	for i := 0; i < c.Size(trigger.CategoryFear); i++ {
		trg, err := c.Lookup(trigger.CategoryFear, "", seen)
		if err != nil {
			t.Fatal(err)
		}
		if texts[trg.Text] {
			t.Fatalf("repeat before exhaustion: %q", trg.Text)
		}
		texts[trg.Text] = true
		seen[trg.Text] = true
	}

	// Category exhausted: reuse is allowed, never an error.
	trg, err := c.Lookup(trigger.CategoryFear, "", seen)
	if err != nil {
		t.Fatal(err)
	}
	if !texts[trg.Text] {
		t.Fatalf("expected a reused trigger, got %q", trg.Text)
	}
}

func TestLookupUnknownCategory(t *testing.T) {
	c, err := Load(writeCatalog(t, testCatalogYAML), 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Lookup(trigger.Category("panic"), "", nil); !errors.Is(err, ErrCategoryEmpty) {
		t.Fatalf("expected ErrCategoryEmpty, got %v", err)
	}
}
