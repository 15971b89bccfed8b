package meter

import (
	"errors"
	"math"
	"testing"

	"github.com/s86039924-byte/stress-dost-engine/internal/trigger"
)

func optionTrigger(value float64) trigger.Trigger {
	return trigger.Trigger{
		Category: trigger.CategoryFear,
		Kind:     trigger.KindOptionBased,
		Text:     "What if you run out of time?",
		Value:    value,
		Options: []trigger.Option{
			{Text: "I will fail", Tone: trigger.ToneNegative},
			{Text: "I can recover", Tone: trigger.TonePositive},
			{Text: "Let's see", Tone: trigger.ToneNeutral},
		},
	}
}

func intp(i int) *int { return &i }

func approx(t *testing.T, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestScoreOptionBased(t *testing.T) {
	cfg := DefaultConfig()
	trg := optionTrigger(0.8)

	cases := []struct {
		option int
		want   float64
	}{
		{0, 0.72}, // negative
		{1, 0.24}, // positive
		{2, 0.40}, // neutral
	}
	for _, c := range cases {
		got, err := Score(cfg, trg, trigger.Response{SelectedOption: intp(c.option)})
		if err != nil {
			t.Fatalf("option %d: %v", c.option, err)
		}
		approx(t, got, c.want)
	}
}

func TestScoreOptionBasedInvalid(t *testing.T) {
	cfg := DefaultConfig()
	trg := optionTrigger(0.8)

	if _, err := Score(cfg, trg, trigger.Response{SelectedOption: intp(3)}); !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("out of range: expected ErrInvalidOption, got %v", err)
	}
	if _, err := Score(cfg, trg, trigger.Response{SelectedOption: intp(-1)}); !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("negative index: expected ErrInvalidOption, got %v", err)
	}
	if _, err := Score(cfg, trg, trigger.Response{}); !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("missing option: expected ErrInvalidOption, got %v", err)
	}

	bare := trg
	bare.Options = nil
	if _, err := Score(cfg, bare, trigger.Response{SelectedOption: intp(0)}); !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("no options: expected ErrInvalidOption, got %v", err)
	}
}

func TestScoreSarcasm(t *testing.T) {
	cfg := DefaultConfig()
	trg := trigger.Trigger{
		Category: trigger.CategoryThoughts,
		Kind:     trigger.KindSarcasm,
		Text:     "Sure, take your time. The exam will wait.",
		Value:    0.5,
	}

	cases := []struct {
		time    float64
		correct bool
		want    float64
	}{
		{4.0, false, 0.5},  // slow + wrong
		{4.0, true, 0.3},   // slow + correct
		{1.0, true, 0.05},  // fast + correct
		{1.0, false, 0.2},  // fast + wrong
		{3.0, false, 0.5},  // boundary counts as slow
	}
	for _, c := range cases {
		got, err := Score(cfg, trg, trigger.Response{TimeTaken: c.time, AnswerCorrect: c.correct})
		if err != nil {
			t.Fatalf("time=%v correct=%v: %v", c.time, c.correct, err)
		}
		approx(t, got, c.want)
	}
}

func TestScoreMotivation(t *testing.T) {
	cfg := DefaultConfig()
	trg := trigger.Trigger{
		Category: trigger.CategoryFrustration,
		Kind:     trigger.KindMotivation,
		Text:     "One wrong answer changes nothing. Keep going.",
		Value:    -0.3,
	}
	got, err := Score(cfg, trg, trigger.Response{})
	if err != nil {
		t.Fatal(err)
	}
	approx(t, got, -0.3)
}

func TestApplyClampsRange(t *testing.T) {
	cfg := DefaultConfig()
	m := Meters{}

	// Adversarial repeated maximal-magnitude stressors never escape [0, 1].
	for i := 0; i < 50; i++ {
		m = Apply(cfg, m, trigger.CategoryFear, 1.0)
		if m.Fear < 0 || m.Fear > 1 {
			t.Fatalf("fear out of range after %d updates: %v", i+1, m.Fear)
		}
	}
	if m.Fear != 1.0 {
		t.Fatalf("expected saturated fear meter, got %v", m.Fear)
	}

	// Repeated maximal relief never goes below zero.
	for i := 0; i < 50; i++ {
		m = Apply(cfg, m, trigger.CategoryFear, -1.0)
		if m.Fear < 0 || m.Fear > 1 {
			t.Fatalf("fear out of range after relief %d: %v", i+1, m.Fear)
		}
	}
	if m.Fear != 0 {
		t.Fatalf("expected empty fear meter, got %v", m.Fear)
	}
}

func TestApplyMotivationReducesMeter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DecayFactor = 1.0 // isolate the delta
	m := Meters{Frustration: 0.8}
	m = Apply(cfg, m, trigger.CategoryFrustration, -0.3)
	approx(t, m.Frustration, 0.5)
}

func TestApplyDecaysOtherMeters(t *testing.T) {
	cfg := DefaultConfig()
	m := Meters{Fear: 0.4, Thoughts: 0.4, Frustration: 0.4}
	next := Apply(cfg, m, trigger.CategoryFear, 0)
	approx(t, next.Thoughts, 0.38)
	approx(t, next.Frustration, 0.38)
	approx(t, next.Fear, 0.38)
}

func TestRepeatModifier(t *testing.T) {
	cfg := DefaultConfig()

	if got := RepeatModifier(cfg, 0.5, 0, true); got != 0.5 {
		t.Fatalf("first showing must be unmodified, got %v", got)
	}

	// Sensitization grows the impact.
	got := RepeatModifier(cfg, 0.5, 2, true)
	approx(t, got, 0.6)

	// Capped below the full meter range.
	if got := RepeatModifier(cfg, 0.9, 10, true); got > 0.95 {
		t.Fatalf("sensitization escaped cap: %v", got)
	}

	// Habituation shrinks the impact.
	got = RepeatModifier(cfg, 0.5, 1, false)
	approx(t, got, 0.45)

	// Floored at 10% of the base impact.
	if got := RepeatModifier(cfg, 0.5, 100, false); math.Abs(got-0.05) > 1e-9 {
		t.Fatalf("habituation floor: got %v", got)
	}
}

func TestPerformanceModifier(t *testing.T) {
	cfg := DefaultConfig()

	approx(t, PerformanceModifier(cfg, 1.0, 1.0, true), 0.85)  // quick + correct
	approx(t, PerformanceModifier(cfg, 1.0, 4.0, true), 1.0)   // moderate + correct
	approx(t, PerformanceModifier(cfg, 1.0, 1.0, false), 1.10) // quick + wrong
	approx(t, PerformanceModifier(cfg, 1.0, 4.0, false), 1.15) // moderate + wrong
	approx(t, PerformanceModifier(cfg, 1.0, 6.0, false), 1.20) // slow + wrong
}

func TestClampBias(t *testing.T) {
	cfg := DefaultConfig()
	approx(t, ClampBias(cfg, 2.0), 1.5)
	approx(t, ClampBias(cfg, 0.1), 0.5)
	approx(t, ClampBias(cfg, 1.2), 1.2)
}

func TestDominantAndSeverity(t *testing.T) {
	m := Meters{Fear: 0.2, Thoughts: 0.7, Frustration: 0.4}
	cat, v := m.Dominant()
	if cat != trigger.CategoryThoughts || v != 0.7 {
		t.Fatalf("dominant = %s/%v", cat, v)
	}
	if s := m.Severity(); s != "moderate" {
		t.Fatalf("severity = %s", s)
	}
	if s := (Meters{}).Severity(); s != "low" {
		t.Fatalf("zero severity = %s", s)
	}
	high := Meters{Fear: 0.8, Thoughts: 0.8, Frustration: 0.8}
	if s := high.Severity(); s != "high" {
		t.Fatalf("high severity = %s", s)
	}
}
