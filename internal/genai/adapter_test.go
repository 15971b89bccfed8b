package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/s86039924-byte/stress-dost-engine/internal/trigger"
)

func chatResponse(content string) string {
	body, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	})
	return string(body)
}

func testAdapter(t *testing.T, handler http.HandlerFunc) *Adapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := DefaultConfig("test-key")
	cfg.BaseURL = srv.URL
	cfg.Timeout = 500 * time.Millisecond
	return New(cfg)
}

func TestGenerateSuccess(t *testing.T) {
	a := testAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("auth header = %q", got)
		}
		body := chatResponse(`{"type":"sarcasm","text":"Oh, another guess?","options":[],"value":0.5}`)
		fmt.Fprint(w, body)
	})

	trg, err := a.Generate(context.Background(), Request{Category: trigger.CategoryThoughts})
	if err != nil {
		t.Fatal(err)
	}
	if trg.Kind != trigger.KindSarcasm || trg.Text != "Oh, another guess?" || trg.Value != 0.5 {
		t.Fatalf("unexpected trigger %+v", trg)
	}
	if trg.Source != trigger.SourceGenerated {
		t.Fatalf("source = %s", trg.Source)
	}
	if trg.Category != trigger.CategoryThoughts {
		t.Fatalf("category = %s", trg.Category)
	}
}

func TestGenerateOptionBased(t *testing.T) {
	a := testAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatResponse("```json\n{\"type\":\"option_based\",\"text\":\"Two minutes left.\",\"options\":[\"I am done for\",\"Plenty of time\",\"It is what it is\"],\"value\":0.7}\n```"))
	})

	trg, err := a.Generate(context.Background(), Request{Category: trigger.CategoryFear, ForceOptionBased: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(trg.Options) != 3 {
		t.Fatalf("options = %d", len(trg.Options))
	}
	if trg.Options[0].Tone != trigger.ToneNegative ||
		trg.Options[1].Tone != trigger.TonePositive ||
		trg.Options[2].Tone != trigger.ToneNeutral {
		t.Fatalf("positional tones wrong: %+v", trg.Options)
	}
}

func TestGenerateInvalidPayloads(t *testing.T) {
	cases := []string{
		`{"type":"insult","text":"x","options":[],"value":0.5}`,          // bad kind
		`{"type":"sarcasm","text":"","options":[],"value":0.5}`,          // empty text
		`{"type":"option_based","text":"x","options":[],"value":0.5}`,    // missing options
		`no json here at all`,                                            // unparseable
		`{"type":"sarcasm","text":"x","options":[],"value":"much"}`,      // non-numeric value
	}
	for i, content := range cases {
		a := testAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, chatResponse(content))
		})
		_, err := a.Generate(context.Background(), Request{Category: trigger.CategoryFear})
		if !errors.Is(err, ErrUnavailable) {
			t.Fatalf("case %d: expected ErrUnavailable, got %v", i, err)
		}
	}
}

func TestGenerateForceOptionBasedRejected(t *testing.T) {
	a := testAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatResponse(`{"type":"sarcasm","text":"nope","options":[],"value":0.5}`))
	})
	_, err := a.Generate(context.Background(), Request{Category: trigger.CategoryFear, ForceOptionBased: true})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestGenerateProviderError(t *testing.T) {
	a := testAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})
	_, err := a.Generate(context.Background(), Request{Category: trigger.CategoryFear})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestGenerateTimeout(t *testing.T) {
	a := testAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	})
	start := time.Now()
	_, err := a.Generate(context.Background(), Request{Category: trigger.CategoryFear})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("timeout not enforced, took %v", elapsed)
	}
}

func TestGenerateNoAPIKey(t *testing.T) {
	a := New(Config{})
	_, err := a.Generate(context.Background(), Request{Category: trigger.CategoryFear})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
