// Package genai wraps the external text-generation provider behind a hard
// timeout and strict payload validation. Every failure mode (transport,
// timeout, malformed or invalid payload) folds into ErrUnavailable so
// callers can fall back to the dataset without inspecting causes.
package genai

// #region imports
import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/s86039924-byte/stress-dost-engine/internal/meter"
	"github.com/s86039924-byte/stress-dost-engine/internal/trigger"
)

// #endregion

// #region errors

// ErrUnavailable reports that no usable trigger could be generated. It is
// always recoverable: callers substitute a dataset trigger.
var ErrUnavailable = errors.New("generation unavailable")

// #endregion

// #region config

// Config configures the provider connection.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string        // OpenAI-compatible chat completions root
	Timeout time.Duration // hard bound on a single generation call
}

// DefaultConfig returns the documented provider defaults.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:  apiKey,
		Model:   "llama-3.3-70b-versatile",
		BaseURL: "https://api.groq.com/openai/v1",
		Timeout: 5 * time.Second,
	}
}

// #endregion

// #region request

// Request carries the session context the provider needs to produce a
// relevant trigger.
type Request struct {
	Meters           meter.Meters
	Difficulty       float64
	Category         trigger.Category
	Previous         []string // trigger texts already shown, to discourage repeats
	ForceOptionBased bool
}

// #endregion

// #region adapter

// Adapter is the generative trigger provider client.
type Adapter struct {
	cfg    Config
	client *http.Client
}

// New creates an adapter. Timeout defaults to 5s when unset.
func New(cfg Config) *Adapter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Adapter{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Generate asks the provider for one trigger. The call is bounded by the
// configured timeout regardless of the parent context.
func (a *Adapter) Generate(ctx context.Context, req Request) (trigger.Trigger, error) {
	if a.cfg.APIKey == "" {
		return trigger.Trigger{}, fmt.Errorf("%w: no api key", ErrUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	body := map[string]any{
		"model": a.cfg.Model,
		"messages": []map[string]string{
			{"role": "user", "content": buildPrompt(req)},
		},
		"temperature": 0.7,
		"max_tokens":  400,
	}
	jsonData, err := json.Marshal(body)
	if err != nil {
		return trigger.Trigger{}, fmt.Errorf("%w: marshal: %v", ErrUnavailable, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", a.cfg.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return trigger.Trigger{}, fmt.Errorf("%w: new request: %v", ErrUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return trigger.Trigger{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 300))
		return trigger.Trigger{}, fmt.Errorf("%w: provider %d: %s", ErrUnavailable, resp.StatusCode, snippet)
	}

	var chatResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return trigger.Trigger{}, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	if len(chatResp.Choices) == 0 {
		return trigger.Trigger{}, fmt.Errorf("%w: empty response", ErrUnavailable)
	}

	return parsePayload(chatResp.Choices[0].Message.Content, req)
}

// #endregion

// #region payload

type payload struct {
	Type    string   `json:"type"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
	Value   float64  `json:"value"`
}

// Tone assignment for generated options is positional: the provider is
// instructed to order them catastrophizing, resilient, balanced.
var generatedTones = []trigger.OptionTone{
	trigger.ToneNegative,
	trigger.TonePositive,
	trigger.ToneNeutral,
}

// parsePayload extracts and validates the JSON trigger payload from raw
// model output, tolerating code fences and surrounding prose.
func parsePayload(content string, req Request) (trigger.Trigger, error) {
	snippet := strings.TrimSpace(content)
	snippet = strings.Trim(snippet, "`")
	if strings.HasPrefix(strings.ToLower(snippet), "json") {
		snippet = strings.TrimSpace(snippet[4:])
	}
	start := strings.Index(snippet, "{")
	end := strings.LastIndex(snippet, "}")
	if start == -1 || end <= start {
		return trigger.Trigger{}, fmt.Errorf("%w: no json object in output", ErrUnavailable)
	}

	var p payload
	if err := json.Unmarshal([]byte(snippet[start:end+1]), &p); err != nil {
		return trigger.Trigger{}, fmt.Errorf("%w: parse payload: %v", ErrUnavailable, err)
	}

	kind := trigger.Kind(p.Type)
	switch {
	case !kind.Valid():
		return trigger.Trigger{}, fmt.Errorf("%w: invalid kind %q", ErrUnavailable, p.Type)
	case p.Text == "":
		return trigger.Trigger{}, fmt.Errorf("%w: empty text", ErrUnavailable)
	case math.IsNaN(p.Value) || math.IsInf(p.Value, 0):
		return trigger.Trigger{}, fmt.Errorf("%w: value not finite", ErrUnavailable)
	case req.ForceOptionBased && kind != trigger.KindOptionBased:
		return trigger.Trigger{}, fmt.Errorf("%w: expected option_based, got %s", ErrUnavailable, kind)
	}

	trg := trigger.Trigger{
		Category: req.Category,
		Kind:     kind,
		Source:   trigger.SourceGenerated,
		Text:     p.Text,
		Value:    p.Value,
	}
	if kind == trigger.KindOptionBased {
		if len(p.Options) == 0 || len(p.Options) > len(generatedTones) {
			return trigger.Trigger{}, fmt.Errorf("%w: option contract violated (%d options)", ErrUnavailable, len(p.Options))
		}
		for i, text := range p.Options {
			if text == "" {
				return trigger.Trigger{}, fmt.Errorf("%w: empty option %d", ErrUnavailable, i)
			}
			trg.Options = append(trg.Options, trigger.Option{Text: text, Tone: generatedTones[i]})
		}
	}
	return trg, nil
}

// #endregion

// #region prompt

func buildPrompt(req Request) string {
	var b strings.Builder

	b.WriteString("You write one short psychological trigger for a stress assessment session.\n\n")

	fmt.Fprintf(&b, "CURRENT STRESS METERS: fear=%.3f thoughts=%.3f frustration=%.3f (severity: %s)\n",
		req.Meters.Fear, req.Meters.Thoughts, req.Meters.Frustration, req.Meters.Severity())
	fmt.Fprintf(&b, "DIFFICULTY: %.2f\n", req.Difficulty)
	fmt.Fprintf(&b, "TARGET CATEGORY: %s\n", req.Category)

	if len(req.Previous) > 0 {
		b.WriteString("\nALREADY SHOWN (do not repeat or paraphrase):\n")
		for _, text := range req.Previous {
			fmt.Fprintf(&b, "- %s\n", text)
		}
	}

	b.WriteString(`
Requirements:
1. Keep the text under 60 words.
2. Tone must fit the target category.
3. Use a fresh, specific scenario; never reuse the shown texts.
4. "value" is the base magnitude in [0, 1]; use a negative value only for type "motivation".
5. If type is "option_based", include exactly three distinct options ordered: catastrophizing reaction, resilient reaction, balanced reaction.
6. If type is not "option_based", return an empty list for options.

Respond ONLY with minified JSON:
{"type":"motivation|sarcasm|option_based","text":"...","options":["a","b","c"],"value":0.4}
`)

	if req.ForceOptionBased {
		b.WriteString("\nThis trigger MUST be type \"option_based\" with exactly three options.")
	}

	switch req.Category {
	case trigger.CategoryThoughts:
		b.WriteString("\nFocus on second-guessing and intrusive reasoning.")
	case trigger.CategoryFrustration:
		b.WriteString("\nAcknowledge effort, then apply pressure toward the result.")
	case trigger.CategoryFear:
		b.WriteString("\nLean on time pressure and consequences.")
	}

	return b.String()
}

// #endregion
