package trigger

// #region imports
import "time"

// #endregion

// #region category

// Category names the stress dimension a trigger targets.
type Category string

const (
	CategoryFear        Category = "fear"
	CategoryThoughts    Category = "thoughts"
	CategoryFrustration Category = "frustration"
)

// Categories lists every valid category in a stable order.
func Categories() []Category {
	return []Category{CategoryFear, CategoryThoughts, CategoryFrustration}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryFear, CategoryThoughts, CategoryFrustration:
		return true
	}
	return false
}

// #endregion

// #region kind

// Kind classifies how a trigger is presented and scored.
type Kind string

const (
	KindOptionBased Kind = "option_based"
	KindSarcasm     Kind = "sarcasm"
	KindMotivation  Kind = "motivation"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindOptionBased, KindSarcasm, KindMotivation:
		return true
	}
	return false
}

// #endregion

// #region source

// Source records where a trigger came from.
type Source string

const (
	SourceDataset   Source = "dataset"
	SourceGenerated Source = "generated"
)

// #endregion

// #region option

// OptionTone tags an option by the reaction it represents.
type OptionTone string

const (
	ToneNegative OptionTone = "negative"
	TonePositive OptionTone = "positive"
	ToneNeutral  OptionTone = "neutral"
)

// Valid reports whether t is a known tone.
func (t OptionTone) Valid() bool {
	switch t {
	case ToneNegative, TonePositive, ToneNeutral:
		return true
	}
	return false
}

// Option is one labeled choice on an option_based trigger.
type Option struct {
	Text string     `json:"text"`
	Tone OptionTone `json:"tone"`
}

// #endregion

// #region trigger

// Trigger is a single stimulus shown to the taker. Values are immutable once
// built; a fresh Trigger is constructed for every presentation.
type Trigger struct {
	Category Category `json:"category"`
	Kind     Kind     `json:"kind"`
	Source   Source   `json:"source"`
	Text     string   `json:"text"`
	Options  []Option `json:"options,omitempty"`
	Value    float64  `json:"value"` // positive = stressor, negative = relief
}

// Same reports whether two triggers describe the same presentation.
// Options are keyed by the identifying fields, so echoed payloads from the
// client match the last issued trigger without deep option comparison.
func Same(a, b Trigger) bool {
	return a.Category == b.Category &&
		a.Kind == b.Kind &&
		a.Source == b.Source &&
		a.Text == b.Text &&
		a.Value == b.Value
}

// #endregion

// #region response

// Response is what the taker reported back for one trigger presentation.
type Response struct {
	SelectedOption *int    `json:"selected_option,omitempty"` // nil unless option_based
	TimeTaken      float64 `json:"time_taken"`                // seconds to react to the trigger
	QuestionTime   float64 `json:"question_time"`             // seconds spent on the underlying question
	AnswerCorrect  bool    `json:"answer_correct"`
}

// #endregion

// #region record

// Record is one row of the append-only per-session audit trail. Never edited
// or removed after the append.
type Record struct {
	QuestionIndex  int       `json:"question_index"`
	Trigger        Trigger   `json:"trigger"`
	SelectedOption *int      `json:"selected_option,omitempty"`
	TimeTaken      float64   `json:"time_taken"`
	AnswerCorrect  bool      `json:"answer_correct"`
	MeterDelta     float64   `json:"meter_delta"`
	Timestamp      time.Time `json:"timestamp"`
}

// #endregion
