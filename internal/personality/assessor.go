// Package personality scores the optional pre-session questionnaire into a
// trait vector and derives the per-category bias the scoring engine applies.
package personality

// #region imports
import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/s86039924-byte/stress-dost-engine/internal/trigger"
)

// #endregion

// #region vector

// Vector maps trait name to a weight in [0, 1]. Read-only once stored on a
// session; adaptive drift produces fresh copies.
type Vector map[string]float64

// Known trait names. The questionnaire file may score any subset.
const (
	TraitStressSensitivity     = "stress_sensitivity"
	TraitResilience            = "resilience"
	TraitAnalyticalThinking    = "analytical_thinking"
	TraitImpulsivity           = "impulsivity"
	TraitIntrinsicMotivation   = "intrinsic_motivation"
	TraitDistractionResistance = "distraction_resistance"
	TraitSelfConfidence        = "self_confidence"
	TraitSocialOrientation     = "social_orientation"
)

func (v Vector) get(trait string) float64 {
	if val, ok := v[trait]; ok {
		return val
	}
	return 0.5
}

// Clone returns an independent copy.
func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// #endregion

// #region bias

// Per-category driving traits: the first raises sensitivity to that
// category, the second buffers it.
var biasTraits = map[trigger.Category][2]string{
	trigger.CategoryFear:        {TraitStressSensitivity, TraitSelfConfidence},
	trigger.CategoryThoughts:    {TraitImpulsivity, TraitAnalyticalThinking},
	trigger.CategoryFrustration: {TraitStressSensitivity, TraitResilience},
}

// Bias returns the multiplicative bias this vector applies to a meter delta
// in the given category, clamped to [floor, ceil]. A balanced vector (all
// traits 0.5) biases nothing.
func (v Vector) Bias(cat trigger.Category, floor, ceil float64) float64 {
	traits, ok := biasTraits[cat]
	if !ok || v == nil {
		return 1.0
	}
	bias := 1.0 + (v.get(traits[0])-0.5)*0.6 - (v.get(traits[1])-0.5)*0.4
	if bias < floor {
		return floor
	}
	if bias > ceil {
		return ceil
	}
	return bias
}

// #endregion

// #region questionnaire

// Question is one questionnaire item. Option scores stay server-side; the
// API layer strips them before display.
type Question struct {
	ID       int              `yaml:"id" json:"id"`
	Category string           `yaml:"category" json:"category"`
	Text     string           `yaml:"text" json:"text"`
	Options  []QuestionOption `yaml:"options" json:"options"`
}

// QuestionOption is one answer choice with its trait scores.
type QuestionOption struct {
	Text   string             `yaml:"text" json:"text"`
	Scores map[string]float64 `yaml:"scores" json:"-"`
}

// Answer references a chosen option on one question.
type Answer struct {
	QuestionID  int `json:"question_id"`
	OptionIndex int `json:"option_index"`
}

type questionnaireFile struct {
	Questions []Question `yaml:"questions"`
}

// Assessor scores submitted answers against the questionnaire rubric.
type Assessor struct {
	questions []Question
	byID      map[int]Question
}

// Load reads the questionnaire YAML file.
func Load(path string) (*Assessor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read questionnaire: %w", err)
	}
	var file questionnaireFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse questionnaire: %w", err)
	}
	return NewAssessor(file.Questions)
}

// NewAssessor builds an assessor from pre-built questions.
func NewAssessor(questions []Question) (*Assessor, error) {
	if len(questions) == 0 {
		return nil, errors.New("questionnaire has no questions")
	}
	byID := make(map[int]Question, len(questions))
	for _, q := range questions {
		if len(q.Options) == 0 {
			return nil, fmt.Errorf("question %d has no options", q.ID)
		}
		if _, dup := byID[q.ID]; dup {
			return nil, fmt.Errorf("duplicate question id %d", q.ID)
		}
		byID[q.ID] = q
	}
	return &Assessor{questions: questions, byID: byID}, nil
}

// Questions returns the questionnaire in presentation order.
func (a *Assessor) Questions() []Question {
	return a.questions
}

// Score maps a full set of answers to a trait vector. Each question spreads
// unit weight across the traits its options score; the final trait value is
// the weighted mean of the chosen options' scores. Deterministic.
func (a *Assessor) Score(answers []Answer) (Vector, error) {
	if len(answers) != len(a.questions) {
		return nil, fmt.Errorf("expected %d answers, got %d", len(a.questions), len(answers))
	}

	type accum struct{ sum, weight float64 }
	totals := map[string]*accum{}
	seen := map[int]bool{}

	for _, ans := range answers {
		q, ok := a.byID[ans.QuestionID]
		if !ok {
			return nil, fmt.Errorf("unknown question id %d", ans.QuestionID)
		}
		if seen[ans.QuestionID] {
			return nil, fmt.Errorf("duplicate answer for question %d", ans.QuestionID)
		}
		seen[ans.QuestionID] = true
		if ans.OptionIndex < 0 || ans.OptionIndex >= len(q.Options) {
			return nil, fmt.Errorf("question %d: option %d out of range", ans.QuestionID, ans.OptionIndex)
		}

		dims := questionDimensions(q)
		if len(dims) == 0 {
			continue
		}
		weight := 1.0 / float64(len(dims))
		scores := q.Options[ans.OptionIndex].Scores
		for _, dim := range dims {
			acc := totals[dim]
			if acc == nil {
				acc = &accum{}
				totals[dim] = acc
			}
			acc.sum += scores[dim] * weight
			acc.weight += weight
		}
	}

	vec := Vector{}
	for dim, acc := range totals {
		if acc.weight > 0 {
			v := acc.sum / acc.weight
			if v < 0 {
				v = 0
			}
			if v > 1 {
				v = 1
			}
			vec[dim] = v
		}
	}
	return vec, nil
}

// questionDimensions collects every trait any option of q scores.
func questionDimensions(q Question) []string {
	set := map[string]bool{}
	for _, opt := range q.Options {
		for dim := range opt.Scores {
			set[dim] = true
		}
	}
	dims := make([]string, 0, len(set))
	for dim := range set {
		dims = append(dims, dim)
	}
	return dims
}

// #endregion
