// Package questions supplies the academic question bank the stress probes
// interleave with. The engine only needs correctness ground truth; the
// question content itself is owned by whatever front end presents it.
package questions

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// #region errors

// ErrQuestionNotFound reports a lookup for an id the bank does not hold.
var ErrQuestionNotFound = errors.New("question not found")

// #endregion

// #region types

// Question is one academic item with its accepted answer.
type Question struct {
	ID         int      `yaml:"id" json:"id"`
	Text       string   `yaml:"text" json:"text"`
	Choices    []string `yaml:"choices,omitempty" json:"choices,omitempty"`
	Answer     string   `yaml:"answer" json:"-"`
	Subject    string   `yaml:"subject,omitempty" json:"subject,omitempty"`
	Difficulty float64  `yaml:"difficulty,omitempty" json:"difficulty,omitempty"`
}

// Bank resolves question ids to content and checks answers.
type Bank interface {
	Get(id int) (Question, error)
	Check(id int, answer string) (bool, error)
	Size() int
}

// #endregion

// #region yaml-bank

type bankFile struct {
	Questions []Question `yaml:"questions"`
}

// YAMLBank is a Bank read once from a YAML file.
type YAMLBank struct {
	byID  map[int]Question
	order []int
}

// Load reads and validates a question bank file.
func Load(path string) (*YAMLBank, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}
	var file bankFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}
	return New(file.Questions)
}

// New builds a bank from already-parsed questions.
func New(qs []Question) (*YAMLBank, error) {
	if len(qs) == 0 {
		return nil, errors.New("question bank is empty")
	}
	b := &YAMLBank{byID: make(map[int]Question, len(qs))}
	for i, q := range qs {
		if q.ID <= 0 {
			return nil, fmt.Errorf("question %d: id must be positive", i)
		}
		if strings.TrimSpace(q.Text) == "" {
			return nil, fmt.Errorf("question %d: text is empty", q.ID)
		}
		if strings.TrimSpace(q.Answer) == "" {
			return nil, fmt.Errorf("question %d: answer is empty", q.ID)
		}
		if _, dup := b.byID[q.ID]; dup {
			return nil, fmt.Errorf("question %d: duplicate id", q.ID)
		}
		b.byID[q.ID] = q
		b.order = append(b.order, q.ID)
	}
	return b, nil
}

// Get returns the question for id.
func (b *YAMLBank) Get(id int) (Question, error) {
	q, ok := b.byID[id]
	if !ok {
		return Question{}, fmt.Errorf("%w: %d", ErrQuestionNotFound, id)
	}
	return q, nil
}

// Check compares answer against the stored ground truth. Comparison is
// case-insensitive and whitespace-trimmed.
func (b *YAMLBank) Check(id int, answer string) (bool, error) {
	q, ok := b.byID[id]
	if !ok {
		return false, fmt.Errorf("%w: %d", ErrQuestionNotFound, id)
	}
	return strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(q.Answer)), nil
}

// Size returns the number of questions in the bank.
func (b *YAMLBank) Size() int { return len(b.byID) }

// All returns the questions in file order.
func (b *YAMLBank) All() []Question {
	out := make([]Question, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.byID[id])
	}
	return out
}

// #endregion
