package questions

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const testBankYAML = `
questions:
  - id: 1
    text: "What is 7 x 8?"
    answer: "56"
    subject: math
  - id: 2
    text: "Which planet is closest to the sun?"
    choices: ["Venus", "Mercury", "Mars"]
    answer: "Mercury"
    subject: science
    difficulty: 0.4
`

func loadTestBank(t *testing.T) *YAMLBank {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bank.yaml")
	if err := os.WriteFile(path, []byte(testBankYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	b, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return b
}

func TestLoadAndGet(t *testing.T) {
	b := loadTestBank(t)
	if b.Size() != 2 {
		t.Fatalf("size = %d", b.Size())
	}
	q, err := b.Get(2)
	if err != nil {
		t.Fatal(err)
	}
	if q.Subject != "science" || len(q.Choices) != 3 {
		t.Fatalf("question = %+v", q)
	}
	if _, err := b.Get(99); !errors.Is(err, ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}
}

func TestCheckNormalizesAnswer(t *testing.T) {
	b := loadTestBank(t)
	cases := []struct {
		answer string
		want   bool
	}{
		{"56", true},
		{" 56 ", true},
		{"57", false},
		{"", false},
	}
	for _, tc := range cases {
		got, err := b.Check(1, tc.answer)
		if err != nil {
			t.Fatal(err)
		}
		if got != tc.want {
			t.Fatalf("Check(1, %q) = %v", tc.answer, got)
		}
	}
	ok, err := b.Check(2, "mercury")
	if err != nil || !ok {
		t.Fatalf("case-insensitive check failed: %v %v", ok, err)
	}
	if _, err := b.Check(42, "x"); !errors.Is(err, ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}
}

func TestNewRejectsMalformed(t *testing.T) {
	bad := [][]Question{
		nil,
		{{ID: 0, Text: "t", Answer: "a"}},
		{{ID: 1, Text: "", Answer: "a"}},
		{{ID: 1, Text: "t", Answer: ""}},
		{{ID: 1, Text: "t", Answer: "a"}, {ID: 1, Text: "u", Answer: "b"}},
	}
	for i, qs := range bad {
		if _, err := New(qs); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestAllPreservesOrder(t *testing.T) {
	b := loadTestBank(t)
	all := b.All()
	if len(all) != 2 || all[0].ID != 1 || all[1].ID != 2 {
		t.Fatalf("order lost: %+v", all)
	}
}
