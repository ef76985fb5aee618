package ai

import (
	"context"
	"errors"
	"testing"
)

type matchAnswer struct {
	Score        float64  `json:"score"`
	Category     string   `json:"category"`
	Explanation  string   `json:"explanation"`
	KeyStrengths []string `json:"key_strengths"`
	Concerns     []string `json:"concerns"`
	Confidence   float64  `json:"confidence"`
}

func TestExtractJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{name: "plain", input: ` {"a":1} `, expect: `{"a":1}`},
		{name: "fenced json", input: "```json\n{\"a\":1}\n```", expect: `{"a":1}`},
		{name: "fenced bare", input: "```\n{\"a\":1}\n```", expect: `{"a":1}`},
		{name: "chatter around", input: "Here you go: {\"a\":1} hope it helps", expect: `{"a":1}`},
		{name: "not json", input: "sorry", expect: "sorry"},
		{name: "array is kept", input: `[{"a":1}]`, expect: `[{"a":1}]`},
		{name: "array after chatter", input: "Result: [{\"a\":1}]", expect: `[{"a":1}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ExtractJSON(tt.input); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestDecodeAcceptsValidAnswer(t *testing.T) {
	t.Parallel()

	raw := "```json\n{\"score\": 91, \"category\": \"Strong\", \"explanation\": \"Knows Go\", \"key_strengths\": [\"go\", \"sql\"], \"confidence\": 0.85}\n```"

	var answer matchAnswer
	if err := Decode(raw, "match", &answer); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer.Score != 91 || answer.Confidence != 0.85 || len(answer.KeyStrengths) != 2 {
		t.Fatalf("unexpected answer: %+v", answer)
	}
	if answer.Concerns != nil {
		t.Fatalf("absent concerns must stay nil, got %v", answer.Concerns)
	}
}

func TestDecodeRejectsMalformedAnswers(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"not json":       "I think the candidate is great",
		"empty":          "   ",
		"array":          `[1, 2]`,
		"wrapped object": `[{"score": 91, "category": "Strong", "explanation": "ok", "key_strengths": [], "confidence": 0.8}]`,
		"missing field":  `{"score": 80, "category": "Good", "explanation": "ok", "confidence": 0.7}`,
		"score too high": `{"score": 180, "category": "Strong", "explanation": "ok", "key_strengths": [], "confidence": 0.7}`,
		"text score":     `{"score": "high", "category": "Strong", "explanation": "ok", "key_strengths": [], "confidence": 0.7}`,
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var answer matchAnswer
			err := Decode(raw, "match", &answer)
			if !errors.Is(err, ErrMalformedResponse) {
				t.Fatalf("expected ErrMalformedResponse, got %v", err)
			}
		})
	}
}

type failingGenerator struct{ err error }

func (f failingGenerator) GenerateContent(context.Context, string, string) (string, error) {
	return "", f.err
}

func (f failingGenerator) Model() string { return "failing" }

func TestGenerateClassifiesFailures(t *testing.T) {
	t.Parallel()

	if _, err := Generate(context.Background(), nil, "sys", "msg"); !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("nil generator must be unavailable, got %v", err)
	}

	_, err := Generate(context.Background(), failingGenerator{err: errors.New("dial tcp: refused")}, "sys", "msg")
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}

	_, err = Generate(context.Background(), failingGenerator{err: Malformed(errors.New("bad body"))}, "sys", "msg")
	if !errors.Is(err, ErrMalformedResponse) || errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("already classified error must be kept, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Generate(ctx, failingGenerator{}, "sys", "msg"); !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("cancelled context must be unavailable, got %v", err)
	}
	if ModelOf(nil) != "" {
		t.Fatalf("expected empty model for nil generator")
	}
}
