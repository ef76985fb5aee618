// Package scoring evaluates one candidate against one requirement, through the
// generation backend or the deterministic fallback heuristic.
package scoring

import (
	"math"
)

// Category is the coarse label derived from a score.
type Category string

const (
	Strong    Category = "Strong"
	Good      Category = "Good"
	Potential Category = "Potential"
	Weak      Category = "Weak"
)

// CategoryFor maps a score in [0,100] to its category.
func CategoryFor(score float64) Category {
	switch {
	case score >= 85:
		return Strong
	case score >= 70:
		return Good
	case score >= 50:
		return Potential
	default:
		return Weak
	}
}

// Source tells which path produced a result.
type Source string

const (
	SourceAI       Source = "ai"
	SourceFallback Source = "fallback"
)

// MatchResult is the scored, explained outcome of comparing one candidate to one job.
// Build it with NewResult so ranges and category always hold.
type MatchResult struct {
	CandidateID  string   `json:"candidate_id"`
	JobID        string   `json:"job_id"`
	Score        float64  `json:"score"`
	Confidence   float64  `json:"confidence"`
	Category     Category `json:"category"`
	Explanation  string   `json:"explanation"`
	KeyStrengths []string `json:"key_strengths"`
	Concerns     []string `json:"concerns"`
	Source       Source   `json:"source"`
}

// NewResult clamps score to [0,100] and confidence to [0,1], derives the category
// and copies the slices.
func NewResult(candidateID, jobID string, score, confidence float64, explanation string, strengths, concerns []string, source Source) MatchResult {
	score = clamp(score, 0, 100)
	return MatchResult{
		CandidateID:  candidateID,
		JobID:        jobID,
		Score:        score,
		Confidence:   clamp(confidence, 0, 1),
		Category:     CategoryFor(score),
		Explanation:  explanation,
		KeyStrengths: copyStrings(strengths),
		Concerns:     copyStrings(concerns),
		Source:       source,
	}
}

// WithIDs returns a copy of r stamped with other ids.
func (r MatchResult) WithIDs(candidateID, jobID string) MatchResult {
	return NewResult(candidateID, jobID, r.Score, r.Confidence, r.Explanation, r.KeyStrengths, r.Concerns, r.Source)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
