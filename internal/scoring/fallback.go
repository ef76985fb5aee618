package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/spigell/talent-matcher/internal/profile"
	"github.com/spigell/talent-matcher/internal/requirement"
)

// FallbackConfidence is the fixed confidence of heuristic results.
const FallbackConfidence = 0.4

const degradedNote = " The job requirements were inferred by keyword scan and may be incomplete."

// Fallback scores a candidate by the share of required skills they have.
// It is deterministic and has no side effects.
func Fallback(candidate profile.Candidate, req requirement.Requirement) MatchResult {
	required := req.Required()
	have := candidate.Profile.SkillSet()

	matched := required.Intersect(have).Sorted()
	missing := required.Difference(have).Sorted()

	overlap := float64(len(matched)) / float64(max(1, required.Len()))
	score := math.Round(100 * overlap)

	var explanation string
	switch {
	case required.Len() == 0:
		explanation = "Heuristic assessment: the job lists no required skills, so no skill overlap could be measured."
	case len(matched) == 0:
		explanation = fmt.Sprintf("Heuristic assessment: matched 0 of %d required skills. Missing: %s.",
			required.Len(), strings.Join(missing, ", "))
	case len(missing) == 0:
		explanation = fmt.Sprintf("Heuristic assessment: matched all %d required skills: %s.",
			required.Len(), strings.Join(matched, ", "))
	default:
		explanation = fmt.Sprintf("Heuristic assessment: matched %d of %d required skills: %s. Missing: %s.",
			len(matched), required.Len(), strings.Join(matched, ", "), strings.Join(missing, ", "))
	}
	if req.Degraded {
		explanation += degradedNote
	}

	return NewResult(candidate.ID, req.ID, score, FallbackConfidence, explanation, matched, missing, SourceFallback)
}
