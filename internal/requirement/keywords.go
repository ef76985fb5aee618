package requirement

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/spigell/talent-matcher/internal/skills"
)

var (
	sentenceSplit = regexp.MustCompile(`[.!?;]+(?:\s+|$)|\n+`)
	niceMarker    = regexp.MustCompile(`(?i)\b(nice[ -]to[ -]have|plus|bonus|preferred|optional)\b`)
	yearsPattern  = regexp.MustCompile(`(?i)\b(\d{1,2}(?:\.\d+)?)\s*\+?\s*(?:years?|yrs?)\b`)
	levelPattern  = regexp.MustCompile(`(?i)\b(junior|entry[ -]level|intern|mid[ -]level|middle|mid|senior|lead|principal|staff)\b`)
)

const maxTitleRunes = 80

// fromKeywords infers a requirement from plain text without the generation backend.
func fromKeywords(text string, vocabulary *skills.Vocabulary) Requirement {
	if vocabulary == nil {
		vocabulary = skills.Default()
	}
	required := skills.NewSet()
	nice := skills.NewSet()

	for _, sentence := range sentenceSplit.Split(text, -1) {
		found := vocabulary.Scan(sentence)
		target := required
		if niceMarker.MatchString(sentence) {
			target = nice
		}
		for skill := range found {
			target[skill] = struct{}{}
		}
	}

	return build(Spec{
		Title:              guessTitle(text),
		RequiredSkills:     required.Sorted(),
		NiceToHaveSkills:   nice.Sorted(),
		MinExperienceYears: parseYears(text),
		ExperienceLevel:    parseLevel(text),
		RawText:            text,
	}, true)
}

func parseYears(text string) *float64 {
	m := yearsPattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v > 60 {
		return nil
	}
	return &v
}

func parseLevel(text string) string {
	m := levelPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	switch word := strings.ToLower(m[1]); {
	case word == "junior" || word == "intern" || strings.HasPrefix(word, "entry"):
		return "Junior"
	case strings.HasPrefix(word, "mid"):
		return "Mid"
	default:
		return "Senior"
	}
}

// guessTitle takes the first line when it is short enough to be a heading.
func guessTitle(text string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	line = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(line), ".:"))
	if line == "" || len([]rune(line)) > maxTitleRunes {
		return ""
	}
	return line
}
