// Package profile turns raw resume text into a structured candidate Profile.
package profile

import (
	"encoding/json"

	"github.com/spigell/talent-matcher/internal/skills"
	"github.com/spigell/talent-matcher/internal/utils"
)

// Profile is the structured view of a candidate. Any field may be empty.
// Skills are normalized and kept sorted.
type Profile struct {
	Name              string   `json:"name,omitempty"`
	Email             string   `json:"email,omitempty"`
	Phone             string   `json:"phone,omitempty"`
	Skills            []string `json:"skills"`
	ExperienceSummary string   `json:"experience_summary,omitempty"`
	Titles            []string `json:"titles"`
	Education         []string `json:"education"`
}

// Candidate is one entry of a ranking pool. The id is opaque and supplied by the caller.
type Candidate struct {
	ID      string  `json:"id"`
	Profile Profile `json:"profile"`
}

// Empty returns a profile with every field empty.
func Empty() Profile {
	return Profile{Skills: []string{}, Titles: []string{}, Education: []string{}}
}

// New builds a profile, normalizing skills and copying slices.
func New(name, email, phone, summary string, skillNames, titles, education []string) Profile {
	return Profile{
		Name:              name,
		Email:             email,
		Phone:             phone,
		Skills:            skills.NewSet(skillNames...).Sorted(),
		ExperienceSummary: summary,
		Titles:            dedupe(titles),
		Education:         dedupe(education),
	}
}

// SkillSet returns the profile skills as a set.
func (p Profile) SkillSet() skills.Set {
	return skills.NewSet(p.Skills...)
}

// Hash is a content hash of the profile, stable under skill ordering.
func (p Profile) Hash() string {
	canonical := p
	canonical.Skills = p.SkillSet().Sorted()
	b, _ := json.Marshal(canonical)
	return utils.ContentHash(b)
}
