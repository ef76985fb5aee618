// Package requirement turns job descriptions into structured Requirements.
package requirement

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/spigell/talent-matcher/internal/skills"
	"github.com/spigell/talent-matcher/internal/utils"
)

// Requirement is the structured view of a job's needs.
type Requirement struct {
	ID                 string   `json:"id,omitempty"`
	Title              string   `json:"title,omitempty"`
	RequiredSkills     []string `json:"required_skills"`
	NiceToHaveSkills   []string `json:"nice_to_have_skills"`
	MinExperienceYears *float64 `json:"min_experience_years"`
	ExperienceLevel    string   `json:"experience_level,omitempty"`
	RawText            string   `json:"raw_text"`
	// Degraded is set when the requirement was inferred by keyword scan.
	Degraded bool `json:"degraded"`
}

// Spec is directly supplied structured input, e.g. a job posting stored by the caller.
type Spec struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	RequiredSkills     []string `json:"required_skills"`
	NiceToHaveSkills   []string `json:"nice_to_have_skills"`
	MinExperienceYears *float64 `json:"min_experience_years" validate:"omitempty,gte=0,lte=60"`
	ExperienceLevel    string   `json:"experience_level"`
	RawText            string   `json:"raw_text"`
}

var validate = validator.New()

// New builds a Requirement from structured input. Skill names are normalized and a
// skill listed as both required and nice-to-have is kept as required only.
func New(spec Spec) (Requirement, error) {
	if err := validate.Struct(spec); err != nil {
		return Requirement{}, fmt.Errorf("invalid requirement: %w", err)
	}
	return build(spec, false), nil
}

func build(spec Spec, degraded bool) Requirement {
	required := skills.NewSet(spec.RequiredSkills...)
	nice := skills.NewSet(spec.NiceToHaveSkills...).Difference(required)

	var years *float64
	if spec.MinExperienceYears != nil {
		v := *spec.MinExperienceYears
		years = &v
	}

	return Requirement{
		ID:                 strings.TrimSpace(spec.ID),
		Title:              strings.TrimSpace(spec.Title),
		RequiredSkills:     required.Sorted(),
		NiceToHaveSkills:   nice.Sorted(),
		MinExperienceYears: years,
		ExperienceLevel:    strings.TrimSpace(spec.ExperienceLevel),
		RawText:            spec.RawText,
		Degraded:           degraded,
	}
}

// Required returns the required skills as a set.
func (r Requirement) Required() skills.Set {
	return skills.NewSet(r.RequiredSkills...)
}

// NiceToHave returns the nice-to-have skills as a set.
func (r Requirement) NiceToHave() skills.Set {
	return skills.NewSet(r.NiceToHaveSkills...)
}

// Hash is a content hash of the requirement; the id does not take part.
func (r Requirement) Hash() string {
	canonical := r
	canonical.ID = ""
	canonical.RequiredSkills = r.Required().Sorted()
	canonical.NiceToHaveSkills = r.NiceToHave().Sorted()
	b, _ := json.Marshal(canonical)
	return utils.ContentHash(b)
}
