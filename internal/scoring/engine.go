package scoring

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/talent-matcher/internal/ai"
	"github.com/spigell/talent-matcher/internal/cache"
	"github.com/spigell/talent-matcher/internal/logger"
	"github.com/spigell/talent-matcher/internal/profile"
	"github.com/spigell/talent-matcher/internal/requirement"
	"github.com/spigell/talent-matcher/internal/schemas"
)

//go:embed prompt.md
var systemPrompt string

const approximateSkillsNote = "Note: the job's skill lists were inferred by keyword scan. Treat them as approximate " +
	"and do not penalize the candidate for skills that may simply be missing from the lists."

// Options configure an Engine. Zero values select defaults.
type Options struct {
	Cache        cache.Store
	CacheTTL     time.Duration
	MaxLogLength int
}

// Engine scores candidate/requirement pairs through the generation backend.
type Engine struct {
	generator ai.Generator
	cache     cache.Store
	cacheTTL  time.Duration
	maxLogLen int
	logger    *zap.Logger
}

type answer struct {
	Score        float64  `json:"score"`
	Category     string   `json:"category"`
	Explanation  string   `json:"explanation"`
	KeyStrengths []string `json:"key_strengths"`
	Concerns     []string `json:"concerns"`
	Confidence   float64  `json:"confidence"`
}

type jobPayload struct {
	Title              string   `json:"title,omitempty"`
	RequiredSkills     []string `json:"required_skills"`
	NiceToHaveSkills   []string `json:"nice_to_have_skills"`
	MinExperienceYears *float64 `json:"min_experience_years,omitempty"`
	ExperienceLevel    string   `json:"experience_level,omitempty"`
	Description        string   `json:"description,omitempty"`
}

func NewEngine(generator ai.Generator, opts Options, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = cache.DefaultTTL
	}

	return &Engine{
		generator: generator,
		cache:     opts.Cache,
		cacheTTL:  opts.CacheTTL,
		maxLogLen: opts.MaxLogLength,
		logger:    log,
	}
}

// Evaluate scores the pair through the backend only. Errors wrap
// ai.ErrBackendUnavailable or ai.ErrMalformedResponse.
func (e *Engine) Evaluate(ctx context.Context, candidate profile.Candidate, req requirement.Requirement) (MatchResult, error) {
	log := logger.WithFields(e.logger, logger.MatchFields("", req.ID, candidate.ID)...)

	key := cache.Key("match", candidate.Profile.Hash(), req.Hash())
	if e.cache != nil {
		var cached MatchResult
		ok, err := e.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			log.Debug("match cache lookup failed", zap.Error(err))
		}
		if ok {
			log.Debug("match served from cache")
			return cached.WithIDs(candidate.ID, req.ID), nil
		}
	}

	message, err := buildMessage(candidate.Profile, req)
	if err != nil {
		return MatchResult{}, err
	}

	var a answer
	if err := ai.Call(ctx, e.generator, log, e.maxLogLen, systemPrompt, message, schemas.Match, &a); err != nil {
		return MatchResult{}, err
	}

	if Category(a.Category) != CategoryFor(a.Score) {
		log.Debug("backend category disagrees with score",
			zap.String("backend_category", a.Category),
			zap.Float64("score", a.Score),
		)
	}

	result := NewResult(candidate.ID, req.ID, a.Score, a.Confidence, strings.TrimSpace(a.Explanation), a.KeyStrengths, a.Concerns, SourceAI)

	if e.cache != nil {
		if err := e.cache.SetJSON(ctx, key, result, e.cacheTTL); err != nil {
			log.Debug("match cache store failed", zap.Error(err))
		}
	}

	return result, nil
}

// Score is Evaluate degraded to Fallback on any error. It never fails.
func (e *Engine) Score(ctx context.Context, candidate profile.Candidate, req requirement.Requirement) MatchResult {
	result, err := e.Evaluate(ctx, candidate, req)
	if err != nil {
		logger.WithFields(e.logger, logger.MatchFields("", req.ID, candidate.ID)...).
			Warn("scoring degraded to fallback heuristics", zap.Error(err))
		return Fallback(candidate, req)
	}
	return result
}

func buildMessage(p profile.Profile, req requirement.Requirement) (string, error) {
	job, err := json.MarshalIndent(jobPayload{
		Title:              req.Title,
		RequiredSkills:     req.RequiredSkills,
		NiceToHaveSkills:   req.NiceToHaveSkills,
		MinExperienceYears: req.MinExperienceYears,
		ExperienceLevel:    req.ExperienceLevel,
		Description:        req.RawText,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal job payload: %w", err)
	}

	candidate, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal candidate payload: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Job requirements:\n%s\n\nCandidate profile:\n%s\n", job, candidate)
	if req.Degraded {
		sb.WriteString("\n")
		sb.WriteString(approximateSkillsNote)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
