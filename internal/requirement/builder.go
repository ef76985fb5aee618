package requirement

import (
	"context"
	_ "embed"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/talent-matcher/internal/ai"
	"github.com/spigell/talent-matcher/internal/cache"
	"github.com/spigell/talent-matcher/internal/schemas"
	"github.com/spigell/talent-matcher/internal/skills"
	"github.com/spigell/talent-matcher/internal/utils"
)

//go:embed prompt.md
var systemPrompt string

// Options configure a Builder. Zero values select defaults.
type Options struct {
	Vocabulary   *skills.Vocabulary
	Cache        cache.Store
	CacheTTL     time.Duration
	MaxLogLength int
}

// Builder turns job descriptions into Requirements. Like the profile extractor it
// never fails; a keyword heuristic stands in for the backend and marks the result degraded.
type Builder struct {
	generator  ai.Generator
	vocabulary *skills.Vocabulary
	cache      cache.Store
	cacheTTL   time.Duration
	maxLogLen  int
	logger     *zap.Logger
}

type answer struct {
	Title              string   `json:"title"`
	RequiredSkills     []string `json:"required_skills"`
	NiceToHaveSkills   []string `json:"nice_to_have_skills"`
	MinExperienceYears *float64 `json:"min_experience_years"`
	ExperienceLevel    string   `json:"experience_level"`
}

func NewBuilder(generator ai.Generator, opts Options, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Vocabulary == nil {
		opts.Vocabulary = skills.Default()
	}

	return &Builder{
		generator:  generator,
		vocabulary: opts.Vocabulary,
		cache:      opts.Cache,
		cacheTTL:   opts.CacheTTL,
		maxLogLen:  opts.MaxLogLength,
		logger:     logger,
	}
}

// Build parses a job description. The returned requirement has no id; callers assign one.
func (b *Builder) Build(ctx context.Context, description string) Requirement {
	text := strings.TrimSpace(description)
	if text == "" {
		return build(Spec{}, false)
	}

	if truncated, cut := utils.TruncateRunes(text, ai.MaxInputRunes); cut {
		b.logger.Warn("job description is too long, truncating",
			zap.Int("limit", ai.MaxInputRunes),
		)
		text = truncated
	}

	key := cache.Key("requirement", utils.ContentHash([]byte(text)))
	if b.cache != nil {
		var cached Requirement
		ok, err := b.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			b.logger.Debug("requirement cache lookup failed", zap.Error(err))
		}
		if ok {
			b.logger.Debug("requirement served from cache")
			return cached
		}
	}

	var a answer
	if err := ai.Call(ctx, b.generator, b.logger, b.maxLogLen, systemPrompt, text, schemas.Requirement, &a); err != nil {
		b.logger.Warn("requirement extraction degraded to keyword scan", zap.Error(err))
		return fromKeywords(text, b.vocabulary)
	}

	req := build(Spec{
		Title:              a.Title,
		RequiredSkills:     a.RequiredSkills,
		NiceToHaveSkills:   a.NiceToHaveSkills,
		MinExperienceYears: a.MinExperienceYears,
		ExperienceLevel:    a.ExperienceLevel,
		RawText:            text,
	}, false)

	if b.cache != nil {
		if err := b.cache.SetJSON(ctx, key, req, b.cacheTTL); err != nil {
			b.logger.Debug("requirement cache store failed", zap.Error(err))
		}
	}

	return req
}
