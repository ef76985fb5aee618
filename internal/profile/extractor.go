package profile

import (
	"context"
	_ "embed"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/spigell/talent-matcher/internal/ai"
	"github.com/spigell/talent-matcher/internal/cache"
	"github.com/spigell/talent-matcher/internal/schemas"
	"github.com/spigell/talent-matcher/internal/skills"
	"github.com/spigell/talent-matcher/internal/utils"
)

//go:embed prompt.md
var systemPrompt string

// Options configure an Extractor. Zero values select defaults.
type Options struct {
	Vocabulary   *skills.Vocabulary
	Cache        cache.Store
	CacheTTL     time.Duration
	MaxLogLength int
}

// Extractor turns resume text into a Profile. It never fails: when the backend is
// unavailable or answers badly, it falls back to a keyword scan for skills.
type Extractor struct {
	generator  ai.Generator
	vocabulary *skills.Vocabulary
	cache      cache.Store
	cacheTTL   time.Duration
	maxLogLen  int
	validate   *validator.Validate
	logger     *zap.Logger
}

type answer struct {
	Name              string   `json:"name"`
	Email             string   `json:"email"`
	Phone             string   `json:"phone"`
	Skills            []string `json:"skills"`
	Titles            []string `json:"titles"`
	ExperienceSummary string   `json:"experience_summary"`
	Education         []string `json:"education"`
}

// NewExtractor creates an extractor. generator may be nil, in which case every
// extraction uses the keyword scan.
func NewExtractor(generator ai.Generator, opts Options, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Vocabulary == nil {
		opts.Vocabulary = skills.Default()
	}

	return &Extractor{
		generator:  generator,
		vocabulary: opts.Vocabulary,
		cache:      opts.Cache,
		cacheTTL:   opts.CacheTTL,
		maxLogLen:  opts.MaxLogLength,
		validate:   validator.New(),
		logger:     logger,
	}
}

// Extract parses raw resume text.
func (e *Extractor) Extract(ctx context.Context, rawText string) Profile {
	text := strings.TrimSpace(rawText)
	if text == "" {
		return Empty()
	}

	if truncated, cut := utils.TruncateRunes(text, ai.MaxInputRunes); cut {
		e.logger.Warn("resume text is too long, truncating",
			zap.Int("limit", ai.MaxInputRunes),
		)
		text = truncated
	}

	key := cache.Key("profile", utils.ContentHash([]byte(text)))
	if e.cache != nil {
		var cached Profile
		ok, err := e.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			e.logger.Debug("profile cache lookup failed", zap.Error(err))
		}
		if ok {
			e.logger.Debug("profile served from cache")
			return cached
		}
	}

	p, err := e.extractWithAI(ctx, text)
	if err != nil {
		e.logger.Warn("profile extraction degraded to keyword scan", zap.Error(err))
		return e.keywordProfile(text)
	}

	if e.cache != nil {
		if err := e.cache.SetJSON(ctx, key, p, e.cacheTTL); err != nil {
			e.logger.Debug("profile cache store failed", zap.Error(err))
		}
	}

	return p
}

func (e *Extractor) extractWithAI(ctx context.Context, text string) (Profile, error) {
	var a answer
	if err := ai.Call(ctx, e.generator, e.logger, e.maxLogLen, systemPrompt, text, schemas.Profile, &a); err != nil {
		return Profile{}, err
	}

	email := strings.TrimSpace(a.Email)
	if email != "" {
		if err := e.validate.Var(email, "email"); err != nil {
			e.logger.Debug("dropping invalid email", zap.String("email", email))
			email = ""
		}
	}

	return New(
		strings.TrimSpace(a.Name),
		email,
		strings.TrimSpace(a.Phone),
		strings.TrimSpace(a.ExperienceSummary),
		a.Skills,
		a.Titles,
		a.Education,
	), nil
}

func (e *Extractor) keywordProfile(text string) Profile {
	p := Empty()
	p.Skills = e.vocabulary.Scan(text).Sorted()
	return p
}

// dedupe trims entries and drops blanks and repeats, keeping first-seen order.
func dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}
