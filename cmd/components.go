package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/talent-matcher/internal/ai"
	"github.com/spigell/talent-matcher/internal/ai/gemini"
	"github.com/spigell/talent-matcher/internal/ai/httpgen"
	"github.com/spigell/talent-matcher/internal/cache"
	"github.com/spigell/talent-matcher/internal/filtering"
	"github.com/spigell/talent-matcher/internal/logger"
	"github.com/spigell/talent-matcher/internal/profile"
	"github.com/spigell/talent-matcher/internal/ranking"
	"github.com/spigell/talent-matcher/internal/requirement"
	"github.com/spigell/talent-matcher/internal/scoring"
	"github.com/spigell/talent-matcher/internal/secrets"
	"github.com/spigell/talent-matcher/internal/skills"
)

const (
	providerGemini = "gemini"
	providerHTTP   = "http"
)

// components holds everything a command needs, built once from the config.
type components struct {
	extractor *profile.Extractor
	builder   *requirement.Builder
	engine    *scoring.Engine
	ranker    *ranking.Ranker

	exclusions *filtering.Config
	closers    []func() error
}

func newComponents(ctx context.Context, config *Config, log *zap.Logger) (*components, error) {
	vocabulary, err := newVocabulary(config.Skills)
	if err != nil {
		return nil, err
	}
	log.Debug("skills vocabulary loaded", zap.Int("skills", len(vocabulary.Skills())))

	generator, err := newGenerator(ctx, config.AI, log)
	if err != nil {
		log.Warn("generation backend is not available, using fallback heuristics only", zap.Error(err))
		generator = nil
	}

	c := &components{}

	ttl := cache.DefaultTTL
	if config.Cache != nil && config.Cache.TTL > 0 {
		ttl = config.Cache.TTL
	}
	store := newCache(ctx, config.Cache, log, c)

	maxLogLength := 0
	if config.AI != nil && config.AI.Gemini != nil {
		maxLogLength = config.AI.Gemini.MaxLogLength
	}

	componentLogger := logger.WithCommonFields(log, providerName(config.AI, generator), ai.ModelOf(generator))

	c.extractor = profile.NewExtractor(generator, profile.Options{
		Vocabulary:   vocabulary,
		Cache:        store,
		CacheTTL:     ttl,
		MaxLogLength: maxLogLength,
	}, componentLogger)

	c.builder = requirement.NewBuilder(generator, requirement.Options{
		Vocabulary:   vocabulary,
		Cache:        store,
		CacheTTL:     ttl,
		MaxLogLength: maxLogLength,
	}, componentLogger)

	c.engine = scoring.NewEngine(generator, scoring.Options{
		Cache:        store,
		CacheTTL:     ttl,
		MaxLogLength: maxLogLength,
	}, componentLogger)

	opts := ranking.Options{}
	if m := config.Matching; m != nil {
		opts.Concurrency = m.Concurrency
		opts.CallTimeout = m.CallTimeout
		if m.Exclude != nil {
			c.exclusions = &filtering.Config{
				ExcludeCandidates: m.Exclude.Candidates,
				ExcludeFile:       m.Exclude.File,
			}
		}
	}
	opts.Exclusions = c.exclusions
	c.ranker = ranking.NewRanker(c.engine, opts, componentLogger)

	return c, nil
}

func (c *components) Close() error {
	var errs []error
	for _, closeFn := range c.closers {
		errs = append(errs, closeFn())
	}
	c.closers = nil
	return errors.Join(errs...)
}

// fatal releases the components before logger.Fatal exits the process.
func (c *components) fatal(log *zap.Logger, msg string, fields ...zap.Field) {
	if err := c.Close(); err != nil {
		log.Warn("closing components", zap.Error(err))
	}
	log.Fatal(msg, fields...)
}

func newGenerator(ctx context.Context, cfg *AIConfig, log *zap.Logger) (ai.Generator, error) {
	if cfg == nil || !cfg.Enabled {
		log.Info("generation backend disabled, using fallback heuristics only")
		return nil, nil
	}

	switch provider := strings.TrimSpace(strings.ToLower(cfg.Provider)); provider {
	case "", providerGemini:
		gcfg := cfg.Gemini
		if gcfg == nil {
			gcfg = &GeminiConfig{}
		}

		apiKey, err := secrets.Load(secrets.Source{
			Name: "gemini api key",
			File: gcfg.APIKeyFile,
			Env:  "GEMINI_API_KEY",
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.gemini.api-key-file, GEMINI_API_KEY_FILE or GEMINI_API_KEY)", err)
		}

		genLogger := logger.WithCommonFields(log, providerGemini, gcfg.Model).With(
			zap.Int("ai_retry_attempts", gcfg.MaxRetries),
		)

		generator, err := gemini.NewGenerator(ctx, apiKey, gemini.Options{
			Model:        gcfg.Model,
			MaxRetries:   gcfg.MaxRetries,
			MaxQuotaWait: gcfg.MaxQuotaWait,
		}, genLogger)
		if err != nil {
			return nil, err
		}
		return generator, nil

	case providerHTTP:
		hcfg := cfg.HTTP
		if hcfg == nil || strings.TrimSpace(hcfg.URL) == "" {
			return nil, errors.New("ai.http.url is required for the http provider")
		}

		apiKey := ""
		if strings.TrimSpace(hcfg.APIKeyFile) != "" {
			key, err := secrets.Load(secrets.Source{Name: "completion api key", File: hcfg.APIKeyFile})
			if err != nil {
				return nil, err
			}
			apiKey = key
		}

		client, err := httpgen.New(hcfg.URL, hcfg.Model, apiKey, hcfg.Timeout, logger.WithCommonFields(log, providerHTTP, hcfg.Model))
		if err != nil {
			return nil, err
		}
		return client, nil

	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
}

func providerName(cfg *AIConfig, generator ai.Generator) string {
	if generator == nil || cfg == nil {
		return "none"
	}
	if cfg.Provider == "" {
		return providerGemini
	}
	return cfg.Provider
}

func newCache(ctx context.Context, cfg *CacheConfig, log *zap.Logger, c *components) cache.Store {
	if cfg != nil && cfg.Redis != nil && strings.TrimSpace(cfg.Redis.Addr) != "" {
		r := cache.NewRedis(ctx, cache.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, log)
		c.closers = append(c.closers, r.Close)
		return r
	}
	return cache.NewMemory()
}

func newVocabulary(cfg *SkillsConfig) (*skills.Vocabulary, error) {
	if cfg == nil {
		return skills.Default(), nil
	}

	extra := append([]string{}, cfg.Extra...)
	if path := strings.TrimSpace(cfg.VocabularyFile); path != "" {
		names, err := skills.LoadFile(path)
		if err != nil {
			return nil, err
		}
		extra = append(extra, names...)
	}
	return skills.Default(extra...), nil
}
