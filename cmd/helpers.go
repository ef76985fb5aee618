package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/talent-matcher/internal/document"
	"github.com/spigell/talent-matcher/internal/filtering"
	"github.com/spigell/talent-matcher/internal/logger"
	"github.com/spigell/talent-matcher/internal/profile"
	"github.com/spigell/talent-matcher/internal/requirement"
	"github.com/spigell/talent-matcher/internal/scoring"
)

// bootstrap builds the logger, the config and the components; any failure is fatal.
func bootstrap(ctx context.Context) (*zap.Logger, *Config, *components) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Debug("starting the talent-matcher",
		zap.String("version", version),
		zap.String("config", viper.ConfigFileUsed()),
	)

	c, err := newComponents(ctx, config, logger)
	if err != nil {
		logger.Fatal("building components", zap.Error(err))
	}

	return logger, config, c
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// idFromPath uses the file name without extension as an id.
func idFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// loadRequirement reads a job description (text, pdf, docx) or a structured requirement (json).
func loadRequirement(ctx context.Context, c *components, jobPath, specPath string) (requirement.Requirement, error) {
	switch {
	case jobPath != "" && specPath != "":
		return requirement.Requirement{}, errors.New("use either --job or --requirement, not both")
	case specPath != "":
		data, err := os.ReadFile(specPath)
		if err != nil {
			return requirement.Requirement{}, fmt.Errorf("read requirement: %w", err)
		}
		var spec requirement.Spec
		if err := json.Unmarshal(data, &spec); err != nil {
			return requirement.Requirement{}, fmt.Errorf("decode requirement %s: %w", specPath, err)
		}
		if spec.ID == "" {
			spec.ID = idFromPath(specPath)
		}
		return requirement.New(spec)
	case jobPath != "":
		text, err := document.ReadFile(jobPath)
		if err != nil {
			return requirement.Requirement{}, err
		}
		req := c.builder.Build(ctx, text)
		req.ID = idFromPath(jobPath)
		return req, nil
	default:
		return requirement.Requirement{}, errors.New("a job is required: pass --job or --requirement")
	}
}

// loadCandidates reads a JSON array of candidates, or extracts one candidate per
// resume file found in a directory.
func loadCandidates(ctx context.Context, c *components, path string, concurrency int) ([]profile.Candidate, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("candidates: %w", err)
	}

	if !info.IsDir() {
		return readCandidatesFile(path)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read candidates directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !document.Supported(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(path, entry.Name()))
	}

	candidates := make([]profile.Candidate, len(files))
	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, file := range files {
		g.Go(func() error {
			text, err := document.ReadFile(file)
			if err != nil {
				return err
			}
			candidates[i] = profile.Candidate{ID: idFromPath(file), Profile: c.extractor.Extract(gctx, text)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return candidates, nil
}

func readCandidatesFile(path string) ([]profile.Candidate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read candidates: %w", err)
	}

	var raw []profile.Candidate
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode candidates %s: %w", path, err)
	}

	candidates := make([]profile.Candidate, 0, len(raw))
	for _, r := range raw {
		p := r.Profile
		candidates = append(candidates, profile.Candidate{
			ID:      strings.TrimSpace(r.ID),
			Profile: profile.New(p.Name, p.Email, p.Phone, p.ExperienceSummary, p.Skills, p.Titles, p.Education),
		})
	}
	return candidates, nil
}

// appendToExcludeFile records shortlisted candidates so later runs skip them.
func appendToExcludeFile(path, jobID string, results []scoring.MatchResult) error {
	excluded, err := filtering.GetExcludedCandidatesFromFile(path)
	if errors.Is(err, os.ErrNotExist) {
		excluded = &filtering.ExcludedCandidates{}
	} else if err != nil {
		return fmt.Errorf("read exclude file: %w", err)
	}

	now := time.Now().UTC()
	shortlisted := &filtering.ExcludedCandidates{}
	for _, r := range results {
		shortlisted.Items = append(shortlisted.Items, &filtering.ExcludedCandidate{
			ID:         r.CandidateID,
			JobID:      jobID,
			Reason:     "shortlisted",
			ExcludedAt: now,
		})
	}
	excluded.Append(shortlisted)

	return excluded.ToFile(path)
}
