package filtering

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

type dedupeFilter struct{}

// NewDedupe creates a filter that keeps the first candidate for every id.
func NewDedupe() Filter {
	return &dedupeFilter{}
}

func (f *dedupeFilter) Name() string { return NameDedupe }

// Disable is a no-op: scoring relies on unique ids.
func (f *dedupeFilter) Disable(string) {}

func (f *dedupeFilter) IsEnabled() bool { return true }

func (f *dedupeFilter) Validate(*Config) error { return nil }

func (f *dedupeFilter) Apply(_ context.Context, deps Deps, p *Pool) (*Pool, Step, error) {
	initial := p.Len()
	seen := make(map[string]struct{}, initial)
	var duplicates []string

	kept := p.Items[:0]
	for _, c := range p.Items {
		if _, ok := seen[c.ID]; ok {
			duplicates = append(duplicates, c.ID)
			continue
		}
		seen[c.ID] = struct{}{}
		kept = append(kept, c)
	}
	p.Items = kept

	if deps.Logger != nil && len(duplicates) > 0 {
		deps.Logger.Info("dropping duplicate candidates",
			zap.Strings("duplicate_candidates", duplicates),
			zap.Int("candidates_left", p.Len()),
		)
	}

	return p, Step{Initial: initial, Dropped: len(duplicates), Left: p.Len()}, nil
}

type excludeFilter struct {
	disabled bool
	reason   string
	ids      []string
}

// NewExclude creates a filter that removes the candidate ids listed in the config.
func NewExclude() Filter {
	return &excludeFilter{}
}

func (f *excludeFilter) Name() string { return NameExclude }

func (f *excludeFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *excludeFilter) IsEnabled() bool { return !f.disabled }

func (f *excludeFilter) Validate(cfg *Config) error {
	f.ids = nil
	if cfg == nil {
		return nil
	}
	for _, id := range cfg.ExcludeCandidates {
		id = strings.TrimSpace(id)
		if id == "" {
			return errors.New("excluded candidate id must not be empty")
		}
		f.ids = append(f.ids, id)
	}
	return nil
}

func (f *excludeFilter) Apply(_ context.Context, deps Deps, p *Pool) (*Pool, Step, error) {
	initial := p.Len()
	if len(f.ids) == 0 {
		return p, Step{Initial: initial, Dropped: 0, Left: p.Len()}, nil
	}

	excluded := p.Exclude(f.ids)
	if deps.Logger != nil && len(excluded) > 0 {
		deps.Logger.Info("excluding candidates by config",
			zap.Strings("excluded_candidates", excluded),
			zap.Int("candidates_left", p.Len()),
		)
	}

	return p, Step{Initial: initial, Dropped: len(excluded), Left: p.Len()}, nil
}

func (f *excludeFilter) Status() Status {
	details := map[string]string{}
	if len(f.ids) > 0 {
		details["candidates"] = strings.Join(f.ids, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

type excludeFileFilter struct {
	disabled bool
	reason   string
	path     string
}

// NewExcludeFile creates a filter that removes candidates listed in an exclude file.
func NewExcludeFile() Filter {
	return &excludeFileFilter{}
}

func (f *excludeFileFilter) Name() string { return NameExcludeFile }

func (f *excludeFileFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *excludeFileFilter) IsEnabled() bool { return !f.disabled }

func (f *excludeFileFilter) Validate(cfg *Config) error {
	f.path = ""
	if cfg != nil {
		f.path = strings.TrimSpace(cfg.ExcludeFile)
	}
	return nil
}

func (f *excludeFileFilter) Apply(_ context.Context, deps Deps, p *Pool) (*Pool, Step, error) {
	initial := p.Len()
	if f.path == "" {
		return p, Step{Initial: initial, Dropped: 0, Left: p.Len()}, nil
	}

	excluded, err := GetExcludedCandidatesFromFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		if deps.Logger != nil {
			deps.Logger.Debug("exclude file does not exist yet", zap.String("path", f.path))
		}
		return p, Step{Initial: initial, Dropped: 0, Left: p.Len()}, nil
	}
	if err != nil {
		return p, Step{}, fmt.Errorf("getting excluded candidates from file: %w", err)
	}

	removed := p.Exclude(excluded.CandidateIDs())
	if deps.Logger != nil && len(removed) > 0 {
		deps.Logger.Info("excluding candidates based on exclude file",
			zap.String("path", f.path),
			zap.Strings("excluded_candidates", removed),
			zap.Int("candidates_left", p.Len()),
		)
	}

	return p, Step{Initial: initial, Dropped: len(removed), Left: p.Len()}, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
