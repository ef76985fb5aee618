package filtering

import (
	"encoding/json"
	"os"
	"time"

	"github.com/spigell/talent-matcher/internal/profile"
)

// Pool is the list of candidates being narrowed down. Order is preserved by every step.
type Pool struct {
	Items []profile.Candidate
}

// NewPool copies candidates into a pool.
func NewPool(candidates []profile.Candidate) *Pool {
	return &Pool{Items: append([]profile.Candidate(nil), candidates...)}
}

func (p *Pool) Len() int {
	return len(p.Items)
}

// IDs returns candidate ids in pool order.
func (p *Pool) IDs() []string {
	ids := make([]string, 0, len(p.Items))
	for _, c := range p.Items {
		ids = append(ids, c.ID)
	}
	return ids
}

// Exclude removes every candidate whose id is in targets and returns the removed ids.
func (p *Pool) Exclude(targets []string) []string {
	drop := make(map[string]struct{}, len(targets))
	for _, id := range targets {
		drop[id] = struct{}{}
	}

	var excluded []string
	kept := p.Items[:0]
	for _, c := range p.Items {
		if _, ok := drop[c.ID]; ok {
			excluded = append(excluded, c.ID)
			continue
		}
		kept = append(kept, c)
	}
	p.Items = kept
	return excluded
}

// ExcludedCandidates is the content of an exclude file.
type ExcludedCandidates struct {
	Items []*ExcludedCandidate
}

type ExcludedCandidate struct {
	ID         string
	JobID      string
	Reason     string
	ExcludedAt time.Time
}

// GetExcludedCandidatesFromFile reads an exclude file. An empty file excludes nothing.
func GetExcludedCandidatesFromFile(path string) (*ExcludedCandidates, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &ExcludedCandidates{}, nil
	}

	var excluded ExcludedCandidates
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, err
	}
	return &excluded, nil
}

func (e *ExcludedCandidates) Append(s *ExcludedCandidates) {
	e.Items = append(e.Items, s.Items...)
}

func (e *ExcludedCandidates) CandidateIDs() []string {
	ids := make([]string, 0, len(e.Items))
	for _, c := range e.Items {
		ids = append(ids, c.ID)
	}
	return ids
}

// ToFile overwrites path with the exclude list.
func (e *ExcludedCandidates) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}
