package cmd

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/talent-matcher/internal/filtering"
	"github.com/spigell/talent-matcher/internal/profile"
	"github.com/spigell/talent-matcher/internal/scoring"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestIDFromPath(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"/tmp/resumes/alice.pdf": "alice",
		"bob.smith.docx":         "bob.smith",
		"job":                    "job",
	}
	for path, want := range cases {
		if got := idFromPath(path); got != want {
			t.Fatalf("idFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestLoadRequirementFromSpecFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "backend.json", `{"title":"Backend","required_skills":["Golang","k8s"],"nice_to_have_skills":["go","redis"]}`)

	req, err := loadRequirement(context.Background(), nil, "", path)
	if err != nil {
		t.Fatalf("loadRequirement returned error: %v", err)
	}
	if req.ID != "backend" {
		t.Fatalf("unexpected id %q", req.ID)
	}
	if !slices.Equal(req.RequiredSkills, []string{"go", "kubernetes"}) {
		t.Fatalf("unexpected required skills %v", req.RequiredSkills)
	}
	if !slices.Equal(req.NiceToHaveSkills, []string{"redis"}) {
		t.Fatalf("unexpected nice to have skills %v", req.NiceToHaveSkills)
	}
}

func TestLoadRequirementRejectsAmbiguousInput(t *testing.T) {
	t.Parallel()

	if _, err := loadRequirement(context.Background(), nil, "job.txt", "job.json"); err == nil {
		t.Fatal("expected an error when both inputs are given")
	}
	if _, err := loadRequirement(context.Background(), nil, "", ""); err == nil {
		t.Fatal("expected an error without inputs")
	}
}

func TestLoadCandidatesFromJSON(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "candidates.json", `[
		{"id":" c1 ","profile":{"name":"Alice","skills":["Golang","Docker","golang"]}},
		{"id":"c2","profile":{"name":"Bob"}}
	]`)

	candidates, err := loadCandidates(context.Background(), nil, path, 2)
	if err != nil {
		t.Fatalf("loadCandidates returned error: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].ID != "c1" {
		t.Fatalf("id was not trimmed: %q", candidates[0].ID)
	}
	if !slices.Equal(candidates[0].Profile.Skills, []string{"docker", "go"}) {
		t.Fatalf("skills were not normalized: %v", candidates[0].Profile.Skills)
	}
}

func TestLoadCandidatesFromDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "alice.txt", "Alice\nGo developer, 5 years with Kubernetes and PostgreSQL.")
	writeFile(t, dir, "bob.md", "# Bob\nPython and Django.")
	writeFile(t, dir, "notes.csv", "ignored")

	c := &components{extractor: profile.NewExtractor(nil, profile.Options{}, zap.NewNop())}

	candidates, err := loadCandidates(context.Background(), c, dir, 2)
	if err != nil {
		t.Fatalf("loadCandidates returned error: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].ID != "alice" || candidates[1].ID != "bob" {
		t.Fatalf("unexpected ids %q, %q", candidates[0].ID, candidates[1].ID)
	}
	if !candidates[0].Profile.SkillSet().Has("kubernetes") {
		t.Fatalf("expected kubernetes in %v", candidates[0].Profile.Skills)
	}
}

func TestAppendToExcludeFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "exclude.json")
	first := []scoring.MatchResult{{CandidateID: "c1"}}
	second := []scoring.MatchResult{{CandidateID: "c2"}, {CandidateID: "c3"}}

	if err := appendToExcludeFile(path, "job-1", first); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := appendToExcludeFile(path, "job-1", second); err != nil {
		t.Fatalf("second append: %v", err)
	}

	excluded, err := filtering.GetExcludedCandidatesFromFile(path)
	if err != nil {
		t.Fatalf("read exclude file: %v", err)
	}
	if got := excluded.CandidateIDs(); !slices.Equal(got, []string{"c1", "c2", "c3"}) {
		t.Fatalf("unexpected ids %v", got)
	}
	for _, item := range excluded.Items {
		if item.JobID != "job-1" || item.Reason != "shortlisted" || item.ExcludedAt.IsZero() {
			t.Fatalf("unexpected entry %+v", item)
		}
	}
}
