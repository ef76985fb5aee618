// Package report renders rankings for people and for other programs.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/spigell/talent-matcher/internal/scoring"
)

const (
	FormatTable = "table"
	FormatJSON  = "json"
)

const maxStrengthsInTable = 3

// Write renders results in the given format.
func Write(w io.Writer, format string, results []scoring.MatchResult) error {
	switch format {
	case FormatTable, "":
		return Table(w, results)
	case FormatJSON:
		return JSON(w, results)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// Table prints one row per result in rank order.
func Table(w io.Writer, results []scoring.MatchResult) error {
	table := tablewriter.NewWriter(w)
	table.Header("#", "Candidate", "Score", "Category", "Confidence", "Source", "Key strengths")

	for i, r := range results {
		if err := table.Append([]string{
			strconv.Itoa(i + 1),
			r.CandidateID,
			strconv.FormatFloat(r.Score, 'f', 0, 64),
			string(r.Category),
			strconv.FormatFloat(r.Confidence, 'f', 2, 64),
			string(r.Source),
			summarize(r.KeyStrengths, maxStrengthsInTable),
		}); err != nil {
			return fmt.Errorf("append row: %w", err)
		}
	}

	return table.Render()
}

// JSON prints the results as an indented JSON array.
func JSON(w io.Writer, results []scoring.MatchResult) error {
	if results == nil {
		results = []scoring.MatchResult{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

// Explain returns the full, human-readable assessment of one result.
func Explain(r scoring.MatchResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Candidate:  %s\n", r.CandidateID)
	if r.JobID != "" {
		fmt.Fprintf(&sb, "Job:        %s\n", r.JobID)
	}
	fmt.Fprintf(&sb, "Score:      %.0f (%s)\n", r.Score, r.Category)
	fmt.Fprintf(&sb, "Confidence: %.2f\n", r.Confidence)
	fmt.Fprintf(&sb, "Source:     %s\n\n", r.Source)
	fmt.Fprintf(&sb, "%s\n", r.Explanation)

	writeList(&sb, "Key strengths", r.KeyStrengths)
	writeList(&sb, "Concerns", r.Concerns)
	return sb.String()
}

func writeList(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(sb, "  - %s\n", item)
	}
}

func summarize(items []string, limit int) string {
	if len(items) <= limit {
		return strings.Join(items, ", ")
	}
	return strings.Join(items[:limit], ", ") + fmt.Sprintf(" (+%d)", len(items)-limit)
}
