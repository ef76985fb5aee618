package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/talent-matcher/internal/filtering"
	"github.com/spigell/talent-matcher/internal/report"
	"github.com/spigell/talent-matcher/internal/scoring"
)

const (
	PromptBack              = "Back"
	PromptShortlistAppended = "Append shortlisted candidates to the exclude file"
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank candidates against a job and print the top matches",
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		logger, config, c := bootstrap(ctx)
		defer c.Close()

		jobPath, _ := cmd.Flags().GetString("job")
		specPath, _ := cmd.Flags().GetString("requirement")
		candidatesPath, _ := cmd.Flags().GetString("candidates")
		k, _ := cmd.Flags().GetInt("top")
		format, _ := cmd.Flags().GetString("output")
		interactive, _ := cmd.Flags().GetBool("interactive")
		markShortlisted, _ := cmd.Flags().GetBool("mark-shortlisted")
		noExclusions, _ := cmd.Flags().GetBool("no-exclusions")

		if k <= 0 && config.Matching != nil {
			k = config.Matching.TopK
		}

		req, err := loadRequirement(ctx, c, jobPath, specPath)
		if err != nil {
			c.fatal(logger, "loading job", zap.Error(err))
		}

		concurrency := 0
		if config.Matching != nil {
			concurrency = config.Matching.Concurrency
		}
		candidates, err := loadCandidates(ctx, c, candidatesPath, concurrency)
		if err != nil {
			c.fatal(logger, "loading candidates", zap.Error(err))
		}

		ranker := c.ranker
		if noExclusions {
			ranker = ranker.WithoutFilters("--no-exclusions", filtering.NameExclude, filtering.NameExcludeFile)
		}

		results, err := ranker.Rank(ctx, req, candidates, k)
		if err != nil {
			c.fatal(logger, "ranking candidates", zap.Error(err))
		}

		excludeFile := ""
		if c.exclusions != nil {
			excludeFile = c.exclusions.ExcludeFile
		}

		if markShortlisted {
			if excludeFile == "" {
				c.fatal(logger, "--mark-shortlisted requires matching.exclude.file in the config")
			}
			if err := appendToExcludeFile(excludeFile, req.ID, results); err != nil {
				c.fatal(logger, "updating exclude file", zap.Error(err))
			}
			logger.Info("shortlisted candidates appended to the exclude file",
				zap.String("file", excludeFile),
				zap.Int("count", len(results)),
			)
		}

		out := cmd.OutOrStdout()
		if interactive {
			if err := browse(out, results, excludeFile, req.ID, logger); err != nil {
				c.fatal(logger, "interactive mode", zap.Error(err))
			}
			return
		}

		if err := report.Write(out, format, results); err != nil {
			c.fatal(logger, "printing results", zap.Error(err))
		}
	},
}

// browse lets the user walk through the ranked candidates and read each explanation.
func browse(out io.Writer, results []scoring.MatchResult, excludeFile, jobID string, logger *zap.Logger) error {
	if err := report.Table(out, results); err != nil {
		return err
	}

	for {
		items := make([]string, 0, len(results)+2)
		for i, r := range results {
			items = append(items, fmt.Sprintf("%d. %s | %.0f | %s | %s", i+1, r.CandidateID, r.Score, r.Category, r.Source))
		}
		if excludeFile != "" && len(results) > 0 {
			items = append(items, PromptShortlistAppended)
		}
		items = append(items, PromptBack)

		prompt := promptui.Select{
			Label: "Choose a candidate and press ENTER",
			Items: items,
			Size:  10,
		}

		idx, choice, err := prompt.Run()
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("prompt failed: %w", err)
		}

		switch choice {
		case PromptBack:
			return nil
		case PromptShortlistAppended:
			if err := appendToExcludeFile(excludeFile, jobID, results); err != nil {
				return err
			}
			logger.Info("shortlisted candidates appended to the exclude file",
				zap.String("file", excludeFile),
				zap.Int("count", len(results)),
			)
			results = nil
		default:
			fmt.Fprintln(out, report.Explain(results[idx]))
		}
	}
}

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().String("job", "", "job description file (txt, md, pdf, docx)")
	rankCmd.Flags().String("requirement", "", "structured requirement file (json)")
	rankCmd.Flags().String("candidates", "", "a directory with resumes or a json file with candidate profiles")
	rankCmd.Flags().IntP("top", "k", 0, "how many candidates to return (default is matching.top-k)")
	rankCmd.Flags().StringP("output", "o", report.FormatTable, "output format: table or json")
	rankCmd.Flags().BoolP("interactive", "i", false, "browse the results interactively")
	rankCmd.Flags().Bool("no-exclusions", false, "ignore configured exclusions and the exclude file")
	rankCmd.Flags().Bool("mark-shortlisted", false, "append the returned candidates to the exclude file")
	rankCmd.MarkFlagRequired("candidates")
}
