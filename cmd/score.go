package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/talent-matcher/internal/document"
	"github.com/spigell/talent-matcher/internal/profile"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score one resume against one job",
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		logger, _, c := bootstrap(ctx)
		defer c.Close()

		jobPath, _ := cmd.Flags().GetString("job")
		specPath, _ := cmd.Flags().GetString("requirement")
		resumePath, _ := cmd.Flags().GetString("resume")

		req, err := loadRequirement(ctx, c, jobPath, specPath)
		if err != nil {
			c.fatal(logger, "loading job", zap.Error(err))
		}

		text, err := document.ReadFile(resumePath)
		if err != nil {
			c.fatal(logger, "reading resume", zap.Error(err))
		}

		candidate := profile.Candidate{ID: idFromPath(resumePath), Profile: c.extractor.Extract(ctx, text)}
		result := c.engine.Score(ctx, candidate, req)

		if err := printJSON(cmd.OutOrStdout(), result); err != nil {
			c.fatal(logger, "printing result", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().String("job", "", "job description file (txt, md, pdf, docx)")
	scoreCmd.Flags().String("requirement", "", "structured requirement file (json)")
	scoreCmd.Flags().String("resume", "", "resume file (txt, md, pdf, docx)")
	scoreCmd.MarkFlagRequired("resume")
}
