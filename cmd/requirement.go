package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var requirementCmd = &cobra.Command{
	Use:   "requirement FILE",
	Short: "Build structured job requirements from a job description",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		logger, _, c := bootstrap(ctx)
		defer c.Close()

		req, err := loadRequirement(ctx, c, args[0], "")
		if err != nil {
			c.fatal(logger, "building requirement", zap.Error(err))
		}

		if req.Degraded {
			logger.Warn("requirement was inferred by keyword scan", zap.String("job_id", req.ID))
		}

		if err := printJSON(cmd.OutOrStdout(), req); err != nil {
			c.fatal(logger, "printing requirement", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(requirementCmd)
}
