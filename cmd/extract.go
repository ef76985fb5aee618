package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/talent-matcher/internal/document"
)

var extractCmd = &cobra.Command{
	Use:   "extract FILE",
	Short: "Extract a structured candidate profile from a resume (txt, md, pdf, docx)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		logger, _, c := bootstrap(ctx)
		defer c.Close()

		text, err := document.ReadFile(args[0])
		if err != nil {
			c.fatal(logger, "reading resume", zap.Error(err))
		}

		p := c.extractor.Extract(ctx, text)
		if err := printJSON(cmd.OutOrStdout(), p); err != nil {
			c.fatal(logger, "printing profile", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
}
