package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/resume-analyzer/internal/artifact"
	"github.com/spigell/resume-analyzer/internal/indexing"
)

var indexCmd = &cobra.Command{
	Use:   "index FILE...",
	Short: "Add resumes to the searchable corpus",
	Args:  cobra.MinimumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		ctx := context.Background()
		env := setup()

		batch, err := artifact.FromPaths(args)
		if err != nil {
			env.fatal("selecting resumes", err)
		}

		workflow := indexing.New(env.client, env.logger)
		workflow.Select(batch)

		names := artifact.Names(batch)
		reported := 0
		summary, err := workflow.Run(ctx, func(o indexing.Outcomes) {
			// Files resolve in order, so every update adds the next name.
			for ; reported < len(names); reported++ {
				outcome, ok := o[names[reported]]
				if !ok {
					return
				}
				if outcome.Status == indexing.StatusError {
					printf("%-8s %s: %s\n", outcome.Status, names[reported], outcome.Detail)
				} else {
					printf("%-8s %s\n", outcome.Status, names[reported])
				}
			}
		})
		if err != nil {
			env.fatal("indexing", err)
		}

		printf("\n%d indexed, %d failed\n", summary.Succeeded, summary.Failed)
		if summary.Failed > 0 {
			env.logger.Fatal("some resumes were not indexed", zap.Int("failed", summary.Failed))
		}
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}
