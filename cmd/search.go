package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/spigell/resume-analyzer/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   `search "KEYWORD, KEYWORD..."`,
	Short: "Rank indexed resumes by keywords",
	Long:  "Rank indexed resumes by keywords. Keywords are separated by commas; several arguments are joined as separate keywords.",
	Run: func(_ *cobra.Command, args []string) {
		ctx := context.Background()
		env := setup()

		workflow := search.New(env.client, env.logger)
		matches, err := workflow.Search(ctx, strings.Join(args, ","))
		if errors.Is(err, search.ErrNoKeywords) {
			env.logger.Fatal(search.NoKeywordsMessage)
		}
		if err != nil {
			env.fatal(workflow.Snapshot().Message, err)
		}

		if len(matches) == 0 {
			printf("No matching resumes\n")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "RANK\tRESUME\tSCORE")
		for i, m := range matches {
			fmt.Fprintf(w, "%d\t%s\t%.2f%%\n", i+1, m.ResumeFilename, m.Score)
		}
		_ = w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
}
