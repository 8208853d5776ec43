package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/resume-analyzer/internal/analyzer"
	"github.com/spigell/resume-analyzer/internal/artifact"
	"github.com/spigell/resume-analyzer/internal/remote"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score resumes against a job description",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := context.Background()
		env := setup()

		jdPath, _ := cmd.Flags().GetString("jd")
		resumePaths, _ := cmd.Flags().GetStringSlice("resume")
		bulk, _ := cmd.Flags().GetBool("bulk")
		feedback, _ := cmd.Flags().GetBool("feedback")

		mode := analyzer.ModeSingle
		if bulk {
			mode = analyzer.ModeBulk
		}

		workflow := analyzer.New(env.client, env.terminal, env.logger)
		if err := workflow.SetMode(mode); err != nil {
			env.fatal("setting analysis mode", err)
		}

		if jdPath != "" {
			jd, err := artifact.FromPath(jdPath)
			if err != nil {
				env.fatal("selecting the job description", err)
			}
			if err := workflow.SelectJobDescription(jd); err != nil {
				env.fatal("selecting the job description", err)
			}
		}

		resumes, err := artifact.FromPaths(resumePaths)
		if err != nil {
			env.fatal("selecting resumes", err)
		}
		if err := workflow.SelectResumes(resumes); err != nil {
			env.fatal("selecting resumes", err)
		}

		if !workflow.CanSubmit() {
			env.logger.Fatal("a job description and at least one resume are required",
				zap.String("hint", "pass --jd and one or more --resume"),
			)
		}

		if err := workflow.Submit(ctx); err != nil {
			env.fatal("analysis failed", err)
		}

		snap := workflow.Snapshot()
		switch snap.State {
		case analyzer.StateResultsSingle:
			printEvaluation(snap.Resumes[0], snap.Single)
		case analyzer.StateResultsBulk:
			printRanking(snap.Bulk)
		}

		if !feedback {
			return
		}
		if mode != analyzer.ModeSingle {
			env.logger.Warn("feedback is only available for a single resume, skipping")
			return
		}

		text, err := workflow.RequestFeedback(ctx)
		if err != nil {
			env.fatal("requesting feedback", err)
		}
		printf("\nFeedback:\n%s\n", text)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().String("jd", "", "job description file (PDF or DOCX)")
	analyzeCmd.Flags().StringSliceP("resume", "r", nil, "resume file (PDF or DOCX), can be repeated")
	analyzeCmd.Flags().BoolP("bulk", "b", false, "rank every resume instead of scoring the first one")
	analyzeCmd.Flags().Bool("feedback", false, "ask for written feedback on a single resume")
}

func printEvaluation(resume string, e *remote.Evaluation) {
	if e == nil {
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Resume:\t%s\n", resume)
	fmt.Fprintf(w, "Verdict:\t%s\n", e.Scores.Verdict)
	fmt.Fprintf(w, "Final relevance:\t%.2f%%\n", e.Scores.FinalRelevanceScore)
	fmt.Fprintf(w, "Hard match:\t%.2f%%\n", e.Scores.HardMatchPercent)
	fmt.Fprintf(w, "Semantic fit:\t%.2f%%\n", e.Scores.SemanticFitPercent)
	fmt.Fprintf(w, "Required skills:\t%s\n", strings.Join(e.IdentifiedSkills, ", "))
	fmt.Fprintf(w, "Found skills:\t%s\n", strings.Join(e.FoundSkills, ", "))
	_ = w.Flush()
}

func printRanking(results []remote.RankedResult) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tRESUME\tSCORE\tVERDICT")
	for i, r := range results {
		fmt.Fprintf(w, "%d\t%s\t%.2f%%\t%s\n", i+1, r.ResumeFilename, r.FinalScore, r.Verdict)
	}
	_ = w.Flush()
}
