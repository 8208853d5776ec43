package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/resume-analyzer/internal/dashboard"
	"github.com/spigell/resume-analyzer/internal/logger"
	"github.com/spigell/resume-analyzer/internal/prompt"
	"github.com/spigell/resume-analyzer/internal/remote"
	"github.com/spigell/resume-analyzer/internal/session"
)

const (
	menuAnalytics  = "Show analytics"
	menuUsers      = "Manage users"
	menuResumes    = "Manage resumes"
	menuJobs       = "Browse job history"
	menuRegister   = "Register a user"
	menuClearAll   = "Clear all history"
	menuRefresh    = "Refresh"
	menuExit       = "Exit"
	menuDelete     = "Delete"
	menuClearJob   = "Clear history for this job"
	actionTemplate = "%s: %s"
)

var errExit = errors.New("exit requested")

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Open the admin dashboard (logs in first when there is no session)",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := context.Background()
		env := setup()

		username, _ := cmd.Flags().GetString("username")
		err := env.guard.Enter(ctx, env.credentials(username), func(ctx context.Context, s session.Session) error {
			env.logger.Info("entering the admin dashboard", zap.String(logger.FieldIdentity, s.Identity))
			return runDashboard(ctx, env)
		})
		if err != nil && !errors.Is(err, errExit) {
			env.fatal("admin dashboard", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(adminCmd)

	adminCmd.Flags().StringP("username", "u", "", "username for the login when there is no session")
}

func runDashboard(ctx context.Context, env *environment) error {
	d := dashboard.New(env.client, env.store, env.terminal, env.terminal, env.logger)

	if err := d.Load(ctx); err != nil {
		printf("%s\n", d.Snapshot().Message)
		return err
	}

	for {
		_, action, err := env.terminal.Select("Admin", []string{
			menuAnalytics, menuUsers, menuResumes, menuJobs, menuRegister, menuClearAll, menuRefresh, menuExit,
		})
		if err != nil {
			return interrupted(err)
		}

		if err := handleAdminAction(ctx, env, d, action); err != nil {
			return err
		}

		if d.State() != dashboard.StateReady {
			printf("%s\n", d.Snapshot().Message)
			return errors.New("admin dashboard is not available")
		}
	}
}

func handleAdminAction(ctx context.Context, env *environment, d *dashboard.Dashboard, action string) error {
	switch action {
	case menuAnalytics:
		a := d.Snapshot().Analytics
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "Total analyses:\t%d\n", a.TotalAnalyses)
		fmt.Fprintf(w, "Indexed resumes:\t%d\n", a.TotalIndexedResumes)
		fmt.Fprintf(w, "Users:\t%d\n", a.TotalUsers)
		return w.Flush()
	case menuUsers:
		return pickAndDelete(env, "Users", remote.Usernames(d.Snapshot().Users), func(username string) error {
			return d.DeleteUser(ctx, username)
		})
	case menuResumes:
		return pickAndDelete(env, "Resumes", d.Snapshot().Resumes, func(filename string) error {
			return d.DeleteResume(ctx, filename)
		})
	case menuJobs:
		return browseJobs(ctx, env, d)
	case menuRegister:
		username, err := env.terminal.Ask("New username")
		if err != nil {
			return interrupted(err)
		}
		password, err := env.terminal.AskSecret("New password")
		if err != nil {
			return interrupted(err)
		}
		return tolerate(env, "registering a user", discard(d.Register(ctx, username, password)))
	case menuClearAll:
		return tolerate(env, "clearing history", d.ClearAllHistory(ctx))
	case menuRefresh:
		return d.Load(ctx)
	case menuExit:
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

// pickAndDelete lets the user choose one item and delete it.
func pickAndDelete(env *environment, label string, items []string, remove func(string) error) error {
	if len(items) == 0 {
		printf("Nothing to show\n")
		return nil
	}

	_, item, err := env.terminal.Select(label, append(items, prompt.Back))
	if err != nil {
		return interrupted(err)
	}
	if item == prompt.Back {
		return nil
	}

	_, action, err := env.terminal.Select(item, []string{menuDelete, prompt.Back})
	if err != nil {
		return interrupted(err)
	}
	if action == prompt.Back {
		return nil
	}

	return tolerate(env, fmt.Sprintf(actionTemplate, menuDelete, item), remove(item))
}

func browseJobs(ctx context.Context, env *environment, d *dashboard.Dashboard) error {
	defer d.ClearSelection()

	jobs := d.Snapshot().Jobs
	if len(jobs) == 0 {
		printf("No job history\n")
		return nil
	}

	_, job, err := env.terminal.Select("Jobs", append(jobs, prompt.Back))
	if err != nil {
		return interrupted(err)
	}
	if job == prompt.Back {
		return nil
	}

	if err := d.SelectJob(ctx, job); err != nil {
		env.logger.Warn("fetching job history", zap.Error(err))
	}

	results := d.Snapshot().Results
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tRESUME\tSCORE\tVERDICT")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%s\t%.2f%%\t%s\n", r.ID, r.ResumeFilename, r.FinalScore, r.Verdict)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	_, action, err := env.terminal.Select(job, []string{menuClearJob, prompt.Back})
	if err != nil {
		return interrupted(err)
	}
	if action == menuClearJob {
		return tolerate(env, menuClearJob, d.ClearJobHistory(ctx, job))
	}
	return nil
}

// tolerate keeps the menu running after a failed or declined operation. The
// user has already been notified by the dashboard.
func tolerate(env *environment, operation string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, dashboard.ErrCancelled):
		env.logger.Info("cancelled", zap.String("operation", operation))
		return nil
	case errors.Is(err, dashboard.ErrNotLoaded):
		return err
	default:
		env.logger.Debug("admin operation failed", zap.String("operation", operation), zap.Error(err))
		return nil
	}
}

func discard(_ string, err error) error {
	return err
}

func interrupted(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		return errExit
	}
	return err
}
