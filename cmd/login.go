package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/resume-analyzer/internal/logger"
	"github.com/spigell/resume-analyzer/internal/session"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate against the analysis service and store the session",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := context.Background()
		env := setup()

		username, _ := cmd.Flags().GetString("username")
		user, password, err := env.credentials(username)(ctx)
		if err != nil {
			env.fatal("reading credentials", err)
		}

		s, err := env.guard.Login(ctx, user, password)
		if err != nil {
			env.fatal("login failed", err)
		}

		printf("Logged in as %s\n", s.Identity)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	Args:  cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		env := setup()

		if err := env.guard.Logout(); err != nil {
			env.fatal("logout failed", err)
		}

		printf("Logged out\n")
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the stored session",
	Args:  cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		env := setup()

		s, err := env.guard.Require()
		if err != nil {
			printf("Not logged in\n")
			return
		}

		printf("%s\n", s.Identity)

		claims, err := session.ParseClaims(s.Credential)
		if err != nil {
			env.logger.Debug("credential carries no readable claims", zap.Error(err))
			return
		}

		if claims.Subject != "" {
			printf("subject: %s\n", claims.Subject)
		}
		if !claims.ExpiresAt.IsZero() {
			state := "valid"
			if claims.Expired(time.Now()) {
				state = "expired"
			}
			printf("expires: %s (%s)\n", claims.ExpiresAt.Local().Format(time.RFC3339), state)
		}

		env.logger.Debug("session read", zap.String(logger.FieldIdentity, s.Identity))
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)

	loginCmd.Flags().StringP("username", "u", "", "username, prompted for when empty")
}
