package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"repohealth/models"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the analysis scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *App) error {
			if err := app.database.Migrate(app.ctx); err != nil {
				return err
			}
			return app.Serve()
		})
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <repo-id>",
	Short: "Run one analysis cycle for a monitored repository",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *App) error {
			repo, err := app.database.GetRepository(app.ctx, args[0])
			if err != nil {
				return err
			}
			owner, err := app.database.GetUser(app.ctx, repo.UserID)
			if err != nil {
				return err
			}

			report, err := app.analyses.RunAnalysisByID(app.ctx, repo.ID, owner.GitHubID)
			if err != nil {
				return err
			}
			printReport(cmd, repo, report)
			return nil
		})
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Analyze every active repository once and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *App) error {
			summary, err := app.Sweep()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "analyzed=%d skipped=%d failed=%d\n", summary.Analyzed, summary.Skipped, summary.Failed)
			return nil
		})
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *App) error {
			return app.database.Migrate(app.ctx)
		})
	},
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users and their GitHub credentials",
}

var userAddFlags struct {
	githubID string
	username string
	token    string
}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create or update a user and store their GitHub token",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *App) error {
			user, err := app.database.UpsertUser(app.ctx, models.User{
				GitHubID:    userAddFlags.githubID,
				Username:    userAddFlags.username,
				AccessToken: userAddFlags.token,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %s (%s) saved with id %s\n", user.Username, user.GitHubID, user.ID)
			return nil
		})
	},
}

func init() {
	userAddCmd.Flags().StringVar(&userAddFlags.githubID, "github-id", "", "numeric GitHub user id")
	userAddCmd.Flags().StringVar(&userAddFlags.username, "username", "", "GitHub login")
	userAddCmd.Flags().StringVar(&userAddFlags.token, "token", "", "GitHub access token")
	_ = userAddCmd.MarkFlagRequired("github-id")
	_ = userAddCmd.MarkFlagRequired("username")
	userCmd.AddCommand(userAddCmd)
}

// withApp builds the App, runs fn and always closes it.
func withApp(fn func(*App) error) (err error) {
	app, err := NewApp()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(app)
}

func printReport(cmd *cobra.Command, repo *models.Repository, report *models.Report) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s  health=%d (ai=%d consistency=%d activity=%d)  commits=%d\n",
		repo.FullName(), report.QualityScore, report.AIScore,
		report.ConsistencyScore, report.ActivityScore, report.CommitCount)
	fmt.Fprintf(cmd.OutOrStdout(), "summary: %s\n", report.Summary)
	for _, s := range report.Suggestions {
		fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", s)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "security: %s\n", report.SecurityConcerns)
	fmt.Fprintln(cmd.OutOrStdout())
}
