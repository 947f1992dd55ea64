// cmd/sentinel/commands.go
package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github-sentinel/internal/config"
	"github-sentinel/internal/database"
	serrors "github-sentinel/internal/errors"
	"github-sentinel/internal/model"
	"github-sentinel/internal/subscription"
)

const probeRepository = "octocat/Hello-World"

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "sentinel",
		Short:         "GitHub Sentinel monitors GitHub repositories and generates activity reports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&envFile, "config", "c", config.DefaultEnvFile, "env file with configuration")

	root.AddCommand(
		newInitCmd(&envFile),
		newSubscribeCmd(&envFile),
		newListSubscriptionsCmd(&envFile),
		newUnsubscribeCmd(&envFile),
		newSetStatusCmd(&envFile),
		newAnalyzeCmd(&envFile),
		newSearchCmd(&envFile),
		newProcessCmd(&envFile),
		newReportsCmd(&envFile),
		newStatusCmd(&envFile),
		newServeCmd(&envFile),
	)
	return root
}

func newInitCmd(envFile *string) *cobra.Command {
	var username, email, token string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, *envFile, true)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			return a.store.InTx(ctx, func(q database.Querier) error {
				_, err := q.GetUserByUsername(ctx, username)
				switch {
				case err == nil:
					fmt.Fprintf(out, "User '%s' already exists.\n", username)
					return nil
				case !errors.Is(err, serrors.ErrNotFound):
					return err
				}

				user, err := q.CreateUser(ctx, database.CreateUserParams{
					Username:    username,
					Email:       email,
					GithubToken: token,
					NotificationPreferences: map[model.NotificationChannel]bool{
						model.ChannelEmail:   true,
						model.ChannelSlack:   false,
						model.ChannelWebhook: false,
					},
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "User '%s' created successfully!\n", user.Username)
				fmt.Fprintf(out, "User ID: %d\n", user.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&email, "email", "e", "", "email address")
	cmd.Flags().StringVarP(&token, "github-token", "t", "", "GitHub personal access token")
	markRequired(cmd, "username", "email", "github-token")
	return cmd
}

func newSubscribeCmd(envFile *string) *cobra.Command {
	var (
		userID    int64
		repo      string
		frequency string
		channels  []string
	)
	cmd := &cobra.Command{
		Use:   "subscribe",
		Short: "Subscribe a user to a repository",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fullName, err := model.ParseRepoName(repo)
			if err != nil {
				return err
			}
			chans, err := model.ParseNotificationChannels(channels)
			if err != nil {
				return &serrors.ValidationError{Field: "channels", Value: strings.Join(channels, ","), Msg: err.Error()}
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, *envFile, true)
			if err != nil {
				return err
			}
			defer a.Close()

			var sub *model.Subscription
			err = a.store.InTx(ctx, func(q database.Querier) error {
				sub, err = subscription.NewManager(q, a.gh, a.logger).Create(ctx, subscription.CreateParams{
					UserID:       userID,
					RepoFullName: fullName,
					Channels:     chans,
					Frequency:    model.Frequency(strings.ToLower(frequency)),
				})
				return err
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Successfully subscribed to %s\n", fullName)
			fmt.Fprintf(out, "Subscription ID: %d\n", sub.ID)
			fmt.Fprintf(out, "Frequency: %s\n", sub.Frequency)
			fmt.Fprintf(out, "Channels: %s\n", strings.Join(model.ChannelStrings(sub.NotificationChannels), ", "))
			return nil
		},
	}
	cmd.Flags().Int64VarP(&userID, "user-id", "u", 0, "user ID")
	cmd.Flags().StringVarP(&repo, "repo", "r", "", "repository as owner/name or a GitHub URL")
	cmd.Flags().StringVarP(&frequency, "frequency", "f", string(model.FrequencyDaily), "update frequency (daily, weekly, monthly)")
	cmd.Flags().StringSliceVar(&channels, "channels", nil, "notification channels (email, slack, webhook, discord)")
	markRequired(cmd, "user-id", "repo")
	return cmd
}

func newListSubscriptionsCmd(envFile *string) *cobra.Command {
	var (
		userID int64
		status string
	)
	cmd := &cobra.Command{
		Use:   "list-subscriptions",
		Short: "List the subscriptions of a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var filter *model.SubscriptionStatus
			if status != "" {
				st, err := model.ParseSubscriptionStatus(status)
				if err != nil {
					return &serrors.ValidationError{Field: "status", Value: status, Msg: "expected active, paused or inactive"}
				}
				filter = &st
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, *envFile, true)
			if err != nil {
				return err
			}
			defer a.Close()

			var subs []model.Subscription
			err = a.store.InTx(ctx, func(q database.Querier) error {
				subs, err = subscription.NewManager(q, a.gh, a.logger).ListByUser(ctx, userID, filter)
				return err
			})
			if err != nil {
				return err
			}

			if len(subs) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No subscriptions found for user %d\n", userID)
				return nil
			}
			return printSubscriptions(cmd.OutOrStdout(), subs)
		},
	}
	cmd.Flags().Int64VarP(&userID, "user-id", "u", 0, "user ID")
	cmd.Flags().StringVarP(&status, "status", "s", "", "only show subscriptions with this status")
	markRequired(cmd, "user-id")
	return cmd
}

func newUnsubscribeCmd(envFile *string) *cobra.Command {
	var id int64
	cmd := &cobra.Command{
		Use:   "unsubscribe",
		Short: "Delete a subscription and its reports",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, *envFile, true)
			if err != nil {
				return err
			}
			defer a.Close()

			err = a.store.InTx(ctx, func(q database.Querier) error {
				return subscription.NewManager(q, a.gh, a.logger).Delete(ctx, id)
			})
			out := cmd.OutOrStdout()
			switch {
			case errors.Is(err, serrors.ErrNotFound):
				fmt.Fprintf(out, "Subscription %d not found\n", id)
				return nil
			case err != nil:
				return err
			}
			fmt.Fprintf(out, "Successfully unsubscribed from subscription %d\n", id)
			return nil
		},
	}
	cmd.Flags().Int64VarP(&id, "subscription-id", "s", 0, "subscription ID")
	markRequired(cmd, "subscription-id")
	return cmd
}

func newSetStatusCmd(envFile *string) *cobra.Command {
	var (
		id     int64
		status string
	)
	cmd := &cobra.Command{
		Use:   "set-status",
		Short: "Activate, pause or deactivate a subscription",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := model.ParseSubscriptionStatus(status)
			if err != nil {
				return &serrors.ValidationError{Field: "status", Value: status, Msg: "expected active, paused or inactive"}
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, *envFile, true)
			if err != nil {
				return err
			}
			defer a.Close()

			var sub *model.Subscription
			err = a.store.InTx(ctx, func(q database.Querier) error {
				sub, err = subscription.NewManager(q, a.gh, a.logger).SetStatus(ctx, id, st)
				return err
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Subscription %d for %s is now %s\n", sub.ID, sub.RepositoryFullName, sub.Status)
			return nil
		},
	}
	cmd.Flags().Int64VarP(&id, "subscription-id", "s", 0, "subscription ID")
	cmd.Flags().StringVar(&status, "status", "", "new status (active, paused, inactive)")
	markRequired(cmd, "subscription-id", "status")
	return cmd
}

func newAnalyzeCmd(envFile *string) *cobra.Command {
	var (
		repo string
		days int
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Show repository activity over the last days",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fullName, err := model.ParseRepoName(repo)
			if err != nil {
				return err
			}
			if days < 1 {
				return &serrors.ValidationError{Field: "days", Value: fmt.Sprint(days), Msg: "must be positive"}
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, *envFile, false)
			if err != nil {
				return err
			}
			defer a.Close()

			until := time.Now().UTC()
			since := until.AddDate(0, 0, -days)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Analyzing %s activity from %s to %s...\n", fullName, since.Format(time.DateOnly), until.Format(time.DateOnly))

			activity, err := a.gh.GetActivity(ctx, fullName, since, until)
			if err != nil {
				return err
			}
			printActivity(out, activity, days)
			return nil
		},
	}
	cmd.Flags().StringVarP(&repo, "repo", "r", "", "repository as owner/name or a GitHub URL")
	cmd.Flags().IntVarP(&days, "days", "d", 7, "number of days to analyze")
	markRequired(cmd, "repo")
	return cmd
}

func newSearchCmd(envFile *string) *cobra.Command {
	var (
		query string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search GitHub repositories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, *envFile, false)
			if err != nil {
				return err
			}
			defer a.Close()

			repos, err := a.gh.SearchRepositories(ctx, query, limit)
			if err != nil {
				return err
			}
			if len(repos) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No repositories found for %q\n", query)
				return nil
			}
			return printRepositories(cmd.OutOrStdout(), repos)
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "GitHub search query")
	cmd.Flags().IntVarP(&limit, "limit", "l", 10, "maximum number of results")
	markRequired(cmd, "query")
	return cmd
}

func newProcessCmd(envFile *string) *cobra.Command {
	var frequency string
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Generate reports for every active subscription with a frequency",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, *envFile, true)
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.processor()
			if err != nil {
				return err
			}
			freq := model.Frequency(strings.ToLower(frequency))
			results, err := p.Process(ctx, freq)
			if err != nil {
				return err
			}
			printResults(cmd.OutOrStdout(), freq, results)
			return nil
		},
	}
	cmd.Flags().StringVarP(&frequency, "frequency", "f", string(model.FrequencyDaily), "process subscriptions with this frequency")
	return cmd
}

func newReportsCmd(envFile *string) *cobra.Command {
	var (
		id    int64
		limit int32
	)
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "List the latest reports of a subscription",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 1 {
				return &serrors.ValidationError{Field: "limit", Value: fmt.Sprint(limit), Msg: "must be positive"}
			}
			ctx := cmd.Context()
			a, err := newApp(ctx, *envFile, true)
			if err != nil {
				return err
			}
			defer a.Close()

			var reports []model.Report
			err = a.store.InTx(ctx, func(q database.Querier) error {
				if _, err := q.GetSubscriptionByID(ctx, id); err != nil {
					return err
				}
				reports, err = q.ListReportsBySubscription(ctx, id, limit)
				return err
			})
			if err != nil {
				return err
			}
			if len(reports) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No reports found for subscription %d\n", id)
				return nil
			}
			return printReports(cmd.OutOrStdout(), reports)
		},
	}
	cmd.Flags().Int64VarP(&id, "subscription-id", "s", 0, "subscription ID")
	cmd.Flags().Int32VarP(&limit, "limit", "l", 10, "maximum number of reports")
	markRequired(cmd, "subscription-id")
	return cmd
}

func newStatusCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration, API connectivity and statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, *envFile, true)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			cfg := a.cfg
			fmt.Fprintln(out, "=== GitHub Sentinel Status ===")
			fmt.Fprintf(out, "Version: %s\n", cfg.Version)
			fmt.Fprintf(out, "Environment: %s\n", cfg.Environment)
			fmt.Fprintf(out, "Debug Mode: %t\n", cfg.Debug)

			fmt.Fprintln(out, "\n=== Database ===")
			fmt.Fprintf(out, "URL: %s\n", cfg.DisplayDatabaseURL())

			fmt.Fprintln(out, "\n=== GitHub API ===")
			fmt.Fprintf(out, "Base URL: %s\n", cfg.GitHub.BaseURL)
			fmt.Fprintf(out, "Token: %s\n", cfg.MaskedToken())
			if _, err := a.gh.GetRepository(ctx, probeRepository); err != nil {
				fmt.Fprintf(out, "✗ GitHub API connection failed: %v\n", err)
			} else {
				fmt.Fprintln(out, "✓ GitHub API connection successful")
			}

			var users, active int64
			err = a.store.InTx(ctx, func(q database.Querier) error {
				if users, err = q.CountUsers(ctx); err != nil {
					return err
				}
				active, err = q.CountSubscriptionsByStatus(ctx, model.StatusActive)
				return err
			})
			if err != nil {
				fmt.Fprintf(out, "Could not retrieve statistics: %v\n", err)
				return nil
			}
			fmt.Fprintln(out, "\n=== Statistics ===")
			fmt.Fprintf(out, "Total Users: %d\n", users)
			fmt.Fprintf(out, "Active Subscriptions: %d\n", active)
			return nil
		},
	}
}

func markRequired(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		_ = cmd.MarkFlagRequired(name)
	}
}
