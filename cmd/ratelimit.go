package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spiffcs/recap/config"
	"github.com/spiffcs/recap/internal/format"
	"github.com/spiffcs/recap/internal/ghclient"
)

// NewCmdRateLimit creates the ratelimit command.
func NewCmdRateLimit() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratelimit",
		Short: "Check GitHub API rate limit status",
		Long:  `Display current GitHub API rate limit status including remaining quota and reset time.`,
	}
	cmd.AddCommand(NewCmdRateLimitStatus())
	return cmd
}

// NewCmdRateLimitStatus creates the ratelimit status subcommand.
func NewCmdRateLimitStatus() *cobra.Command {
	var apiURL string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show current rate limit status",
		Long:  `Display the current GitHub API rate limit status for core, search and GraphQL APIs.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRateLimitStatus(cmd, apiURL)
		},
	}

	cmd.Flags().StringVar(&apiURL, "api-url", "", "GitHub API base URL (for GitHub Enterprise)")
	return cmd
}

func runRateLimitStatus(cmd *cobra.Command, apiURL string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	token := cfg.GetGitHubToken()
	if token == "" {
		return fmt.Errorf("GitHub token not configured. Set the GITHUB_TOKEN environment variable")
	}

	if apiURL == "" {
		apiURL = cfg.APIURL
	}
	var opts []ghclient.Option
	if apiURL != "" {
		opts = append(opts, ghclient.WithBaseURL(apiURL))
	}

	client, err := ghclient.NewClient(cmd.Context(), token, opts...)
	if err != nil {
		return err
	}

	quota, err := client.Quota(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get rate limits: %w", err)
	}

	printQuota(cmd.OutOrStdout(), quota, time.Now())
	return nil
}

// printQuota writes one line per resource. Resources the server did not
// report are skipped.
func printQuota(w io.Writer, q *ghclient.Quota, now time.Time) {
	fmt.Fprintln(w, "GitHub API Rate Limits:")
	fmt.Fprintln(w)

	for _, r := range []struct {
		label  string
		budget ghclient.Budget
	}{
		{"Core API:  ", q.Core},
		{"Search API:", q.Search},
		{"GraphQL:   ", q.GraphQL},
	} {
		if r.budget.Limit < 0 {
			continue
		}
		reset := "resets now"
		if resetIn := r.budget.ResetAt.Sub(now); resetIn >= time.Minute {
			reset = "resets in " + format.Countdown(resetIn)
		}
		fmt.Fprintf(w, "%s %d/%d remaining (%s)\n",
			r.label, r.budget.Remaining, r.budget.Limit, reset)
	}
}
