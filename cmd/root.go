package cmd

import (
	"github.com/spf13/cobra"
)

// New creates the root command with all subcommands registered.
func New() *cobra.Command {
	opts := NewOptions()

	rootCmd := &cobra.Command{
		Use:   "recap",
		Short: "Day-by-day digest of your recent GitHub activity",
		Long: `A CLI tool that collects the pull requests and issues you worked on
recently (authored, commented on or reviewed) and prints your commits and
comments on them grouped by day.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDigest(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	// Add digest flags to root command so `recap` and `recap digest` work identically
	addDigestFlags(rootCmd, opts)

	// Register subcommands
	rootCmd.AddCommand(NewCmdDigest(opts))
	rootCmd.AddCommand(NewCmdConfig())
	rootCmd.AddCommand(NewCmdVersion())
	rootCmd.AddCommand(NewCmdRateLimit())

	return rootCmd
}
