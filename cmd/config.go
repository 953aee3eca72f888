package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spiffcs/recap/config"
	"gopkg.in/yaml.v3"
)

// NewCmdConfig creates the config command with subcommands.
func NewCmdConfig() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or manage configuration",
		Long: `Show or manage configuration.

When run without arguments, shows the current merged configuration.

Subcommands:
  init      Create a minimal config file
  path      Show config file locations
  defaults  Show all default values
  show      Show current merged config (same as bare 'recap config')`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd.OutOrStdout(), outputFormat, false)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "yaml", "Output format (yaml, json)")

	cmd.AddCommand(NewCmdConfigInit())
	cmd.AddCommand(NewCmdConfigPath())
	cmd.AddCommand(NewCmdConfigDefaults())
	cmd.AddCommand(NewCmdConfigShow())

	return cmd
}

// NewCmdConfigInit creates the config init subcommand.
func NewCmdConfigInit() *cobra.Command {
	var global, local bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a minimal config file",
		Long: `Create a minimal config file with starter settings.

Use --global to create in ~/.config/recap/config.yaml (applies everywhere)
Use --local to create in ./.recap.yaml (applies only in this directory)
Without flags, you'll be prompted to choose.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			target, err := chooseConfigTarget(cmd.InOrStdin(), cmd.OutOrStdout(), global, local)
			if err != nil {
				return err
			}
			return runConfigInit(cmd.OutOrStdout(), target)
		},
	}

	cmd.Flags().BoolVar(&global, "global", false, "Create global config file (~/.config/recap/config.yaml)")
	cmd.Flags().BoolVar(&local, "local", false, "Create local config file (./.recap.yaml)")

	return cmd
}

// NewCmdConfigPath creates the config path subcommand.
func NewCmdConfigPath() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show config file locations",
		Long:  `Show the paths to global and local config files and indicate which exist.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			printConfigPaths(cmd.OutOrStdout(), config.GetConfigPaths())
			return nil
		},
	}
}

// NewCmdConfigDefaults creates the config defaults subcommand.
func NewCmdConfigDefaults() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "defaults",
		Short: "Show all default configuration values",
		Long: `Show a complete configuration with all default values.

This can be redirected to create a config file with all defaults:
  recap config defaults > ~/.config/recap/config.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeConfig(cmd.OutOrStdout(), config.DefaultConfig(), outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "yaml", "Output format (yaml, json)")

	return cmd
}

// NewCmdConfigShow creates the config show subcommand.
func NewCmdConfigShow() *cobra.Command {
	var outputFormat string
	var effective bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show current merged configuration",
		Long: `Show the current configuration after merging global and local configs.

With --effective, show the settings a digest run would use, with defaults
filled in and $GITHUB_USERNAME applied.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd.OutOrStdout(), outputFormat, effective)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "yaml", "Output format (yaml, json)")
	cmd.Flags().BoolVar(&effective, "effective", false, "Show resolved settings including defaults")

	return cmd
}

// configTarget is where config init writes.
type configTarget struct {
	path     string
	location string
}

// chooseConfigTarget resolves --global/--local, prompting on in when
// neither is given.
func chooseConfigTarget(in io.Reader, out io.Writer, global, local bool) (configTarget, error) {
	if global && local {
		return configTarget{}, fmt.Errorf("cannot specify both --global and --local")
	}

	paths := config.GetConfigPaths()
	switch {
	case global:
		return configTarget{path: paths.GlobalPath, location: "global"}, nil
	case local:
		return configTarget{path: paths.LocalPath, location: "local"}, nil
	}

	fmt.Fprintln(out, "Where would you like to create the config file?")
	fmt.Fprintf(out, "  [1] Global (%s) - applies everywhere\n", paths.GlobalPath)
	fmt.Fprintf(out, "  [2] Local (%s) - applies only in this directory\n", paths.LocalPath)
	fmt.Fprint(out, "Choose [1/2]: ")

	choice, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && choice == "" {
		return configTarget{}, fmt.Errorf("failed to read input: %w", err)
	}
	fmt.Fprintln(out)

	switch strings.TrimSpace(choice) {
	case "1":
		return configTarget{path: paths.GlobalPath, location: "global"}, nil
	case "2":
		return configTarget{path: paths.LocalPath, location: "local"}, nil
	default:
		return configTarget{}, fmt.Errorf("invalid choice: %s (must be 1 or 2)", strings.TrimSpace(choice))
	}
}

func runConfigInit(out io.Writer, target configTarget) error {
	if _, err := os.Stat(target.path); err == nil {
		return fmt.Errorf("config file already exists: %s\nUse 'recap config show' to view current config", target.path)
	}

	if err := config.SaveTo(target.path, config.MinimalConfig()); err != nil {
		return err
	}

	fmt.Fprintf(out, "Created %s config file: %s\n\n", target.location, target.path)
	fmt.Fprintln(out, "Edit this file to set your username, window and excluded repositories.")
	fmt.Fprintln(out, "Run 'recap config defaults' to see all available options.")
	return nil
}

func printConfigPaths(out io.Writer, paths config.ConfigPathInfo) {
	status := func(exists bool) string {
		if exists {
			return "exists"
		}
		return "not found"
	}

	fmt.Fprintln(out, "Configuration file locations:")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  Global: %s (%s)\n", paths.GlobalPath, status(paths.GlobalExists))
	fmt.Fprintf(out, "  Local:  %s (%s)\n", paths.LocalPath, status(paths.LocalExists))
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Load order: defaults -> global -> local (local overrides global)")
}

func runConfigShow(out io.Writer, format string, effective bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if !effective {
		return writeConfig(out, cfg, format)
	}

	settings := cfg.GetSettings()
	if user := cfg.GetUsername(); user != "" {
		settings.Username = user
	}
	return writeConfig(out, settingsView(settings), format)
}

// settingsView gives resolved settings the same keys as the config file.
func settingsView(s config.Settings) map[string]any {
	view := map[string]any{
		"days":                   s.Days,
		"workers":                s.Workers,
		"max_pages":              s.MaxPages,
		"min_search_quota":       s.MinSearchQuota,
		"max_connections":        s.MaxConnections,
		"search_rate_per_minute": s.SearchRatePerMinute,
		"review_comments":        s.ReviewComments,
	}
	if s.Username != "" {
		view["username"] = s.Username
	}
	if s.APIURL != "" {
		view["api_url"] = s.APIURL
	}
	if len(s.ExcludeRepos) > 0 {
		view["exclude_repos"] = s.ExcludeRepos
	}
	return view
}

func writeConfig(out io.Writer, v any, format string) error {
	switch format {
	case "yaml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal config to YAML: %w", err)
		}
		_, err = out.Write(data)
		return err
	case "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config to JSON: %w", err)
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	default:
		return fmt.Errorf("invalid format: %s (must be yaml or json)", format)
	}
}
