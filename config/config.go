package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spiffcs/recap/internal/constants"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration. Unset fields fall back
// to the defaults in Settings.
type Config struct {
	Username            string   `yaml:"username,omitempty" json:"username,omitempty"`
	Days                *int     `yaml:"days,omitempty" json:"days,omitempty"`
	Workers             *int     `yaml:"workers,omitempty" json:"workers,omitempty"`
	MaxPages            *int     `yaml:"max_pages,omitempty" json:"max_pages,omitempty"`
	MinSearchQuota      *int     `yaml:"min_search_quota,omitempty" json:"min_search_quota,omitempty"`
	MaxConnections      *int     `yaml:"max_connections,omitempty" json:"max_connections,omitempty"`
	SearchRatePerMinute *int     `yaml:"search_rate_per_minute,omitempty" json:"search_rate_per_minute,omitempty"`
	ReviewComments      *bool    `yaml:"review_comments,omitempty" json:"review_comments,omitempty"`
	APIURL              string   `yaml:"api_url,omitempty" json:"api_url,omitempty"`
	ExcludeRepos        []string `yaml:"exclude_repos,omitempty" json:"exclude_repos,omitempty"`
}

// Settings is the fully resolved configuration used by a run.
type Settings struct {
	Username            string
	Days                int
	Workers             int
	MaxPages            int
	MinSearchQuota      int
	MaxConnections      int
	SearchRatePerMinute int
	ReviewComments      bool
	APIURL              string
	ExcludeRepos        []string
}

// DefaultSettings returns the built-in settings.
func DefaultSettings() Settings {
	return Settings{
		Days:                constants.DefaultWindowDays,
		Workers:             constants.DefaultMaxConnections,
		MaxPages:            constants.MaxSearchPages,
		MinSearchQuota:      constants.MinSearchQuota,
		MaxConnections:      constants.DefaultMaxConnections,
		SearchRatePerMinute: constants.DefaultSearchRatePerMinute,
		ReviewComments:      true,
	}
}

// GetSettings returns the settings with user overrides merged over defaults.
func (c *Config) GetSettings() Settings {
	s := DefaultSettings()

	s.Username = c.Username
	s.APIURL = c.APIURL
	s.ExcludeRepos = c.ExcludeRepos

	if c.Days != nil {
		s.Days = *c.Days
	}
	if c.Workers != nil {
		s.Workers = *c.Workers
	}
	if c.MaxPages != nil {
		s.MaxPages = *c.MaxPages
	}
	if c.MinSearchQuota != nil {
		s.MinSearchQuota = *c.MinSearchQuota
	}
	if c.MaxConnections != nil {
		s.MaxConnections = *c.MaxConnections
	}
	if c.SearchRatePerMinute != nil {
		s.SearchRatePerMinute = *c.SearchRatePerMinute
	}
	if c.ReviewComments != nil {
		s.ReviewComments = *c.ReviewComments
	}

	return s
}

// Validate reports settings that cannot produce a digest.
func (s Settings) Validate() error {
	switch {
	case s.Days < 1:
		return fmt.Errorf("days must be at least 1, got %d", s.Days)
	case s.Workers < 1:
		return fmt.Errorf("workers must be at least 1, got %d", s.Workers)
	case s.MaxPages < 1:
		return fmt.Errorf("max_pages must be at least 1, got %d", s.MaxPages)
	case s.MaxConnections < 1:
		return fmt.Errorf("max_connections must be at least 1, got %d", s.MaxConnections)
	case s.MinSearchQuota < 0:
		return fmt.Errorf("min_search_quota cannot be negative, got %d", s.MinSearchQuota)
	case s.SearchRatePerMinute < 0:
		return fmt.Errorf("search_rate_per_minute cannot be negative, got %d", s.SearchRatePerMinute)
	}
	return nil
}

// DefaultConfigDir returns the default config directory
func DefaultConfigDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ".recap"
	}
	return filepath.Join(configDir, "recap")
}

// ConfigPath returns the path to the global config file
func ConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// LocalConfigPath returns the path to the local config file in the current directory
func LocalConfigPath() string {
	return ".recap.yaml"
}

// Load loads the configuration from disk.
// It first loads the global config from the user config directory, then
// merges any local .recap.yaml on top (local values take precedence).
func Load() (*Config, error) {
	return LoadFrom(ConfigPath(), LocalConfigPath())
}

// LoadFrom loads and merges the config files at globalPath and localPath.
// Missing files are skipped.
func LoadFrom(globalPath, localPath string) (*Config, error) {
	cfg := &Config{}

	global, err := readConfig(globalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load global config file: %w", err)
	}
	if global != nil {
		cfg = global
	}

	local, err := readConfig(localPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load local config file: %w", err)
	}
	if local != nil {
		cfg = mergeConfig(cfg, local)
	}

	return cfg, nil
}

func readConfig(path string) (*Config, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cfg, nil
}

// mergeConfig merges local config on top of global config.
// Local values take precedence; unset local values preserve global values.
func mergeConfig(global, local *Config) *Config {
	result := &Config{
		Username:            pick(local.Username, global.Username),
		APIURL:              pick(local.APIURL, global.APIURL),
		Days:                pickPtr(local.Days, global.Days),
		Workers:             pickPtr(local.Workers, global.Workers),
		MaxPages:            pickPtr(local.MaxPages, global.MaxPages),
		MinSearchQuota:      pickPtr(local.MinSearchQuota, global.MinSearchQuota),
		MaxConnections:      pickPtr(local.MaxConnections, global.MaxConnections),
		SearchRatePerMinute: pickPtr(local.SearchRatePerMinute, global.SearchRatePerMinute),
		ReviewComments:      pickPtr(local.ReviewComments, global.ReviewComments),
	}

	// Lists are replaced, not appended
	if len(local.ExcludeRepos) > 0 {
		result.ExcludeRepos = local.ExcludeRepos
	} else {
		result.ExcludeRepos = global.ExcludeRepos
	}

	return result
}

func pick(local, global string) string {
	if local != "" {
		return local
	}
	return global
}

func pickPtr[T any](local, global *T) *T {
	if local != nil {
		return local
	}
	return global
}

// GetGitHubToken returns the GitHub token from the GITHUB_TOKEN environment variable.
// Tokens are never read from config files.
func (c *Config) GetGitHubToken() string {
	return os.Getenv("GITHUB_TOKEN")
}

// GetUsername returns the user whose activity is reported: GITHUB_USERNAME
// first, then the config file. Empty means the authenticated user.
func (c *Config) GetUsername() string {
	if u := os.Getenv("GITHUB_USERNAME"); u != "" {
		return u
	}
	return c.Username
}

// DefaultConfig returns a fully populated config with all default values.
// This is useful for generating a complete config file template.
func DefaultConfig() *Config {
	s := DefaultSettings()
	return &Config{
		Days:                &s.Days,
		Workers:             &s.Workers,
		MaxPages:            &s.MaxPages,
		MinSearchQuota:      &s.MinSearchQuota,
		MaxConnections:      &s.MaxConnections,
		SearchRatePerMinute: &s.SearchRatePerMinute,
		ReviewComments:      &s.ReviewComments,
		ExcludeRepos:        []string{},
	}
}

// ToYAML returns the config as a YAML string
func (c *Config) ToYAML() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(data), nil
}

// ConfigPathInfo contains information about config file paths
type ConfigPathInfo struct {
	GlobalPath   string
	GlobalExists bool
	LocalPath    string
	LocalExists  bool
}

// GetConfigPaths returns path info for both global and local configs
func GetConfigPaths() ConfigPathInfo {
	globalPath := ConfigPath()
	localPath := LocalConfigPath()

	absLocalPath, err := filepath.Abs(localPath)
	if err != nil {
		absLocalPath = localPath
	}

	_, globalErr := os.Stat(globalPath)
	_, localErr := os.Stat(localPath)

	return ConfigPathInfo{
		GlobalPath:   globalPath,
		GlobalExists: globalErr == nil,
		LocalPath:    absLocalPath,
		LocalExists:  localErr == nil,
	}
}

// MinimalConfig returns a minimal config template with comments
func MinimalConfig() string {
	return `# recap configuration file
# See: recap config defaults  (for all available options)

# Whose activity to report (defaults to the token's user)
# username: octocat

# Trailing window in days
days: 7

# Skip noisy repositories (optional)
# exclude_repos:
#   - owner/noisy-repo

# GitHub Enterprise API root (optional)
# api_url: https://github.example.com/api/v3/
`
}

// SaveTo writes content to a specific path, creating directories as needed
func SaveTo(path string, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	return nil
}
