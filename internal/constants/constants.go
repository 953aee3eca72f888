// Package constants provides a centralized location for all configuration
// values and magic numbers used throughout the recap application.
package constants

import "time"

// Activity window constants
const (
	// DefaultWindowDays is the number of days of activity included in a
	// digest when neither a flag nor the config file overrides it.
	DefaultWindowDays = 7

	// SinceDateLayout is the layout of the date qualifier used in search
	// queries (updated:>=YYYY-MM-DD).
	SinceDateLayout = "2006-01-02"
)

// Search pagination constants
const (
	// MaxSearchPages caps how many result pages a single search walk
	// requests. GitHub refuses to serve results past the 1000th item.
	MaxSearchPages = 10

	// PageSize is the number of results requested per page for search and
	// detail listings.
	PageSize = 100
)

// Rate limiting constants
const (
	// MinSearchQuota is the smallest remaining search budget that allows a
	// digest run to start. Four walks of up to ten pages can consume more,
	// but fewer than this almost always fails part way through.
	MinSearchQuota = 15

	// RateLimitLowWatermark is the threshold below which rate limit
	// warnings are logged.
	RateLimitLowWatermark = 100

	// DefaultSearchRatePerMinute paces search requests to stay under the
	// authenticated search limit.
	DefaultSearchRatePerMinute = 30

	// SearchBurst is the number of search requests allowed back to back
	// before pacing starts.
	SearchBurst = 30
)

// HTTP transport constants
const (
	// DefaultMaxConnections is the connection cap of the shared transport
	// and the default number of concurrent detail fetches.
	DefaultMaxConnections = 20
)

// Text shaping constants
const (
	// BodyPreviewLength is the number of characters of a comment body kept
	// before an ellipsis is appended.
	BodyPreviewLength = 100

	// ShortSHALength is the length of an abbreviated commit SHA.
	ShortSHALength = 7

	// TruncationSuffix is appended to shortened comment bodies.
	TruncationSuffix = "..."
)

// TUI update and display constants
const (
	// TUIUpdateInterval is the minimum time between TUI progress updates
	// to provide smooth progress display without excessive overhead.
	TUIUpdateInterval = 50 * time.Millisecond

	// TUIMessageWidth is the widest status message shown next to a task.
	TUIMessageWidth = 60
)

// Item state constants
const (
	// StateOpen indicates an issue or PR is open.
	StateOpen = "open"

	// StateClosed indicates an issue or PR is closed.
	StateClosed = "closed"

	// StateMerged indicates a PR has been merged.
	StateMerged = "merged"
)

// Token remediation
const (
	// TokenSettingsURL is where a user creates a personal access token.
	TokenSettingsURL = "https://github.com/settings/tokens"

	// RequiredScopes lists the token scopes needed to read activity.
	RequiredScopes = "repo or public_repo"
)
