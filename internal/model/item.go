// Package model contains domain types for the recap application.
// These types are independent of any external GitHub library.
package model

import (
	"fmt"
	"time"

	"github.com/spiffcs/recap/internal/constants"
)

// ItemKey identifies a tracked pull request or issue. It is comparable and
// used directly as a map key so repository names containing '#' can never
// collide with another item's key.
type ItemKey struct {
	Repo   string `json:"repo"`
	Number int    `json:"number"`
}

// String renders the key as "owner/name#number".
func (k ItemKey) String() string {
	return fmt.Sprintf("%s#%d", k.Repo, k.Number)
}

// State is the lifecycle state of an item as shown in the digest.
type State string

const (
	StateOpen   State = constants.StateOpen
	StateClosed State = constants.StateClosed
	StateMerged State = constants.StateMerged
)

// DeriveState maps the raw API state of an item to a State. A pull request
// is merged only when it is closed and carries a merge timestamp; issues are
// never merged.
func DeriveState(state string, isPR bool, mergedAt *time.Time) State {
	if state != constants.StateClosed {
		return StateOpen
	}
	if isPR && mergedAt != nil && !mergedAt.IsZero() {
		return StateMerged
	}
	return StateClosed
}

// Labeled reports whether the state is shown next to an item in the digest.
func (s State) Labeled() bool {
	return s == StateClosed || s == StateMerged
}

// Source identifies the search walk that discovered an item.
type Source string

const (
	SourceAuthored       Source = "authored"
	SourceCommented      Source = "commented"
	SourceIssueCommented Source = "issue_commented"
	SourceReviewed       Source = "reviewed"
)

// AllSources lists the walks in the order they are started.
var AllSources = []Source{
	SourceAuthored,
	SourceCommented,
	SourceIssueCommented,
	SourceReviewed,
}

// Label returns a short human-readable name for log lines.
func (s Source) Label() string {
	switch s {
	case SourceAuthored:
		return "authored PR"
	case SourceCommented:
		return "PR comment"
	case SourceIssueCommented:
		return "issue comment"
	case SourceReviewed:
		return "PR review"
	default:
		return string(s)
	}
}

// Item is a pull request or issue returned by a search walk. It carries
// enough metadata for a detail fetch to run without another lookup.
type Item struct {
	Key         ItemKey `json:"key"`
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	State       State   `json:"state"`
	IsPR        bool    `json:"isPR"`
	CommentsURL string  `json:"commentsURL"`
	Source      Source  `json:"source"`
}
