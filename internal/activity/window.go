// Package activity finds a user's recent GitHub activity: it walks the
// search API, fetches the details of every item found, and merges the
// results into per-item records.
package activity

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spiffcs/recap/internal/constants"
)

// Window is the trailing period whose activity is reported.
type Window struct {
	Days int
	Now  time.Time
}

// NewWindow returns a window of days ending at now.
func NewWindow(days int, now time.Time) Window {
	return Window{Days: days, Now: now}
}

// Cutoff is the oldest instant still inside the window.
func (w Window) Cutoff() time.Time {
	return w.Now.Add(-time.Duration(w.Days) * 24 * time.Hour)
}

// Contains reports whether t falls inside the window. The cutoff itself is
// included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Cutoff())
}

// Since is the date bound used in search queries, in the local zone of Now.
func (w Window) Since() string {
	return w.Cutoff().Format(constants.SinceDateLayout)
}

// Preview shortens a comment body to the preview length, marking the cut
// with an ellipsis. Length is counted in characters, not bytes.
func Preview(body string) string {
	if utf8.RuneCountInString(body) <= constants.BodyPreviewLength {
		return body
	}
	runes := []rune(body)
	return string(runes[:constants.BodyPreviewLength]) + constants.TruncationSuffix
}

// FirstLine returns the subject line of a commit message.
func FirstLine(msg string) string {
	line, _, _ := strings.Cut(msg, "\n")
	return strings.TrimSuffix(line, "\r")
}

// ShortSHA abbreviates a commit SHA.
func ShortSHA(sha string) string {
	if len(sha) <= constants.ShortSHALength {
		return sha
	}
	return sha[:constants.ShortSHALength]
}

// sameLogin compares GitHub logins, which are case-insensitive.
func sameLogin(a, b string) bool {
	return a != "" && strings.EqualFold(a, b)
}
