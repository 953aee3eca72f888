package output

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spiffcs/recap/internal/constants"
	"github.com/spiffcs/recap/internal/model"
)

// Digest is the day-grouped view of a run, newest day first.
type Digest struct {
	WindowDays int   `json:"windowDays"`
	Days       []Day `json:"days"`
}

// Day lists the items with activity on one calendar date, by URL.
type Day struct {
	Date    string  `json:"date"`
	Weekday string  `json:"weekday"`
	Entries []Entry `json:"entries"`
}

// Entry is one item line of the digest.
type Entry struct {
	URL                string      `json:"url"`
	Title              string      `json:"title"`
	State              model.State `json:"state"`
	IsIssue            bool        `json:"isIssue"`
	CommitCount        int         `json:"commits"`
	CommentCount       int         `json:"comments"`
	ReviewCommentCount int         `json:"reviewComments"`
}

// BuildDigest groups display records by the days they were active on.
func BuildDigest(display map[string]*model.DisplayRecord, windowDays int) *Digest {
	byDay := make(map[string][]Entry)
	for _, d := range display {
		entry := Entry{
			URL:                d.URL,
			Title:              d.Title,
			State:              d.State,
			IsIssue:            d.IsIssue,
			CommitCount:        d.CommitCount,
			CommentCount:       d.CommentCount,
			ReviewCommentCount: d.ReviewCommentCount,
		}
		for date := range d.Days {
			byDay[date] = append(byDay[date], entry)
		}
	}

	digest := &Digest{WindowDays: windowDays, Days: []Day{}}
	for date, entries := range byDay {
		slices.SortFunc(entries, func(a, b Entry) int { return strings.Compare(a.URL, b.URL) })
		digest.Days = append(digest.Days, Day{
			Date:    date,
			Weekday: weekday(date),
			Entries: entries,
		})
	}
	slices.SortFunc(digest.Days, func(a, b Day) int { return strings.Compare(b.Date, a.Date) })

	return digest
}

// Empty reports whether the digest has no activity.
func (d *Digest) Empty() bool {
	return len(d.Days) == 0
}

func weekday(date string) string {
	t, err := time.Parse(constants.SinceDateLayout, date)
	if err != nil {
		return ""
	}
	return t.Weekday().String()
}

// StateLabel returns "[closed]" or "[merged]", or "" for open items.
func (e Entry) StateLabel() string {
	if !e.State.Labeled() {
		return ""
	}
	return "[" + string(e.State) + "]"
}

// ActivitySummary returns the parenthesized counts, e.g.
// "(2 commits, 1 comment)", or "" when there are none.
func (e Entry) ActivitySummary() string {
	var parts []string
	if e.CommitCount > 0 {
		parts = append(parts, plural(e.CommitCount, "commit"))
	}
	if e.CommentCount > 0 {
		parts = append(parts, plural(e.CommentCount, "comment"))
	}
	if e.ReviewCommentCount > 0 {
		parts = append(parts, plural(e.ReviewCommentCount, "review comment"))
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// NoActivityMessage is printed instead of an empty digest.
func NoActivityMessage(windowDays int) string {
	return fmt.Sprintf("No activity found in the last %d days.", windowDays)
}
