package model

import "time"

// Commit is a commit authored by the tracked user inside the window.
type Commit struct {
	SHA     string    `json:"sha"`
	Date    time.Time `json:"date"`
	Message string    `json:"message"`
}

// Comment is an issue comment or pull request review comment written by the
// tracked user inside the window.
type Comment struct {
	ID   int64     `json:"id"`
	Date time.Time `json:"date"`
	Body string    `json:"body"`
}

// ActivityRecord is the qualifying activity found on one item by one detail
// fetch. Records are never emitted empty.
type ActivityRecord struct {
	Key            ItemKey   `json:"key"`
	Title          string    `json:"title"`
	URL            string    `json:"url"`
	State          State     `json:"state"`
	IsAuthor       bool      `json:"isAuthor"`
	IsIssue        bool      `json:"isIssue"`
	Source         Source    `json:"source"`
	Commits        []Commit  `json:"commits"`
	Comments       []Comment `json:"comments"`
	ReviewComments []Comment `json:"reviewComments"`
}

// NewRecord starts a record for an item with empty activity lists.
func NewRecord(item Item, isAuthor bool) *ActivityRecord {
	return &ActivityRecord{
		Key:            item.Key,
		Title:          item.Title,
		URL:            item.URL,
		State:          item.State,
		IsAuthor:       isAuthor,
		IsIssue:        !item.IsPR,
		Source:         item.Source,
		Commits:        []Commit{},
		Comments:       []Comment{},
		ReviewComments: []Comment{},
	}
}

// Empty reports whether the record holds no qualifying activity.
func (r *ActivityRecord) Empty() bool {
	return len(r.Commits) == 0 && len(r.Comments) == 0 && len(r.ReviewComments) == 0
}

// Days returns the calendar dates, in each timestamp's own zone, on which
// the record has activity.
func (r *ActivityRecord) Days() []string {
	seen := make(map[string]struct{})
	var days []string
	add := func(t time.Time) {
		d := t.Format("2006-01-02")
		if _, ok := seen[d]; ok {
			return
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	for _, c := range r.Commits {
		add(c.Date)
	}
	for _, c := range r.Comments {
		add(c.Date)
	}
	for _, c := range r.ReviewComments {
		add(c.Date)
	}
	return days
}

// MergedState holds the deduplicated records of a run, split by whether the
// activity is authorship or commentary. One item may appear in both maps.
type MergedState struct {
	Authored  map[ItemKey]*ActivityRecord
	Commented map[ItemKey]*ActivityRecord
}

// DisplayRecord is the per-URL view consumed by the report renderer.
type DisplayRecord struct {
	Key                ItemKey             `json:"key"`
	URL                string              `json:"url"`
	Title              string              `json:"title"`
	State              State               `json:"state"`
	IsIssue            bool                `json:"isIssue"`
	CommitCount        int                 `json:"commitCount"`
	CommentCount       int                 `json:"commentCount"`
	ReviewCommentCount int                 `json:"reviewCommentCount"`
	Days               map[string]struct{} `json:"-"`
}
