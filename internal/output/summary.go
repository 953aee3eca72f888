package output

import (
	"fmt"

	"github.com/montanaflynn/stats"
)

// Summary aggregates a digest. Counts are per item, so an item active on
// several days is counted once.
type Summary struct {
	Items           int     `json:"items"`
	ActiveDays      int     `json:"activeDays"`
	Commits         int     `json:"commits"`
	Comments        int     `json:"comments"`
	ReviewComments  int     `json:"reviewComments"`
	MeanItemsPerDay float64 `json:"meanItemsPerDay"`
	MedianPerDay    float64 `json:"medianItemsPerDay"`
	BusiestDay      string  `json:"busiestDay,omitempty"`
	BusiestDayItems int     `json:"busiestDayItems"`
}

// Summarize computes totals and per-day statistics for a digest.
func Summarize(digest *Digest) Summary {
	var s Summary
	if digest == nil || digest.Empty() {
		return s
	}

	seen := make(map[string]struct{})
	perDay := make(stats.Float64Data, 0, len(digest.Days))
	for _, day := range digest.Days {
		perDay = append(perDay, float64(len(day.Entries)))
		if len(day.Entries) > s.BusiestDayItems {
			s.BusiestDay = day.Date
			s.BusiestDayItems = len(day.Entries)
		}
		for _, e := range day.Entries {
			if _, ok := seen[e.URL]; ok {
				continue
			}
			seen[e.URL] = struct{}{}
			s.Commits += e.CommitCount
			s.Comments += e.CommentCount
			s.ReviewComments += e.ReviewCommentCount
		}
	}

	s.Items = len(seen)
	s.ActiveDays = len(digest.Days)

	// Errors only occur on empty input, ruled out above
	mean, _ := stats.Mean(perDay)
	s.MeanItemsPerDay, _ = stats.Round(mean, 2)
	s.MedianPerDay, _ = stats.Median(perDay)

	return s
}

// String renders the summary as a single line for diagnostics.
func (s Summary) String() string {
	if s.Items == 0 {
		return "no activity"
	}
	return fmt.Sprintf("%d items on %d days (%d commits, %d comments, %d review comments); %.2f items/day mean, %.1f median, busiest %s with %d",
		s.Items, s.ActiveDays, s.Commits, s.Comments, s.ReviewComments,
		s.MeanItemsPerDay, s.MedianPerDay, s.BusiestDay, s.BusiestDayItems)
}
