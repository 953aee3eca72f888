package activity

import (
	"slices"
	"strings"

	"github.com/spiffcs/recap/internal/model"
)

// Merge splits records into authorship and commentary and unions records
// that describe the same item within a side. Input records are not
// modified, and the result does not depend on their order.
func Merge(records []*model.ActivityRecord) *model.MergedState {
	state := &model.MergedState{
		Authored:  make(map[model.ItemKey]*model.ActivityRecord),
		Commented: make(map[model.ItemKey]*model.ActivityRecord),
	}

	for _, r := range records {
		if r == nil {
			continue
		}
		side := state.Commented
		if r.IsAuthor {
			side = state.Authored
		}

		existing, ok := side[r.Key]
		if !ok {
			side[r.Key] = cloneRecord(r)
			continue
		}
		unionRecord(existing, r)
	}

	for _, side := range []map[model.ItemKey]*model.ActivityRecord{state.Authored, state.Commented} {
		for _, r := range side {
			sortActivity(r)
		}
	}
	return state
}

func cloneRecord(r *model.ActivityRecord) *model.ActivityRecord {
	c := *r
	c.Commits = append([]model.Commit{}, r.Commits...)
	c.Comments = append([]model.Comment{}, r.Comments...)
	c.ReviewComments = append([]model.Comment{}, r.ReviewComments...)
	return &c
}

func unionRecord(dst, src *model.ActivityRecord) {
	dst.IsIssue = dst.IsIssue || src.IsIssue
	dst.Title = pickNonEmpty(dst.Title, src.Title)
	dst.URL = pickNonEmpty(dst.URL, src.URL)
	dst.State = pickState(dst.State, src.State)
	if sourceRank(src.Source) < sourceRank(dst.Source) {
		dst.Source = src.Source
	}

	seenSHA := make(map[string]struct{}, len(dst.Commits))
	for _, c := range dst.Commits {
		seenSHA[c.SHA] = struct{}{}
	}
	for _, c := range src.Commits {
		if _, ok := seenSHA[c.SHA]; ok {
			continue
		}
		seenSHA[c.SHA] = struct{}{}
		dst.Commits = append(dst.Commits, c)
	}

	dst.Comments = unionComments(dst.Comments, src.Comments)
	dst.ReviewComments = unionComments(dst.ReviewComments, src.ReviewComments)
}

func unionComments(dst, src []model.Comment) []model.Comment {
	seen := make(map[int64]struct{}, len(dst))
	for _, c := range dst {
		seen[c.ID] = struct{}{}
	}
	for _, c := range src {
		if _, ok := seen[c.ID]; ok {
			continue
		}
		seen[c.ID] = struct{}{}
		dst = append(dst, c)
	}
	return dst
}

// pickNonEmpty prefers a non-empty value; between two, the smaller wins so the
// choice is stable.
func pickNonEmpty(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	case b < a:
		return b
	default:
		return a
	}
}

// pickState keeps the furthest lifecycle state seen.
func pickState(a, b model.State) model.State {
	if stateRank(b) > stateRank(a) {
		return b
	}
	return a
}

func stateRank(s model.State) int {
	switch s {
	case model.StateMerged:
		return 3
	case model.StateClosed:
		return 2
	case model.StateOpen:
		return 1
	default:
		return 0
	}
}

func sourceRank(s model.Source) int {
	if i := slices.Index(model.AllSources, s); i >= 0 {
		return i
	}
	return len(model.AllSources)
}

func sortActivity(r *model.ActivityRecord) {
	slices.SortFunc(r.Commits, func(a, b model.Commit) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return strings.Compare(a.SHA, b.SHA)
	})
	byDate := func(a, b model.Comment) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	}
	slices.SortFunc(r.Comments, byDate)
	slices.SortFunc(r.ReviewComments, byDate)
}

// BuildDisplay folds the merged records into one display record per URL.
// Authored records contribute commits, commentary records contribute
// comments; an item found on both sides is shown once with both.
func BuildDisplay(state *model.MergedState) map[string]*model.DisplayRecord {
	display := make(map[string]*model.DisplayRecord)
	if state == nil {
		return display
	}

	add := func(r *model.ActivityRecord) {
		url := r.URL
		if url == "" {
			url = r.Key.String()
		}

		d, ok := display[url]
		if !ok {
			d = &model.DisplayRecord{
				Key:   r.Key,
				URL:   url,
				Title: r.Title,
				State: r.State,
				Days:  make(map[string]struct{}),
			}
			display[url] = d
		} else {
			d.Title = pickNonEmpty(d.Title, r.Title)
			d.State = pickState(d.State, r.State)
		}

		d.IsIssue = d.IsIssue || r.IsIssue
		d.CommitCount += len(r.Commits)
		d.CommentCount += len(r.Comments)
		d.ReviewCommentCount += len(r.ReviewComments)
		for _, day := range r.Days() {
			d.Days[day] = struct{}{}
		}
	}

	for _, r := range state.Authored {
		add(r)
	}
	for _, r := range state.Commented {
		add(r)
	}
	return display
}
