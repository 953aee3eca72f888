package activity

import (
	"strconv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spiffcs/recap/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d, h int) time.Time {
	return time.Date(2024, 3, d, h, 0, 0, 0, time.UTC)
}

func commented(key model.ItemKey, source model.Source, comments []model.Comment, reviews []model.Comment) *model.ActivityRecord {
	return &model.ActivityRecord{
		Key:            key,
		Title:          "Title " + key.String(),
		URL:            "https://github.com/" + key.Repo + "/pull/" + strconv.Itoa(key.Number),
		State:          model.StateOpen,
		Source:         source,
		Commits:        []model.Commit{},
		Comments:       comments,
		ReviewComments: reviews,
	}
}

func TestMergeUnionsSameKeyWithoutOverwrite(t *testing.T) {
	key := model.ItemKey{Repo: "acme/widgets", Number: 1}
	fromComments := commented(key, model.SourceCommented,
		[]model.Comment{{ID: 1, Date: day(10, 9)}, {ID: 2, Date: day(11, 9)}},
		[]model.Comment{})
	fromReviews := commented(key, model.SourceReviewed,
		[]model.Comment{{ID: 2, Date: day(11, 9)}},
		[]model.Comment{{ID: 50, Date: day(12, 9)}})

	for name, order := range map[string][]*model.ActivityRecord{
		"comments first": {fromComments, fromReviews},
		"reviews first":  {fromReviews, fromComments},
	} {
		t.Run(name, func(t *testing.T) {
			state := Merge(order)
			require.Len(t, state.Commented, 1)
			assert.Empty(t, state.Authored)

			got := state.Commented[key]
			assert.Equal(t, []model.Comment{{ID: 1, Date: day(10, 9)}, {ID: 2, Date: day(11, 9)}}, got.Comments)
			assert.Equal(t, []model.Comment{{ID: 50, Date: day(12, 9)}}, got.ReviewComments)
			assert.Equal(t, model.SourceCommented, got.Source)
		})
	}

	// Inputs are left alone
	assert.Len(t, fromComments.ReviewComments, 0)
	assert.Len(t, fromReviews.Comments, 1)
}

func TestMergeKeepsAuthorshipAndCommentarySeparate(t *testing.T) {
	key := model.ItemKey{Repo: "acme/widgets", Number: 1}
	authored := &model.ActivityRecord{
		Key:      key,
		URL:      "https://github.com/acme/widgets/pull/1",
		IsAuthor: true,
		Commits:  []model.Commit{{SHA: "aaaaaaa", Date: day(10, 9)}},
	}
	comment := commented(key, model.SourceCommented, []model.Comment{{ID: 1, Date: day(11, 9)}}, nil)

	state := Merge([]*model.ActivityRecord{authored, comment, nil})
	require.Contains(t, state.Authored, key)
	require.Contains(t, state.Commented, key)
	assert.Len(t, state.Authored[key].Commits, 1)
	assert.Len(t, state.Commented[key].Comments, 1)
}

func TestMergeDistinctKeysNeverCollide(t *testing.T) {
	a := model.ItemKey{Repo: "acme/a#1", Number: 2}
	b := model.ItemKey{Repo: "acme/a", Number: 12}

	state := Merge([]*model.ActivityRecord{
		commented(a, model.SourceCommented, []model.Comment{{ID: 1, Date: day(10, 9)}}, nil),
		commented(b, model.SourceCommented, []model.Comment{{ID: 2, Date: day(10, 9)}}, nil),
	})
	assert.Len(t, state.Commented, 2)
}

func TestMergeUnionsCommitsBySHA(t *testing.T) {
	key := model.ItemKey{Repo: "acme/widgets", Number: 3}
	first := &model.ActivityRecord{Key: key, IsAuthor: true, State: model.StateOpen,
		Commits: []model.Commit{{SHA: "b", Date: day(11, 1)}, {SHA: "a", Date: day(10, 1)}}}
	second := &model.ActivityRecord{Key: key, IsAuthor: true, State: model.StateMerged,
		Commits: []model.Commit{{SHA: "a", Date: day(10, 1)}, {SHA: "c", Date: day(12, 1)}}}

	got := Merge([]*model.ActivityRecord{first, second}).Authored[key]
	want := []model.Commit{{SHA: "a", Date: day(10, 1)}, {SHA: "b", Date: day(11, 1)}, {SHA: "c", Date: day(12, 1)}}
	if diff := cmp.Diff(want, got.Commits); diff != "" {
		t.Errorf("commits mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, model.StateMerged, got.State)
}

func TestBuildDisplayCombinesBothSides(t *testing.T) {
	pr := model.ItemKey{Repo: "acme/widgets", Number: 1}
	issue := model.ItemKey{Repo: "acme/widgets", Number: 2}

	records := []*model.ActivityRecord{
		{
			Key:      pr,
			Title:    "Add widget",
			URL:      "https://github.com/acme/widgets/pull/1",
			State:    model.StateMerged,
			IsAuthor: true,
			Commits:  []model.Commit{{SHA: "a", Date: day(10, 9)}, {SHA: "b", Date: day(10, 15)}},
		},
		{
			Key:            pr,
			Title:          "Add widget",
			URL:            "https://github.com/acme/widgets/pull/1",
			State:          model.StateMerged,
			Comments:       []model.Comment{{ID: 1, Date: day(11, 9)}},
			ReviewComments: []model.Comment{{ID: 2, Date: day(11, 10)}, {ID: 3, Date: day(12, 10)}},
		},
		{
			Key:      issue,
			Title:    "Widget broken",
			URL:      "https://github.com/acme/widgets/issues/2",
			State:    model.StateClosed,
			IsIssue:  true,
			Comments: []model.Comment{{ID: 4, Date: day(12, 8)}},
		},
	}

	display := BuildDisplay(Merge(records))
	require.Len(t, display, 2)

	want := map[string]*model.DisplayRecord{
		"https://github.com/acme/widgets/pull/1": {
			Key:                pr,
			URL:                "https://github.com/acme/widgets/pull/1",
			Title:              "Add widget",
			State:              model.StateMerged,
			CommitCount:        2,
			CommentCount:       1,
			ReviewCommentCount: 2,
			Days:               map[string]struct{}{"2024-03-10": {}, "2024-03-11": {}, "2024-03-12": {}},
		},
		"https://github.com/acme/widgets/issues/2": {
			Key:          issue,
			URL:          "https://github.com/acme/widgets/issues/2",
			Title:        "Widget broken",
			State:        model.StateClosed,
			IsIssue:      true,
			CommentCount: 1,
			Days:         map[string]struct{}{"2024-03-12": {}},
		},
	}
	if diff := cmp.Diff(want, display); diff != "" {
		t.Errorf("display mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildDisplayDaysUseTimestampZone(t *testing.T) {
	key := model.ItemKey{Repo: "acme/widgets", Number: 1}
	tokyo := time.FixedZone("JST", 9*3600)
	records := []*model.ActivityRecord{{
		Key:      key,
		URL:      "u",
		IsAuthor: true,
		// 2024-03-10 20:00 UTC is already the 11th in Tokyo
		Commits: []model.Commit{{SHA: "a", Date: time.Date(2024, 3, 11, 5, 0, 0, 0, tokyo)}},
	}}

	display := BuildDisplay(Merge(records))
	assert.Equal(t, map[string]struct{}{"2024-03-11": {}}, display["u"].Days)
}

func TestBuildDisplayNil(t *testing.T) {
	assert.Empty(t, BuildDisplay(nil))
	assert.Empty(t, BuildDisplay(Merge(nil)))
}
