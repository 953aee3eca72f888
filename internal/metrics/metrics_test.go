package metrics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spiffcs/recap/internal/activity"
	"github.com/spiffcs/recap/internal/ghclient"
	"github.com/spiffcs/recap/internal/ghclient/ghtest"
	"github.com/spiffcs/recap/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRun(t *testing.T) {
	r := New()
	res := &activity.Result{
		SearchRequests: 6,
		Walks: []*activity.WalkStats{
			{Source: model.SourceAuthored, Pages: 2, Records: 3},
			{Source: model.SourceCommented, Pages: 1, Records: 1, Errors: 2},
			{Source: model.SourceReviewed, Pages: 1, Warning: errors.New("page 2 failed")},
		},
	}

	r.RecordRun(res, 1500*time.Millisecond)

	assert.Equal(t, 6.0, testutil.ToFloat64(r.searchRequests))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.searchPages.WithLabelValues("authored")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.records.WithLabelValues("authored")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.itemErrors.WithLabelValues("commented")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.walkWarnings.WithLabelValues("reviewed")))
	assert.Equal(t, 1.5, testutil.ToFloat64(r.runDuration))
	assert.Equal(t, 1, testutil.CollectAndCount(r.walkWarnings, "recap_walk_warnings_total"))
}

func TestRecordRunNil(t *testing.T) {
	r := New()
	r.RecordRun(nil, time.Second)
	assert.Equal(t, 0.0, testutil.ToFloat64(r.searchRequests))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.runDuration))
}

func TestRecordQuota(t *testing.T) {
	r := New()
	r.RecordQuota(&ghclient.Quota{
		Core:    ghclient.Budget{Remaining: 4990, Limit: 5000},
		Search:  ghclient.Budget{Remaining: 28, Limit: 30},
		GraphQL: ghclient.Budget{Remaining: -1, Limit: -1},
	})
	assert.Equal(t, 4990.0, testutil.ToFloat64(r.quotaRemaining.WithLabelValues("core")))
	assert.Equal(t, 28.0, testutil.ToFloat64(r.quotaRemaining.WithLabelValues("search")))

	r.RecordQuota(nil)
	assert.Equal(t, 3, testutil.CollectAndCount(r.quotaRemaining))
}

func TestInstrumentTransport(t *testing.T) {
	srv := ghtest.NewServer(t, "test-token", "octocat")
	r := New()

	client, err := ghclient.NewClient(context.Background(), "test-token",
		ghclient.WithBaseURL(srv.URL()),
		ghclient.WithSearchRate(0),
		ghclient.WithTransportWrapper(r.InstrumentTransport),
	)
	require.NoError(t, err)

	login, err := client.AuthenticatedUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "octocat", login)

	_, err = client.Quota(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.httpRequests.WithLabelValues("200", "get")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.httpDuration))
}

func TestWriteFile(t *testing.T) {
	r := New()
	r.RecordRun(&activity.Result{SearchRequests: 4}, time.Second)

	path := filepath.Join(t.TempDir(), "recap.prom")
	require.NoError(t, r.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "recap_search_requests_total 4"), string(data))
	assert.True(t, strings.Contains(string(data), "# TYPE recap_collect_duration_seconds gauge"), string(data))
}

func TestRegistryIsPrivate(t *testing.T) {
	r := New()
	r.RecordRun(&activity.Result{SearchRequests: 4}, time.Second)

	n, err := testutil.GatherAndCount(r.Registry(), "recap_search_requests_total", "recap_collect_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// A second recorder starts from zero.
	assert.Equal(t, 0.0, testutil.ToFloat64(New().searchRequests))
}
