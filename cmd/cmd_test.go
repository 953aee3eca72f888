package cmd

import (
	"bytes"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spiffcs/recap/config"
	"github.com/spiffcs/recap/internal/activity"
	"github.com/spiffcs/recap/internal/ghclient"
	"github.com/spiffcs/recap/internal/ghclient/ghtest"
	"github.com/spiffcs/recap/internal/log"
	"github.com/spiffcs/recap/internal/model"
	"github.com/spiffcs/recap/internal/tui"
)

const testToken = "test-token"

// isolate points config lookups at an empty directory and sets the token.
func isolate(t *testing.T, token string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	t.Setenv("GITHUB_TOKEN", token)
	t.Setenv("GITHUB_USERNAME", "")
}

// runRoot executes the root command and returns stdout and diagnostics.
func runRoot(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var diag bytes.Buffer
	log.SetDiagOutput(&diag)
	t.Cleanup(func() { log.SetDiagOutput(os.Stderr) })

	var out bytes.Buffer
	root := New()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), diag.String(), err
}

func since(days int) string {
	return activity.NewWindow(days, time.Now()).Since()
}

func TestNew(t *testing.T) {
	cmd := New()
	if cmd == nil {
		t.Fatal("New() returned nil")
	}
	if cmd.Use != "recap" {
		t.Errorf("expected Use to be 'recap', got %q", cmd.Use)
	}

	for _, name := range []string{"digest", "config", "version", "ratelimit"} {
		if sub, _, err := cmd.Find([]string{name}); err != nil || sub.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestNewCmdDigest(t *testing.T) {
	cmd := NewCmdDigest(NewOptions())
	if cmd.Use != "digest" {
		t.Errorf("expected Use to be 'digest', got %q", cmd.Use)
	}
	for _, flag := range []string{"user", "days", "window", "workers", "max-pages", "min-search-quota", "metrics-file", "output", "tui"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("flag --%s not registered", flag)
		}
	}
}

func TestNewOptions(t *testing.T) {
	opts := NewOptions(WithDays(14), WithFormat("json"), WithUser("octocat"))
	if opts.Days != 14 || opts.Format != "json" || opts.User != "octocat" {
		t.Errorf("options not applied: %+v", opts)
	}
	if opts.Workers != 20 || opts.MaxPages != 10 || opts.MinSearchQuota != 15 {
		t.Errorf("unexpected defaults: %+v", opts)
	}
}

func TestResolveSettings(t *testing.T) {
	isolate(t, testToken)
	days := 3

	tests := []struct {
		name    string
		cfg     *config.Config
		env     string
		args    []string
		check   func(t *testing.T, s config.Settings)
		wantErr bool
	}{
		{
			name: "defaults",
			cfg:  &config.Config{},
			check: func(t *testing.T, s config.Settings) {
				if s.Days != 7 || s.Workers != 20 || s.MaxPages != 10 || !s.ReviewComments {
					t.Errorf("unexpected defaults: %+v", s)
				}
			},
		},
		{
			name: "config used when flag not set",
			cfg:  &config.Config{Days: &days, Username: "from-config"},
			check: func(t *testing.T, s config.Settings) {
				if s.Days != 3 || s.Username != "from-config" {
					t.Errorf("config not applied: %+v", s)
				}
			},
		},
		{
			name: "flags override config",
			cfg:  &config.Config{Days: &days, Username: "from-config"},
			args: []string{"--days", "10", "--user", "flag-user", "--max-pages", "2", "--no-review-comments"},
			check: func(t *testing.T, s config.Settings) {
				if s.Days != 10 || s.Username != "flag-user" || s.MaxPages != 2 || s.ReviewComments {
					t.Errorf("flags not applied: %+v", s)
				}
			},
		},
		{
			name: "env username beats config",
			cfg:  &config.Config{Username: "from-config"},
			env:  "from-env",
			check: func(t *testing.T, s config.Settings) {
				if s.Username != "from-env" {
					t.Errorf("Username = %q, want from-env", s.Username)
				}
			},
		},
		{
			name: "window overrides days",
			cfg:  &config.Config{},
			args: []string{"--days", "3", "--window", "2w"},
			check: func(t *testing.T, s config.Settings) {
				if s.Days != 14 {
					t.Errorf("Days = %d, want 14", s.Days)
				}
			},
		},
		{
			name:    "invalid window",
			cfg:     &config.Config{},
			args:    []string{"--window", "5h"},
			wantErr: true,
		},
		{
			name:    "invalid days",
			cfg:     &config.Config{},
			args:    []string{"--days", "0"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GITHUB_USERNAME", tt.env)
			opts := NewOptions()
			cmd := NewCmdDigest(opts)
			if err := cmd.ParseFlags(tt.args); err != nil {
				t.Fatalf("ParseFlags() error = %v", err)
			}

			s, err := resolveSettings(cmd, opts, tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, s)
		})
	}
}

func TestDigestEndToEnd(t *testing.T) {
	isolate(t, testToken)
	srv := ghtest.NewServer(t, testToken, "octocat")

	srv.SetSearch(activity.BuildQuery(model.SourceAuthored, "octocat", since(7)),
		ghtest.Issue{Repo: "acme/widgets", Number: 1, Title: "Add widget", State: "open", PR: true})
	srv.SetCommits("acme/widgets", 1,
		ghtest.Commit{SHA: "abc1234def", Author: "octocat", Date: time.Now().Add(-time.Hour), Message: "Add widget"},
		ghtest.Commit{SHA: "0000000aaa", Author: "octocat", Date: time.Now().AddDate(0, 0, -30), Message: "Old work"},
	)

	metricsPath := filepath.Join(t.TempDir(), "recap.prom")
	out, diag, err := runRoot(t, "--tui=false", "--api-url", srv.URL(), "--metrics-file", metricsPath)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if !strings.Contains(out, "- https://github.com/acme/widgets/pull/1 - Add widget (1 commit)\n") {
		t.Errorf("digest missing item line:\n%s", out)
	}
	if !strings.HasPrefix(out, "# ") {
		t.Errorf("digest does not start with a day heading:\n%s", out)
	}
	if !strings.Contains(diag, "GitHub API Rate Limits:") {
		t.Errorf("quota block missing from diagnostics:\n%s", diag)
	}
	// The authored walk reads one non-empty page and one empty page; the rest stop at page 1
	if !strings.Contains(diag, "Total search requests made: 5") {
		t.Errorf("search request total missing from diagnostics:\n%s", diag)
	}

	data, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatalf("metrics file not written: %v", err)
	}
	if !strings.Contains(string(data), "recap_search_requests_total 5") {
		t.Errorf("metrics file missing search total:\n%s", data)
	}
}

func TestDigestNoActivity(t *testing.T) {
	isolate(t, testToken)
	srv := ghtest.NewServer(t, testToken, "octocat")

	out, diag, err := runRoot(t, "--tui=false", "--api-url", srv.URL(), "--days", "3")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if out != "No activity found in the last 3 days.\n" {
		t.Errorf("stdout = %q", out)
	}
	if !strings.Contains(diag, "Total search requests made: 4") {
		t.Errorf("diagnostics = %q", diag)
	}
}

func TestDigestTUIReleasesWarningsOnClose(t *testing.T) {
	isolate(t, testToken)
	srv := ghtest.NewServer(t, testToken, "octocat")
	srv.FailPath("/search/issues", http.StatusInternalServerError, 1)

	var drawn bool
	runTUI = func(events <-chan tui.Event, _ ...tui.ModelOption) error {
		for range events {
			drawn = true
		}
		return nil
	}
	t.Cleanup(func() {
		runTUI = tui.Run
		log.Initialize(log.LevelQuiet, os.Stderr)
	})

	_, diag, err := runRoot(t, "--tui=true", "--api-url", srv.URL())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !drawn {
		t.Error("TUI received no events")
	}
	if !strings.Contains(diag, "search walk stopped") {
		t.Errorf("walk warning not released after the TUI closed:\n%s", diag)
	}
	if !strings.Contains(diag, "GitHub API Rate Limits:") {
		t.Errorf("quota block not released after the TUI closed:\n%s", diag)
	}
}

func TestHeldOutputConcurrentWrites(t *testing.T) {
	var h heldOutput
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = h.Write([]byte("line\n"))
		}()
	}
	wg.Wait()

	var out bytes.Buffer
	if _, err := h.WriteTo(&out); err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}
	if got := strings.Count(out.String(), "line\n"); got != 8 {
		t.Errorf("released %d lines, want 8", got)
	}
}

func TestDigestJSONOutput(t *testing.T) {
	isolate(t, testToken)
	srv := ghtest.NewServer(t, testToken, "octocat")

	out, _, err := runRoot(t, "--tui=false", "--api-url", srv.URL(), "-o", "json")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, `"windowDays": 7`) || !strings.Contains(out, `"summary"`) {
		t.Errorf("unexpected JSON output:\n%s", out)
	}
}

func TestDigestQuotaExhausted(t *testing.T) {
	isolate(t, testToken)
	srv := ghtest.NewServer(t, testToken, "octocat")
	srv.SetQuota(ghtest.Quota{Remaining: 5000, Limit: 5000}, ghtest.Quota{Remaining: 3, Limit: 30})

	out, _, err := runRoot(t, "--tui=false", "--api-url", srv.URL())
	var quotaErr *ghclient.QuotaExhaustedError
	if !errors.As(err, &quotaErr) {
		t.Fatalf("expected QuotaExhaustedError, got %v", err)
	}
	if out != "" {
		t.Errorf("stdout should be empty, got %q", out)
	}
	if len(srv.Searches()) != 0 {
		t.Errorf("searches issued after failed preflight: %d", len(srv.Searches()))
	}
}

func TestDigestInvalidToken(t *testing.T) {
	isolate(t, "wrong-token")
	srv := ghtest.NewServer(t, testToken, "octocat")

	_, _, err := runRoot(t, "--tui=false", "--api-url", srv.URL())
	if !ghclient.IsAuthError(err) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	var hinter ghclient.Hinter
	if !errors.As(err, &hinter) || !strings.Contains(hinter.Hint(), "https://github.com/settings/tokens") {
		t.Errorf("missing token hint on %v", err)
	}
}

func TestDigestMissingToken(t *testing.T) {
	isolate(t, "")

	_, _, err := runRoot(t, "--tui=false")
	if err == nil || !strings.Contains(err.Error(), "GITHUB_TOKEN") {
		t.Errorf("expected missing token error, got %v", err)
	}
}

func TestDigestInvalidFormat(t *testing.T) {
	isolate(t, testToken)

	_, _, err := runRoot(t, "--tui=false", "-o", "xml")
	if err == nil || !strings.Contains(err.Error(), "invalid output format") {
		t.Errorf("expected format error, got %v", err)
	}
}

func TestPrintQuota(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	printQuota(&buf, &ghclient.Quota{
		Core:    ghclient.Budget{Remaining: 4990, Limit: 5000, ResetAt: now.Add(42 * time.Minute)},
		Search:  ghclient.Budget{Remaining: 28, Limit: 30, ResetAt: now.Add(-time.Second)},
		GraphQL: ghclient.Budget{Remaining: -1, Limit: -1},
	}, now)

	out := buf.String()
	for _, want := range []string{
		"Core API:   4990/5000 remaining (resets in 42m)",
		"Search API: 28/30 remaining (resets now)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "GraphQL") {
		t.Errorf("unreported resource printed:\n%s", out)
	}
}

func TestTUIFlag(t *testing.T) {
	opts := NewOptions()
	f := newTUIFlag(opts)

	if f.String() != "auto" {
		t.Errorf("default = %q, want auto", f.String())
	}
	if err := f.Set("false"); err != nil || f.String() != "false" {
		t.Errorf("Set(false) = %v, String() = %q", err, f.String())
	}
	if shouldUseTUI(opts) {
		t.Error("TUI enabled after --tui=false")
	}
	if err := f.Set("maybe"); err == nil {
		t.Error("expected error for invalid value")
	}

	_ = f.Set("true")
	opts.Verbosity = 1
	if shouldUseTUI(opts) {
		t.Error("TUI enabled with verbose logging")
	}
}

func TestNewCmdVersion(t *testing.T) {
	SetVersionInfo("1.0.0", "abc123", "2024-01-01")

	var out bytes.Buffer
	cmd := NewCmdVersion()
	cmd.SetOut(&out)
	cmd.Run(cmd, nil)

	if !strings.HasPrefix(out.String(), "recap 1.0.0\n") {
		t.Errorf("version output = %q", out.String())
	}
}
