package activity

import (
	"strings"
	"testing"
	"time"
)

func TestWindowContains(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	w := NewWindow(7, now)
	cutoff := now.Add(-7 * 24 * time.Hour)

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"exactly at cutoff", cutoff, true},
		{"one second before cutoff", cutoff.Add(-time.Second), false},
		{"one second after cutoff", cutoff.Add(time.Second), true},
		{"now", now, true},
		{"cutoff in another zone", cutoff.In(time.FixedZone("PST", -8*3600)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.Contains(tt.at); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

func TestWindowSince(t *testing.T) {
	now := time.Date(2024, 3, 15, 1, 0, 0, 0, time.UTC)
	if got := NewWindow(7, now).Since(); got != "2024-03-08" {
		t.Errorf("Since() = %q, want 2024-03-08", got)
	}

	// The date is taken in the zone of now
	zone := time.FixedZone("UTC+10", 10*3600)
	local := time.Date(2024, 3, 15, 9, 0, 0, 0, zone)
	if got := NewWindow(1, local).Since(); got != "2024-03-14" {
		t.Errorf("Since() = %q, want 2024-03-14", got)
	}
}

func TestPreview(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"short", "looks good", "looks good"},
		{"exactly 100", strings.Repeat("a", 100), strings.Repeat("a", 100)},
		{"101 chars", strings.Repeat("a", 101), strings.Repeat("a", 100) + "..."},
		{"multibyte counted as characters", strings.Repeat("é", 101), strings.Repeat("é", 100) + "..."},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Preview(tt.body); got != tt.want {
				t.Errorf("Preview() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFirstLine(t *testing.T) {
	tests := map[string]string{
		"fix: handle nil":                     "fix: handle nil",
		"feat: add flag\n\nlonger description": "feat: add flag",
		"windows\r\nline endings":             "windows",
		"":                                    "",
	}
	for in, want := range tests {
		if got := FirstLine(in); got != want {
			t.Errorf("FirstLine(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestShortSHA(t *testing.T) {
	if got := ShortSHA("0123456789abcdef"); got != "0123456" {
		t.Errorf("ShortSHA() = %q", got)
	}
	if got := ShortSHA("abc"); got != "abc" {
		t.Errorf("ShortSHA() = %q", got)
	}
}

func TestSameLogin(t *testing.T) {
	if !sameLogin("OctoCat", "octocat") {
		t.Error("expected logins to match case-insensitively")
	}
	if sameLogin("", "") {
		t.Error("expected empty logins not to match")
	}
	if sameLogin("octocat", "hubot") {
		t.Error("expected different logins not to match")
	}
}
