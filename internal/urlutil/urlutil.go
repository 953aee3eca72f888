// Package urlutil provides URL parsing utilities.
package urlutil

import "strings"

// RepoFromAPIURL extracts "owner/name" from a GitHub API URL such as
// https://api.github.com/repos/owner/name or an Enterprise equivalent. It
// returns "" when the URL has no repos segment.
func RepoFromAPIURL(apiURL string) string {
	_, rest, ok := strings.Cut(apiURL, "/repos/")
	if !ok {
		return ""
	}
	parts := strings.SplitN(rest, "/", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return ""
	}
	return parts[0] + "/" + parts[1]
}
