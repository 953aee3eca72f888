// Package ghtest provides an in-process fake of the GitHub REST endpoints
// used by recap, for tests.
package ghtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

// Issue is a search result fixture. PR marks pull requests.
type Issue struct {
	Repo     string
	Number   int
	Title    string
	State    string
	PR       bool
	MergedAt time.Time
}

// Commit is a pull request commit fixture.
type Commit struct {
	SHA     string
	Author  string
	Date    time.Time
	Message string
}

// Comment is an issue comment or review comment fixture.
type Comment struct {
	ID        int64
	User      string
	CreatedAt time.Time
	Body      string
}

// SearchRequest records the parameters of one search call.
type SearchRequest struct {
	Query   string
	Sort    string
	Order   string
	Page    int
	PerPage int
}

// Quota is the remaining/limit pair served for one resource.
type Quota struct {
	Remaining int
	Limit     int
}

type failureRule struct {
	status    int
	remaining int
	exhausted bool // answer with an empty core rate limit
}

// Server is a fake GitHub API. All setters are safe to call while requests
// are in flight.
type Server struct {
	mu sync.Mutex

	server *httptest.Server

	token          string
	login          string
	core           Quota
	search         Quota
	searches       map[string][]Issue
	commits        map[string][]Commit
	comments       map[string][]Comment
	reviewComments map[string][]Comment
	failures       map[string]*failureRule
	callCount      map[string]int
	searchLog      []SearchRequest
}

// NewServer starts a fake API that accepts token and identifies its bearer
// as login. The server is closed when the test ends.
func NewServer(tb testing.TB, token, login string) *Server {
	tb.Helper()

	s := &Server{
		token:          token,
		login:          login,
		core:           Quota{Remaining: 5000, Limit: 5000},
		search:         Quota{Remaining: 30, Limit: 30},
		searches:       make(map[string][]Issue),
		commits:        make(map[string][]Commit),
		comments:       make(map[string][]Comment),
		reviewComments: make(map[string][]Comment),
		failures:       make(map[string]*failureRule),
		callCount:      make(map[string]int),
	}
	s.server = httptest.NewServer(s.routes())
	tb.Cleanup(s.Close)
	return s
}

// URL returns the API root, ending in a slash.
func (s *Server) URL() string {
	return s.server.URL + "/"
}

// Close shuts the server down.
func (s *Server) Close() {
	s.server.Close()
}

// SetQuota sets the core and search budgets served by /rate_limit.
func (s *Server) SetQuota(core, search Quota) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.core = core
	s.search = search
}

// SetSearch registers the results of an exact search query.
func (s *Server) SetSearch(query string, issues ...Issue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searches[query] = append([]Issue(nil), issues...)
}

// SetCommits registers the commits of a pull request.
func (s *Server) SetCommits(repo string, number int, commits ...Commit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commits[itemKey(repo, number)] = append([]Commit(nil), commits...)
}

// SetComments registers the conversation comments of an issue or PR.
func (s *Server) SetComments(repo string, number int, comments ...Comment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments[itemKey(repo, number)] = append([]Comment(nil), comments...)
}

// SetReviewComments registers the inline review comments of a PR.
func (s *Server) SetReviewComments(repo string, number int, comments ...Comment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviewComments[itemKey(repo, number)] = append([]Comment(nil), comments...)
}

// FailPath makes the next times requests to path answer with status. A
// page-specific rule can be set with a path of the form "/x/y?page=2".
func (s *Server) FailPath(path string, status, times int) {
	if status <= 0 || times <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = &failureRule{status: status, remaining: times}
}

// FailPathRateLimited is FailPath with the primary rate limit headers of an
// exhausted core budget, as GitHub sends with a 403 or 429.
func (s *Server) FailPathRateLimited(path string, status, times int) {
	if status <= 0 || times <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = &failureRule{status: status, remaining: times, exhausted: true}
}

// PathCallCount returns how many requests path has received.
func (s *Server) PathCallCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callCount[path]
}

// Searches returns every search request received, in arrival order.
func (s *Server) Searches() []SearchRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SearchRequest(nil), s.searchLog...)
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.countCalls)
	r.Use(s.authenticate)
	r.Use(s.injectFailures)

	r.Get("/user", s.handleUser)
	r.Get("/rate_limit", s.handleRateLimit)
	r.Get("/search/issues", s.handleSearch)
	r.Get("/repos/{owner}/{repo}/pulls/{number}/commits", s.handleCommits)
	r.Get("/repos/{owner}/{repo}/pulls/{number}/comments", s.handleReviewComments)
	r.Get("/repos/{owner}/{repo}/issues/{number}/comments", s.handleComments)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
	})
	return r
}

func (s *Server) countCalls(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.callCount[r.URL.Path]++
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if s.token != "" && auth != "Bearer "+s.token && auth != "token "+s.token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Bad credentials"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keys := []string{r.URL.Path}
		if page := r.URL.Query().Get("page"); page != "" {
			keys = append([]string{r.URL.Path + "?page=" + page}, keys...)
		}

		s.mu.Lock()
		var status int
		var exhausted bool
		for _, key := range keys {
			rule, ok := s.failures[key]
			if !ok || rule.remaining <= 0 {
				continue
			}
			rule.remaining--
			status, exhausted = rule.status, rule.exhausted
			break
		}
		s.mu.Unlock()

		if exhausted {
			w.Header().Set("X-RateLimit-Limit", "5000")
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10))
			w.Header().Set("X-RateLimit-Resource", "core")
		}
		if status != 0 {
			writeJSON(w, status, map[string]string{
				"message": fmt.Sprintf("forced failure for %s", r.URL.Path),
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleUser(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"login": s.login, "id": 1})
}

func (s *Server) handleRateLimit(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	core, search := s.core, s.search
	s.mu.Unlock()

	reset := time.Now().Add(time.Hour).Unix()
	writeJSON(w, http.StatusOK, map[string]any{
		"resources": map[string]any{
			"core":   map[string]any{"limit": core.Limit, "remaining": core.Remaining, "reset": reset},
			"search": map[string]any{"limit": search.Limit, "remaining": search.Remaining, "reset": reset},
		},
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, perPage := pagination(r)

	s.mu.Lock()
	s.searchLog = append(s.searchLog, SearchRequest{
		Query:   q.Get("q"),
		Sort:    q.Get("sort"),
		Order:   q.Get("order"),
		Page:    page,
		PerPage: perPage,
	})
	all := s.searches[q.Get("q")]
	s.mu.Unlock()

	window := paginate(all, page, perPage)
	items := make([]map[string]any, 0, len(window))
	for _, issue := range window {
		items = append(items, s.issueJSON(issue))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_count":        len(all),
		"incomplete_results": false,
		"items":              items,
	})
}

func (s *Server) handleCommits(w http.ResponseWriter, r *http.Request) {
	key, ok := routeKey(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	page, perPage := pagination(r)

	s.mu.Lock()
	window := paginate(s.commits[key], page, perPage)
	s.mu.Unlock()

	out := make([]map[string]any, 0, len(window))
	for _, c := range window {
		out = append(out, map[string]any{
			"sha":    c.SHA,
			"author": map[string]any{"login": c.Author},
			"commit": map[string]any{
				"author":  map[string]any{"name": c.Author, "date": c.Date.Format(time.RFC3339)},
				"message": c.Message,
			},
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleComments(w http.ResponseWriter, r *http.Request) {
	s.serveComments(w, r, s.comments)
}

func (s *Server) handleReviewComments(w http.ResponseWriter, r *http.Request) {
	s.serveComments(w, r, s.reviewComments)
}

func (s *Server) serveComments(w http.ResponseWriter, r *http.Request, source map[string][]Comment) {
	key, ok := routeKey(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	page, perPage := pagination(r)

	s.mu.Lock()
	window := paginate(source[key], page, perPage)
	s.mu.Unlock()

	out := make([]map[string]any, 0, len(window))
	for _, c := range window {
		out = append(out, map[string]any{
			"id":         c.ID,
			"user":       map[string]any{"login": c.User},
			"created_at": c.CreatedAt.Format(time.RFC3339),
			"body":       c.Body,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) issueJSON(issue Issue) map[string]any {
	base := s.server.URL
	state := issue.State
	if state == "" {
		state = "open"
	}
	kind := "issues"
	if issue.PR {
		kind = "pull"
	}

	out := map[string]any{
		"number":         issue.Number,
		"title":          issue.Title,
		"state":          state,
		"html_url":       fmt.Sprintf("https://github.com/%s/%s/%d", issue.Repo, kind, issue.Number),
		"repository_url": fmt.Sprintf("%s/repos/%s", base, issue.Repo),
		"comments_url":   fmt.Sprintf("%s/repos/%s/issues/%d/comments", base, issue.Repo, issue.Number),
	}
	if issue.PR {
		pr := map[string]any{
			"url": fmt.Sprintf("%s/repos/%s/pulls/%d", base, issue.Repo, issue.Number),
		}
		if !issue.MergedAt.IsZero() {
			pr["merged_at"] = issue.MergedAt.Format(time.RFC3339)
		} else {
			pr["merged_at"] = nil
		}
		out["pull_request"] = pr
	}
	return out
}

func routeKey(r *http.Request) (string, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		return "", false
	}
	return itemKey(chi.URLParam(r, "owner")+"/"+chi.URLParam(r, "repo"), n), true
}

func itemKey(repo string, number int) string {
	return strings.ToLower(repo) + "#" + strconv.Itoa(number)
}

func pagination(r *http.Request) (page, perPage int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage < 1 {
		perPage = 30
	}
	return page, perPage
}

func paginate[T any](all []T, page, perPage int) []T {
	start := (page - 1) * perPage
	if start >= len(all) {
		return nil
	}
	end := start + perPage
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
