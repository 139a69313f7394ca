package rest

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/ghtrend/internal/upstream"
)

func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	c, err := NewClient(server.Client(), 0, WithToken("test-token"), WithBaseURL(server.URL))
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func TestSignals(t *testing.T) {
	readme := base64.StdEncoding.EncodeToString([]byte("# Rocket\n## Install\n"))

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/rocket", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		writeJSON(w, `{"full_name":"acme/rocket","description":"Fast","language":"Go",
			"html_url":"https://github.com/acme/rocket","stargazers_count":4200,
			"open_issues_count":12,"archived":false,"license":{"spdx_id":"Apache-2.0"}}`)
	})
	mux.HandleFunc("/repos/acme/rocket/commits", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "10", r.URL.Query().Get("per_page"))
		writeJSON(w, `[{"commit":{"author":{"date":"2026-10-15T12:00:00Z"}}},
			{"commit":{"author":{"date":"2026-10-01T12:00:00Z"}}}]`)
	})
	mux.HandleFunc("/repos/acme/rocket/issues", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "open", r.URL.Query().Get("state"))
		writeJSON(w, `[{"number":1,"comments":3},{"number":2,"comments":0},
			{"number":3,"comments":5,"pull_request":{"url":"x"}}]`)
	})
	mux.HandleFunc("/repos/acme/rocket/pulls", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "all", r.URL.Query().Get("state"))
		writeJSON(w, `[{"state":"closed","merged_at":"2026-10-10T00:00:00Z"},
			{"state":"closed","merged_at":null},{"state":"open"}]`)
	})
	mux.HandleFunc("/repos/acme/rocket/readme", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, `{"encoding":"base64","content":"`+readme+`"}`)
	})

	c := newTestClient(t, mux)
	s, err := c.Signals(context.Background(), "acme/rocket")
	require.NoError(t, err)

	assert.Equal(t, "acme/rocket", s.Repo)
	assert.Equal(t, 4200, s.Stars)
	assert.Equal(t, "Apache-2.0", s.License)
	assert.Equal(t, time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC), s.LatestCommit.UTC())
	assert.Equal(t, []int{3, 0}, s.IssueComments)
	assert.Equal(t, []PullSignal{
		{State: "closed", Merged: true},
		{State: "closed", Merged: false},
		{State: "open", Merged: false},
	}, s.Pulls)
	assert.Equal(t, "# Rocket\n## Install\n", s.Readme)
}

func TestSignals_EmptyRepoWithoutReadme(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/empty", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, `{"full_name":"acme/empty"}`)
	})
	mux.HandleFunc("/repos/acme/empty/commits", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		writeJSON(w, `{"message":"Git Repository is empty."}`)
	})
	mux.HandleFunc("/repos/acme/empty/issues", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, `[]`)
	})
	mux.HandleFunc("/repos/acme/empty/pulls", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, `[]`)
	})

	c := newTestClient(t, mux)
	s, err := c.Signals(context.Background(), "acme/empty")
	require.NoError(t, err)
	assert.True(t, s.LatestCommit.IsZero())
	assert.Empty(t, s.Readme)
	assert.Empty(t, s.IssueComments)
}

func TestSignals_Errors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/limited", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-RateLimit-Limit", "60")
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", "4102444800")
		w.WriteHeader(http.StatusForbidden)
		writeJSON(w, `{"message":"API rate limit exceeded for 127.0.0.1."}`)
	})
	c := newTestClient(t, mux)

	_, err := c.Signals(context.Background(), "acme/missing")
	require.ErrorIs(t, err, upstream.ErrNotFound)

	_, err = c.Signals(context.Background(), "acme/limited")
	require.ErrorIs(t, err, upstream.ErrThrottled)

	_, err = c.Signals(context.Background(), "not-a-repo")
	require.ErrorIs(t, err, upstream.ErrNotFound)
}

func TestWithBaseURL_Invalid(t *testing.T) {
	_, err := NewClient(nil, time.Second, WithBaseURL("://bad"))
	require.Error(t, err)
}
