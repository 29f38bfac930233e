package trending

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kevinmichaelchen/trend-digest/internal/config"
	"github.com/kevinmichaelchen/trend-digest/internal/models"
)

func newTestAcquirer(t *testing.T, trendingURL, apiURL, rawURL string) *Acquirer {
	t.Helper()
	cfg := &config.Config{Since: "daily", MaxRepos: 15}
	a := NewAcquirer(cfg, zap.NewNop())
	require.NoError(t, a.SetBaseURLs(trendingURL, apiURL, rawURL))
	return a
}

func searchResponse() map[string]any {
	return map[string]any{
		"total_count":        2,
		"incomplete_results": false,
		"items": []map[string]any{
			{
				"full_name":        "acme/rocket",
				"html_url":         "https://github.com/acme/rocket",
				"description":      "A very fast thing",
				"language":         "Go",
				"stargazers_count": 4200,
			},
			{
				"full_name":        "beta/pebble",
				"html_url":         "https://github.com/beta/pebble",
				"stargazers_count": 99,
			},
		},
	}
}

func TestAcquire_PrefersScrapedPage(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(trendingFixture))
	}))
	defer page.Close()
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("search API must not be called when scraping succeeds")
	}))
	defer api.Close()

	a := newTestAcquirer(t, page.URL, api.URL, api.URL)

	repos, source, err := a.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SourceScraped, source)
	assert.Len(t, repos, 3)
	assert.Equal(t, 321, repos[0].StarsGained)
}

func TestAcquire_FallsBackToSearchAPI(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r) // permanent scrape failure
	}))
	defer page.Close()

	var searched bool
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/repositories" {
			http.NotFound(w, r)
			return
		}
		searched = true
		assert.Contains(t, r.URL.Query().Get("q"), "created:>")
		assert.Equal(t, "stars", r.URL.Query().Get("sort"))
		assert.Equal(t, "desc", r.URL.Query().Get("order"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(searchResponse())
	}))
	defer api.Close()

	a := newTestAcquirer(t, page.URL, api.URL, api.URL)

	repos, source, err := a.Acquire(context.Background())
	require.NoError(t, err)
	assert.True(t, searched)
	assert.Equal(t, SourceFallback, source)
	require.Len(t, repos, 2)

	assert.Equal(t, "acme/rocket", repos[0].FullName)
	assert.Equal(t, "acme", repos[0].Owner)
	assert.Equal(t, 4200, repos[0].Stars)
	assert.Zero(t, repos[0].StarsGained, "search path has no per-period figure")
	assert.Equal(t, "Unknown", repos[1].Language)
}

func TestAcquire_EmptyPageTriggersFallback(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>nothing trending</body></html>"))
	}))
	defer page.Close()
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(searchResponse())
	}))
	defer api.Close()

	a := newTestAcquirer(t, page.URL, api.URL, api.URL)

	repos, source, err := a.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, source)
	assert.NotEmpty(t, repos)
}

func TestAcquire_BothPathsFailingIsFatal(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer down.Close()

	a := newTestAcquirer(t, down.URL, down.URL, down.URL)

	_, _, err := a.Acquire(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all acquisition paths failed")
}

func TestFetchReadmes_PopulatesExcerpts(t *testing.T) {
	readme := "# Rocket\n\nGoes fast."
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/repos/acme/rocket/readme" {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"type":     "file",
				"encoding": "base64",
				"name":     "README.md",
				"content":  base64.StdEncoding.EncodeToString([]byte(readme)),
			})
			return
		}
		http.NotFound(w, r)
	}))
	defer api.Close()

	a := newTestAcquirer(t, api.URL, api.URL, api.URL)

	repos := []models.Repo{
		{Owner: "acme", Name: "rocket", FullName: "acme/rocket"},
		{Owner: "gone", Name: "missing", FullName: "gone/missing"},
	}
	a.FetchReadmes(context.Background(), repos)

	assert.Equal(t, readme, repos[0].ReadmeExcerpt)
	assert.Empty(t, repos[1].ReadmeExcerpt, "a failed readme fetch must leave the excerpt empty")
}

func TestFetchReadmes_RawFallback(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer api.Close()

	raw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/acme/rocket/HEAD/README.md" {
			fmt.Fprint(w, "raw readme text")
			return
		}
		http.NotFound(w, r)
	}))
	defer raw.Close()

	fetcher := NewReadmeFetcher("", &http.Client{Timeout: 5 * time.Second}, zap.NewNop())
	require.NoError(t, fetcher.SetBaseURLs(api.URL, raw.URL))

	text, err := fetcher.Fetch(context.Background(), "acme", "rocket")
	require.NoError(t, err)
	assert.Equal(t, "raw readme text", text)
}

func TestReadmeExcerptIsCapped(t *testing.T) {
	long := make([]byte, maxExcerptLen*2)
	for i := range long {
		long[i] = 'a'
	}

	raw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(long)
	}))
	defer raw.Close()
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer api.Close()

	fetcher := NewReadmeFetcher("", &http.Client{Timeout: 5 * time.Second}, zap.NewNop())
	require.NoError(t, fetcher.SetBaseURLs(api.URL, raw.URL))

	text, err := fetcher.Fetch(context.Background(), "acme", "rocket")
	require.NoError(t, err)
	assert.Len(t, text, maxExcerptLen)
}

func TestLookup_SingleRepo(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/acme/rocket":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"full_name":        "acme/rocket",
				"html_url":         "https://github.com/acme/rocket",
				"description":      "A very fast thing",
				"language":         "Go",
				"stargazers_count": 4200,
			})
		case "/repos/acme/rocket/readme":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"type":     "file",
				"encoding": "base64",
				"content":  base64.StdEncoding.EncodeToString([]byte("# Rocket")),
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer api.Close()

	a := newTestAcquirer(t, api.URL, api.URL, api.URL)

	repo, err := a.Lookup(context.Background(), "acme", "rocket")
	require.NoError(t, err)
	assert.Equal(t, "acme/rocket", repo.FullName)
	assert.Equal(t, 4200, repo.Stars)
	assert.Equal(t, "# Rocket", repo.ReadmeExcerpt)
}
