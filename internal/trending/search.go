package trending

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v55/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/kevinmichaelchen/trend-digest/internal/models"
	"github.com/kevinmichaelchen/trend-digest/internal/retry"
)

// Searcher is the fallback path: when the trending page cannot be
// scraped, query the search API for repositories created recently,
// sorted by stars. This path has no per-period star figure; StarsGained
// is left at zero, a documented approximation.
type Searcher struct {
	client *github.Client
	log    *zap.Logger
}

// searchWindowDays bounds the "created recently" query on the fallback
// path. One week roughly matches what the trending page surfaces.
const searchWindowDays = 7

func NewSearcher(token string, log *zap.Logger) *Searcher {
	httpClient := http.DefaultClient
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}
	return &Searcher{client: github.NewClient(httpClient), log: log}
}

// SetBaseURL points the underlying client at a different API host.
// Used by tests.
func (s *Searcher) SetBaseURL(base string) error {
	u, err := url.Parse(strings.TrimSuffix(base, "/") + "/")
	if err != nil {
		return err
	}
	s.client.BaseURL = u
	return nil
}

func (s *Searcher) Search(ctx context.Context, language string, max int) ([]models.Repo, error) {
	since := time.Now().UTC().AddDate(0, 0, -searchWindowDays).Format("2006-01-02")
	query := "created:>" + since
	if language != "" {
		query += " language:" + language
	}

	opts := &github.SearchOptions{
		Sort:        "stars",
		Order:       "desc",
		ListOptions: github.ListOptions{PerPage: max},
	}

	var result *github.RepositoriesSearchResult
	err := retry.Do(ctx, s.log, "search repositories", func() error {
		var resp *github.Response
		var searchErr error
		result, resp, searchErr = s.client.Search.Repositories(ctx, query, opts)
		return classifyGitHubErr(searchErr, resp)
	})
	if err != nil {
		return nil, fmt.Errorf("searching repositories: %w", err)
	}

	repos := make([]models.Repo, 0, len(result.Repositories))
	for _, item := range result.Repositories {
		fullName := item.GetFullName()
		owner, name, ok := strings.Cut(fullName, "/")
		if !ok {
			continue
		}
		lang := item.GetLanguage()
		if lang == "" {
			lang = "Unknown"
		}
		repos = append(repos, models.Repo{
			Owner:       owner,
			Name:        name,
			FullName:    fullName,
			URL:         item.GetHTMLURL(),
			Description: item.GetDescription(),
			Language:    lang,
			Stars:       item.GetStargazersCount(),
			StarsGained: 0, // search API has no per-period figure
		})
		if len(repos) == max {
			break
		}
	}
	return repos, nil
}

// Lookup fetches metadata for a single repository by owner and name.
// Used by the article generator, which targets one repo rather than
// the trending listing.
func (s *Searcher) Lookup(ctx context.Context, owner, name string) (models.Repo, error) {
	var item *github.Repository
	err := retry.Do(ctx, s.log, "lookup "+owner+"/"+name, func() error {
		var resp *github.Response
		var getErr error
		item, resp, getErr = s.client.Repositories.Get(ctx, owner, name)
		return classifyGitHubErr(getErr, resp)
	})
	if err != nil {
		return models.Repo{}, fmt.Errorf("looking up %s/%s: %w", owner, name, err)
	}

	lang := item.GetLanguage()
	if lang == "" {
		lang = "Unknown"
	}
	return models.Repo{
		Owner:       owner,
		Name:        name,
		FullName:    item.GetFullName(),
		URL:         item.GetHTMLURL(),
		Description: item.GetDescription(),
		Language:    lang,
		Stars:       item.GetStargazersCount(),
	}, nil
}

// classifyGitHubErr folds go-github's error types into the retry
// taxonomy so the shared policy can decide whether to try again.
func classifyGitHubErr(err error, resp *github.Response) error {
	if err == nil {
		return nil
	}

	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return &retry.StatusError{Status: http.StatusTooManyRequests, URL: "api.github.com"}
	}

	if resp != nil && resp.Response != nil && resp.StatusCode >= 400 {
		reqURL := "api.github.com"
		if resp.Request != nil && resp.Request.URL != nil {
			reqURL = resp.Request.URL.String()
		}
		return &retry.StatusError{Status: resp.StatusCode, URL: reqURL}
	}
	return err
}
