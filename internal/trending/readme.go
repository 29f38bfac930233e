package trending

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v55/github"
	"go.uber.org/zap"

	"github.com/kevinmichaelchen/trend-digest/internal/models"
	"github.com/kevinmichaelchen/trend-digest/internal/retry"
	"golang.org/x/sync/errgroup"
)

const (
	defaultRawBaseURL = "https://raw.githubusercontent.com"

	// Excerpt cap. The summarizer truncates further before the LLM
	// call; this just bounds what we hold in memory per entry.
	maxExcerptLen = 3000

	readmeConcurrency = 5
)

// rawReadmeNames are tried in order on the raw-content fallback path.
var rawReadmeNames = []string{"README.md", "readme.md", "README", "readme.rst"}

// ReadmeFetcher retrieves readme text per repository: the readme API
// first, raw content as fallback. A repo without a readable readme is
// not an error; its excerpt stays empty.
type ReadmeFetcher struct {
	client     *github.Client
	httpClient *http.Client
	rawBaseURL string
	log        *zap.Logger
}

func NewReadmeFetcher(token string, httpClient *http.Client, log *zap.Logger) *ReadmeFetcher {
	apiClient := github.NewClient(httpClient)
	if token != "" {
		apiClient = apiClient.WithAuthToken(token)
	}
	return &ReadmeFetcher{
		client:     apiClient,
		httpClient: httpClient,
		rawBaseURL: defaultRawBaseURL,
		log:        log,
	}
}

// SetBaseURLs overrides the API and raw-content hosts. Used by tests.
func (f *ReadmeFetcher) SetBaseURLs(api, raw string) error {
	u, err := url.Parse(strings.TrimSuffix(api, "/") + "/")
	if err != nil {
		return err
	}
	f.client.BaseURL = u
	f.rawBaseURL = strings.TrimSuffix(raw, "/")
	return nil
}

// FetchAll populates ReadmeExcerpt on each repo in place. Entries are
// independent, so fetches run concurrently; a failure on one entry is
// logged and leaves that excerpt empty.
func (f *ReadmeFetcher) FetchAll(ctx context.Context, repos []models.Repo) {
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(readmeConcurrency)

	for i := range repos {
		i := i
		g.Go(func() error {
			text, err := f.Fetch(gCtx, repos[i].Owner, repos[i].Name)
			if err != nil {
				f.log.Warn("readme fetch failed",
					zap.String("repo", repos[i].FullName),
					zap.Error(err))
				return nil
			}
			repos[i].ReadmeExcerpt = text
			return nil
		})
	}
	_ = g.Wait()
}

func (f *ReadmeFetcher) Fetch(ctx context.Context, owner, name string) (string, error) {
	text, apiErr := f.fetchViaAPI(ctx, owner, name)
	if apiErr == nil {
		return text, nil
	}

	text, rawErr := f.fetchViaRaw(ctx, owner+"/"+name)
	if rawErr == nil {
		return text, nil
	}
	return "", fmt.Errorf("api: %w; raw: %v", apiErr, rawErr)
}

func (f *ReadmeFetcher) fetchViaAPI(ctx context.Context, owner, name string) (string, error) {
	var content *github.RepositoryContent
	err := retry.Do(ctx, f.log, "fetch readme "+owner+"/"+name, func() error {
		var resp *github.Response
		var getErr error
		content, resp, getErr = f.client.Repositories.GetReadme(ctx, owner, name, nil)
		return classifyGitHubErr(getErr, resp)
	})
	if err != nil {
		return "", err
	}

	text, err := content.GetContent()
	if err != nil {
		return "", fmt.Errorf("decoding readme content: %w", err)
	}
	return truncate(text, maxExcerptLen), nil
}

func (f *ReadmeFetcher) fetchViaRaw(ctx context.Context, fullName string) (string, error) {
	var lastErr error
	for _, readmeName := range rawReadmeNames {
		rawURL := fmt.Sprintf("%s/%s/HEAD/%s", f.rawBaseURL, fullName, readmeName)

		var text string
		err := retry.Do(ctx, f.log, "fetch raw readme "+fullName, func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
			if err != nil {
				return err
			}
			resp, err := f.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer func() { _ = resp.Body.Close() }()

			if resp.StatusCode != http.StatusOK {
				return &retry.StatusError{Status: resp.StatusCode, URL: rawURL}
			}
			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			text = string(body)
			return nil
		})
		if err == nil {
			return truncate(text, maxExcerptLen), nil
		}
		lastErr = err
	}
	return "", lastErr
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
