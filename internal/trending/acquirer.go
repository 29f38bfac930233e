package trending

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kevinmichaelchen/trend-digest/internal/config"
	"github.com/kevinmichaelchen/trend-digest/internal/models"
)

// Source records which acquisition path produced the entries.
type Source string

const (
	// SourceScraped means the trending page was parsed directly.
	SourceScraped Source = "trending"
	// SourceFallback means the search API stood in for the page.
	// Entries from this path carry no per-period star figure.
	SourceFallback Source = "search_api"
)

// Acquirer produces the day's entries: scrape the trending page,
// fall back to the search API when scraping fails, then fill in
// readme excerpts. Only both paths failing is fatal.
type Acquirer struct {
	scraper  *Scraper
	searcher *Searcher
	readmes  *ReadmeFetcher

	language string
	since    string
	maxRepos int

	log *zap.Logger
}

func NewAcquirer(cfg *config.Config, log *zap.Logger) *Acquirer {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	return &Acquirer{
		scraper:  NewScraper(httpClient, log),
		searcher: NewSearcher(cfg.GitHubToken, log),
		readmes:  NewReadmeFetcher(cfg.GitHubToken, httpClient, log),

		language: cfg.Language,
		since:    cfg.Since,
		maxRepos: cfg.MaxRepos,

		log: log,
	}
}

// SetBaseURLs points all three acquisition paths at alternate hosts.
// Used by tests.
func (a *Acquirer) SetBaseURLs(trendingURL, apiURL, rawURL string) error {
	a.scraper.SetBaseURL(trendingURL)
	if err := a.searcher.SetBaseURL(apiURL); err != nil {
		return err
	}
	return a.readmes.SetBaseURLs(apiURL, rawURL)
}

// Acquire returns the ordered entries (without readme excerpts) and
// the path that produced them.
func (a *Acquirer) Acquire(ctx context.Context) ([]models.Repo, Source, error) {
	repos, scrapeErr := a.scraper.Scrape(ctx, a.language, a.since, a.maxRepos)
	if scrapeErr == nil {
		a.log.Info("scraped trending page",
			zap.Int("repos", len(repos)),
			zap.String("language", a.language),
			zap.String("since", a.since))
		return repos, SourceScraped, nil
	}

	a.log.Warn("trending page scrape failed, falling back to search API",
		zap.Error(scrapeErr))

	repos, searchErr := a.searcher.Search(ctx, a.language, a.maxRepos)
	if searchErr != nil {
		return nil, "", fmt.Errorf("all acquisition paths failed: scrape: %v; search: %w", scrapeErr, searchErr)
	}
	a.log.Info("acquired repositories via search API", zap.Int("repos", len(repos)))
	return repos, SourceFallback, nil
}

// FetchReadmes fills in readme excerpts for the acquired entries.
func (a *Acquirer) FetchReadmes(ctx context.Context, repos []models.Repo) {
	a.readmes.FetchAll(ctx, repos)
}

// Lookup fetches one repository by owner and name, readme included.
// The readme is best-effort, as in the listing flow.
func (a *Acquirer) Lookup(ctx context.Context, owner, name string) (models.Repo, error) {
	repo, err := a.searcher.Lookup(ctx, owner, name)
	if err != nil {
		return models.Repo{}, err
	}
	text, err := a.readmes.Fetch(ctx, owner, name)
	if err != nil {
		a.log.Warn("readme fetch failed", zap.String("repo", repo.FullName), zap.Error(err))
	}
	repo.ReadmeExcerpt = text
	return repo, nil
}
