package trending

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/kevinmichaelchen/trend-digest/internal/models"
	"github.com/kevinmichaelchen/trend-digest/internal/retry"
)

const defaultTrendingURL = "https://github.com/trending"

// The trending page serves a simplified document to non-browser
// agents; requests rotate through a small pool of browser strings.
var userAgents = []string{
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64; rv:127.0) Gecko/20100101 Firefox/127.0",
}

// Scraper fetches and parses the GitHub trending page. The page has no
// stable contract; any structural surprise is reported as an error so
// the caller can fall back to the search API.
type Scraper struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger

	requests int
}

func NewScraper(httpClient *http.Client, log *zap.Logger) *Scraper {
	return &Scraper{baseURL: defaultTrendingURL, httpClient: httpClient, log: log}
}

// SetBaseURL overrides the trending page location. Used by tests.
func (s *Scraper) SetBaseURL(u string) { s.baseURL = strings.TrimSuffix(u, "/") }

// Scrape returns up to max entries from the trending listing for the
// given language filter and period. An empty result is an error: it
// means the page structure changed under us.
func (s *Scraper) Scrape(ctx context.Context, language, since string, max int) ([]models.Repo, error) {
	pageURL := s.baseURL
	if language != "" {
		pageURL += "/" + url.PathEscape(language)
	}
	if since != "" && since != "daily" {
		pageURL += "?since=" + url.QueryEscape(since)
	}

	var html string
	err := retry.Do(ctx, s.log, "scrape trending", func() error {
		var fetchErr error
		html, fetchErr = s.fetchPage(ctx, pageURL)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}

	repos, err := parseTrendingHTML(html, s.log)
	if err != nil {
		return nil, err
	}
	if len(repos) > max {
		repos = repos[:max]
	}
	return repos, nil
}

func (s *Scraper) fetchPage(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgents[s.requests%len(userAgents)])
	s.requests++

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching trending page: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", &retry.StatusError{Status: resp.StatusCode, URL: pageURL}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading trending page: %w", err)
	}
	return string(body), nil
}

func parseTrendingHTML(html string, log *zap.Logger) ([]models.Repo, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing trending page: %w", err)
	}

	var repos []models.Repo
	doc.Find("article.Box-row").Each(func(_ int, sel *goquery.Selection) {
		repo, ok := parseRow(sel)
		if !ok {
			log.Warn("skipping unparseable trending row")
			return
		}
		repos = append(repos, repo)
	})

	if len(repos) == 0 {
		return nil, fmt.Errorf("no repositories parsed from trending page")
	}
	return repos, nil
}

func parseRow(sel *goquery.Selection) (models.Repo, bool) {
	href, _ := sel.Find("h2 a").First().Attr("href")
	fullName := strings.Trim(href, "/")
	owner, name, ok := strings.Cut(fullName, "/")
	if !ok || owner == "" || name == "" {
		return models.Repo{}, false
	}

	repo := models.Repo{
		Owner:       owner,
		Name:        name,
		FullName:    fullName,
		URL:         "https://github.com/" + fullName,
		Description: strings.TrimSpace(sel.Find("p").First().Text()),
		Language:    strings.TrimSpace(sel.Find(`[itemprop="programmingLanguage"]`).First().Text()),
	}
	if repo.Language == "" {
		repo.Language = "Unknown"
	}

	starsText := sel.Find(`a[href$="/stargazers"]`).First().Text()
	repo.Stars = parseCount(starsText)

	// "1,234 stars today" (or "this week"/"this month").
	gainedText := sel.Find("span.d-inline-block.float-sm-right").First().Text()
	if fields := strings.Fields(gainedText); len(fields) > 0 {
		repo.StarsGained = parseCount(fields[0])
	}

	return repo, true
}

func parseCount(s string) int {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
