package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kevinmichaelchen/trend-digest/internal/digest"
)

// Slack posts a Block Kit message to an incoming webhook.
type Slack struct {
	webhookURL string
	httpClient *http.Client
	log        *zap.Logger
}

func NewSlack(webhookURL string, httpClient *http.Client, log *zap.Logger) *Slack {
	return &Slack{webhookURL: webhookURL, httpClient: httpClient, log: log}
}

func (s *Slack) Name() string { return "slack" }

func (s *Slack) Send(ctx context.Context, date time.Time, entries []digest.Entry) error {
	blocks := []map[string]any{
		{
			"type": "header",
			"text": map[string]any{
				"type": "plain_text",
				"text": fmt.Sprintf("🔥 GitHub Trending Digest - %s", date.Format("2006-01-02")),
			},
		},
		{"type": "divider"},
	}

	for _, e := range entries {
		blocks = append(blocks, map[string]any{
			"type": "section",
			"text": map[string]any{
				"type": "mrkdwn",
				"text": fmt.Sprintf("*<%s|%s>*\n%s\n%s | %s | ⭐ %s",
					e.Repo.URL, e.Repo.FullName,
					e.Summary.OneLiner,
					strings.Repeat("⭐", e.Summary.Score),
					e.Repo.Language, group(e.Repo.Stars)),
			},
		})
	}

	payload := map[string]any{"blocks": blocks}
	return postJSON(ctx, s.httpClient, s.log, s.Name(), s.webhookURL, payload)
}
