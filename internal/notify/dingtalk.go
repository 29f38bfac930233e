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

// DingTalk posts a markdown message to a DingTalk bot webhook.
type DingTalk struct {
	webhookURL string
	httpClient *http.Client
	log        *zap.Logger
}

func NewDingTalk(webhookURL string, httpClient *http.Client, log *zap.Logger) *DingTalk {
	return &DingTalk{webhookURL: webhookURL, httpClient: httpClient, log: log}
}

func (d *DingTalk) Name() string { return "dingtalk" }

func (d *DingTalk) Send(ctx context.Context, date time.Time, entries []digest.Entry) error {
	lines := []string{fmt.Sprintf("## 🔥 GitHub Trending (%s)\n", date.Format("2006-01-02"))}

	for _, e := range entries {
		lines = append(lines,
			fmt.Sprintf("### [%s](%s)", e.Repo.FullName, e.Repo.URL),
			fmt.Sprintf("> %s", e.Summary.OneLiner),
			"",
			fmt.Sprintf("- Language: %s | Stars: %s", e.Repo.Language, group(e.Repo.Stars)),
			fmt.Sprintf("- Score: %s", strings.Repeat("⭐", e.Summary.Score)),
		)
		if e.Summary.UseCase != "" {
			lines = append(lines, fmt.Sprintf("- Use case: %s", e.Summary.UseCase))
		}
		lines = append(lines, "")
	}

	payload := map[string]any{
		"msgtype": "markdown",
		"markdown": map[string]any{
			"title": "GitHub Trending Digest",
			"text":  strings.Join(lines, "\n"),
		},
	}

	return postJSON(ctx, d.httpClient, d.log, d.Name(), d.webhookURL, payload)
}
