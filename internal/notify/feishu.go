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

// Feishu posts an interactive card to a Feishu bot webhook.
type Feishu struct {
	webhookURL string
	httpClient *http.Client
	log        *zap.Logger
}

func NewFeishu(webhookURL string, httpClient *http.Client, log *zap.Logger) *Feishu {
	return &Feishu{webhookURL: webhookURL, httpClient: httpClient, log: log}
}

func (f *Feishu) Name() string { return "feishu" }

func (f *Feishu) Send(ctx context.Context, date time.Time, entries []digest.Entry) error {
	elements := []map[string]any{
		{
			"tag": "div",
			"text": map[string]any{
				"tag": "lark_md",
				"content": fmt.Sprintf("🔥 **GitHub Trending** | %s\n%d highlighted projects",
					date.Format("2006-01-02"), len(entries)),
			},
		},
		{"tag": "hr"},
	}

	for _, e := range entries {
		elements = append(elements,
			map[string]any{
				"tag": "div",
				"text": map[string]any{
					"tag": "lark_md",
					"content": fmt.Sprintf("**[%s](%s)**\n%s\n%s | %s | ⭐%s",
						e.Repo.FullName, e.Repo.URL,
						e.Summary.OneLiner,
						strings.Repeat("⭐", e.Summary.Score),
						e.Repo.Language, group(e.Repo.Stars)),
				},
			},
			map[string]any{"tag": "hr"},
		)
	}

	payload := map[string]any{
		"msg_type": "interactive",
		"card": map[string]any{
			"header": map[string]any{
				"title":    map[string]any{"tag": "plain_text", "content": "🚀 GitHub Trending Digest"},
				"template": "blue",
			},
			"elements": elements,
		},
	}

	return postJSON(ctx, f.httpClient, f.log, f.Name(), f.webhookURL, payload)
}
