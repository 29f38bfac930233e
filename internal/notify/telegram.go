package notify

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kevinmichaelchen/trend-digest/internal/digest"
)

const telegramAPIBase = "https://api.telegram.org"

// Telegram sends an HTML-formatted message through the bot API.
type Telegram struct {
	apiBase    string
	botToken   string
	chatID     string
	httpClient *http.Client
	log        *zap.Logger
}

func NewTelegram(botToken, chatID string, httpClient *http.Client, log *zap.Logger) *Telegram {
	return &Telegram{
		apiBase:    telegramAPIBase,
		botToken:   botToken,
		chatID:     chatID,
		httpClient: httpClient,
		log:        log,
	}
}

// SetAPIBase overrides the bot API host. Used by tests.
func (t *Telegram) SetAPIBase(base string) { t.apiBase = strings.TrimSuffix(base, "/") }

func (t *Telegram) Name() string { return "telegram" }

func (t *Telegram) Send(ctx context.Context, date time.Time, entries []digest.Entry) error {
	lines := []string{fmt.Sprintf("<b>🔥 GitHub Trending Digest - %s</b>\n", date.Format("2006-01-02"))}

	for _, e := range entries {
		lines = append(lines,
			fmt.Sprintf(`<b><a href="%s">%s</a></b>`, e.Repo.URL, html.EscapeString(e.Repo.FullName)),
			fmt.Sprintf("<i>%s</i>", html.EscapeString(e.Summary.OneLiner)),
			fmt.Sprintf("%s | %s | ⭐ %s",
				strings.Repeat("⭐", e.Summary.Score),
				html.EscapeString(e.Repo.Language), group(e.Repo.Stars)),
			"",
		)
	}

	payload := map[string]any{
		"chat_id":                  t.chatID,
		"text":                     strings.Join(lines, "\n"),
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.botToken)
	return postJSON(ctx, t.httpClient, t.log, t.Name(), url, payload)
}
