// Package notify broadcasts digest highlights to chat webhooks. Each
// platform is one Notifier; a platform without a configured URL simply
// does not exist for the run, and a platform that fails does not stop
// the others.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kevinmichaelchen/trend-digest/internal/config"
	"github.com/kevinmichaelchen/trend-digest/internal/digest"
	"github.com/kevinmichaelchen/trend-digest/internal/retry"
)

// Platforms cap the entry count to keep messages readable.
const maxEntriesPerMessage = 5

// Notifier sends one notification for a digest subset.
type Notifier interface {
	Name() string
	Send(ctx context.Context, date time.Time, entries []digest.Entry) error
}

// Manager owns the enabled notifiers for a run.
type Manager struct {
	notifiers []Notifier
	log       *zap.Logger
}

// NewManager builds the enabled set from configuration. Platforms
// without a URL are skipped silently; that is not an error.
func NewManager(cfg *config.Config, log *zap.Logger) *Manager {
	httpClient := &http.Client{Timeout: 10 * time.Second}

	var notifiers []Notifier
	if cfg.FeishuWebhookURL != "" {
		notifiers = append(notifiers, NewFeishu(cfg.FeishuWebhookURL, httpClient, log))
	}
	if cfg.DingTalkWebhookURL != "" {
		notifiers = append(notifiers, NewDingTalk(cfg.DingTalkWebhookURL, httpClient, log))
	}
	if cfg.SlackWebhookURL != "" {
		notifiers = append(notifiers, NewSlack(cfg.SlackWebhookURL, httpClient, log))
	}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		notifiers = append(notifiers, NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID, httpClient, log))
	}

	for _, n := range notifiers {
		log.Info("notifier enabled", zap.String("platform", n.Name()))
	}
	return &Manager{notifiers: notifiers, log: log}
}

// NewManagerWith wraps an explicit notifier set. Used by tests.
func NewManagerWith(log *zap.Logger, notifiers ...Notifier) *Manager {
	return &Manager{notifiers: notifiers, log: log}
}

// Broadcast sends the digest's top tier (or, with no top picks, the
// first few quick looks) to every enabled platform. Sends run
// concurrently; a failing platform is logged and recorded as false
// without affecting the rest.
func (m *Manager) Broadcast(ctx context.Context, d *digest.Digest) map[string]bool {
	if len(m.notifiers) == 0 {
		m.log.Info("no notifiers configured, skipping broadcast")
		return map[string]bool{}
	}

	entries := d.TopPicks()
	if len(entries) == 0 {
		quick := d.QuickLooks()
		if len(quick) > 3 {
			quick = quick[:3]
		}
		entries = quick
	}
	if len(entries) == 0 {
		m.log.Warn("nothing to broadcast")
		return map[string]bool{}
	}
	if len(entries) > maxEntriesPerMessage {
		entries = entries[:maxEntriesPerMessage]
	}

	results := make(map[string]bool, len(m.notifiers))
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	for _, n := range m.notifiers {
		n := n
		g.Go(func() error {
			err := n.Send(gCtx, d.Date, entries)
			if err != nil {
				m.log.Error("notification failed",
					zap.String("platform", n.Name()),
					zap.Error(err))
			} else {
				m.log.Info("notification sent", zap.String("platform", n.Name()))
			}
			mu.Lock()
			results[n.Name()] = err == nil
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// group formats n with thousands separators: 12345 -> "12,345".
func group(n int) string {
	if n < 0 {
		return "-" + group(-n)
	}
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	return s + "," + strings.Join(parts, ",")
}

// postJSON is the shared webhook POST: marshal, send, demand 2xx, all
// under the standard retry policy.
func postJSON(ctx context.Context, client *http.Client, log *zap.Logger, platform, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling %s payload: %w", platform, err)
	}

	return retry.Do(ctx, log, "notify "+platform, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &retry.StatusError{Status: resp.StatusCode, URL: url}
		}
		return nil
	})
}
