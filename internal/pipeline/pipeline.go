// Package pipeline sequences one digest run: acquire trending entries,
// fetch readmes, summarize, tier, write the report, broadcast.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kevinmichaelchen/trend-digest/internal/config"
	"github.com/kevinmichaelchen/trend-digest/internal/digest"
	"github.com/kevinmichaelchen/trend-digest/internal/llm"
	"github.com/kevinmichaelchen/trend-digest/internal/notify"
	"github.com/kevinmichaelchen/trend-digest/internal/report"
	"github.com/kevinmichaelchen/trend-digest/internal/trending"
)

const summarizeConcurrency = 5

type Options struct {
	SkipSummaries bool
	SkipNotify    bool
}

// Run executes the full pipeline once. Total acquisition failure is
// the only fatal stage after startup; per-entry and per-platform
// failures degrade gracefully. A report-write failure is logged and
// the broadcast still happens.
func Run(ctx context.Context, cfg *config.Config, log *zap.Logger, opts Options) error {
	acquirer := trending.NewAcquirer(cfg, log)

	log.Info("acquiring trending repositories",
		zap.String("language", cfg.Language),
		zap.String("since", cfg.Since))
	repos, source, err := acquirer.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquiring repositories: %w", err)
	}
	if len(repos) == 0 {
		return fmt.Errorf("no repositories acquired")
	}

	log.Info("fetching readmes", zap.Int("repos", len(repos)))
	acquirer.FetchReadmes(ctx, repos)

	entries := make([]digest.Entry, len(repos))
	if opts.SkipSummaries {
		log.Info("skipping summaries")
		for i, repo := range repos {
			entries[i] = digest.Entry{Repo: repo, Summary: *llm.DefaultSummary(repo)}
		}
	} else {
		log.Info("generating summaries", zap.Int("repos", len(repos)))
		client := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, log)

		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(summarizeConcurrency)
		for i := range repos {
			i := i
			g.Go(func() error {
				summary, err := client.Summarize(gCtx, repos[i])
				if err != nil {
					log.Warn("summary failed, using default",
						zap.String("repo", repos[i].FullName),
						zap.Error(err))
					summary = llm.DefaultSummary(repos[i])
				}
				entries[i] = digest.Entry{Repo: repos[i], Summary: *summary}
				return nil
			})
		}
		_ = g.Wait()
	}

	d := &digest.Digest{
		Date:     time.Now().UTC(),
		Language: cfg.Language,
		Since:    cfg.Since,
		Source:   string(source),
		Entries:  digest.AssignTiers(entries, cfg.TopPicks),
	}
	log.Info("digest assembled",
		zap.Int("entries", len(d.Entries)),
		zap.Int("top_picks", len(d.TopPicks())),
		zap.String("source", d.Source))

	path, err := report.Write(d, cfg.ReportsDir)
	if err != nil {
		// A failed report write does not block the broadcast.
		log.Error("writing report failed", zap.Error(err))
	} else {
		log.Info("report written", zap.String("path", path))
	}

	if opts.SkipNotify {
		log.Info("skipping notifications")
		return nil
	}

	results := notify.NewManager(cfg, log).Broadcast(ctx, d)
	for platform, ok := range results {
		log.Info("broadcast result", zap.String("platform", platform), zap.Bool("success", ok))
	}
	return nil
}
