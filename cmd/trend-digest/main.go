package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kevinmichaelchen/trend-digest/internal/article"
	"github.com/kevinmichaelchen/trend-digest/internal/config"
	"github.com/kevinmichaelchen/trend-digest/internal/pipeline"
	"github.com/kevinmichaelchen/trend-digest/internal/trending"
)

func main() {
	root := &cobra.Command{
		Use:   "trend-digest",
		Short: "GitHub trending → AI summaries → Markdown digest + webhooks",
	}

	root.AddCommand(runCmd(), crawlCmd(), articleCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() *zap.Logger {
	return zap.Must(zap.NewDevelopment())
}

func runCmd() *cobra.Command {
	var skipSummaries, skipNotify bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full digest pipeline once",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			defer func() { _ = log.Sync() }()

			cfg := config.Load()
			if err := cfg.Validate(); err != nil {
				return err
			}
			return pipeline.Run(context.Background(), cfg, log, pipeline.Options{
				SkipSummaries: skipSummaries,
				SkipNotify:    skipNotify,
			})
		},
	}
	cmd.Flags().BoolVar(&skipSummaries, "skip-summaries", false, "Crawl and report only (no LLM calls)")
	cmd.Flags().BoolVar(&skipNotify, "skip-notify", false, "Do not post to webhooks")
	return cmd
}

func crawlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Acquire the trending list and print it as a table",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			defer func() { _ = log.Sync() }()

			cfg := config.Load()
			acquirer := trending.NewAcquirer(cfg, log)

			repos, source, err := acquirer.Acquire(context.Background())
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"#", "Repository", "Language", "Stars", "Gained"})
			for i, repo := range repos {
				table.Append([]string{
					strconv.Itoa(i + 1),
					repo.FullName,
					repo.Language,
					strconv.Itoa(repo.Stars),
					strconv.Itoa(repo.StarsGained),
				})
			}
			table.Render()
			fmt.Printf("\nSource: %s\n", source)
			return nil
		},
	}
}

func articleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "article [owner/name]",
		Short: "Generate a deep-dive article for one repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			defer func() { _ = log.Sync() }()

			cfg := config.Load()
			if err := cfg.Validate(); err != nil {
				return err
			}

			owner, name, ok := strings.Cut(args[0], "/")
			if !ok || owner == "" || name == "" {
				return fmt.Errorf("expected owner/name, got %q", args[0])
			}

			ctx := context.Background()
			repo, err := trending.NewAcquirer(cfg, log).Lookup(ctx, owner, name)
			if err != nil {
				return err
			}

			gen := article.NewGenerator(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, log)
			content, err := gen.Generate(ctx, repo)
			if err != nil {
				return err
			}

			path, err := article.Save(repo, content, cfg.ReportsDir, time.Now().UTC())
			if err != nil {
				return err
			}
			fmt.Printf("Article saved to %s\n", path)
			return nil
		},
	}
}
