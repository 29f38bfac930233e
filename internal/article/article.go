// Package article generates a deep-dive Markdown article for a single
// repository, a longer-form companion to the digest summaries.
package article

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kevinmichaelchen/trend-digest/internal/llm"
	"github.com/kevinmichaelchen/trend-digest/internal/models"
	"github.com/kevinmichaelchen/trend-digest/internal/retry"
)

type Generator struct {
	client *openai.Client
	model  string
	log    *zap.Logger
}

func NewGenerator(baseURL, apiKey, model string, log *zap.Logger) *Generator {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	return &Generator{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		log:    log,
	}
}

const articleSystemPrompt = `You are a developer-advocate writer with a large technical audience.
Your style:
1. Catchy but honest titles - the hook earns the click, the substance earns the read.
2. Plain language - complex internals explained with everyday analogies.
3. Light humor and the occasional emoji, never at the cost of accuracy.
4. Clean structure with clear section headings.
5. Genuine depth - your own take on the project, not a README paraphrase.

Write a high-quality article about the GitHub project the user provides.`

const articleUserPromptTemplate = `Analyze the GitHub project %s (%s).

Description: %s
Stars: %d

README:
%s

Write an article of roughly 2000 words in Markdown. Requirements:
1. Open with your strongest title as a level-1 heading.
2. Body sections: the pain point it addresses, what the project is in one sentence, a deep look at 3-5 standout capabilities (why they matter, not just what they are), a hands-on walkthrough with install/usage snippets from the README, who should adopt it and when, and a closing verdict with outlook.
3. Bold the key takeaways and tag code blocks with their language.`

// Generate writes the article text for repo. Unlike digest summaries,
// this sends the full readme excerpt and asks for long-form output.
func (g *Generator) Generate(ctx context.Context, repo models.Repo) (string, error) {
	prompt := fmt.Sprintf(articleUserPromptTemplate,
		repo.FullName, repo.URL, repo.Description, repo.Stars, repo.ReadmeExcerpt)

	var resp openai.ChatCompletionResponse
	err := retry.Do(ctx, g.log, "article "+repo.FullName, func() error {
		var callErr error
		resp, callErr = g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: g.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: articleSystemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			Temperature: 0.8,
			MaxTokens:   4000,
		})
		return llm.ClassifyAPIError(callErr)
	})
	if err != nil {
		return "", fmt.Errorf("generating article for %s: %w", repo.FullName, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("empty article returned for %s", repo.FullName)
	}
	return resp.Choices[0].Message.Content, nil
}

// Save writes content as <dir>/ARTICLE_<date>_<owner>_<name>.md.
func Save(repo models.Repo, content, dir string, date time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating reports dir: %w", err)
	}
	name := fmt.Sprintf("ARTICLE_%s_%s.md",
		date.Format("2006-01-02"),
		strings.ReplaceAll(repo.FullName, "/", "_"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing article: %w", err)
	}
	return path, nil
}
