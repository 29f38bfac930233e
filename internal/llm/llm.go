package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kevinmichaelchen/trend-digest/internal/models"
	"github.com/kevinmichaelchen/trend-digest/internal/retry"
)

// Cap on readme text sent per request, to bound token cost.
const maxReadmeChars = 2000

type Client struct {
	client *openai.Client
	model  string
	log    *zap.Logger
}

func NewClient(baseURL, apiKey, model string, log *zap.Logger) *Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	return &Client{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		log:    log,
	}
}

const systemPrompt = `You are a technical analyst covering open-source software. Given a GitHub repository's name, description, and README excerpt, produce a JSON object with:

1. "one_liner": A single punchy sentence (under 20 words) saying what the project is.
2. "core_features": An array of up to 3 short strings naming its standout capabilities.
3. "use_case": One sentence (under 30 words) on who should use it and what pain it removes.
4. "score": An integer 1-5 rating how notable the project is (5 = groundbreaking, 1 = niche or early).
5. "score_reason": A short phrase justifying the score.

Return ONLY valid JSON. No markdown, no code fences.`

// Summarize asks the model for a structured summary of one repo. The
// reply is parsed defensively; a malformed reply is the caller's cue
// to substitute a default summary, not to fail the entry.
func (c *Client) Summarize(ctx context.Context, repo models.Repo) (*models.Summary, error) {
	var resp openai.ChatCompletionResponse
	err := retry.Do(ctx, c.log, "summarize "+repo.FullName, func() error {
		var callErr error
		resp, callErr = c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: userMessage(repo)},
			},
			// No ResponseFormat — not all models support json_object mode.
			// The system prompt instructs the model to return pure JSON.
			Temperature: 0.3,
			MaxTokens:   500,
		})
		return ClassifyAPIError(callErr)
	})
	if err != nil {
		return nil, fmt.Errorf("LLM call for %s: %w", repo.FullName, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned for %s", repo.FullName)
	}

	content := stripCodeFences(resp.Choices[0].Message.Content)

	var summary models.Summary
	if err := json.Unmarshal([]byte(content), &summary); err != nil {
		return nil, fmt.Errorf("parsing LLM response for %s: %w", repo.FullName, err)
	}

	if summary.Score < 1 {
		summary.Score = 1
	}
	if summary.Score > 5 {
		summary.Score = 5
	}
	if len(summary.CoreFeatures) > 3 {
		summary.CoreFeatures = summary.CoreFeatures[:3]
	}
	return &summary, nil
}

// DefaultSummary is what an entry falls back to when the LLM call or
// parse fails: the repo keeps its place in the digest with whatever
// the acquirer already knows about it.
func DefaultSummary(repo models.Repo) *models.Summary {
	oneLiner := repo.Description
	if oneLiner == "" {
		oneLiner = repo.FullName
	}
	return &models.Summary{
		OneLiner: oneLiner,
		Score:    3,
	}
}

func userMessage(repo models.Repo) string {
	parts := []string{fmt.Sprintf("Repository: %s (%s)", repo.FullName, repo.URL)}
	if repo.Description != "" {
		parts = append(parts, "Description: "+repo.Description)
	}
	parts = append(parts, fmt.Sprintf("Language: %s", repo.Language))
	parts = append(parts, fmt.Sprintf("Stars: %d (gained %d this period)", repo.Stars, repo.StarsGained))
	if excerpt := truncateReadme(repo.ReadmeExcerpt); excerpt != "" {
		parts = append(parts, "README excerpt:\n"+excerpt)
	}
	return strings.Join(parts, "\n\n")
}

// ClassifyAPIError folds go-openai's error types into the retry
// taxonomy.
func ClassifyAPIError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return &retry.StatusError{Status: apiErr.HTTPStatusCode, URL: "chat/completions"}
	}
	return err
}

var (
	mdImageRe   = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	htmlImageRe = regexp.MustCompile(`<img[^>]*>`)
)

// truncateReadme strips image markup and caps the text at
// maxReadmeChars before it goes into the prompt.
func truncateReadme(content string) string {
	content = mdImageRe.ReplaceAllString(content, "")
	content = htmlImageRe.ReplaceAllString(content, "")
	content = strings.TrimSpace(content)
	if len(content) > maxReadmeChars {
		content = content[:maxReadmeChars] + "\n... (truncated)"
	}
	return content
}

// stripCodeFences removes markdown code fences that some models wrap
// around JSON.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		// Remove opening fence (```json or ```)
		if i := strings.Index(s, "\n"); i != -1 {
			s = s[i+1:]
		}
		// Remove closing fence
		if i := strings.LastIndex(s, "```"); i != -1 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	return s
}
