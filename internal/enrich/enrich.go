// Package enrich is the optional relevance-filter and translation stage. It
// degrades to a pass-through whenever the capability is unavailable or a call
// fails; core output never depends on it.
package enrich

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/deusflow/insights/internal/config"
	"github.com/deusflow/insights/internal/news"
)

// batchDelimiter separates items inside one translation request and response.
const batchDelimiter = "---"

const relevanceSummaryMaxRunes = 300

// Cost accumulates per-run call accounting. Informational only.
type Cost struct {
	Calls        int
	PromptTokens int64
	OutputTokens int64
}

// gemini-1.5-flash list prices per million tokens, for the cost report.
const (
	promptUSDPerMillion = 0.075
	outputUSDPerMillion = 0.30
)

// EstimatedUSD is a rough cost estimate from the accumulated token counts.
func (c Cost) EstimatedUSD() float64 {
	return float64(c.PromptTokens)/1e6*promptUSDPerMillion +
		float64(c.OutputTokens)/1e6*outputUSDPerMillion
}

func (c Cost) String() string {
	return fmt.Sprintf("%d calls, %d prompt + %d output tokens (~$%.4f)",
		c.Calls, c.PromptTokens, c.OutputTokens, c.EstimatedUSD())
}

// Client wraps the Gemini API for one pipeline run. A nil Client is valid and
// makes every operation a no-op.
type Client struct {
	client    *genai.Client
	model     string
	target    string
	batchSize int
	cost      Cost
}

// NewClient builds the enrichment client. An empty API key or a disabled
// config returns nil, nil: enrichment off, not an error.
func NewClient(ctx context.Context, apiKey string, cfg config.AIFiltering) (*Client, error) {
	if apiKey == "" || !cfg.Enabled {
		return nil, nil
	}
	gc, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	target := cfg.TranslationTarget
	if target == "" {
		target = "Chinese"
	}
	return &Client{
		client:    gc,
		model:     cfg.Model,
		target:    target,
		batchSize: cfg.BatchSize,
	}, nil
}

func (c *Client) Close() {
	if c != nil && c.client != nil {
		c.client.Close()
	}
}

// Cost returns the accumulated accounting for this run.
func (c *Client) Cost() Cost {
	if c == nil {
		return Cost{}
	}
	return c.cost
}

// FilterRelevant keeps the items the capability marks relevant. Items for
// which needsCheck is false pass through untouched, as does everything on a
// call error (fail-open).
func (c *Client) FilterRelevant(ctx context.Context, items []news.Item, prompt string, needsCheck func(news.Item) bool) []news.Item {
	if c == nil || prompt == "" {
		return items
	}
	kept := make([]news.Item, 0, len(items))
	for _, item := range items {
		if needsCheck != nil && !needsCheck(item) {
			kept = append(kept, item)
			continue
		}
		summary := item.Summary
		if runes := []rune(summary); len(runes) > relevanceSummaryMaxRunes {
			summary = string(runes[:relevanceSummaryMaxRunes])
		}
		text := fmt.Sprintf("%s\n\nTitle: %s\nSummary: %s", prompt, item.Title, summary)
		resp, err := c.generate(ctx, text)
		if err != nil {
			log.Printf("enrich: relevance call failed, keeping item: %v", err)
			kept = append(kept, item)
			continue
		}
		if signalsRelevant(resp) {
			kept = append(kept, item)
		}
	}
	return kept
}

// signalsRelevant requires an affirmative "relevant" that is not part of
// "irrelevant" or "not relevant".
func signalsRelevant(resp string) bool {
	r := strings.ToLower(strings.TrimSpace(resp))
	if strings.Contains(r, "irrelevant") || strings.Contains(r, "not relevant") {
		return false
	}
	return strings.Contains(r, "relevant")
}

// TranslateItems fills the translated title and summary fields in place,
// batch by batch. A failed or miscounted batch leaves that batch's items
// untranslated; translations are never partially misattributed.
func (c *Client) TranslateItems(ctx context.Context, items []news.Item) {
	if c == nil || len(items) == 0 {
		return
	}
	for start := 0; start < len(items); start += c.batchSize {
		end := start + c.batchSize
		if end > len(items) {
			end = len(items)
		}
		c.translateBatch(ctx, items[start:end])
	}
}

func (c *Client) translateBatch(ctx context.Context, batch []news.Item) {
	titles := make([]string, len(batch))
	for i, item := range batch {
		titles[i] = item.Title
	}
	if translated, err := c.translateTexts(ctx, titles); err != nil {
		log.Printf("enrich: title batch translation failed, keeping originals: %v", err)
	} else {
		for i := range batch {
			batch[i].TitleTranslated = translated[i]
		}
	}

	// Summaries go in a separate request; empty ones are skipped and the
	// index mapping keeps positions aligned.
	var texts []string
	var idx []int
	for i, item := range batch {
		if item.Summary != "" {
			texts = append(texts, item.Summary)
			idx = append(idx, i)
		}
	}
	if len(texts) == 0 {
		return
	}
	if translated, err := c.translateTexts(ctx, texts); err != nil {
		log.Printf("enrich: summary batch translation failed, keeping originals: %v", err)
	} else {
		for j, i := range idx {
			batch[i].SummaryTranslated = translated[j]
		}
	}
}

// translateTexts performs one delimited translation call.
func (c *Client) translateTexts(ctx context.Context, texts []string) ([]string, error) {
	numbered := make([]string, len(texts))
	for i, t := range texts {
		numbered[i] = fmt.Sprintf("%d. %s", i+1, t)
	}
	prompt := fmt.Sprintf(
		"Translate the following news text to %s. Each item is separated by %q. "+
			"Return only the translated text in the same format, keeping the numbering, "+
			"without any additional commentary.\n\n%s",
		c.target, batchDelimiter, strings.Join(numbered, "\n"+batchDelimiter+"\n"))

	resp, err := c.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return ParseDelimited(resp, len(texts))
}

// ParseDelimited splits a delimited translation response back into per-item
// segments. A segment count different from want is an error: the caller must
// fall back to original text for the whole batch rather than risk assigning
// a translation to the wrong item.
func ParseDelimited(response string, want int) ([]string, error) {
	parts := strings.Split(response, batchDelimiter)
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		p = trimNumberPrefix(p)
		if p == "" {
			continue
		}
		segments = append(segments, p)
	}
	if len(segments) != want {
		return nil, fmt.Errorf("translation count mismatch: expected %d segments, got %d", want, len(segments))
	}
	return segments, nil
}

// trimNumberPrefix removes a leading "12. " style marker.
func trimNumberPrefix(s string) string {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(s) || s[i] != '.' {
		return s
	}
	return strings.TrimSpace(s[i+1:])
}

// generate runs one model call and records its cost.
func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	model := c.client.GenerativeModel(c.model)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	c.cost.Calls++
	if resp.UsageMetadata != nil {
		c.cost.PromptTokens += int64(resp.UsageMetadata.PromptTokenCount)
		c.cost.OutputTokens += int64(resp.UsageMetadata.CandidatesTokenCount)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response candidates")
	}
	return fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0]), nil
}
