// Package gemini implements the analyst provider over the Google Gemini API.
// Gemini gets no retrieval tool loop: relevant filing text is retrieved up
// front and prepended to the prompt as grounding context.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/tenqd/internal/domain"
	"github.com/kailas-cloud/tenqd/internal/domain/fragment"
	"github.com/kailas-cloud/tenqd/internal/domain/report"
)

// groundingQueries pull a representative cross-section of the filing
// into the prompt before generation.
var groundingQueries = []string{
	"revenue, margins and cash flow",
	"risk factors",
	"liquidity and capital resources",
	"guidance and outlook",
}

const groundingTopK = 3

// Retriever is the consumer interface for pre-generation retrieval.
type Retriever interface {
	Retrieve(ctx context.Context, ticker, query string, topK int) ([]fragment.Fragment, error)
}

// Analyst generates insight and decision reports via Gemini.
type Analyst struct {
	client    *genai.Client
	model     string
	retriever Retriever
	logger    *zap.Logger
}

// Config holds Gemini analyst settings.
type Config struct {
	APIKey string
	Model  string
}

// NewAnalyst creates a Gemini analyst.
func NewAnalyst(ctx context.Context, cfg *Config, retriever Retriever, logger *zap.Logger) (*Analyst, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Analyst{
		client:    client,
		model:     cfg.Model,
		retriever: retriever,
		logger:    logger,
	}, nil
}

// Insights generates the insight report. Filing context is gathered with
// a fixed set of retrieval queries and prepended to the prompt.
func (a *Analyst) Insights(ctx context.Context, ticker, prompt string) (report.Insights, error) {
	contextBlock := a.gatherContext(ctx, ticker)

	full := prompt
	if contextBlock != "" {
		full = "RETRIEVED 10-Q EXCERPTS (primary source, ground all claims here):\n\n" +
			contextBlock + "\n\n" + prompt
	}

	text, err := a.generateJSON(ctx, full)
	if err != nil {
		return report.Insights{}, err
	}

	var insights report.Insights
	if err := json.Unmarshal([]byte(text), &insights); err != nil {
		return report.Insights{}, fmt.Errorf("parse insights JSON: %v: %w", err, domain.ErrAnalystProviderError)
	}
	return insights, nil
}

// Decision generates the buy/sell/hold view from serialized insights.
func (a *Analyst) Decision(ctx context.Context, prompt string) (report.Decision, error) {
	text, err := a.generateJSON(ctx, prompt)
	if err != nil {
		return report.Decision{}, err
	}

	var decision report.Decision
	if err := json.Unmarshal([]byte(text), &decision); err != nil {
		return report.Decision{}, fmt.Errorf("parse decision JSON: %v: %w", err, domain.ErrAnalystProviderError)
	}
	if !decision.Decision.Valid() {
		return report.Decision{}, fmt.Errorf("invalid decision stance %q: %w", decision.Decision, domain.ErrAnalystProviderError)
	}
	if decision.Disclaimer == "" {
		decision.Disclaimer = report.DefaultDisclaimer
	}
	return decision, nil
}

func (a *Analyst) generateJSON(ctx context.Context, prompt string) (string, error) {
	result, err := a.client.Models.GenerateContent(ctx, a.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate: %v: %w", err, domain.ErrAnalystProviderError)
	}
	return extractText(result)
}

func (a *Analyst) gatherContext(ctx context.Context, ticker string) string {
	var sb strings.Builder
	for _, query := range groundingQueries {
		frags, err := a.retriever.Retrieve(ctx, ticker, query, groundingTopK)
		if err != nil {
			a.logger.Warn("Context retrieval failed", zap.String("query", query), zap.Error(err))
			continue
		}
		for _, f := range frags {
			fmt.Fprintf(&sb, "[%s", f.SectionName)
			if f.SectionItem != "" {
				fmt.Fprintf(&sb, " (Item %s)", f.SectionItem)
			}
			fmt.Fprintf(&sb, " #%d]\n%s\n\n", f.ChunkIndex, f.Text)
		}
	}
	return strings.TrimSpace(sb.String())
}

func extractText(result *genai.GenerateContentResponse) (string, error) {
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content generated: %w", domain.ErrAnalystProviderError)
	}

	text := ""
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
	}
	return text, nil
}
