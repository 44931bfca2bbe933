package openai

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tenqd/internal/domain"
	"github.com/kailas-cloud/tenqd/internal/domain/fragment"
	"github.com/kailas-cloud/tenqd/internal/domain/report"
)

// maxToolRounds bounds the retrieval loop so a misbehaving model cannot
// spin on tool calls.
const maxToolRounds = 3

// Retriever is the consumer interface for the filing retrieval tool
// exposed to the model.
type Retriever interface {
	Retrieve(ctx context.Context, ticker, query string, topK int) ([]fragment.Fragment, error)
}

// Analyst generates insight and decision reports through the
// OpenAI-compatible chat completions API with function calling.
type Analyst struct {
	client    *openai.Client
	model     string
	retriever Retriever
	logger    *zap.Logger
}

// AnalystConfig holds analyst provider settings.
type AnalystConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// NewAnalyst creates an OpenAI-compatible analyst.
func NewAnalyst(cfg *AnalystConfig, retriever Retriever, logger *zap.Logger) *Analyst {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Analyst{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		retriever: retriever,
		logger:    logger,
	}
}

const insightsInstructions = "You are an equity research analyst. " +
	"Follow the user's prompt, which provides the detailed analysis framework. " +
	"Use the retrieval tool when needed, ground all claims in retrieved 10-Q text, " +
	"and return ONLY JSON matching the requested schema, with no extra text."

const decisionInstructions = "You are an equity analyst asked to provide a high-level " +
	"Buy/Sell/Hold style view purely from the latest 10-Q. " +
	"Be conservative, highlight uncertainties, and clearly explain that this is " +
	"not investment advice. Prefer HOLD when information is incomplete or ambiguous."

var retrieveTool = openai.Tool{
	Type: openai.ToolTypeFunction,
	Function: &openai.FunctionDefinition{
		Name: "retrieve_tenq_chunks",
		Description: "Retrieve a small set of 10-Q text fragments relevant to the query. " +
			"Request only a few fragments per call.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {"type": "string", "description": "What to look for in the filing"},
				"top_k": {"type": "integer", "description": "Number of fragments, small"}
			},
			"required": ["query"]
		}`),
	},
}

// Insights runs the insight report generation with a bounded retrieval
// tool loop over the indexed filing.
func (a *Analyst) Insights(ctx context.Context, ticker, prompt string) (report.Insights, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: insightsInstructions},
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}

	for round := 0; ; round++ {
		req := openai.ChatCompletionRequest{
			Model:    a.model,
			Messages: messages,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		}
		if round < maxToolRounds {
			req.Tools = []openai.Tool{retrieveTool}
		}

		resp, err := a.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return report.Insights{}, analystError(err)
		}
		if len(resp.Choices) == 0 {
			return report.Insights{}, fmt.Errorf("empty insights response: %w", domain.ErrAnalystProviderError)
		}

		msg := resp.Choices[0].Message
		if len(msg.ToolCalls) == 0 {
			var insights report.Insights
			if err := json.Unmarshal([]byte(msg.Content), &insights); err != nil {
				return report.Insights{}, fmt.Errorf("parse insights JSON: %v: %w", err, domain.ErrAnalystProviderError)
			}
			return insights, nil
		}

		messages = append(messages, msg)
		for _, tc := range msg.ToolCalls {
			result := a.runRetrieveTool(ctx, ticker, tc)
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    result,
				ToolCallID: tc.ID,
			})
		}
	}
}

// runRetrieveTool executes one retrieve_tenq_chunks call. Failures are
// reported back to the model as text so generation can continue.
func (a *Analyst) runRetrieveTool(ctx context.Context, ticker string, tc openai.ToolCall) string {
	var args struct {
		Query string `json:"query"`
		TopK  int    `json:"top_k"`
	}
	if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
		return fmt.Sprintf("invalid tool arguments: %v", err)
	}

	frags, err := a.retriever.Retrieve(ctx, ticker, args.Query, args.TopK)
	if err != nil {
		a.logger.Warn("Retrieval tool failed", zap.String("query", args.Query), zap.Error(err))
		return fmt.Sprintf("retrieval failed: %v", err)
	}

	type toolChunk struct {
		SectionName string `json:"section_name"`
		SectionItem string `json:"section_item,omitempty"`
		ChunkIndex  int    `json:"chunk_index"`
		Text        string `json:"text"`
	}
	out := make([]toolChunk, len(frags))
	for i, f := range frags {
		out[i] = toolChunk{
			SectionName: f.SectionName,
			SectionItem: f.SectionItem,
			ChunkIndex:  f.ChunkIndex,
			Text:        f.Text,
		}
	}

	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Sprintf("marshal retrieval result: %v", err)
	}
	return string(data)
}

// Decision generates the buy/sell/hold view from serialized insights.
// No tools: the decision is conditioned only on the insights JSON.
func (a *Analyst) Decision(ctx context.Context, prompt string) (report.Decision, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: decisionInstructions},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return report.Decision{}, analystError(err)
	}
	if len(resp.Choices) == 0 {
		return report.Decision{}, fmt.Errorf("empty decision response: %w", domain.ErrAnalystProviderError)
	}

	var decision report.Decision
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &decision); err != nil {
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

func analystError(err error) error {
	return fmt.Errorf("analyst request failed: %v: %w", err, domain.ErrAnalystProviderError)
}
