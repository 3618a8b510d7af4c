package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/casedex/internal/domain"
	"github.com/kailas-cloud/casedex/internal/metrics"
)

// Chat defaults.
const (
	DefaultChatModel          = "gpt-4o-mini"
	DefaultSummaryMaxTokens   = 500
	DefaultSummaryTemperature = 0.1

	refineMaxTokens   = 32
	refineTemperature  = 0.2
)

const summaryPrompt = "Create a concise legal syllabus for this case, structured with the following clear sections:\n\n" +
	"1. Key Legal Issue: Identify the central legal question(s) addressed by the court (1-2 sentences).\n\n" +
	"2. Holding: State the court's conclusion/ruling on each key issue (1-2 sentences).\n\n" +
	"3. Reasoning: Explain the court's rationale for its decision (3-5 sentences).\n\n" +
	"Format the response with section headers as demonstrated below:\n" +
	"**Key Legal Issue:** [your analysis here in complete sentences]\n\n" +
	"**Holding:** [your analysis here in complete sentences]\n\n" +
	"**Reasoning:** [your analysis here in complete sentences]\n\n" +
	"Keep the entire response between 200-300 words, ensuring all sections are fully readable with no cut-off sentences."

const refinePrompt = "Rewrite the user's input into a concise, standalone query for semantic search over U.S. caselaw."

// Budget is the token budget shared with the embedder.
type Budget interface {
	Check(ctx context.Context) error
	Record(tokens int64)
}

// ChatConfig holds the chat completion settings.
type ChatConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	RefineModel string
	// MaxTokens and Temperature apply to summaries. Zero picks the defaults.
	MaxTokens   int
	Temperature float32
	Logger      *zap.Logger
}

// Chat generates case summaries and refines search queries.
type Chat struct {
	client      *openai.Client
	model       string
	refineModel string
	maxTokens   int
	temperature float32
	budget      Budget
	logger      *zap.Logger
}

// NewChat creates a chat completion client.
func NewChat(cfg *ChatConfig) *Chat {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultChatModel
	}
	refineModel := cfg.RefineModel
	if refineModel == "" {
		refineModel = DefaultChatModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultSummaryMaxTokens
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = DefaultSummaryTemperature
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chat{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       model,
		refineModel: refineModel,
		maxTokens:   maxTokens,
		temperature: temperature,
		logger:      logger,
	}
}

// WithBudget enforces b before each completion and records usage into it.
func (c *Chat) WithBudget(b Budget) *Chat {
	c.budget = b
	return c
}

// Summarize writes a structured syllabus for an opinion.
func (c *Chat) Summarize(ctx context.Context, text string) (string, error) {
	out, err := c.complete(ctx, "summary", openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: summaryPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return out, nil
}

// Refine rewrites a user query for embedding.
func (c *Chat) Refine(ctx context.Context, query string) (string, error) {
	out, err := c.complete(ctx, "refine", openai.ChatCompletionRequest{
		Model: c.refineModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: refinePrompt},
			{Role: openai.ChatMessageRoleUser, Content: query},
		},
		MaxTokens:   refineMaxTokens,
		Temperature: refineTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("refine: %w", err)
	}
	return out, nil
}

func (c *Chat) complete(ctx context.Context, purpose string, req openai.ChatCompletionRequest) (string, error) {
	if c.budget != nil {
		if err := c.budget.Check(ctx); err != nil {
			return "", fmt.Errorf("budget check: %w", err)
		}
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		metrics.ChatRequestsTotal.WithLabelValues(req.Model, purpose, "error").Inc()
		c.logger.Warn("Chat completion failed",
			zap.String("purpose", purpose), zap.Duration("duration", duration), zap.Error(err))
		return "", parseAPIError("chat", domain.ErrEnhancementUnavailable, err)
	}

	metrics.ChatRequestsTotal.WithLabelValues(req.Model, purpose, "success").Inc()
	metrics.ChatRequestDuration.WithLabelValues(req.Model, purpose).Observe(duration.Seconds())
	if resp.Usage.TotalTokens > 0 {
		metrics.ChatTokensTotal.WithLabelValues(req.Model, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.ChatTokensTotal.WithLabelValues(req.Model, "completion").Add(float64(resp.Usage.CompletionTokens))
		if c.budget != nil {
			c.budget.Record(int64(resp.Usage.TotalTokens))
		}
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty chat response: %w", domain.ErrEnhancementUnavailable)
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", fmt.Errorf("blank chat response: %w", domain.ErrEnhancementUnavailable)
	}

	c.logger.Debug("Chat completion done",
		zap.String("purpose", purpose),
		zap.Duration("duration", duration),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)
	return out, nil
}
