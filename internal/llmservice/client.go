package llmservice

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"textbook-rag/internal/config"
	"textbook-rag/internal/models"
)

var thinkRe = regexp.MustCompile(models.ThinkTag)

// Client is the generation runtime: one prompt in, generated text out.
type Client struct {
	llm         llms.Model
	model       string
	temperature float64
	timeout     time.Duration
}

func NewClient(cfg *config.LLMConfig) (*Client, error) {
	log.Debug().Interface("llmConfig", map[string]string{
		"provider": cfg.Provider,
		"base_url": cfg.BaseURL,
		"model":    cfg.Model,
	}).Msg("Creating LLM client")

	var llm llms.Model
	var err error
	switch cfg.Provider {
	case config.ProviderOllama:
		llm, err = ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
		)
	case config.ProviderOpenAI:
		llm, err = openai.New(
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithToken(strings.TrimPrefix(config.Secret(cfg.APIKeyEnv), "Bearer ")),
			openai.WithModel(cfg.Model),
		)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s: %w", cfg.Provider, err)
	}
	return NewClientWithModel(llm, cfg), nil
}

// NewClientWithModel wraps an existing langchaingo model.
func NewClientWithModel(llm llms.Model, cfg *config.LLMConfig) *Client {
	return &Client{
		llm:         llm,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     time.Duration(cfg.TimeoutSecs) * time.Second,
	}
}

func (c *Client) Model() string { return c.model }

// Generate sends prompt as a single human message. Reasoning blocks are removed from the reply.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	msgContent := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeHuman, prompt),
	}
	var opts []llms.CallOption
	if c.temperature > 0 {
		opts = append(opts, llms.WithTemperature(c.temperature))
	}

	res, err := c.llm.GenerateContent(ctx, msgContent, opts...)
	if err != nil {
		return "", err
	}
	if len(res.Choices) == 0 {
		return "", fmt.Errorf("empty response from model %s", c.model)
	}
	return StripThinking(res.Choices[0].Content), nil
}

// StripThinking drops <think>...</think> blocks emitted by reasoning models.
func StripThinking(s string) string {
	return strings.TrimSpace(thinkRe.ReplaceAllString(s, ""))
}
