package llmservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"docuchat/internal/config"
)

// Generator produces a chat completion from an ordered message sequence.
// Implementations return an error for upstream failures; callers decide how
// to degrade.
type Generator interface {
	Generate(ctx context.Context, messages []llms.MessageContent) (string, error)
}

type Client struct {
	model llms.Model
}

// NewClient builds a chat client from config.
func NewClient(cfg *config.LLMConfig) (*Client, error) {
	switch cfg.Provider {
	case "openai":
		llm, err := openai.New(
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
			openai.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, err
		}
		return &Client{model: llm}, nil
	case "ollama":
		llm, err := ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, err
		}
		return &Client{model: llm}, nil
	default:
		return nil, fmt.Errorf("unknown chat provider: %q", cfg.Provider)
	}
}

func (c *Client) Generate(ctx context.Context, messages []llms.MessageContent) (string, error) {
	res, err := c.model.GenerateContent(ctx, messages)
	if err != nil {
		return "", err
	}
	if len(res.Choices) == 0 {
		return "", errors.New("model returned no choices")
	}
	return res.Choices[0].Content, nil
}
