package llmservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"research-assistant/internal/config"
)

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// ChatClient builds a fresh langchaingo model for every call so each request
// can pick its own model name
type ChatClient struct {
	cfg config.LLMConfig
}

func NewChatClient(cfg config.LLMConfig) *ChatClient {
	return &ChatClient{cfg: cfg}
}

func (c *ChatClient) DefaultModel() string { return c.cfg.Model }

// Invoke sends prompt to model (or the configured default) and returns the reply text
func (c *ChatClient) Invoke(ctx context.Context, model, prompt string) (string, error) {
	if model == "" {
		model = c.cfg.Model
	}
	llm, err := c.newModel(model)
	if err != nil {
		return "", fmt.Errorf("initializing %s model %q: %w", c.cfg.Provider, model, err)
	}

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	log.Debug().Str("provider", c.cfg.Provider).Str("model", model).Msg("Invoking chat model")
	text, err := llms.GenerateFromSinglePrompt(ctx, llm, prompt, llms.WithTemperature(c.cfg.Temperature))
	if err != nil {
		return "", fmt.Errorf("chat model %q: %w", model, err)
	}
	return text, nil
}

func (c *ChatClient) newModel(model string) (llms.Model, error) {
	switch c.cfg.Provider {
	case ProviderOpenAI:
		return openai.New(
			openai.WithBaseURL(c.cfg.BaseURL),
			openai.WithToken(strings.TrimPrefix(c.cfg.Key, "Bearer ")),
			openai.WithModel(model),
		)
	case ProviderOllama, "":
		return ollama.New(
			ollama.WithServerURL(c.cfg.BaseURL),
			ollama.WithModel(model),
		)
	default:
		return nil, fmt.Errorf("unknown chat provider %q", c.cfg.Provider)
	}
}
