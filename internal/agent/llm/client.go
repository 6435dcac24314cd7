package llm

import (
	"context"
	"net/http"
	"time"

	apperrors "github.com/lk2023060901/mercari-shopper-backend/internal/pkg/errors"
	"github.com/lk2023060901/mercari-shopper-backend/internal/pkg/logger"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Config holds the chat-completion client settings. APIKey is required and
// comes from the process environment.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client wraps the OpenAI chat-completion API. It exposes a single Complete
// call returning the assistant message, which carries either free text or
// tool calls; callers branch on which one is populated.
type Client struct {
	api    *openai.Client
	model  string
	logger *logger.Logger
}

// New validates the configuration and builds a client. A missing API key is
// a configuration error raised here, before any conversation starts.
func New(cfg *Config, log *logger.Logger) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, apperrors.New(apperrors.ErrMissingAPIKey)
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	model := cfg.Model
	if model == "" {
		model = "gpt-4.1-mini"
	}

	return &Client{
		api:    openai.NewClientWithConfig(clientCfg),
		model:  model,
		logger: log.Named("llm"),
	}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Complete sends one chat-completion request and returns the assistant
// message. Tools may be nil for plain completions.
func (c *Client) Complete(ctx context.Context, messages []openai.ChatCompletionMessage, tools []openai.Tool) (openai.ChatCompletionMessage, error) {
	req := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
		Tools:    tools,
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		c.logger.Error("chat completion failed",
			zap.String("model", c.model),
			zap.Int("messages", len(messages)),
			zap.Error(err))
		return openai.ChatCompletionMessage{}, apperrors.Wrap(err, apperrors.ErrLLMRequest)
	}

	if len(resp.Choices) == 0 {
		return openai.ChatCompletionMessage{}, apperrors.New(apperrors.ErrLLMEmptyResponse)
	}

	msg := resp.Choices[0].Message
	c.logger.Debug("chat completion received",
		zap.String("model", c.model),
		zap.Int("tool_calls", len(msg.ToolCalls)),
		zap.Int("content_length", len(msg.Content)))

	return msg, nil
}
