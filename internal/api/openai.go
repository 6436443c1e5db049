package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/diogo/trito/internal/chat"
	apperrors "github.com/diogo/trito/internal/errors"
)

// OpenAIClient completes conversations with the OpenAI chat completions API.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
	endpoint    string
	logger      *zap.Logger
}

// NewOpenAIClient creates a client. baseURL may be empty for the public API.
func NewOpenAIClient(apiKey, baseURL, model string, temperature float32, logger *zap.Logger) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: %w", apperrors.ErrMissingAPIKey)
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		temperature: temperature,
		endpoint:    cfg.BaseURL + "/chat/completions",
		logger:      logger,
	}, nil
}

// Name returns the provider name.
func (c *OpenAIClient) Name() string { return "openai" }

func openAIRole(r chat.Role) (string, error) {
	switch r {
	case chat.RoleSystem:
		return openai.ChatMessageRoleSystem, nil
	case chat.RoleHuman:
		return openai.ChatMessageRoleUser, nil
	case chat.RoleAssistant:
		return openai.ChatMessageRoleAssistant, nil
	default:
		return "", fmt.Errorf("unknown role %s", r)
	}
}

func toOpenAIMessages(history []chat.Message) ([]openai.ChatCompletionMessage, error) {
	out := make([]openai.ChatCompletionMessage, 0, len(history))
	for _, msg := range history {
		role, err := openAIRole(msg.Role)
		if err != nil {
			return nil, err
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}
	return out, nil
}

// Complete sends the full history and returns the first choice's content.
func (c *OpenAIClient) Complete(ctx context.Context, history []chat.Message) (string, error) {
	messages, err := toOpenAIMessages(history)
	if err != nil {
		return "", fmt.Errorf("failed to build messages: %w", err)
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages:    messages,
	})
	if err != nil {
		return "", c.mapError(ctx, err)
	}

	if len(resp.Choices) == 0 {
		return "", apperrors.NewAPIError(0, c.endpoint, "response has no choices")
	}

	c.logger.Debug("openai completion",
		zap.String("model", resp.Model),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.Duration("elapsed", time.Since(start)),
	)

	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) mapError(ctx context.Context, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apperrors.NewAPIError(apiErr.HTTPStatusCode, c.endpoint, apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := "request failed"
		if reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return apperrors.NewAPIError(reqErr.HTTPStatusCode, c.endpoint, msg)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperrors.NewTimeoutError(c.endpoint)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	return apperrors.NewNetworkError("chat completion", c.endpoint, err)
}
