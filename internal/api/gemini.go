package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/diogo/trito/internal/chat"
	apperrors "github.com/diogo/trito/internal/errors"
)

// GeminiClient completes conversations with the Gemini API.
type GeminiClient struct {
	client      *genai.Client
	model       string
	temperature float32
	logger      *zap.Logger
}

// NewGeminiClient creates a Gemini API client. baseURL is only for tests
// and proxies; leave it empty for the public endpoint.
func NewGeminiClient(ctx context.Context, apiKey, baseURL, model string, temperature float32, logger *zap.Logger) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: %w", apperrors.ErrMissingAPIKey)
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	return &GeminiClient{
		client:      client,
		model:       model,
		temperature: temperature,
		logger:      logger,
	}, nil
}

// Name returns the provider name.
func (c *GeminiClient) Name() string { return "gemini" }

// buildGeminiContents splits history into the system instruction and the
// user/model turns. Multiple system messages are joined.
func buildGeminiContents(history []chat.Message) (string, []*genai.Content, error) {
	var system []string
	contents := make([]*genai.Content, 0, len(history))

	for _, msg := range history {
		switch msg.Role {
		case chat.RoleSystem:
			system = append(system, msg.Content)
		case chat.RoleHuman:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		case chat.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			return "", nil, fmt.Errorf("unknown role %s", msg.Role)
		}
	}

	return strings.Join(system, "\n\n"), contents, nil
}

// Complete sends the full history and returns the reply text.
func (c *GeminiClient) Complete(ctx context.Context, history []chat.Message) (string, error) {
	system, contents, err := buildGeminiContents(history)
	if err != nil {
		return "", fmt.Errorf("failed to build contents: %w", err)
	}

	temp := c.temperature
	cfg := &genai.GenerateContentConfig{
		Temperature: &temp,
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	start := time.Now()
	res, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return "", c.mapError(ctx, err)
	}

	text := res.Text()
	c.logger.Debug("gemini completion",
		zap.String("model", c.model),
		zap.Int("candidates", len(res.Candidates)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return text, nil
}

func (c *GeminiClient) mapError(ctx context.Context, err error) error {
	endpoint := "gemini/" + c.model

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apperrors.NewAPIError(apiErr.Code, endpoint, apiErr.Message)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return apperrors.NewAPIError(apiErrPtr.Code, endpoint, apiErrPtr.Message)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperrors.NewTimeoutError(endpoint)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	return apperrors.NewNetworkError("generate content", endpoint, err)
}
