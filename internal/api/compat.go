package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/diogo/trito/internal/chat"
	apperrors "github.com/diogo/trito/internal/errors"
)

const maxErrorBody = 4096

// Doer sends one HTTP request. tls_client.HttpClient satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// CompatClient talks to any OpenAI-compatible /chat/completions endpoint
// (self-hosted servers, proxies) over a browser-profile TLS client.
type CompatClient struct {
	httpClient  Doer
	baseURL     string
	apiKey      string
	model       string
	temperature float32
	logger      *zap.Logger
}

// CompatOption configures a CompatClient.
type CompatOption func(*CompatClient)

// WithHTTPClient replaces the TLS client, for tests.
func WithHTTPClient(c Doer) CompatOption {
	return func(cc *CompatClient) {
		cc.httpClient = c
	}
}

// WithCompatLogger sets the request logger.
func WithCompatLogger(logger *zap.Logger) CompatOption {
	return func(cc *CompatClient) {
		if logger != nil {
			cc.logger = logger
		}
	}
}

// NewCompatClient creates a client for baseURL, e.g. "http://localhost:11434/v1".
// apiKey may be empty for endpoints that do not check it.
func NewCompatClient(baseURL, apiKey, model string, temperature float32, timeout time.Duration, opts ...CompatOption) (*CompatClient, error) {
	if baseURL == "" {
		baseURL = DefaultCompatURL
	}
	if model == "" {
		model = DefaultOpenAIModel
	}

	c := &CompatClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		model:       model,
		temperature: temperature,
		logger:      zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		options := []tls_client.HttpClientOption{
			tls_client.WithTimeoutSeconds(int(timeout.Seconds())),
			tls_client.WithClientProfile(profiles.Chrome_120),
			tls_client.WithNotFollowRedirects(),
		}

		httpClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		c.httpClient = httpClient
	}

	return c, nil
}

// Name returns the provider name.
func (c *CompatClient) Name() string { return "compat" }

// Endpoint returns the chat completions URL.
func (c *CompatClient) Endpoint() string {
	return c.baseURL + "/chat/completions"
}

type compatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type compatRequest struct {
	Model       string          `json:"model"`
	Messages    []compatMessage `json:"messages"`
	Temperature float32         `json:"temperature"`
}

func compatRole(r chat.Role) (string, error) {
	switch r {
	case chat.RoleSystem:
		return "system", nil
	case chat.RoleHuman:
		return "user", nil
	case chat.RoleAssistant:
		return "assistant", nil
	default:
		return "", fmt.Errorf("unknown role %s", r)
	}
}

func (c *CompatClient) buildPayload(history []chat.Message) ([]byte, error) {
	req := compatRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages:    make([]compatMessage, 0, len(history)),
	}
	for _, msg := range history {
		role, err := compatRole(msg.Role)
		if err != nil {
			return nil, err
		}
		req.Messages = append(req.Messages, compatMessage{Role: role, Content: msg.Content})
	}
	return json.Marshal(req)
}

// Complete sends the full history and returns the first choice's content.
func (c *CompatClient) Complete(ctx context.Context, history []chat.Message) (string, error) {
	payload, err := c.buildPayload(history)
	if err != nil {
		return "", fmt.Errorf("failed to build payload: %w", err)
	}

	endpoint := c.Endpoint()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				return "", apperrors.NewTimeoutError(endpoint)
			}
			return "", ctxErr
		}
		return "", apperrors.NewNetworkError("chat completion", endpoint, err)
	}
	defer func() {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := gjson.GetBytes(body, PathErrorMessage).String()
		if msg == "" {
			msg = gjson.GetBytes(body, PathErrorAlt).String()
		}
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		return "", apperrors.NewAPIError(resp.StatusCode, endpoint, msg)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperrors.NewNetworkError("read chat completion", endpoint, err)
	}

	if !gjson.ValidBytes(body) {
		return "", apperrors.NewAPIError(resp.StatusCode, endpoint, "response is not valid JSON")
	}

	parsed := gjson.ParseBytes(body)
	reply := parsed.Get(PathReplyContent)
	if !reply.Exists() {
		return "", apperrors.NewAPIError(resp.StatusCode, endpoint, "response has no choices")
	}

	c.logger.Debug("compat completion",
		zap.String("model", parsed.Get(PathModel).String()),
		zap.String("finish_reason", parsed.Get(PathFinishReason).String()),
		zap.Int64("total_tokens", parsed.Get(PathTotalTokens).Int()),
		zap.Duration("elapsed", time.Since(start)),
	)

	return reply.String(), nil
}
