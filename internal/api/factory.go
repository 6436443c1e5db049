package api

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/diogo/trito/internal/chat"
	"github.com/diogo/trito/internal/config"
	apperrors "github.com/diogo/trito/internal/errors"
)

// Completer is a chat.Completer that knows its provider name.
type Completer interface {
	chat.Completer
	Name() string
}

var (
	_ Completer = (*OpenAIClient)(nil)
	_ Completer = (*CompatClient)(nil)
	_ Completer = (*GeminiClient)(nil)
	_ Completer = (*EchoClient)(nil)
	_ Completer = (*Retrying)(nil)
)

// New builds the completer selected by cfg.Provider, wrapped in the retry
// policy from cfg. It is called once at startup; the result is shared by
// every session of the process.
func New(ctx context.Context, cfg config.Config, secrets config.Secrets, logger *zap.Logger) (Completer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("provider", cfg.Provider))

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second

	var (
		base Completer
		err  error
	)

	switch cfg.Provider {
	case config.ProviderOpenAI:
		base, err = NewOpenAIClient(secrets.OpenAIAPIKey, cfg.BaseURL, cfg.Model, cfg.Temperature, logger)
	case config.ProviderCompat:
		base, err = NewCompatClient(cfg.BaseURL, secrets.OpenAIAPIKey, cfg.Model, cfg.Temperature, timeout,
			WithCompatLogger(logger))
	case config.ProviderGemini:
		base, err = NewGeminiClient(ctx, secrets.GeminiAPIKey, cfg.BaseURL, cfg.Model, cfg.Temperature, logger)
	case config.ProviderEcho:
		base = &EchoClient{}
	default:
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownProvider, cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("completer ready",
		zap.String("model", cfg.Model),
		zap.Duration("timeout", timeout),
		zap.Int("max_retries", cfg.MaxRetries),
	)

	return NewRetrying(base, base.Name(), timeout, cfg.MaxRetries, WithRetryLogger(logger)), nil
}
