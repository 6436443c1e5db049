package api

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/diogo/trito/internal/chat"
	apperrors "github.com/diogo/trito/internal/errors"
)

// Retrying wraps a completer with a per-attempt timeout and bounded retries
// of transient failures (timeouts, transport errors, 429 and 5xx). The
// final failure is returned as a *errors.CompleterError.
type Retrying struct {
	next       chat.Completer
	provider   string
	timeout    time.Duration
	maxRetries int
	backoff    time.Duration
	logger     *zap.Logger
}

// RetryOption configures Retrying.
type RetryOption func(*Retrying)

// WithBackoff sets the delay before the first retry. It doubles per attempt.
func WithBackoff(d time.Duration) RetryOption {
	return func(r *Retrying) {
		r.backoff = d
	}
}

// WithRetryLogger sets the logger for retry events.
func WithRetryLogger(logger *zap.Logger) RetryOption {
	return func(r *Retrying) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRetrying wraps next. A zero timeout leaves attempts unbounded.
func NewRetrying(next chat.Completer, provider string, timeout time.Duration, maxRetries int, opts ...RetryOption) *Retrying {
	r := &Retrying{
		next:       next,
		provider:   provider,
		timeout:    timeout,
		maxRetries: max(maxRetries, 0),
		backoff:    500 * time.Millisecond,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name returns the wrapped provider name.
func (r *Retrying) Name() string { return r.provider }

// Complete calls the wrapped completer until it succeeds, fails with a
// permanent error, or runs out of attempts.
func (r *Retrying) Complete(ctx context.Context, history []chat.Message) (string, error) {
	var lastErr error
	delay := r.backoff

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			r.logger.Info("retrying completion",
				zap.String("provider", r.provider),
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)
			if err := sleep(ctx, delay); err != nil {
				return "", apperrors.NewCompleterError(r.provider, errors.Join(lastErr, err))
			}
			delay *= 2
		}

		reply, err := r.attempt(ctx, history)
		if err == nil {
			return reply, nil
		}
		lastErr = err

		if ctx.Err() != nil || !apperrors.IsRetryable(err) {
			break
		}
	}

	return "", apperrors.NewCompleterError(r.provider, lastErr)
}

func (r *Retrying) attempt(ctx context.Context, history []chat.Message) (string, error) {
	if r.timeout <= 0 {
		return r.next.Complete(ctx, history)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	reply, err := r.next.Complete(attemptCtx, history)
	if err != nil && ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && !apperrors.IsTimeoutError(err) {
		err = apperrors.NewTimeoutError(r.timeout.String())
	}
	return reply, err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
