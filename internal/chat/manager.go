package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	apperrors "github.com/diogo/trito/internal/errors"
)

// Completer produces one assistant reply for a full, role-tagged history.
// Implementations are stateless request/response calls; retry and timeout
// policy belongs to them, not to the Manager.
type Completer interface {
	Complete(ctx context.Context, history []Message) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, history []Message) (string, error)

// Complete calls f(ctx, history).
func (f CompleterFunc) Complete(ctx context.Context, history []Message) (string, error) {
	return f(ctx, history)
}

// Option configures a Manager.
type Option func(*Manager)

// WithSeed replaces the default seed.
func WithSeed(seed Seed) Option {
	return func(m *Manager) {
		m.seed = seed
	}
}

// WithLogger sets the logger used for turn and reset events.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithProvider names the completer in errors and logs.
func WithProvider(name string) Option {
	return func(m *Manager) {
		m.provider = name
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// Manager owns the conversation of one operator session.
//
// Every mutation (Submit, Reset, Retry) holds the busy semaphore for its
// whole duration, including the completer call. A second mutation arriving
// meanwhile is refused with ErrBusy rather than queued. History reads only
// take mu and never wait on the completer.
type Manager struct {
	completer Completer
	seed      Seed
	provider  string
	logger    *zap.Logger
	now       func() time.Time

	busy *semaphore.Weighted

	mu   sync.RWMutex
	conv *Conversation
}

// NewManager creates a Manager with a freshly seeded conversation.
func NewManager(completer Completer, opts ...Option) *Manager {
	m := &Manager{
		completer: completer,
		seed:      DefaultSeed(),
		provider:  "completer",
		logger:    zap.NewNop(),
		now:       time.Now,
		busy:      semaphore.NewWeighted(1),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.conv = newConversation(m.seed, m.now())
	return m
}

// Conversation returns the current conversation.
func (m *Manager) Conversation() *Conversation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conv
}

// History returns a read-only copy of the current history, for rendering.
func (m *Manager) History() []Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conv.Messages()
}

// Busy reports whether a completer call is outstanding.
func (m *Manager) Busy() bool {
	if !m.busy.TryAcquire(1) {
		return true
	}
	m.busy.Release(1)
	return false
}

// Reset replaces the conversation with a fresh seed. It never calls the
// completer.
func (m *Manager) Reset() (*Conversation, error) {
	if !m.busy.TryAcquire(1) {
		return m.Conversation(), apperrors.ErrBusy
	}
	defer m.busy.Release(1)

	return m.reset(), nil
}

func (m *Manager) reset() *Conversation {
	conv := newConversation(m.seed, m.now())

	m.mu.Lock()
	previous := m.conv.Len()
	m.conv = conv
	m.mu.Unlock()

	m.logger.Info("conversation reset", zap.Int("discarded_messages", previous))
	return conv
}

// Submit applies one operator input.
//
// "/reset" reseeds the conversation. Blank input is ignored and the
// unchanged conversation is returned. Anything else is appended as a human
// turn, after which the completer is asked for exactly one assistant turn.
// If the completer fails the human turn stays in place, the conversation is
// left pending and a *errors.CompleterError is returned.
func (m *Manager) Submit(ctx context.Context, text string) (*Conversation, error) {
	if !m.busy.TryAcquire(1) {
		return m.Conversation(), apperrors.ErrBusy
	}
	defer m.busy.Release(1)

	if text == ResetCommand {
		return m.reset(), nil
	}

	if strings.TrimSpace(text) == "" {
		return m.Conversation(), nil
	}

	conv := m.Conversation()
	conv.append(HumanMessage(text))

	m.logger.Debug("human turn accepted",
		zap.Int("length", len(text)),
		zap.Int("history", conv.Len()),
	)

	return m.advance(ctx, conv)
}

// Retry asks the completer again for a pending conversation, without adding
// a human turn. A conversation that is not pending is returned unchanged.
func (m *Manager) Retry(ctx context.Context) (*Conversation, error) {
	if !m.busy.TryAcquire(1) {
		return m.Conversation(), apperrors.ErrBusy
	}
	defer m.busy.Release(1)

	return m.advance(ctx, m.Conversation())
}

// advance runs the turn rule: if and only if the last message is a human
// turn, the whole history goes to the completer and its reply is appended.
// Callers must hold the busy semaphore.
func (m *Manager) advance(ctx context.Context, conv *Conversation) (*Conversation, error) {
	pending, history := conv.snapshot()

	if !pending {
		return conv, nil
	}

	start := m.now()
	reply, err := m.completer.Complete(ctx, history)
	if err == nil && strings.TrimSpace(reply) == "" {
		err = apperrors.ErrEmptyReply
	}
	if err != nil {
		m.logger.Warn("completion failed",
			zap.String("provider", m.provider),
			zap.Duration("elapsed", m.now().Sub(start)),
			zap.Error(err),
		)
		if apperrors.IsCompleterError(err) {
			return conv, err
		}
		return conv, apperrors.NewCompleterError(m.provider, err)
	}

	conv.append(AssistantMessage(reply))

	m.logger.Info("assistant turn appended",
		zap.String("provider", m.provider),
		zap.Duration("elapsed", m.now().Sub(start)),
		zap.Int("history", conv.Len()),
	)

	return conv, nil
}
