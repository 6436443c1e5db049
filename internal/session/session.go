// Package session pairs an auth gate with a chat manager for each operator
// and keeps them in an explicit registry keyed by session id.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/diogo/trito/internal/auth"
	"github.com/diogo/trito/internal/chat"
	apperrors "github.com/diogo/trito/internal/errors"
)

// Outcome is the result of routing one operator input.
type Outcome struct {
	Auth         auth.State
	Conversation *chat.Conversation
}

// Session is one operator's gate and, once the gate opens, conversation.
type Session struct {
	id       string
	openedAt time.Time
	gate     *auth.Gate
	logger   *zap.Logger

	newManager func() *chat.Manager

	mu      sync.Mutex
	manager *chat.Manager
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// OpenedAt returns when the session was opened.
func (s *Session) OpenedAt() time.Time { return s.openedAt }

// Gate returns the session's auth gate.
func (s *Session) Gate() *auth.Gate { return s.gate }

// Manager returns the chat manager, or nil before authentication.
func (s *Session) Manager() *chat.Manager {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manager
}

// Handle routes input to the gate until it opens and to the manager after.
// The input that opens the gate is consumed by the gate; the conversation is
// seeded at that moment.
func (s *Session) Handle(ctx context.Context, input string) (Outcome, error) {
	if m := s.Manager(); m != nil {
		conv, err := m.Submit(ctx, input)
		return Outcome{Auth: auth.Authenticated, Conversation: conv}, err
	}

	return s.Login([]byte(input)), nil
}

// Login submits a credential held in a caller-owned buffer, which is zeroed
// before Login returns. Once authenticated, further calls are no-ops.
func (s *Session) Login(credential []byte) Outcome {
	state := s.gate.SubmitBytes(credential)
	if state != auth.Authenticated {
		return Outcome{Auth: state}
	}

	m := s.ensureManager()
	return Outcome{Auth: state, Conversation: m.Conversation()}
}

// Retry re-asks the completer for a pending conversation.
func (s *Session) Retry(ctx context.Context) (Outcome, error) {
	m := s.Manager()
	if m == nil {
		return Outcome{Auth: s.gate.State()}, apperrors.ErrNotAuthenticated
	}
	conv, err := m.Retry(ctx)
	return Outcome{Auth: auth.Authenticated, Conversation: conv}, err
}

// History returns the current history, or nil before authentication.
func (s *Session) History() []chat.Message {
	m := s.Manager()
	if m == nil {
		return nil
	}
	return m.History()
}

// Conversation returns the current conversation, or nil before
// authentication.
func (s *Session) Conversation() *chat.Conversation {
	m := s.Manager()
	if m == nil {
		return nil
	}
	return m.Conversation()
}

func (s *Session) ensureManager() *chat.Manager {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.manager == nil {
		s.manager = s.newManager()
		s.logger.Info("conversation started")
	}
	return s.manager
}

// Registry owns the live sessions of one process.
type Registry struct {
	secret    string
	completer chat.Completer
	chatOpts  []chat.Option
	logger    *zap.Logger
	now       func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the registry logger. Sessions log under it with their id.
func WithLogger(logger *zap.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithChatOptions passes options to every chat.Manager the registry creates.
func WithChatOptions(opts ...chat.Option) RegistryOption {
	return func(r *Registry) {
		r.chatOpts = append(r.chatOpts, opts...)
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		r.now = now
	}
}

// NewRegistry creates an empty registry. Every session it opens checks
// secret and, once authenticated, talks to completer.
func NewRegistry(secret string, completer chat.Completer, opts ...RegistryOption) *Registry {
	r := &Registry{
		secret:    secret,
		completer: completer,
		logger:    zap.NewNop(),
		now:       time.Now,
		sessions:  make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open creates a new unauthenticated session.
func (r *Registry) Open() *Session {
	id := uuid.Must(uuid.NewV7()).String()
	logger := r.logger.With(zap.String("session", id))

	opts := append([]chat.Option{chat.WithLogger(logger)}, r.chatOpts...)
	s := &Session{
		id:       id,
		openedAt: r.now(),
		gate:     auth.NewGate(r.secret, auth.WithLogger(logger)),
		logger:   logger,
		newManager: func() *chat.Manager {
			return chat.NewManager(r.completer, opts...)
		},
	}

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()

	logger.Info("session opened")
	return s
}

// Get returns the session with id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	return s, nil
}

// Close drops the session with id. Its conversation is discarded.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return apperrors.ErrSessionNotFound
	}
	s.logger.Info("session closed", zap.Duration("age", r.now().Sub(s.openedAt)))
	return nil
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
