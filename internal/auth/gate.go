// Package auth implements the password gate that must open before a chat
// session exists.
package auth

import (
	"crypto/subtle"
	"sync"

	"go.uber.org/zap"

	apperrors "github.com/diogo/trito/internal/errors"
)

// State is the observable state of a Gate.
type State uint8

const (
	Unauthenticated State = iota
	Rejected
	Authenticated
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Rejected:
		return "rejected"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Gate compares submitted credentials against a configured secret.
// Authenticated is terminal. Rejected accepts further attempts without
// limit.
type Gate struct {
	mu       sync.Mutex
	secret   []byte
	state    State
	failures int
	logger   *zap.Logger
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithLogger sets the logger for attempt events. Credentials are never
// logged.
func WithLogger(logger *zap.Logger) GateOption {
	return func(g *Gate) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGate creates a gate for secret. An empty secret rejects everything.
func NewGate(secret string, opts ...GateOption) *Gate {
	g := &Gate{
		secret: []byte(secret),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Submit checks credential and returns the resulting state.
func (g *Gate) Submit(credential string) State {
	return g.check([]byte(credential))
}

// SubmitBytes is Submit for a caller-owned buffer, which is zeroed before
// returning.
func (g *Gate) SubmitBytes(credential []byte) State {
	defer clear(credential)
	return g.check(credential)
}

func (g *Gate) check(credential []byte) State {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == Authenticated {
		return g.state
	}

	if len(g.secret) > 0 && subtle.ConstantTimeCompare(credential, g.secret) == 1 {
		g.state = Authenticated
		// Nothing left to compare against.
		clear(g.secret)
		g.secret = nil
		g.logger.Info("authentication succeeded", zap.Int("failures", g.failures))
		return g.state
	}

	g.state = Rejected
	g.failures++
	g.logger.Warn("authentication rejected", zap.Int("failures", g.failures))
	return g.state
}

// State returns the current state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// IsAuthenticated reports whether the gate is open.
func (g *Gate) IsAuthenticated() bool {
	return g.State() == Authenticated
}

// Failures returns the number of rejected attempts so far.
func (g *Gate) Failures() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.failures
}

// Err returns ErrAuthRejected while the last attempt was rejected.
func (g *Gate) Err() error {
	if g.State() == Rejected {
		return apperrors.ErrAuthRejected
	}
	return nil
}
