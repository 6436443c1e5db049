package api

import (
	"context"
	"fmt"
	"time"

	"github.com/diogo/trito/internal/chat"
)

// EchoClient is an offline completer. It replies deterministically by
// quoting the last human turn, which is enough for demos and for driving
// the UI without network access.
type EchoClient struct {
	// Delay simulates provider latency.
	Delay time.Duration
}

// Name returns the provider name.
func (e *EchoClient) Name() string { return "echo" }

// Complete returns a reply built from the last human turn.
func (e *EchoClient) Complete(ctx context.Context, history []chat.Message) (string, error) {
	if e.Delay > 0 {
		timer := time.NewTimer(e.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	}

	var last string
	turns := 0
	for _, msg := range history {
		if msg.Role == chat.RoleHuman {
			last = msg.Content
			turns++
		}
	}
	if turns == 0 {
		return "", fmt.Errorf("echo: history has no human turn")
	}

	return fmt.Sprintf("Entendido (%d): %s", turns, last), nil
}
