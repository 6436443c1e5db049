package chat

import (
	"fmt"
	"slices"
	"sync"
	"time"
)

// Conversation is the ordered, append-only history of one session.
// A reset never touches an existing Conversation; it builds a new one.
//
// Readers may hold a Conversation while Manager appends a reply to it;
// every access goes through mu. Manager still serialises the writes.
type Conversation struct {
	mu        sync.RWMutex
	messages  []Message
	createdAt time.Time
}

func newConversation(seed Seed, now time.Time) *Conversation {
	return &Conversation{
		messages:  seed.Messages(),
		createdAt: now,
	}
}

// Messages returns a copy of the history.
func (c *Conversation) Messages() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.messages)
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// Last returns the most recent message.
func (c *Conversation) Last() Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.messages[len(c.messages)-1]
}

// CreatedAt returns when the conversation was seeded.
func (c *Conversation) CreatedAt() time.Time {
	return c.createdAt
}

// Pending reports whether the conversation is waiting for an assistant turn.
func (c *Conversation) Pending() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages) > 0 && c.messages[len(c.messages)-1].Role == RoleHuman
}

// snapshot returns the pending flag and a copy of the history taken
// under one lock.
func (c *Conversation) snapshot() (bool, []Message) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	pending := len(c.messages) > 0 && c.messages[len(c.messages)-1].Role == RoleHuman
	return pending, slices.Clone(c.messages)
}

func (c *Conversation) append(msg Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
}

// Validate checks the structural invariants: a system message first and
// nothing but human/assistant turns after it, with no two assistant turns
// in a row. Consecutive human turns are allowed only because a failed
// completion leaves the conversation pending and the operator may type
// again before retrying.
func (c *Conversation) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.messages) == 0 {
		return fmt.Errorf("conversation is empty")
	}
	if c.messages[0].Role != RoleSystem {
		return fmt.Errorf("first message has role %s, want system", c.messages[0].Role)
	}

	prev := RoleSystem
	for i, msg := range c.messages[1:] {
		switch msg.Role {
		case RoleSystem:
			return fmt.Errorf("message %d: system message after the preamble", i+1)
		case RoleHuman:
		case RoleAssistant:
			if prev != RoleHuman {
				return fmt.Errorf("message %d: assistant turn without a preceding human turn", i+1)
			}
		default:
			return fmt.Errorf("message %d: unknown role %s", i+1, msg.Role)
		}
		prev = msg.Role
	}

	return nil
}
