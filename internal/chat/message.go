// Package chat holds the conversation state machine: the ordered message
// history of one operator session and the rules that advance it by exactly
// one model turn per accepted human turn.
package chat

import "fmt"

// Role identifies who authored a message. The set is closed: every switch
// over Role must handle all three values.
type Role uint8

const (
	RoleSystem Role = iota + 1
	RoleHuman
	RoleAssistant
)

// String returns the lowercase role name used in transcripts and logs.
func (r Role) String() string {
	switch r {
	case RoleSystem:
		return "system"
	case RoleHuman:
		return "human"
	case RoleAssistant:
		return "assistant"
	default:
		return fmt.Sprintf("role(%d)", uint8(r))
	}
}

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleHuman, RoleAssistant:
		return true
	default:
		return false
	}
}

// Message is a single turn in the conversation.
type Message struct {
	Role    Role
	Content string
}

// SystemMessage builds a RoleSystem message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// HumanMessage builds a RoleHuman message.
func HumanMessage(content string) Message {
	return Message{Role: RoleHuman, Content: content}
}

// AssistantMessage builds a RoleAssistant message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}
