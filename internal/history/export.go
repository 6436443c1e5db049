// Package history exports conversations as transcripts the operator can
// keep. Nothing written here is ever read back into a session.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/diogo/trito/internal/chat"
)

// ExportFormat represents the format for exporting conversations
type ExportFormat string

const (
	ExportFormatMarkdown ExportFormat = "markdown"
	ExportFormatJSON     ExportFormat = "json"
)

// Extension returns the file extension for f.
func (f ExportFormat) Extension() string {
	if f == ExportFormatJSON {
		return ".json"
	}
	return ".md"
}

// ExportOptions configures how conversations are exported
type ExportOptions struct {
	Format        ExportFormat
	IncludeSystem bool // Include the system preamble
}

// DefaultExportOptions returns sensible defaults for export
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		Format:        ExportFormatMarkdown,
		IncludeSystem: false,
	}
}

// Transcript is a conversation snapshot plus the context it ran in.
type Transcript struct {
	SessionID  string
	Provider   string
	Model      string
	CreatedAt  time.Time
	ExportedAt time.Time
	Messages   []chat.Message
}

// NewTranscript snapshots conv.
func NewTranscript(sessionID, provider, model string, conv *chat.Conversation) Transcript {
	return Transcript{
		SessionID:  sessionID,
		Provider:   provider,
		Model:      model,
		CreatedAt:  conv.CreatedAt(),
		ExportedAt: time.Now(),
		Messages:   conv.Messages(),
	}
}

func roleTitle(r chat.Role) string {
	switch r {
	case chat.RoleSystem:
		return "System"
	case chat.RoleHuman:
		return "Vendedor"
	case chat.RoleAssistant:
		return "Consultor"
	default:
		return r.String()
	}
}

// ExportToMarkdown renders t as Markdown
func ExportToMarkdown(t Transcript, opts ExportOptions) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Atendimento")
	if !t.CreatedAt.IsZero() {
		sb.WriteString(" de ")
		sb.WriteString(t.CreatedAt.Format("2006-01-02 15:04"))
	}
	sb.WriteString("\n\n")

	// Metadata
	if t.Provider != "" {
		sb.WriteString("**Provider:** ")
		sb.WriteString(t.Provider)
		sb.WriteString("\n")
	}
	if t.Model != "" {
		sb.WriteString("**Model:** ")
		sb.WriteString(t.Model)
		sb.WriteString("\n")
	}
	if t.SessionID != "" {
		sb.WriteString("**Session:** ")
		sb.WriteString(t.SessionID)
		sb.WriteString("\n")
	}
	sb.WriteString(fmt.Sprintf("**Messages:** %d\n", len(t.Messages)))
	sb.WriteString("\n---\n\n")

	messages := visible(t.Messages, opts)
	for i, msg := range messages {
		sb.WriteString("## ")
		sb.WriteString(roleTitle(msg.Role))
		sb.WriteString("\n\n")

		sb.WriteString(msg.Content)
		sb.WriteString("\n")

		if i < len(messages)-1 {
			sb.WriteString("\n---\n\n")
		}
	}

	return sb.String()
}

// ExportToJSON renders t as indented JSON
func ExportToJSON(t Transcript, opts ExportOptions) ([]byte, error) {
	type ExportMessage struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}

	type ExportTranscript struct {
		SessionID  string          `json:"session_id,omitempty"`
		Provider   string          `json:"provider,omitempty"`
		Model      string          `json:"model,omitempty"`
		CreatedAt  time.Time       `json:"created_at"`
		ExportedAt time.Time       `json:"exported_at"`
		Messages   []ExportMessage `json:"messages"`
	}

	messages := visible(t.Messages, opts)
	export := ExportTranscript{
		SessionID:  t.SessionID,
		Provider:   t.Provider,
		Model:      t.Model,
		CreatedAt:  t.CreatedAt,
		ExportedAt: t.ExportedAt,
		Messages:   make([]ExportMessage, len(messages)),
	}
	for i, msg := range messages {
		export.Messages[i] = ExportMessage{Role: msg.Role.String(), Content: msg.Content}
	}

	return json.MarshalIndent(export, "", "  ")
}

func visible(messages []chat.Message, opts ExportOptions) []chat.Message {
	if opts.IncludeSystem {
		return messages
	}
	out := make([]chat.Message, 0, len(messages))
	for _, msg := range messages {
		if msg.Role != chat.RoleSystem {
			out = append(out, msg)
		}
	}
	return out
}

// WriteTranscript writes t into dir and returns the file path.
func WriteTranscript(dir string, t Transcript, opts ExportOptions) (string, error) {
	var data []byte
	switch opts.Format {
	case ExportFormatJSON:
		b, err := ExportToJSON(t, opts)
		if err != nil {
			return "", fmt.Errorf("failed to encode transcript: %w", err)
		}
		data = b
	case ExportFormatMarkdown, "":
		data = []byte(ExportToMarkdown(t, opts))
	default:
		return "", fmt.Errorf("unknown export format %q", opts.Format)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create transcript directory: %w", err)
	}

	stamp := t.ExportedAt
	if stamp.IsZero() {
		stamp = time.Now()
	}
	name := "trito-" + stamp.Format("20060102-150405") + opts.Format.Extension()
	path := filepath.Join(dir, name)

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write transcript: %w", err)
	}
	return path, nil
}

// FormatRelativeTime formats a time as a relative string like "há 2h" or "ontem"
func FormatRelativeTime(t time.Time) string {
	now := time.Now()
	diff := now.Sub(t)

	switch {
	case diff < time.Minute:
		return "agora"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "há 1 min"
		}
		return fmt.Sprintf("há %d min", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "há 1h"
		}
		return fmt.Sprintf("há %dh", hours)
	case diff < 48*time.Hour:
		return "ontem"
	default:
		return t.Format("02/01/2006")
	}
}
