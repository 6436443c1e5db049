package history

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/diogo/trito/internal/chat"
)

func testTranscript() Transcript {
	return Transcript{
		SessionID:  "0190c7a2-0000-7000-8000-000000000001",
		Provider:   "openai",
		Model:      "gpt-3.5-turbo",
		CreatedAt:  time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		ExportedAt: time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC),
		Messages: []chat.Message{
			chat.SystemMessage("Você é um consultor de moda."),
			chat.HumanMessage("Cliente tem 30 anos"),
			chat.AssistantMessage("Sugiro uma camisa de linho."),
		},
	}
}

func TestExportToMarkdown(t *testing.T) {
	md := ExportToMarkdown(testTranscript(), DefaultExportOptions())

	for _, want := range []string{
		"# Atendimento de 2024-05-01 10:00",
		"**Provider:** openai",
		"**Model:** gpt-3.5-turbo",
		"**Messages:** 3",
		"## Vendedor",
		"Cliente tem 30 anos",
		"## Consultor",
		"Sugiro uma camisa de linho.",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown should contain %q", want)
		}
	}

	if strings.Contains(md, "consultor de moda") {
		t.Error("markdown should NOT contain the system preamble by default")
	}
}

func TestExportToMarkdown_WithSystem(t *testing.T) {
	opts := DefaultExportOptions()
	opts.IncludeSystem = true

	md := ExportToMarkdown(testTranscript(), opts)
	if !strings.Contains(md, "## System") || !strings.Contains(md, "consultor de moda") {
		t.Error("markdown should contain the system preamble when enabled")
	}
}

func TestExportToJSON(t *testing.T) {
	data, err := ExportToJSON(testTranscript(), ExportOptions{Format: ExportFormatJSON})
	if err != nil {
		t.Fatalf("ExportToJSON failed: %v", err)
	}

	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if result["provider"] != "openai" {
		t.Errorf("provider = %v", result["provider"])
	}

	messages, ok := result["messages"].([]any)
	if !ok {
		t.Fatal("messages should be an array")
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}

	first := messages[0].(map[string]any)
	if first["role"] != "human" || first["content"] != "Cliente tem 30 anos" {
		t.Errorf("first message = %v", first)
	}
	second := messages[1].(map[string]any)
	if second["role"] != "assistant" {
		t.Errorf("second role = %v", second["role"])
	}
}

func TestWriteTranscript(t *testing.T) {
	tests := []struct {
		format ExportFormat
		ext    string
	}{
		{ExportFormatMarkdown, ".md"},
		{ExportFormatJSON, ".json"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "transcripts")

			path, err := WriteTranscript(dir, testTranscript(), ExportOptions{Format: tt.format})
			if err != nil {
				t.Fatalf("WriteTranscript failed: %v", err)
			}

			if filepath.Base(path) != "trito-20240501-103000"+tt.ext {
				t.Errorf("unexpected file name %s", filepath.Base(path))
			}

			info, err := os.Stat(path)
			if err != nil {
				t.Fatalf("transcript not written: %v", err)
			}
			if perm := info.Mode().Perm(); perm != 0o600 {
				t.Errorf("File permissions = %o, want 600", perm)
			}

			data, _ := os.ReadFile(path)
			if !strings.Contains(string(data), "Sugiro uma camisa de linho.") {
				t.Error("transcript should contain the assistant reply")
			}
		})
	}
}

func TestWriteTranscript_UnknownFormat(t *testing.T) {
	_, err := WriteTranscript(t.TempDir(), testTranscript(), ExportOptions{Format: "pdf"})
	if err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestNewTranscript(t *testing.T) {
	m := chat.NewManager(chat.CompleterFunc(nil))
	conv := m.Conversation()

	tr := NewTranscript("sid", "echo", "", conv)
	if len(tr.Messages) != conv.Len() {
		t.Errorf("expected %d messages, got %d", conv.Len(), len(tr.Messages))
	}
	if !tr.CreatedAt.Equal(conv.CreatedAt()) {
		t.Error("CreatedAt should come from the conversation")
	}
	if tr.ExportedAt.IsZero() {
		t.Error("ExportedAt should be set")
	}
}

func TestFormatRelativeTime(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{"now", 30 * time.Second, "agora"},
		{"1 min", time.Minute, "há 1 min"},
		{"5 mins", 5 * time.Minute, "há 5 min"},
		{"1 hour", time.Hour, "há 1h"},
		{"3 hours", 3 * time.Hour, "há 3h"},
		{"yesterday", 30 * time.Hour, "ontem"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testTime := time.Now().Add(-tt.duration)
			result := FormatRelativeTime(testTime)
			if result != tt.expected {
				t.Errorf("FormatRelativeTime(%s) = %s, want %s", tt.name, result, tt.expected)
			}
		})
	}
}

func TestFormatRelativeTime_OldDate(t *testing.T) {
	oldTime := time.Now().AddDate(-2, 0, 0)
	result := FormatRelativeTime(oldTime)

	if !strings.Contains(result, "/") {
		t.Errorf("old date should show full date format, got: %s", result)
	}
}
