// Package api provides the completer adapters that turn a conversation
// history into one assistant reply from a remote model.
package api

// GJSON paths for extracting values from OpenAI-compatible chat completion
// responses.
const (
	PathReplyContent = "choices.0.message.content"
	PathFinishReason = "choices.0.finish_reason"
	PathErrorMessage = "error.message"
	PathErrorAlt     = "message"
	PathTotalTokens  = "usage.total_tokens"
	PathModel        = "model"
)

// Default models per provider.
const (
	DefaultOpenAIModel = "gpt-3.5-turbo"
	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultCompatURL   = "http://localhost:11434/v1"
)
