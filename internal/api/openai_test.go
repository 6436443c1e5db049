package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/diogo/trito/internal/errors"
)

type openAIRequest struct {
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newOpenAIServer(t *testing.T, status int, body string, seen *openAIRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		if seen != nil {
			data, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(data, seen)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIClient_Complete(t *testing.T) {
	var seen openAIRequest
	srv := newOpenAIServer(t, 200, `{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"model": "gpt-3.5-turbo",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": "Sugiro uma blusa leve."}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
	}`, &seen)

	c, err := NewOpenAIClient("sk-test", srv.URL+"/v1", "", 0.2, nil)
	require.NoError(t, err)
	assert.Equal(t, "openai", c.Name())

	reply, err := c.Complete(context.Background(), testHistory())
	require.NoError(t, err)
	assert.Equal(t, "Sugiro uma blusa leve.", reply)

	assert.Equal(t, DefaultOpenAIModel, seen.Model)
	assert.InDelta(t, 0.2, seen.Temperature, 0.001)
	require.Len(t, seen.Messages, 4)
	assert.Equal(t, "system", seen.Messages[0].Role)
	assert.Equal(t, "user", seen.Messages[1].Role)
	assert.Equal(t, "assistant", seen.Messages[2].Role)
	assert.Equal(t, "Cliente tem 30 anos", seen.Messages[3].Content)
}

func TestOpenAIClient_APIError(t *testing.T) {
	srv := newOpenAIServer(t, 401, `{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error"}}`, nil)

	c, err := NewOpenAIClient("sk-test", srv.URL+"/v1", "gpt-4o-mini", 0.2, nil)
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), testHistory())
	require.Error(t, err)

	var apiErr *apperrors.APIError
	require.True(t, errors.As(err, &apiErr), "expected APIError, got %T", err)
	assert.Equal(t, 401, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "Incorrect API key")
	assert.False(t, apperrors.IsRetryable(err))
}

func TestOpenAIClient_ServerError(t *testing.T) {
	srv := newOpenAIServer(t, 503, `{"error": {"message": "overloaded", "type": "server_error"}}`, nil)

	c, err := NewOpenAIClient("sk-test", srv.URL+"/v1", "", 0.2, nil)
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), testHistory())
	assert.Equal(t, 503, apperrors.GetHTTPStatus(err))
	assert.True(t, apperrors.IsRetryable(err))
}

func TestOpenAIClient_NoChoices(t *testing.T) {
	srv := newOpenAIServer(t, 200, `{"id": "x", "choices": []}`, nil)

	c, err := NewOpenAIClient("sk-test", srv.URL+"/v1", "", 0.2, nil)
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), testHistory())
	assert.ErrorContains(t, err, "no choices")
}

func TestOpenAIClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewOpenAIClient("sk-test", url+"/v1", "", 0.2, nil)
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), testHistory())
	require.Error(t, err)
	assert.True(t, apperrors.IsNetworkError(err), "expected NetworkError, got %T: %v", err, err)
}

func TestNewOpenAIClient_MissingKey(t *testing.T) {
	_, err := NewOpenAIClient("", "", "", 0.2, nil)
	assert.ErrorIs(t, err, apperrors.ErrMissingAPIKey)
}
