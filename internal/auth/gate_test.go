package auth

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	apperrors "github.com/diogo/trito/internal/errors"
)

func TestGate_InitialState(t *testing.T) {
	g := NewGate("segredo")

	assert.Equal(t, Unauthenticated, g.State())
	assert.False(t, g.IsAuthenticated())
	assert.Zero(t, g.Failures())
	assert.NoError(t, g.Err())
}

func TestGate_Transitions(t *testing.T) {
	g := NewGate("segredo")

	assert.Equal(t, Rejected, g.Submit("errado"))
	assert.False(t, g.IsAuthenticated())
	assert.ErrorIs(t, g.Err(), apperrors.ErrAuthRejected)

	assert.Equal(t, Rejected, g.Submit("Segredo"))
	assert.Equal(t, 2, g.Failures())

	assert.Equal(t, Authenticated, g.Submit("segredo"))
	assert.True(t, g.IsAuthenticated())
	assert.NoError(t, g.Err())
}

func TestGate_AuthenticatedIsTerminal(t *testing.T) {
	g := NewGate("segredo")
	require.Equal(t, Authenticated, g.Submit("segredo"))

	assert.Equal(t, Authenticated, g.Submit("errado"))
	assert.Equal(t, Authenticated, g.Submit(""))
	assert.Zero(t, g.Failures())
}

func TestGate_ExactEquality(t *testing.T) {
	tests := []struct {
		name       string
		credential string
		want       State
	}{
		{"exact", "abc 123", Authenticated},
		{"trailing space", "abc 123 ", Rejected},
		{"leading space", " abc 123", Rejected},
		{"case", "ABC 123", Rejected},
		{"prefix", "abc", Rejected},
		{"empty", "", Rejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGate("abc 123")
			assert.Equal(t, tt.want, g.Submit(tt.credential))
		})
	}
}

func TestGate_EmptySecretNeverOpens(t *testing.T) {
	g := NewGate("")

	assert.Equal(t, Rejected, g.Submit(""))
	assert.Equal(t, Rejected, g.Submit("anything"))
	assert.False(t, g.IsAuthenticated())
}

func TestGate_SecretScrubbedAfterSuccess(t *testing.T) {
	g := NewGate("segredo")
	require.Equal(t, Authenticated, g.Submit("segredo"))

	g.mu.Lock()
	defer g.mu.Unlock()
	assert.Nil(t, g.secret)
}

func TestGate_SubmitBytesZeroesBuffer(t *testing.T) {
	g := NewGate("segredo")

	wrong := []byte("errado")
	assert.Equal(t, Rejected, g.SubmitBytes(wrong))
	assert.Equal(t, make([]byte, len(wrong)), wrong)

	right := []byte("segredo")
	assert.Equal(t, Authenticated, g.SubmitBytes(right))
	assert.Equal(t, make([]byte, len(right)), right)
}

func TestGate_NeverLogsCredential(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	g := NewGate("segredo", WithLogger(zap.New(core)))

	g.Submit("errado")
	g.Submit("segredo")

	require.Equal(t, 2, logs.Len())
	for _, entry := range logs.All() {
		assert.NotContains(t, entry.Message, "segredo")
		assert.NotContains(t, entry.Message, "errado")
		for _, field := range entry.Context {
			assert.NotEqual(t, "segredo", field.String)
			assert.NotEqual(t, "errado", field.String)
		}
	}
}

func TestGate_ConcurrentSubmits(t *testing.T) {
	g := NewGate("segredo")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i == 7 {
				g.Submit("segredo")
				return
			}
			g.Submit("errado")
		}(i)
	}
	wg.Wait()

	assert.True(t, g.IsAuthenticated())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "unauthenticated", Unauthenticated.String())
	assert.Equal(t, "rejected", Rejected.String())
	assert.Equal(t, "authenticated", Authenticated.String())
	assert.Equal(t, "unknown", State(42).String())
}
