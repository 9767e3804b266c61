package verification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tieup-bill-verifier/internal/domain"
)

func TestClientComplete(t *testing.T) {
	var got generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(generateResponse{Response: `{"match": true}`})
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, RateLimit: 100})
	raw, err := client.Complete(context.Background(), "phi3:mini", "are these the same?")
	require.NoError(t, err)

	assert.Equal(t, `{"match": true}`, raw)
	assert.Equal(t, "phi3:mini", got.Model)
	assert.Equal(t, "are these the same?", got.Prompt)
	assert.False(t, got.Stream)
	assert.InDelta(t, 0.1, got.Options.Temperature, 0.001)
}

func TestClientCompleteServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, RateLimit: 100})
	_, err := client.Complete(context.Background(), "phi3:mini", "p")
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestClientCompleteMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, RateLimit: 100})
	_, err := client.Complete(context.Background(), "phi3:mini", "p")
	assert.ErrorIs(t, err, domain.ErrMalformedOutput)
}

func TestClientBreakerOpensPerModel(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, RateLimit: 1000})
	for i := 0; i < 5; i++ {
		_, err := client.Complete(context.Background(), "phi3:mini", "p")
		assert.Error(t, err)
	}
	require.Equal(t, 5, hits)

	// Sixth call is refused by the open breaker without reaching the
	// server; the secondary model's breaker is independent.
	_, err := client.Complete(context.Background(), "phi3:mini", "p")
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.Equal(t, 5, hits)

	_, err = client.Complete(context.Background(), "qwen2.5:3b", "p")
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.Equal(t, 6, hits)
}

func TestClientCompleteUnreachable(t *testing.T) {
	client := NewClient(ClientConfig{BaseURL: "http://127.0.0.1:1", RateLimit: 100})
	_, err := client.Complete(context.Background(), "phi3:mini", "p")
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}
