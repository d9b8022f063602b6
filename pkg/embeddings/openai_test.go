package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenAIRequiresKey(t *testing.T) {
	_, err := NewOpenAI(OpenAIConfig{})
	assert.ErrorContains(t, err, "API key")
}

func TestNewOpenAIDefaults(t *testing.T) {
	e, err := NewOpenAI(OpenAIConfig{APIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, 1536, e.Dimensions())
	assert.Equal(t, "text-embedding-3-small", e.model)
}

func TestEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req openAIRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "hello", req.Input)

		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"embedding": []float32{0.1, 0.2}, "index": 0},
			},
		})
	}))
	defer server.Close()

	e, err := NewOpenAI(OpenAIConfig{APIKey: "sk-test", BaseURL: server.URL, Dimensions: 2})
	require.NoError(t, err)

	vec, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2}, vec)
}

func TestEmbedEmptyText(t *testing.T) {
	e, err := NewOpenAI(OpenAIConfig{APIKey: "sk-test"})
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), "")
	assert.ErrorContains(t, err, "cannot be empty")
}

func TestEmbedBatchRestoresOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Results deliberately out of order.
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"embedding": []float32{2, 2}, "index": 1},
				{"embedding": []float32{1, 1}, "index": 0},
			},
		})
	}))
	defer server.Close()

	e, err := NewOpenAI(OpenAIConfig{APIKey: "sk-test", BaseURL: server.URL, Dimensions: 2})
	require.NoError(t, err)

	vecs, err := e.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, []float32{1, 1}, vecs[0])
	assert.Equal(t, []float32{2, 2}, vecs[1])
}

func TestEmbedAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "invalid api key", "type": "invalid_request_error"},
		})
	}))
	defer server.Close()

	e, err := NewOpenAI(OpenAIConfig{APIKey: "bad", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), "hello")
	assert.ErrorContains(t, err, "invalid api key")
}
