package retrieval

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTEIEmbedder_EmbedQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string][]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"hello"}, req["inputs"])

		_ = json.NewEncoder(w).Encode([][]float32{{0.1, 0.2, 0.3}})
	}))
	defer srv.Close()

	e := NewTEIEmbedder(srv.URL)
	vec, err := e.EmbedQuery(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestTEIEmbedder_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewTEIEmbedder(srv.URL).EmbedQuery(context.Background(), "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmbeddingFailed)
}

func TestTEIEmbedder_EmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode([][]float32{})
	}))
	defer srv.Close()

	_, err := NewTEIEmbedder(srv.URL).EmbedQuery(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrEmbeddingFailed)
}
