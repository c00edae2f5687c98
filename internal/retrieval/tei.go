package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// TEIEmbedder implements Embedder against a text-embeddings-inference
// HTTP endpoint. Embedding generation itself is owned by that service;
// this is only the transport.
type TEIEmbedder struct {
	endpoint string
	client   *http.Client
}

// NewTEIEmbedder creates an embedder for the given /embed endpoint.
func NewTEIEmbedder(endpoint string) *TEIEmbedder {
	return &TEIEmbedder{
		endpoint: endpoint,
		client:   &http.Client{},
	}
}

// EmbedQuery implements Embedder.
func (e *TEIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(map[string][]string{"inputs": {text}})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: embedding endpoint returned %d", ErrEmbeddingFailed, resp.StatusCode)
	}

	var embeddings [][]float32
	if err := json.NewDecoder(resp.Body).Decode(&embeddings); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrEmbeddingFailed)
	}
	return embeddings[0], nil
}
