// Package retrieval defines the search collaborator boundary: the result
// model, the Searcher and Embedder interfaces, and the exact token counter
// the injection engine budgets with.
package retrieval

import (
	"context"
	"errors"

	"github.com/fyrsmithlabs/recalld/internal/collections"
)

// Sentinel errors for retrieval operations.
var (
	// ErrConnectionFailed indicates the vector store is unreachable.
	ErrConnectionFailed = errors.New("failed to connect to vector store")

	// ErrEmbeddingFailed indicates embedding generation failure.
	ErrEmbeddingFailed = errors.New("failed to generate embedding")
)

// Result is one candidate returned by the search collaborator. The engine
// treats results as read-only: a candidate is injected whole or excluded,
// never rewritten.
type Result struct {
	// ID is the stored item's opaque identifier.
	ID string

	// Content is the full stored text.
	Content string

	// Type is the category tag ("decision", "pattern", ...). Empty when
	// the stored item carries no category.
	Type string

	// Score is the similarity score in [0,1].
	Score float64

	// Collection is the partition the result came from. Empty when the
	// backend did not report one.
	Collection string
}

// Query describes one search call against the collaborator.
type Query struct {
	// Text is the query text to embed and search with.
	Text string

	// Partition is the knowledge partition to search.
	Partition collections.Partition

	// ProjectID scopes project partitions. Ignored for shared partitions.
	ProjectID string

	// Limit caps the number of returned results.
	Limit int

	// ScoreThreshold drops results scoring below it. Zero means no
	// threshold.
	ScoreThreshold float64

	// TypeFilter restricts results to one category tag. Empty means no
	// filter.
	TypeFilter string
}

// Searcher is the external search collaborator. Implementations own
// ranking and scoring; the engine only re-sorts when it merges results
// from multiple calls.
type Searcher interface {
	Search(ctx context.Context, q Query) ([]Result, error)
}

// Embedder generates query embeddings. The engine uses it for topic drift;
// searcher implementations may use it for the search vector as well.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Counter counts tokens exactly. The greedy selector's correctness depends
// on exactness, so approximations are not acceptable here.
type Counter interface {
	Count(text string) int
}
