package retrieval

import (
	"context"
	"fmt"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/fyrsmithlabs/recalld/internal/collections"
)

// QdrantConfig holds configuration for the Qdrant gRPC client.
type QdrantConfig struct {
	// Host is the Qdrant server hostname or IP address.
	Host string

	// Port is the Qdrant gRPC port (6334), not the HTTP REST port (6333).
	Port int

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool

	// MaxMessageSize is the maximum gRPC message size in bytes.
	MaxMessageSize int
}

// QdrantSearcher implements Searcher against a Qdrant gRPC endpoint.
//
// Queries are embedded with the configured Embedder and executed against
// the collection derived from the query's partition and project id.
type QdrantSearcher struct {
	client   *qdrant.Client
	embedder Embedder
	logger   *zap.Logger
}

// NewQdrantSearcher connects to Qdrant and verifies the connection with a
// bounded health check.
func NewQdrantSearcher(cfg QdrantConfig, embedder Embedder, logger *zap.Logger) (*QdrantSearcher, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxMessageSize == 0 {
		cfg.MaxMessageSize = 50 * 1024 * 1024
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		UseTLS: cfg.UseTLS,
		GrpcOptions: []grpc.DialOption{
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(cfg.MaxMessageSize),
				grpc.MaxCallSendMsgSize(cfg.MaxMessageSize),
			),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.HealthCheck(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: health check: %v", ErrConnectionFailed, err)
	}

	return &QdrantSearcher{client: client, embedder: embedder, logger: logger}, nil
}

// Search implements Searcher.
func (s *QdrantSearcher) Search(ctx context.Context, q Query) ([]Result, error) {
	collection, err := collections.Name(q.Partition, q.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("resolving collection: %w", err)
	}

	vector, err := s.embedder.EmbedQuery(ctx, q.Text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}

	query := &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if q.Limit > 0 {
		query.Limit = qdrant.PtrOf(uint64(q.Limit))
	}
	if q.ScoreThreshold > 0 {
		query.ScoreThreshold = qdrant.PtrOf(float32(q.ScoreThreshold))
	}
	if q.TypeFilter != "" {
		query.Filter = &qdrant.Filter{
			Must: []*qdrant.Condition{{
				ConditionOneOf: &qdrant.Condition_Field{
					Field: &qdrant.FieldCondition{
						Key: "type",
						Match: &qdrant.Match{
							MatchValue: &qdrant.Match_Keyword{Keyword: q.TypeFilter},
						},
					},
				},
			}},
		}
	}

	points, err := s.client.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("searching collection %s: %w", collection, err)
	}

	results := make([]Result, 0, len(points))
	for _, point := range points {
		results = append(results, decodePoint(point, collection))
	}

	s.logger.Debug("qdrant search",
		zap.String("collection", collection),
		zap.Int("results", len(results)))

	return results, nil
}

// Close releases the gRPC connection.
func (s *QdrantSearcher) Close() error {
	return s.client.Close()
}

// decodePoint converts a scored point into a Result. The payload carries
// content and category; the stored id falls back to the point id when the
// payload has none.
func decodePoint(point *qdrant.ScoredPoint, collection string) Result {
	r := Result{
		Score:      float64(point.Score),
		Collection: collection,
	}

	if payload := point.GetPayload(); payload != nil {
		if v, ok := payload["id"]; ok {
			r.ID = v.GetStringValue()
		}
		if v, ok := payload["content"]; ok {
			r.Content = v.GetStringValue()
		}
		if v, ok := payload["type"]; ok {
			r.Type = v.GetStringValue()
		}
	}
	if r.ID == "" && point.GetId() != nil {
		r.ID = point.GetId().GetUuid()
	}

	return r
}
