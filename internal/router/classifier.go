package router

import (
	"context"
	"strings"
)

// Intent is the small taxonomy the semantic classifier maps messages into.
type Intent string

const (
	IntentHowTo   Intent = "how_to"
	IntentWhatIs  Intent = "what_is"
	IntentWhy     Intent = "why"
	IntentUnknown Intent = "unknown"
)

// IntentClassifier classifies a user message into the intent taxonomy.
// Implementations may call out to a model; classification must be cheap
// enough to run on every turn.
type IntentClassifier interface {
	Classify(ctx context.Context, message string) Intent
}

// KeywordClassifier is a heuristic IntentClassifier based on leading
// question phrases. It is the default when no semantic classifier is
// wired in.
type KeywordClassifier struct{}

// NewKeywordClassifier creates the default classifier.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

// Classify implements IntentClassifier.
func (c *KeywordClassifier) Classify(_ context.Context, message string) Intent {
	lower := strings.ToLower(strings.TrimSpace(message))

	switch {
	case strings.HasPrefix(lower, "how do i"),
		strings.HasPrefix(lower, "how do we"),
		strings.HasPrefix(lower, "how to"),
		strings.HasPrefix(lower, "how can"),
		strings.HasPrefix(lower, "how should"):
		return IntentHowTo
	case strings.HasPrefix(lower, "what is"),
		strings.HasPrefix(lower, "what's"),
		strings.HasPrefix(lower, "what are"),
		strings.HasPrefix(lower, "what does"):
		return IntentWhatIs
	case strings.HasPrefix(lower, "why"):
		return IntentWhy
	default:
		return IntentUnknown
	}
}
