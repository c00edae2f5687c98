// Package router decides which knowledge partitions a user message should
// be searched against.
//
// Routing is a priority cascade that short-circuits at the first rule
// producing a non-empty result: keyword trigger detectors, then a
// file-path heuristic, then semantic intent classification, then a
// fixed-order fallback when the classifier cannot decide. The cascade
// selects which partitions are searched; all routed partitions' results
// are eligible for selection together.
package router

import (
	"context"
	"regexp"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/recalld/internal/collections"
)

// Target is one partition a message routes to.
type Target struct {
	// Partition is the knowledge partition to search.
	Partition collections.Partition

	// Shared is true when the partition is not scoped to the current
	// project.
	Shared bool
}

// filePathPattern recognizes source-file extensions and common source or
// build directory markers in a message.
var filePathPattern = regexp.MustCompile(`(?i)` +
	`[\w./\\-]+\.(go|py|js|jsx|ts|tsx|rs|java|rb|c|h|cc|cpp|hpp|cs|php|swift|kt|scala|sh|bash|zsh|sql|proto|tf|yaml|yml|toml|json)\b` +
	`|\b(src|lib|tests?|scripts|pkg|internal|cmd|build|dist)/` +
	`|\b(Dockerfile|Makefile|go\.(mod|sum)|package\.json|Cargo\.toml|pyproject\.toml)\b`)

// topicPartitions maps detector topics to their target partitions.
var topicPartitions = map[string]collections.Partition{
	TopicDecision:       collections.PartitionDiscussions,
	TopicSessionHistory: collections.PartitionDiscussions,
	TopicBestPractice:   collections.PartitionConventions,
}

// detectors in fixed evaluation order.
var detectors = []func(string) (string, bool){
	DetectDecisionIntent,
	DetectSessionHistoryIntent,
	DetectBestPracticeIntent,
}

// Router routes messages to knowledge partitions.
type Router struct {
	classifier IntentClassifier
	logger     *zap.Logger
}

// New creates a router. A nil classifier falls back to the keyword
// classifier.
func New(classifier IntentClassifier, logger *zap.Logger) *Router {
	if classifier == nil {
		classifier = NewKeywordClassifier()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{classifier: classifier, logger: logger}
}

// Route returns the ordered partitions to search for a message. The order
// is significant: the first target is considered first, but none are
// mutually exclusive once routed.
func (r *Router) Route(ctx context.Context, message string) []Target {
	// Rule 1: keyword triggers win over everything else.
	if targets := r.routeTriggers(message); len(targets) > 0 {
		r.logger.Debug("routed by keyword trigger", zap.Int("targets", len(targets)))
		return targets
	}

	// Rule 2: file paths route to code patterns alone.
	if filePathPattern.MatchString(message) {
		r.logger.Debug("routed by file path heuristic")
		return []Target{target(collections.PartitionCodePatterns)}
	}

	// Rule 3: semantic intent classification.
	switch r.classifier.Classify(ctx, message) {
	case IntentHowTo:
		return []Target{target(collections.PartitionCodePatterns)}
	case IntentWhatIs:
		return []Target{target(collections.PartitionConventions)}
	case IntentWhy:
		return []Target{target(collections.PartitionDiscussions)}
	}

	// Rule 4: unknown intent cascades through all partitions so the
	// downstream search still has something to query.
	r.logger.Debug("routed by unknown-intent fallback")
	return []Target{
		target(collections.PartitionDiscussions),
		target(collections.PartitionCodePatterns),
		target(collections.PartitionConventions),
	}
}

// routeTriggers runs the keyword detectors and maps fired topics to
// partitions, deduplicated by partition in first-seen order.
func (r *Router) routeTriggers(message string) []Target {
	var targets []Target
	seen := make(map[collections.Partition]bool)

	for _, detect := range detectors {
		topic, ok := detect(message)
		if !ok {
			continue
		}
		partition := topicPartitions[topic]
		if seen[partition] {
			continue
		}
		seen[partition] = true
		targets = append(targets, target(partition))
	}
	return targets
}

func target(p collections.Partition) Target {
	return Target{Partition: p, Shared: collections.ScopeOf(p) == collections.ScopeShared}
}
