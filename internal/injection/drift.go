package injection

import (
	"math"

	"github.com/fyrsmithlabs/recalld/internal/session"
)

// ComputeTopicDrift measures how much the current query diverges from the
// previous one, as 1 minus the cosine similarity of their embeddings,
// clamped to [0,1]. Higher means more topic change.
//
// With no previous vector (first turn), a zero-magnitude vector, or a
// dimension mismatch, there is no meaningful comparison and the neutral
// default 0.5 is returned.
func ComputeTopicDrift(current, previous []float32) float64 {
	if len(previous) == 0 || len(current) == 0 || len(current) != len(previous) {
		return session.NeutralDrift
	}

	var dot, magA, magB float64
	for i := range current {
		a := float64(current[i])
		b := float64(previous[i])
		dot += a * b
		magA += a * a
		magB += b * b
	}
	if magA == 0 || magB == 0 {
		return session.NeutralDrift
	}

	similarity := dot / (math.Sqrt(magA) * math.Sqrt(magB))
	return clamp01(1 - similarity)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
