package injection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeTopicDrift(t *testing.T) {
	tests := []struct {
		name     string
		current  []float32
		previous []float32
		expected float64
	}{
		{
			name:     "no previous vector is neutral",
			current:  []float32{1, 0, 0},
			previous: nil,
			expected: 0.5,
		},
		{
			name:     "identical vectors have zero drift",
			current:  []float32{0.3, 0.7, 0.2},
			previous: []float32{0.3, 0.7, 0.2},
			expected: 0,
		},
		{
			name:     "orthogonal vectors drift fully",
			current:  []float32{1, 0},
			previous: []float32{0, 1},
			expected: 1,
		},
		{
			name:     "opposite vectors clamp to 1",
			current:  []float32{1, 0},
			previous: []float32{-1, 0},
			expected: 1,
		},
		{
			name:     "zero magnitude is neutral",
			current:  []float32{0, 0},
			previous: []float32{1, 1},
			expected: 0.5,
		},
		{
			name:     "dimension mismatch is neutral",
			current:  []float32{1, 0, 0},
			previous: []float32{1, 0},
			expected: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, ComputeTopicDrift(tt.current, tt.previous), 1e-6)
		})
	}
}

func TestComputeTopicDrift_Range(t *testing.T) {
	vectors := [][]float32{
		{0.1, 0.9}, {-0.4, 0.2}, {1, 1}, {0.5, -0.5},
	}
	for _, a := range vectors {
		for _, b := range vectors {
			d := ComputeTopicDrift(a, b)
			assert.GreaterOrEqual(t, d, 0.0)
			assert.LessOrEqual(t, d, 1.0)
		}
	}
}
