package couponsim

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateOptimalBatchSize(t *testing.T) {
	tests := []struct {
		name          string
		totalCount    int
		expectedBatch int
	}{
		{"single_trial", 1, 1},
		{"small_count", 100, 1},
		{"edge_case_101", 101, 16},
		{"moderate_count", 10000, 16},
		{"edge_case_10001", 10001, 256},
		{"large_count", 1000000, 256},
		{"huge_count", 50000000, 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedBatch, calculateOptimalBatchSize(tt.totalCount))
		})
	}
}

func TestCalculateOptimalBatchSize_Properties(t *testing.T) {
	t.Run("batch_size_never_exceeds_total", func(t *testing.T) {
		for totalCount := 1; totalCount <= 2000; totalCount++ {
			assert.LessOrEqual(t, calculateOptimalBatchSize(totalCount), totalCount)
		}
	})

	t.Run("batch_size_increases_with_total", func(t *testing.T) {
		prevBatch := calculateOptimalBatchSize(1)
		for _, totalCount := range []int{10, 100, 1000, 100000, 10000000} {
			currentBatch := calculateOptimalBatchSize(totalCount)
			assert.GreaterOrEqual(t, currentBatch, prevBatch)
			prevBatch = currentBatch
		}
	})
}

func TestNewReportID(t *testing.T) {
	id := NewReportID()

	parts := strings.Split(id, "_")
	if assert.Len(t, parts, 3) {
		assert.Len(t, parts[0], 8)
		assert.Len(t, parts[1], 6)
		assert.Len(t, parts[2], ReportIDLength*2)
		for _, char := range parts[2] {
			assert.True(t, (char >= '0' && char <= '9') || (char >= 'a' && char <= 'f'),
				"Invalid hex character: %c", char)
		}
	}

	assert.NotEqual(t, id, NewReportID())
}

func BenchmarkCalculateOptimalBatchSize(b *testing.B) {
	b.ReportAllocs()
	for i := 0; b.Loop(); i++ {
		_ = calculateOptimalBatchSize(i)
	}
}

func BenchmarkNewReportID(b *testing.B) {
	b.ReportAllocs()
	for b.Loop() {
		_ = NewReportID()
	}
}
