package couponsim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistogramRecord(t *testing.T) {
	h := NewHistogram(5)
	require.Len(t, h.Counts, 5)

	h.Record(TrialOutcome{Draws: 1, Completed: true})
	h.Record(TrialOutcome{Draws: 3, Completed: true})
	h.Record(TrialOutcome{Draws: 3, Completed: true})
	h.Record(TrialOutcome{Draws: 5, Completed: false})
	h.Record(TrialOutcome{Draws: 5, Completed: true})

	assert.Equal(t, []int64{1, 0, 2, 0, 2}, h.Counts)
	assert.Equal(t, int64(5), h.Total())
	assert.Equal(t, int64(1), h.Capped)
	assert.Equal(t, int64(2), h.Occurrences(3))
	assert.Equal(t, int64(0), h.Occurrences(0))
	assert.Equal(t, int64(0), h.Occurrences(6))

	t.Run("out_of_range_is_ignored", func(t *testing.T) {
		h.Record(TrialOutcome{Draws: 0})
		h.Record(TrialOutcome{Draws: 6})
		assert.Equal(t, int64(5), h.Total())
	})
}

func TestHistogramMerge(t *testing.T) {
	a := NewHistogram(3)
	a.Record(TrialOutcome{Draws: 1, Completed: true})
	a.Record(TrialOutcome{Draws: 3, Completed: false})

	b := NewHistogram(3)
	b.Record(TrialOutcome{Draws: 2, Completed: true})
	b.Record(TrialOutcome{Draws: 3, Completed: false})

	require.NoError(t, a.Merge(b))
	assert.Equal(t, []int64{1, 1, 2}, a.Counts)
	assert.Equal(t, int64(2), a.Capped)
	assert.Equal(t, []int64{0, 1, 1}, b.Counts, "merge must not modify its argument")

	require.NoError(t, a.Merge(nil))

	err := a.Merge(NewHistogram(4))
	assert.ErrorIs(t, err, ErrHistogramMismatch)
}

func TestHistogramEntries(t *testing.T) {
	h := NewHistogram(3)
	h.Record(TrialOutcome{Draws: 2, Completed: true})

	assert.Equal(t, []HistogramEntry{
		{Runs: 1, Occurrences: 0},
		{Runs: 2, Occurrences: 1},
		{Runs: 3, Occurrences: 0},
	}, h.Entries())
}

func TestHistogramStats(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		s := NewHistogram(10).Stats()
		assert.Equal(t, Summary{}, s)
	})

	t.Run("distribution", func(t *testing.T) {
		h := NewHistogram(10)
		// 2 draws x4, 4 draws x4, 10 draws x2 (one capped)
		for range 4 {
			h.Record(TrialOutcome{Draws: 2, Completed: true})
			h.Record(TrialOutcome{Draws: 4, Completed: true})
		}
		h.Record(TrialOutcome{Draws: 10, Completed: true})
		h.Record(TrialOutcome{Draws: 10, Completed: false})

		s := h.Stats()
		assert.Equal(t, int64(10), s.Trials)
		assert.Equal(t, int64(9), s.Completed)
		assert.Equal(t, int64(1), s.Capped)
		assert.Equal(t, 2, s.Min)
		assert.Equal(t, 10, s.Max)
		assert.InDelta(t, 4.4, s.Mean, 1e-9)
		assert.InDelta(t, math.Sqrt(8.64), s.StdDev, 1e-9)
		assert.Equal(t, 4, s.P50)
		assert.Equal(t, 10, s.P90)
		assert.Equal(t, 10, s.P99)
	})
}

func TestHistogramPercentile(t *testing.T) {
	h := NewHistogram(5)
	for draws := 1; draws <= 5; draws++ {
		for range 20 {
			h.Record(TrialOutcome{Draws: draws, Completed: true})
		}
	}

	tests := []struct {
		q    float64
		want int
	}{
		{-1, 1},
		{0, 1},
		{0.2, 1},
		{0.21, 2},
		{0.5, 3},
		{0.8, 4},
		{0.81, 5},
		{1, 5},
		{2, 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, h.Percentile(tt.q), "q=%v", tt.q)
	}

	assert.Equal(t, 0, NewHistogram(5).Percentile(0.5))
}
