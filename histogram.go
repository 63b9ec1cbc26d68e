package couponsim

import (
	"fmt"
	"math"
)

// HistogramEntry is one (run count, occurrences) pair of a completion histogram
type HistogramEntry struct {
	Runs        int   `json:"runs" yaml:"runs"`
	Occurrences int64 `json:"occurrences" yaml:"occurrences"`
}

// Histogram counts how many trials finished after exactly n draws, for n in [1, MaxRuns].
// Counts[n-1] holds the count for n draws. Trials that hit the cap without finding every
// item are counted in the last bucket and also in Capped.
type Histogram struct {
	MaxRuns int     `json:"max_runs"`
	Counts  []int64 `json:"counts"`
	Capped  int64   `json:"capped"`
}

// NewHistogram creates an empty histogram for trials capped at maxRuns draws
func NewHistogram(maxRuns int) *Histogram {
	if maxRuns < 0 {
		maxRuns = 0
	}
	return &Histogram{
		MaxRuns: maxRuns,
		Counts:  make([]int64, maxRuns),
	}
}

// Record adds one trial outcome
func (h *Histogram) Record(o TrialOutcome) {
	if o.Draws < 1 || o.Draws > h.MaxRuns {
		return
	}
	h.Counts[o.Draws-1]++
	if !o.Completed {
		h.Capped++
	}
}

// Merge adds the counts of other into h
func (h *Histogram) Merge(other *Histogram) error {
	if other == nil {
		return nil
	}
	if other.MaxRuns != h.MaxRuns || len(other.Counts) != len(h.Counts) {
		return ErrHistogramMismatch.WithDetails(fmt.Sprintf("%d != %d", other.MaxRuns, h.MaxRuns))
	}
	for i, c := range other.Counts {
		h.Counts[i] += c
	}
	h.Capped += other.Capped
	return nil
}

// Total returns the number of recorded trials
func (h *Histogram) Total() int64 {
	var total int64
	for _, c := range h.Counts {
		total += c
	}
	return total
}

// Occurrences returns how many trials took exactly runs draws
func (h *Histogram) Occurrences(runs int) int64 {
	if runs < 1 || runs > len(h.Counts) {
		return 0
	}
	return h.Counts[runs-1]
}

// Entries returns the histogram as ordered (runs, occurrences) pairs for runs in [1, MaxRuns]
func (h *Histogram) Entries() []HistogramEntry {
	entries := make([]HistogramEntry, len(h.Counts))
	for i, c := range h.Counts {
		entries[i] = HistogramEntry{Runs: i + 1, Occurrences: c}
	}
	return entries
}

// Summary describes the distribution of draw counts held in a histogram
type Summary struct {
	Trials    int64   `json:"trials" yaml:"trials"`
	Completed int64   `json:"completed" yaml:"completed"`
	Capped    int64   `json:"capped" yaml:"capped"`
	Min       int     `json:"min" yaml:"min"`
	Max       int     `json:"max" yaml:"max"`
	Mean      float64 `json:"mean" yaml:"mean"`
	StdDev    float64 `json:"std_dev" yaml:"std_dev"`
	P50       int     `json:"p50" yaml:"p50"`
	P90       int     `json:"p90" yaml:"p90"`
	P99       int     `json:"p99" yaml:"p99"`
}

// Stats computes summary statistics over the recorded draw counts.
// Capped trials contribute MaxRuns draws.
func (h *Histogram) Stats() Summary {
	total := h.Total()
	s := Summary{Trials: total, Capped: h.Capped, Completed: total - h.Capped}
	if total == 0 {
		return s
	}

	var sum float64
	for i, c := range h.Counts {
		if c == 0 {
			continue
		}
		runs := i + 1
		if s.Min == 0 {
			s.Min = runs
		}
		s.Max = runs
		sum += float64(runs) * float64(c)
	}
	s.Mean = sum / float64(total)

	var acc float64
	for i, c := range h.Counts {
		if c == 0 {
			continue
		}
		d := float64(i+1) - s.Mean
		acc += d * d * float64(c)
	}
	s.StdDev = math.Sqrt(acc / float64(total))

	s.P50 = h.Percentile(0.50)
	s.P90 = h.Percentile(0.90)
	s.P99 = h.Percentile(0.99)
	return s
}

// Percentile returns the smallest run count n such that at least q of all trials
// finished within n draws (nearest-rank). It returns 0 for an empty histogram.
func (h *Histogram) Percentile(q float64) int {
	total := h.Total()
	if total == 0 {
		return 0
	}
	if q <= 0 {
		q = 0
	}
	if q > 1 {
		q = 1
	}

	rank := int64(math.Ceil(q * float64(total)))
	if rank < 1 {
		rank = 1
	}

	var cum int64
	for i, c := range h.Counts {
		cum += c
		if cum >= rank {
			return i + 1
		}
	}
	return h.MaxRuns
}
