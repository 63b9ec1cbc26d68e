package couponsim

import (
	"fmt"
	"math"
)

// ProbabilityVector holds one draw probability per item; the index is the item identity.
// The shortfall 1 - Sum() is the probability of drawing nothing (a miss).
type ProbabilityVector []float64

// Sum returns the total probability mass assigned to items
func (p ProbabilityVector) Sum() float64 {
	var total float64
	for _, v := range p {
		total += v
	}
	return total
}

// MissProbability returns the probability that a single draw matches no item
func (p ProbabilityVector) MissProbability() float64 {
	miss := 1.0 - p.Sum()
	if miss < 0 {
		return 0
	}
	return miss
}

// Clone returns a copy of the vector
func (p ProbabilityVector) Clone() ProbabilityVector {
	return append(ProbabilityVector(nil), p...)
}

// ValidateProbabilities validates a probability vector
func ValidateProbabilities(p ProbabilityVector) error {
	if len(p) == 0 {
		return ErrEmptyProbabilities
	}

	var total float64
	for i, v := range p {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrNegativeProbability.WithDetails(fmt.Sprintf("item %d has probability %v", i+1, v))
		}
		total += v
	}

	if total > 1.0+ProbabilityTolerance {
		return ErrProbabilitySumExceeded.WithDetails(fmt.Sprintf("sum is %v", total))
	}

	return nil
}

// CumulativeDistribution is the running sum of a ProbabilityVector: entry i is p[0] + ... + p[i].
type CumulativeDistribution []float64

// BuildCumulative calculates the cumulative distribution used for sampling.
//
// Unlike a prize pool, the last entry is not forced to 1.0: the remaining mass is the miss outcome.
func BuildCumulative(p ProbabilityVector) (CumulativeDistribution, error) {
	if err := ValidateProbabilities(p); err != nil {
		return nil, err
	}

	c := make(CumulativeDistribution, len(p))
	c[0] = p[0]
	for i := 1; i < len(p); i++ {
		c[i] = c[i-1] + p[i]
	}

	return c, nil
}

// Len returns the number of items
func (c CumulativeDistribution) Len() int { return len(c) }

// Total returns the combined item probability (the last cumulative bound)
func (c CumulativeDistribution) Total() float64 {
	if len(c) == 0 {
		return 0
	}
	return c[len(c)-1]
}

// MissIndex returns the sentinel outcome denoting a draw that matched no item
func (c CumulativeDistribution) MissIndex() int { return len(c) }

// IsMiss reports whether an outcome returned by Sample is the miss sentinel
func (c CumulativeDistribution) IsMiss(outcome int) bool { return outcome >= len(c) }

// Sample maps a uniform value r in [0, 1) to an outcome: the first index whose
// cumulative bound reaches r, or MissIndex() when r exceeds every bound.
//
// A linear scan keeps ties on the lower index: r == c[i] selects item i.
func (c CumulativeDistribution) Sample(r float64) int {
	for i, bound := range c {
		if r <= bound {
			return i
		}
	}
	return len(c)
}
