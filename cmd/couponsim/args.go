package main

import (
	"fmt"
	"strconv"

	"github.com/kydenul/couponsim"
)

// ParseArgs converts the positional form "<simulations> <max-runs> <p1> [p2 ...]"
// into validated simulation inputs.
func ParseArgs(args []string) (int, int, couponsim.ProbabilityVector, error) {
	if len(args) < 3 {
		return 0, 0, nil, couponsim.ErrInvalidArguments.WithDetails(
			fmt.Sprintf("expected <simulations> <max-runs> <p1> [p2 ...], got %d arguments", len(args)))
	}

	trials, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, nil, couponsim.ErrInvalidTrialCount.WithDetails(fmt.Sprintf("simulations %q is not an integer", args[0]))
	}
	maxRuns, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, nil, couponsim.ErrInvalidMaxRuns.WithDetails(fmt.Sprintf("max runs %q is not an integer", args[1]))
	}

	p := make(couponsim.ProbabilityVector, 0, len(args)-2)
	for i, arg := range args[2:] {
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return 0, 0, nil, couponsim.ErrInvalidArguments.WithDetails(
				fmt.Sprintf("probability of item %d (%q) is not a number", i, arg))
		}
		p = append(p, v)
	}

	if err := couponsim.ValidateRunParameters(p, trials, maxRuns); err != nil {
		return 0, 0, nil, err
	}
	return trials, maxRuns, p, nil
}
