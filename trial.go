package couponsim

// TrialState is the state of a single collect-them-all trial
type TrialState int

const (
	// TrialRunning means at least one item is still missing and draws remain
	TrialRunning TrialState = iota
	// TrialDone is terminal: every item was found or the draw cap was reached
	TrialDone
)

// String implements fmt.Stringer
func (s TrialState) String() string {
	switch s {
	case TrialRunning:
		return "running"
	case TrialDone:
		return "done"
	default:
		return "unknown"
	}
}

// TrialOutcome is the result of one trial.
//
// Draws equals the cap both for a trial that completed on its last allowed draw and for one
// that ran out of draws; Completed tells them apart.
type TrialOutcome struct {
	Draws     int  `json:"draws"`
	Completed bool `json:"completed"`
	Misses    int  `json:"misses"`
}

// Trial tracks one in-progress collection. It is not safe for concurrent use.
type Trial struct {
	dist    CumulativeDistribution
	maxRuns int

	found   []int
	missing int
	draws   int
	misses  int
}

// NewTrial starts a trial over dist with at most maxRuns draws.
// A non-positive maxRuns yields a trial that is already done.
func NewTrial(dist CumulativeDistribution, maxRuns int) *Trial {
	return &Trial{
		dist:    dist,
		maxRuns: maxRuns,
		found:   make([]int, len(dist)),
		missing: len(dist),
	}
}

// State returns the current trial state
func (t *Trial) State() TrialState {
	if t.missing == 0 || t.draws >= t.maxRuns {
		return TrialDone
	}
	return TrialRunning
}

// Step performs one draw using the uniform value r. It is a no-op once the trial is done.
func (t *Trial) Step(r float64) TrialState {
	if t.State() == TrialDone {
		return TrialDone
	}

	t.draws++
	outcome := t.dist.Sample(r)
	if t.dist.IsMiss(outcome) {
		t.misses++
	} else {
		if t.found[outcome] == 0 {
			t.missing--
		}
		t.found[outcome]++
	}

	return t.State()
}

// Draws returns the number of draws made so far
func (t *Trial) Draws() int { return t.draws }

// Completed reports whether every item has been found
func (t *Trial) Completed() bool { return t.missing == 0 }

// Found returns a copy of the per-item found counters
func (t *Trial) Found() []int { return append([]int(nil), t.found...) }

// Outcome summarizes the trial
func (t *Trial) Outcome() TrialOutcome {
	return TrialOutcome{Draws: t.draws, Completed: t.Completed(), Misses: t.misses}
}

// RunTrial draws from rng until every item has been seen or maxRuns draws were made.
func RunTrial(dist CumulativeDistribution, maxRuns int, rng RandomSource) TrialOutcome {
	t := NewTrial(dist, maxRuns)
	for t.State() == TrialRunning {
		t.Step(rng.Float64())
	}
	return t.Outcome()
}
