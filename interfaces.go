package couponsim

import "context"

// ProgressCallback receives advisory progress notifications: completed trials out of total,
// and the percentage boundary that was crossed.
type ProgressCallback func(completed, total, percent int)

// RandomSource yields independent uniform values in [0, 1), one per draw.
type RandomSource interface {
	Float64() float64
}

// StreamFactory hands out the random stream used by one trial.
//
// Implementations must be safe for concurrent use; the returned source is used by a single
// goroutine for the duration of one trial.
type StreamFactory interface {
	Stream(trial int) RandomSource
}

// Runner defines the interface for running a batch of trials
type Runner interface {
	// Run executes trials trials over p, each capped at maxRuns draws
	Run(ctx context.Context, p ProbabilityVector, trials, maxRuns int) (*Histogram, error)
}

// ResultStore persists simulation reports
type ResultStore interface {
	// Save stores a report under its ID
	Save(ctx context.Context, report *SimulationReport) error

	// Load reads a report by ID
	Load(ctx context.Context, id string) (*SimulationReport, error)

	// List returns the IDs of all stored reports
	List(ctx context.Context) ([]string, error)

	// Delete removes a report
	Delete(ctx context.Context, id string) error
}

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
	Debug(msg string, args ...any)
}

var (
	_ Runner      = (*Simulator)(nil)
	_ ResultStore = (*RedisResultStore)(nil)
	_ ResultStore = (*CircuitBreakerStore)(nil)
	_ Logger      = (*DefaultLogger)(nil)
	_ Logger      = (*SilentLogger)(nil)
	_ Logger      = (*SlogLogger)(nil)
)
