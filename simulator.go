package couponsim

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// Simulator runs batches of collect-them-all trials and aggregates their completion histogram.
type Simulator struct {
	streams       StreamFactory
	seed          uint64
	seeded        bool
	workers       int
	progressSteps int
	progress      ProgressCallback
	logger        Logger
	monitor       *PerformanceMonitor
}

// Option configures a Simulator
type Option func(*Simulator)

// WithSeed makes every batch reproducible: trial i always draws from the same stream
func WithSeed(seed uint64) Option {
	return func(s *Simulator) {
		s.streams = SeededStreams{Seed: seed}
		s.seed = seed
		s.seeded = true
	}
}

// WithStreams sets the source of per-trial random streams
func WithStreams(streams StreamFactory) Option {
	return func(s *Simulator) {
		s.streams = streams
		if seeded, ok := streams.(SeededStreams); ok {
			s.seed, s.seeded = seeded.Seed, true
		} else {
			s.seed, s.seeded = 0, false
		}
	}
}

// WithWorkers sets the number of goroutines; n <= 0 means runtime.NumCPU()
func WithWorkers(n int) Option {
	return func(s *Simulator) {
		if n <= 0 {
			n = runtime.NumCPU()
		}
		s.workers = n
	}
}

// WithProgress registers a progress callback
func WithProgress(cb ProgressCallback) Option {
	return func(s *Simulator) { s.progress = cb }
}

// WithProgressSteps sets how many notifications a batch emits after the initial 0%
func WithProgressSteps(steps int) Option {
	return func(s *Simulator) {
		if steps > 0 {
			s.progressSteps = steps
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger Logger) Option {
	return func(s *Simulator) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMonitor sets the performance monitor
func WithMonitor(monitor *PerformanceMonitor) Option {
	return func(s *Simulator) {
		if monitor != nil {
			s.monitor = monitor
		}
	}
}

// NewSimulator creates a simulator. Without WithSeed or WithStreams a random seed is chosen,
// which Seed reports so the batch can be replayed.
func NewSimulator(opts ...Option) *Simulator {
	seed := NewRandomSeed()
	s := &Simulator{
		streams:       SeededStreams{Seed: seed},
		seed:          seed,
		seeded:        true,
		workers:       runtime.NumCPU(),
		progressSteps: DefaultProgressSteps,
		logger:        &DefaultLogger{},
		monitor:       NewPerformanceMonitor(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewSimulatorFromConfig creates a simulator from the simulation section of a Config
func NewSimulatorFromConfig(cfg *SimulationConfig, logger Logger, opts ...Option) *Simulator {
	base := []Option{WithLogger(logger)}
	if cfg != nil {
		base = append(base, WithWorkers(cfg.Workers), WithProgressSteps(cfg.ProgressSteps))
		if cfg.Seed != 0 {
			base = append(base, WithSeed(cfg.Seed))
		}
	}
	return NewSimulator(append(base, opts...)...)
}

// Seed returns the base seed and whether draws are reproducible
func (s *Simulator) Seed() (uint64, bool) { return s.seed, s.seeded }

// Workers returns the configured number of workers
func (s *Simulator) Workers() int { return s.workers }

// Monitor returns the performance monitor
func (s *Simulator) Monitor() *PerformanceMonitor { return s.monitor }

// ValidateRunParameters validates the inputs of a batch
func ValidateRunParameters(p ProbabilityVector, trials, maxRuns int) error {
	if err := ValidateProbabilities(p); err != nil {
		return err
	}
	if trials <= 0 {
		return ErrInvalidTrialCount
	}
	if maxRuns <= 0 {
		return ErrInvalidMaxRuns
	}
	return nil
}

// Run executes trials trials over p, each capped at maxRuns draws, and returns the
// completion histogram. Inputs are validated before any trial runs.
//
// Cancellation is checked between batches of trials. A cancelled run returns the histogram of
// the trials that finished together with ErrSimulationInterrupted.
func (s *Simulator) Run(ctx context.Context, p ProbabilityVector, trials, maxRuns int) (*Histogram, error) {
	s.logger.Debug("Run called with items=%d, trials=%d, maxRuns=%d, workers=%d", len(p), trials, maxRuns, s.workers)

	if err := ValidateRunParameters(p, trials, maxRuns); err != nil {
		s.logger.Error("Run validation failed: %v", err)
		return nil, err
	}

	dist, err := BuildCumulative(p)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()
	tracker := newProgressTracker(trials, s.progressSteps, s.progress)
	tracker.start()

	workers := s.workers
	if workers > trials {
		workers = trials
	}
	batchSize := calculateOptimalBatchSize(trials)

	var (
		next     atomic.Int64
		wg       sync.WaitGroup
		partials = make([]*Histogram, workers)
	)

	for w := range workers {
		partials[w] = NewHistogram(maxRuns)
		wg.Add(1)
		go func(hist *Histogram) {
			defer wg.Done()
			s.runWorker(ctx, dist, maxRuns, trials, batchSize, &next, hist, tracker)
		}(partials[w])
	}
	wg.Wait()

	result := NewHistogram(maxRuns)
	for _, partial := range partials {
		if err := result.Merge(partial); err != nil {
			return nil, err
		}
	}

	duration := time.Since(startTime)
	if ctxErr := ctx.Err(); ctxErr != nil && result.Total() < int64(trials) {
		s.monitor.RecordBatch(false, duration)
		s.logger.Info("Run cancelled after %d/%d trials", result.Total(), trials)
		return result, ErrSimulationInterrupted.WithCause(ctxErr)
	}

	s.monitor.RecordBatch(true, duration)
	s.logger.Info("Run finished: trials=%d, capped=%d, duration=%v", result.Total(), result.Capped, duration)
	return result, nil
}

// runWorker claims batches of trial indices until none remain or ctx is done
func (s *Simulator) runWorker(
	ctx context.Context, dist CumulativeDistribution, maxRuns, trials, batchSize int,
	next *atomic.Int64, hist *Histogram, tracker *progressTracker,
) {
	var completed, capped, draws, misses int64
	defer func() { s.monitor.RecordTrials(completed, capped, draws, misses) }()

	for {
		if ctx.Err() != nil {
			return
		}

		batchStart := int(next.Add(int64(batchSize))) - batchSize
		if batchStart >= trials {
			return
		}
		batchEnd := min(batchStart+batchSize, trials)

		for i := batchStart; i < batchEnd; i++ {
			outcome := RunTrial(dist, maxRuns, s.streams.Stream(i))
			hist.Record(outcome)

			draws += int64(outcome.Draws)
			misses += int64(outcome.Misses)
			if outcome.Completed {
				completed++
			} else {
				capped++
			}
		}
		tracker.add(batchEnd - batchStart)
	}
}

// RunSimulations is the single-threaded reference loop: every trial draws sequentially from
// the one injected rng. It validates its inputs before any draw.
func RunSimulations(
	ctx context.Context, p ProbabilityVector, trials, maxRuns int, rng RandomSource, progress ProgressCallback,
) (*Histogram, error) {
	if err := ValidateRunParameters(p, trials, maxRuns); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, ErrInvalidArguments.WithDetails("nil random source")
	}

	dist, err := BuildCumulative(p)
	if err != nil {
		return nil, err
	}

	tracker := newProgressTracker(trials, DefaultProgressSteps, progress)
	tracker.start()

	hist := NewHistogram(maxRuns)
	for range trials {
		if err := ctx.Err(); err != nil {
			return hist, ErrSimulationInterrupted.WithCause(err)
		}
		hist.Record(RunTrial(dist, maxRuns, rng))
		tracker.add(1)
	}

	return hist, nil
}

// progressTracker emits a notification each time the completed count crosses one of
// steps evenly spaced boundaries. Safe for concurrent use.
type progressTracker struct {
	total    int
	steps    int
	callback ProgressCallback

	done atomic.Int64
	next atomic.Int64 // completed count that triggers the next notification

	mu   sync.Mutex
	step int // last notified step
}

func newProgressTracker(total, steps int, callback ProgressCallback) *progressTracker {
	if steps <= 0 {
		steps = DefaultProgressSteps
	}
	t := &progressTracker{total: total, steps: steps, callback: callback}
	t.next.Store(t.boundary(1))
	return t
}

// boundary returns the completed count at which step k is reached
func (t *progressTracker) boundary(k int) int64 {
	return (int64(k)*int64(t.total) + int64(t.steps) - 1) / int64(t.steps)
}

func (t *progressTracker) start() {
	if t.callback != nil {
		t.callback(0, t.total, 0)
	}
}

func (t *progressTracker) add(n int) {
	if t.callback == nil {
		return
	}

	done := t.done.Add(int64(n))
	if done < t.next.Load() {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for t.step < t.steps && done >= t.boundary(t.step+1) {
		t.step++
		t.callback(int(t.boundary(t.step)), t.total, t.step*100/t.steps)
	}
	if t.step < t.steps {
		t.next.Store(t.boundary(t.step + 1))
	} else {
		t.next.Store(int64(t.total) + 1)
	}
}
