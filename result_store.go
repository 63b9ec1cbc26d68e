package couponsim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	// ResultKeyPrefix is the prefix for Redis result keys
	ResultKeyPrefix = "couponsim:result:"

	// DefaultResultTTL is the default TTL for persisted reports (one week)
	DefaultResultTTL = 7 * 24 * time.Hour

	// MaxSerializationSize is the maximum allowed size for a serialized report (10MB)
	MaxSerializationSize = 10 * 1024 * 1024
)

// SimulationReport is a finished batch together with the parameters that produced it.
type SimulationReport struct {
	ID            string            `json:"id" yaml:"id"`
	Probabilities ProbabilityVector `json:"probabilities" yaml:"probabilities"`
	Trials        int               `json:"trials" yaml:"trials"`
	MaxRuns       int               `json:"max_runs" yaml:"max_runs"`
	Seed          uint64            `json:"seed,omitempty" yaml:"seed,omitempty"`
	Seeded        bool              `json:"seeded" yaml:"seeded"`
	Workers       int               `json:"workers" yaml:"workers"`
	Counts        []int64           `json:"counts" yaml:"-"`
	Capped        int64             `json:"capped" yaml:"capped"`
	StartedAt     time.Time         `json:"started_at" yaml:"started_at"`
	FinishedAt    time.Time         `json:"finished_at" yaml:"finished_at"`
}

// NewSimulationReport builds a report from a finished histogram
func NewSimulationReport(p ProbabilityVector, hist *Histogram, sim *Simulator, startedAt time.Time) *SimulationReport {
	report := &SimulationReport{
		ID:            NewReportID(),
		Probabilities: p.Clone(),
		Trials:        int(hist.Total()),
		MaxRuns:       hist.MaxRuns,
		Counts:        append([]int64(nil), hist.Counts...),
		Capped:        hist.Capped,
		StartedAt:     startedAt,
		FinishedAt:    time.Now(),
	}
	if sim != nil {
		report.Seed, report.Seeded = sim.Seed()
		report.Workers = sim.Workers()
	}
	return report
}

// Validate validates the report data
func (r *SimulationReport) Validate() error {
	if r.ID == "" {
		return ErrInvalidArguments.WithDetails("empty report ID")
	}
	if err := ValidateProbabilities(r.Probabilities); err != nil {
		return err
	}
	if r.MaxRuns <= 0 || len(r.Counts) != r.MaxRuns {
		return ErrReportCorrupted.WithDetails("histogram length does not match max runs")
	}

	var total int64
	for _, c := range r.Counts {
		if c < 0 {
			return ErrReportCorrupted.WithDetails("negative occurrence count")
		}
		total += c
	}
	if total != int64(r.Trials) {
		return ErrReportCorrupted.WithDetails(fmt.Sprintf("histogram holds %d trials, report says %d", total, r.Trials))
	}
	if r.Capped < 0 || r.Capped > r.Counts[len(r.Counts)-1] {
		return ErrReportCorrupted.WithDetails("capped count exceeds last bucket")
	}
	return nil
}

// Histogram returns a copy of the report's histogram
func (r *SimulationReport) Histogram() *Histogram {
	return &Histogram{
		MaxRuns: r.MaxRuns,
		Counts:  append([]int64(nil), r.Counts...),
		Capped:  r.Capped,
	}
}

// RedisResultStore handles Redis operations for report persistence
type RedisResultStore struct {
	redisClient    *redis.Client
	logger         Logger
	ttl            time.Duration
	retryAttempts  int
	retryBaseDelay time.Duration
	monitor        *PerformanceMonitor
}

// NewRedisResultStore creates a new result store with default retry settings
func NewRedisResultStore(redisClient *redis.Client, logger Logger) *RedisResultStore {
	return NewRedisResultStoreWithRetry(redisClient, logger, DefaultResultTTL, DefaultRetryAttempts, DefaultRetryInterval)
}

// NewRedisResultStoreWithRetry creates a new result store with custom TTL and retry settings
func NewRedisResultStoreWithRetry(
	redisClient *redis.Client, logger Logger, ttl time.Duration, retryAttempts int, retryDelay time.Duration,
) *RedisResultStore {
	if logger == nil {
		logger = NewSilentLogger()
	}
	return &RedisResultStore{
		redisClient:    redisClient,
		logger:         logger,
		ttl:            ttl,
		retryAttempts:  retryAttempts,
		retryBaseDelay: retryDelay,
	}
}

// NewRedisResultStoreFromConfig creates a result store from a RedisConfig
func NewRedisResultStoreFromConfig(redisClient *redis.Client, config *RedisConfig, logger Logger) *RedisResultStore {
	if config == nil {
		config = DefaultRedisConfig()
	}
	return NewRedisResultStoreWithRetry(redisClient, logger, config.ResultTTL, config.RetryAttempts, config.RetryInterval)
}

// SetMonitor records store errors on the given monitor
func (s *RedisResultStore) SetMonitor(monitor *PerformanceMonitor) { s.monitor = monitor }

// resultKey generates the Redis key of a report
func resultKey(id string) string { return ResultKeyPrefix + id }

// parseResultKey extracts the report ID from a Redis key
func parseResultKey(key string) (string, error) {
	if !strings.HasPrefix(key, ResultKeyPrefix) {
		return "", fmt.Errorf("invalid result key format: missing prefix")
	}
	id := strings.TrimPrefix(key, ResultKeyPrefix)
	if id == "" {
		return "", fmt.Errorf("invalid result key format: empty report ID")
	}
	return id, nil
}

// serializeReport serializes a report to JSON bytes
func serializeReport(report *SimulationReport) ([]byte, error) {
	if report == nil {
		return nil, ErrInvalidArguments.WithDetails("nil report")
	}

	if err := report.Validate(); err != nil {
		return nil, err
	}

	data, err := json.Marshal(report)
	if err != nil {
		return nil, ErrSerializationFailed.WithCause(err)
	}

	if len(data) > MaxSerializationSize {
		return nil, ErrSerializationFailed.WithDetails(fmt.Sprintf(
			"serialized report size (%d bytes) exceeds maximum allowed size (%d bytes): id=%s, maxRuns=%d",
			len(data), MaxSerializationSize, report.ID, report.MaxRuns))
	}

	return data, nil
}

// deserializeReport deserializes JSON bytes back to a report
func deserializeReport(data []byte) (*SimulationReport, error) {
	if len(data) == 0 {
		return nil, ErrDeserializationFailed.WithDetails("empty data")
	}

	var report SimulationReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, ErrDeserializationFailed.WithCause(err)
	}

	if err := report.Validate(); err != nil {
		return nil, ErrReportCorrupted.WithCause(err)
	}

	return &report, nil
}

// executeWithRetry executes a Redis operation with retry logic using exponential backoff
func (s *RedisResultStore) executeWithRetry(ctx context.Context, operation string, fn func() error) error {
	var lastErr error
	startTime := time.Now()

	for attempt := 0; attempt <= s.retryAttempts; attempt++ {
		if attempt > 0 {
			// Calculate exponential backoff delay: baseDelay * 2^(attempt-1)
			delay := time.Duration(1<<(attempt-1)) * s.retryBaseDelay

			// Cap the maximum delay to prevent excessive wait times
			if maxDelay := 5 * time.Second; delay > maxDelay {
				delay = maxDelay
			}

			s.logger.Debug("Retrying %s operation (attempt %d/%d) after %v, total elapsed: %v",
				operation, attempt, s.retryAttempts, delay, time.Since(startTime))

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled during retry for %s operation after %v (attempt %d/%d): %w",
					operation, time.Since(startTime), attempt, s.retryAttempts+1, ctx.Err())
			case <-time.After(delay):
			}
		}

		err := fn()
		if err == nil {
			if attempt > 0 {
				s.logger.Info("Successfully completed %s operation after %d retries (total time: %v)",
					operation, attempt, time.Since(startTime))
			}
			return nil
		}

		lastErr = err
		if s.monitor != nil {
			s.monitor.RecordStoreError()
		}

		if !IsRetryableError(err) {
			s.logger.Debug("Non-retriable error for %s operation (attempt %d): %v", operation, attempt+1, err)
			break
		}

		if attempt == s.retryAttempts {
			s.logger.Error("Final retry attempt failed for %s operation (attempt %d/%d): %v",
				operation, attempt+1, s.retryAttempts+1, err)
		}
	}

	return fmt.Errorf("%s operation failed after %v: %w", operation, time.Since(startTime), lastErr)
}

// Save stores a report under its ID with the configured TTL
func (s *RedisResultStore) Save(ctx context.Context, report *SimulationReport) error {
	data, err := serializeReport(report)
	if err != nil {
		s.logger.Error("Failed to serialize report: %v", err)
		return err
	}

	key := resultKey(report.ID)
	s.logger.Debug("Saving report to Redis: key=%s, size=%d bytes, ttl=%v", key, len(data), s.ttl)

	err = s.executeWithRetry(ctx, fmt.Sprintf("save[%s]", key), func() error {
		return s.redisClient.Set(ctx, key, data, s.ttl).Err()
	})
	if err != nil {
		return ErrReportSaveFailure.WithDetails(key).WithCause(err)
	}

	s.logger.Info("Saved report %s (trials=%d, maxRuns=%d)", report.ID, report.Trials, report.MaxRuns)
	return nil
}

// Load reads a report by ID. A missing report yields ErrReportNotFound.
func (s *RedisResultStore) Load(ctx context.Context, id string) (*SimulationReport, error) {
	if id == "" {
		return nil, ErrInvalidArguments.WithDetails("empty report ID")
	}

	key := resultKey(id)
	s.logger.Debug("Loading report from Redis: key=%s", key)

	var data []byte
	err := s.executeWithRetry(ctx, fmt.Sprintf("load[%s]", key), func() error {
		var getErr error
		data, getErr = s.redisClient.Get(ctx, key).Bytes()
		if errors.Is(getErr, redis.Nil) {
			// Key doesn't exist - this is not an error condition, don't retry
			data = nil
			return nil
		}
		return getErr
	})
	if err != nil {
		return nil, ErrReportLoadFailure.WithDetails(key).WithCause(err)
	}

	if len(data) == 0 {
		return nil, ErrReportNotFound.WithDetails(id)
	}
	if len(data) > MaxSerializationSize {
		return nil, ErrReportCorrupted.WithDetails(fmt.Sprintf("loaded data size (%d bytes) exceeds maximum", len(data)))
	}

	return deserializeReport(data)
}

// List returns the IDs of all stored reports, sorted
func (s *RedisResultStore) List(ctx context.Context) ([]string, error) {
	pattern := ResultKeyPrefix + "*"

	var keys []string
	err := s.executeWithRetry(ctx, "keys", func() error {
		var keysErr error
		keys, keysErr = s.redisClient.Keys(ctx, pattern).Result()
		return keysErr
	})
	if err != nil {
		return nil, ErrReportLoadFailure.WithDetails(pattern).WithCause(err)
	}

	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		id, err := parseResultKey(key)
		if err != nil {
			s.logger.Debug("Skipping key %s: %v", key, err)
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	s.logger.Debug("Found %d stored reports", len(ids))
	return ids, nil
}

// Delete removes a report. Deleting a missing report is not an error.
func (s *RedisResultStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidArguments.WithDetails("empty report ID")
	}

	key := resultKey(id)
	var deleted int64
	err := s.executeWithRetry(ctx, fmt.Sprintf("delete[%s]", key), func() error {
		var delErr error
		deleted, delErr = s.redisClient.Del(ctx, key).Result()
		return delErr
	})
	if err != nil {
		return ErrReportSaveFailure.WithDetails(key).WithCause(err)
	}

	s.logger.Debug("Deleted report: key=%s, keys_deleted=%d", key, deleted)
	return nil
}
