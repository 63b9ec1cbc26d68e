package couponsim

import "time"

const (
	// ProbabilityTolerance absorbs rounding when checking that probabilities sum to at most 1.0
	ProbabilityTolerance = 1e-9

	// DefaultProgressSteps is the number of progress notifications per batch (one every 10%)
	DefaultProgressSteps = 10

	// DefaultTrials is the default number of simulated trials
	DefaultTrials = 10000

	// DefaultMaxRuns is the default draw cap per trial
	DefaultMaxRuns = 1000

	// MaxWorkers is the maximum number of simulation workers allowed
	MaxWorkers = 1024

	// DefaultFastRandomGeneratorCacheSize is the default cache size of SecureRandomGenerator
	DefaultFastRandomGeneratorCacheSize = 1024

	// DefaultRetryAttempts is the default number of retry attempts for store operations
	DefaultRetryAttempts = 3

	// DefaultRetryInterval is the default base interval between retry attempts
	DefaultRetryInterval = 100 * time.Millisecond

	// MaxRetryAttempts is the maximum number of retry attempts allowed
	MaxRetryAttempts = 10
)

const (
	// DefaultOutputDir is where result files are written
	DefaultOutputDir = "."

	// DefaultFilePrefix is the prefix of result file names
	DefaultFilePrefix = "results-"

	// DefaultTimestampFormat is the layout used in result file names
	DefaultTimestampFormat = "2006-01-02-15-04-05"

	// ResultFileHeader is the header row of the two-column result file
	ResultFileHeader = "Number of Runs for Full Set,Occurences"
)

const (
	// DefaultCircuitBreakerName is the default name for Circuit Breaker
	DefaultCircuitBreakerName = "couponsim-store"

	// DefaultCircuitBreakerMaxRequests is the default max requests
	DefaultCircuitBreakerMaxRequests = 3

	// DefaultCircuitBreakerInterval is the default interval
	DefaultCircuitBreakerInterval = 60 * time.Second

	// DefaultCircuitBreakerTimeout is the default timeout
	DefaultCircuitBreakerTimeout = 30 * time.Second

	// DefaultCircuitBreakerFailureRatio is the default failure ratio
	DefaultCircuitBreakerFailureRatio = 0.6

	// DefaultCircuitBreakerMinRequests is the default min requests
	DefaultCircuitBreakerMinRequests = 3

	// DefaultCircuitBreakerOnStateChange is the default on state change
	DefaultCircuitBreakerOnStateChange = true
)

const (
	DefaultRedisAddr         = "localhost:6379"
	DefaultRedisPassword     = ""
	DefaultRedisDB           = 0
	DefaultRedisPoolSize     = 10
	DefaultRedisMinIdleConns = 2
	DefaultRedisMaxRetries   = 3
	DefaultRedisDialTimeout  = 5 * time.Second
	DefaultRedisReadTimeout  = 3 * time.Second
	DefaultRedisWriteTimeout = 3 * time.Second
	DefaultRedisPoolTimeout  = 4 * time.Second
)
