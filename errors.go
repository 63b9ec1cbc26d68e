package couponsim

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorCode 错误代码类型
type ErrorCode string

// 错误代码常量
const (
	// 系统级错误 (1000-1999)
	ErrCodeSystem             ErrorCode = "COUPONSIM_1000"
	ErrCodeRedisConnection    ErrorCode = "COUPONSIM_1001"
	ErrCodeRedisTimeout       ErrorCode = "COUPONSIM_1002"
	ErrCodeConfigInvalid      ErrorCode = "COUPONSIM_1004"
	ErrCodeServiceUnavailable ErrorCode = "COUPONSIM_1005"

	// 输入错误 (2000-2999)
	ErrCodeInvalidInput           ErrorCode = "COUPONSIM_2000"
	ErrCodeEmptyProbabilities     ErrorCode = "COUPONSIM_2001"
	ErrCodeNegativeProbability    ErrorCode = "COUPONSIM_2002"
	ErrCodeProbabilitySumExceeded ErrorCode = "COUPONSIM_2003"
	ErrCodeInvalidTrialCount      ErrorCode = "COUPONSIM_2004"
	ErrCodeInvalidMaxRuns         ErrorCode = "COUPONSIM_2005"
	ErrCodeInvalidWorkers         ErrorCode = "COUPONSIM_2006"
	ErrCodeInvalidArguments       ErrorCode = "COUPONSIM_2007"
	ErrCodeInvalidRetryAttempts   ErrorCode = "COUPONSIM_2008"
	ErrCodeInvalidRetryInterval   ErrorCode = "COUPONSIM_2009"

	// 运行错误 (3000-3999)
	ErrCodeSimulationInterrupted ErrorCode = "COUPONSIM_3000"
	ErrCodeHistogramMismatch     ErrorCode = "COUPONSIM_3001"

	// 限流相关错误 (5000-5999)
	ErrCodeCircuitBreakerOpen ErrorCode = "COUPONSIM_5002"

	// 状态相关错误 (6000-6999)
	ErrCodeReportNotFound        ErrorCode = "COUPONSIM_6000"
	ErrCodeReportSaveFailure     ErrorCode = "COUPONSIM_6001"
	ErrCodeReportLoadFailure     ErrorCode = "COUPONSIM_6002"
	ErrCodeReportCorrupted       ErrorCode = "COUPONSIM_6003"
	ErrCodeSerializationFailed   ErrorCode = "COUPONSIM_6004"
	ErrCodeDeserializationFailed ErrorCode = "COUPONSIM_6005"
)

// ErrorSeverity 错误严重程度
type ErrorSeverity string

const (
	SeverityCritical ErrorSeverity = "critical"
	SeverityHigh     ErrorSeverity = "high"
	SeverityMedium   ErrorSeverity = "medium"
	SeverityLow      ErrorSeverity = "low"
	SeverityInfo     ErrorSeverity = "info"
)

// SimulationError 增强的错误类型
type SimulationError struct {
	Code       ErrorCode      `json:"code"`
	Message    string         `json:"message"`
	Details    string         `json:"details,omitempty"`
	Severity   ErrorSeverity  `json:"severity"`
	Timestamp  time.Time      `json:"timestamp"`
	Operation  string         `json:"operation,omitempty"`
	StackTrace string         `json:"stack_trace,omitempty"`
	Cause      error          `json:"-"`
	Retryable  bool           `json:"retryable"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Error 实现 error 接口
func (e *SimulationError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 实现 errors.Unwrap 接口
func (e *SimulationError) Unwrap() error {
	return e.Cause
}

// Is 实现 errors.Is 接口
//
// Every input error also matches ErrInvalidInput, the root of the input error family.
func (e *SimulationError) Is(target error) bool {
	t, ok := target.(*SimulationError)
	if !ok {
		return false
	}
	if e.Code == t.Code {
		return true
	}
	return t.Code == ErrCodeInvalidInput && e.Code.category() == '2'
}

// category returns the leading digit of the numeric part of the code
func (c ErrorCode) category() byte {
	i := strings.LastIndexByte(string(c), '_')
	if i < 0 || i+1 >= len(c) {
		return 0
	}
	return c[i+1]
}

// clone returns a shallow copy so that predefined errors are never mutated
func (e *SimulationError) clone() *SimulationError {
	cp := *e
	if e.Metadata != nil {
		cp.Metadata = make(map[string]any, len(e.Metadata))
		for k, v := range e.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}

// WithCause 添加原因错误
func (e *SimulationError) WithCause(cause error) *SimulationError {
	cp := e.clone()
	cp.Cause = cause
	return cp
}

// WithDetails 添加详细信息
func (e *SimulationError) WithDetails(details string) *SimulationError {
	cp := e.clone()
	cp.Details = details
	return cp
}

// WithOperation 添加操作信息
func (e *SimulationError) WithOperation(operation string) *SimulationError {
	cp := e.clone()
	cp.Operation = operation
	return cp
}

// WithMetadata 添加元数据
func (e *SimulationError) WithMetadata(key string, value any) *SimulationError {
	cp := e.clone()
	if cp.Metadata == nil {
		cp.Metadata = make(map[string]any)
	}
	cp.Metadata[key] = value
	return cp
}

// WithStackTrace 添加堆栈跟踪
func (e *SimulationError) WithStackTrace() *SimulationError {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	e.StackTrace = string(buf[:n])
	return e
}

// NewError 创建新的错误
func NewError(code ErrorCode, message string) *SimulationError {
	return &SimulationError{
		Code:      code,
		Message:   message,
		Severity:  SeverityMedium,
		Timestamp: time.Now(),
		Retryable: false,
	}
}

// NewRetryableError 创建可重试的错误
func NewRetryableError(code ErrorCode, message string) *SimulationError {
	return &SimulationError{
		Code:      code,
		Message:   message,
		Severity:  SeverityMedium,
		Timestamp: time.Now(),
		Retryable: true,
	}
}

// NewCriticalError 创建严重错误
func NewCriticalError(code ErrorCode, message string) *SimulationError {
	err := &SimulationError{
		Code:      code,
		Message:   message,
		Severity:  SeverityCritical,
		Timestamp: time.Now(),
		Retryable: false,
	}
	return err.WithStackTrace()
}

// 预定义的错误实例
var (
	// 系统级错误
	ErrSystemError           = NewCriticalError(ErrCodeSystem, "system error occurred")
	ErrRedisConnectionFailed = NewRetryableError(ErrCodeRedisConnection, "Redis connection failed")
	ErrRedisTimeout          = NewRetryableError(ErrCodeRedisTimeout, "Redis operation timeout")
	ErrConfigInvalid         = NewCriticalError(ErrCodeConfigInvalid, "configuration is invalid")
	ErrServiceUnavailable    = NewRetryableError(ErrCodeServiceUnavailable, "service temporarily unavailable")

	// 输入错误
	ErrInvalidInput           = NewError(ErrCodeInvalidInput, "invalid input")
	ErrEmptyProbabilities     = NewError(ErrCodeEmptyProbabilities, "probability vector cannot be empty")
	ErrNegativeProbability    = NewError(ErrCodeNegativeProbability, "probabilities must be finite and non-negative")
	ErrProbabilitySumExceeded = NewError(ErrCodeProbabilitySumExceeded, "sum of probabilities cannot be greater than one")
	ErrInvalidTrialCount      = NewError(ErrCodeInvalidTrialCount, "invalid trial count: must be greater than 0")
	ErrInvalidMaxRuns         = NewError(ErrCodeInvalidMaxRuns, "invalid max runs per simulation: must be greater than 0")
	ErrInvalidWorkers         = NewError(ErrCodeInvalidWorkers, "invalid worker count: must be between 0 and 1024")
	ErrInvalidArguments       = NewError(ErrCodeInvalidArguments, "invalid arguments")
	ErrInvalidRetryAttempts   = NewError(ErrCodeInvalidRetryAttempts, "invalid retry attempts: must be between 0 and 10")
	ErrInvalidRetryInterval   = NewError(ErrCodeInvalidRetryInterval, "invalid retry interval: cannot be negative")

	// 运行错误
	ErrSimulationInterrupted = NewError(ErrCodeSimulationInterrupted, "simulation interrupted")
	ErrHistogramMismatch     = NewError(ErrCodeHistogramMismatch, "histograms have different draw caps")

	// 限流相关错误
	ErrCircuitBreakerOpen = NewRetryableError(ErrCodeCircuitBreakerOpen, "circuit breaker is open")

	// 状态相关错误
	ErrReportNotFound        = NewError(ErrCodeReportNotFound, "simulation report not found")
	ErrReportSaveFailure     = NewRetryableError(ErrCodeReportSaveFailure, "failed to save simulation report")
	ErrReportLoadFailure     = NewRetryableError(ErrCodeReportLoadFailure, "failed to load simulation report")
	ErrReportCorrupted       = NewError(ErrCodeReportCorrupted, "simulation report is corrupted")
	ErrSerializationFailed   = NewError(ErrCodeSerializationFailed, "serialization failed")
	ErrDeserializationFailed = NewError(ErrCodeDeserializationFailed, "deserialization failed")
)

// IsInvalidInput reports whether err belongs to the invalid input family
func IsInvalidInput(err error) bool { return errors.Is(err, ErrInvalidInput) }

// IsRetryableError 检查是否为可重试错误
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var simErr *SimulationError
	if errors.As(err, &simErr) && simErr.Retryable {
		return true
	}

	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"connection refused",
		"connection reset",
		"timeout",
		"network is unreachable",
		"temporary failure",
		"server closed",
		"broken pipe",
		"i/o timeout",
		"dial tcp",
		"read tcp",
		"write tcp",
		"connection timed out",
		"no route to host",
		"host is down",
		"connection aborted",
		"socket is not connected",
		"operation timed out",
		"redis: connection pool timeout",
		"redis: client is closed",
		"context deadline exceeded",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}
