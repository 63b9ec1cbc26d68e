package couponsim

import (
	"context"
	"errors"

	"github.com/sony/gobreaker"
)

// CircuitBreakerStore 带熔断器的结果存储
type CircuitBreakerStore struct {
	store ResultStore

	breaker *gobreaker.CircuitBreaker
	logger  Logger
	config  *CircuitBreakerConfig
}

// NewCircuitBreakerStore 创建带熔断器的结果存储
func NewCircuitBreakerStore(store ResultStore, config *CircuitBreakerConfig, logger Logger) *CircuitBreakerStore {
	if config == nil {
		config = DefaultCircuitBreakerConfig()
	}
	if logger == nil {
		logger = NewSilentLogger()
	}

	c := &CircuitBreakerStore{
		store:  store,
		logger: logger,
		config: config,
	}
	if config.Enabled {
		c.breaker = gobreaker.NewCircuitBreaker(c.settings())
	}
	return c
}

func (c *CircuitBreakerStore) settings() gobreaker.Settings {
	config := c.config
	return gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// 当请求数达到最小要求且失败率超过阈值时触发熔断
			return counts.Requests >= config.MinRequests &&
				float64(counts.TotalFailures)/float64(counts.Requests) >= config.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			// 缺失的报告和无效输入不代表存储故障
			return err == nil || errors.Is(err, ErrReportNotFound) || IsInvalidInput(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if config.OnStateChange {
				c.logger.Info("Circuit breaker '%s' state changed from %s to %s", name, from, to)
			}
		},
	}
}

// executeWithBreaker 使用熔断器执行操作
func (c *CircuitBreakerStore) executeWithBreaker(operation func() (any, error)) (any, error) {
	if c.breaker == nil {
		return operation()
	}

	result, err := c.breaker.Execute(operation)
	if errors.Is(err, gobreaker.ErrOpenState) {
		return nil, ErrCircuitBreakerOpen.WithDetails("circuit breaker is open, requests are being rejected")
	}
	if errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrCircuitBreakerOpen.WithDetails("too many requests, circuit breaker is half-open")
	}

	return result, err
}

// Save 保存报告
func (c *CircuitBreakerStore) Save(ctx context.Context, report *SimulationReport) error {
	_, err := c.executeWithBreaker(func() (any, error) {
		return nil, c.store.Save(ctx, report)
	})
	return err
}

// Load 加载报告
func (c *CircuitBreakerStore) Load(ctx context.Context, id string) (*SimulationReport, error) {
	result, err := c.executeWithBreaker(func() (any, error) {
		return c.store.Load(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	return result.(*SimulationReport), nil
}

// List 列出报告
func (c *CircuitBreakerStore) List(ctx context.Context) ([]string, error) {
	result, err := c.executeWithBreaker(func() (any, error) {
		return c.store.List(ctx)
	})
	if err != nil {
		return nil, err
	}

	return result.([]string), nil
}

// Delete 删除报告
func (c *CircuitBreakerStore) Delete(ctx context.Context, id string) error {
	_, err := c.executeWithBreaker(func() (any, error) {
		return nil, c.store.Delete(ctx, id)
	})
	return err
}

// State 获取熔断器状态
func (c *CircuitBreakerStore) State() string {
	if c.breaker == nil {
		return "disabled"
	}

	switch c.breaker.State() {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Counts 获取熔断器统计信息
func (c *CircuitBreakerStore) Counts() gobreaker.Counts {
	if c.breaker == nil {
		return gobreaker.Counts{}
	}

	return c.breaker.Counts()
}

// Reset 重置熔断器 (重新创建熔断器实例)
func (c *CircuitBreakerStore) Reset() {
	if c.breaker == nil {
		return
	}

	// gobreaker 没有 Reset 方法，我们重新创建一个实例
	c.breaker = gobreaker.NewCircuitBreaker(c.settings())
	c.logger.Info("Circuit breaker '%s' has been reset (recreated)", c.config.Name)
}

// HealthCheck 执行健康检查
func (c *CircuitBreakerStore) HealthCheck() map[string]any {
	result := map[string]any{
		"circuit_breaker_enabled": c.config.Enabled,
	}

	if c.breaker == nil {
		result["state"] = "disabled"
		result["healthy"] = true
		return result
	}

	state := c.State()
	counts := c.Counts()

	result["state"] = state
	result["requests"] = counts.Requests
	result["total_successes"] = counts.TotalSuccesses
	result["total_failures"] = counts.TotalFailures
	result["consecutive_failures"] = counts.ConsecutiveFailures

	if counts.Requests > 0 {
		result["failure_rate"] = float64(counts.TotalFailures) / float64(counts.Requests)
	} else {
		result["failure_rate"] = 0.0
	}

	healthy := true
	switch state {
	case "open":
		healthy = false
	case "half-open":
		// 半开状态下，如果连续失败次数过多，认为不健康
		if counts.ConsecutiveFailures > 2 {
			healthy = false
		}
	}
	result["healthy"] = healthy

	return result
}
