package couponsim

import (
	"sync"
	"sync/atomic"
	"time"
)

// PerformanceMetrics 性能指标收集器
type PerformanceMetrics struct {
	// 试验统计
	TotalTrials     int64 `json:"total_trials"`     // 总试验次数
	CompletedTrials int64 `json:"completed_trials"` // 集齐的试验次数
	CappedTrials    int64 `json:"capped_trials"`    // 达到抽取上限的试验次数

	// 抽取统计
	TotalDraws int64 `json:"total_draws"` // 总抽取次数
	MissDraws  int64 `json:"miss_draws"`  // 未命中任何物品的抽取次数

	// 批次统计
	Batches          int64 `json:"batches"`            // 完成的批次数
	FailedBatches    int64 `json:"failed_batches"`     // 失败或中断的批次数
	TotalBatchTime   int64 `json:"total_batch_time"`   // 批次总时间(纳秒)
	AverageBatchTime int64 `json:"average_batch_time"` // 平均批次时间(纳秒)

	// 存储统计
	StoreErrors int64 `json:"store_errors"` // 结果存储错误数

	// 时间戳
	StartTime      int64 `json:"start_time"`       // 开始时间
	LastUpdateTime int64 `json:"last_update_time"` // 最后更新时间
}

// GetCompletionRate 获取集齐率
func (pm *PerformanceMetrics) GetCompletionRate() float64 {
	total := atomic.LoadInt64(&pm.TotalTrials)
	if total == 0 {
		return 0.0
	}
	completed := atomic.LoadInt64(&pm.CompletedTrials)
	return float64(completed) / float64(total) * 100.0
}

// GetAverageDrawsPerTrial 获取平均每次试验的抽取次数
func (pm *PerformanceMetrics) GetAverageDrawsPerTrial() float64 {
	total := atomic.LoadInt64(&pm.TotalTrials)
	if total == 0 {
		return 0.0
	}
	return float64(atomic.LoadInt64(&pm.TotalDraws)) / float64(total)
}

// GetThroughput 获取吞吐量(每秒试验数)
func (pm *PerformanceMetrics) GetThroughput() float64 {
	batchTime := atomic.LoadInt64(&pm.TotalBatchTime)
	if batchTime <= 0 {
		return 0.0
	}
	totalTrials := atomic.LoadInt64(&pm.TotalTrials)
	return float64(totalTrials) / time.Duration(batchTime).Seconds()
}

// Reset 重置性能指标
func (pm *PerformanceMetrics) Reset() {
	atomic.StoreInt64(&pm.TotalTrials, 0)
	atomic.StoreInt64(&pm.CompletedTrials, 0)
	atomic.StoreInt64(&pm.CappedTrials, 0)
	atomic.StoreInt64(&pm.TotalDraws, 0)
	atomic.StoreInt64(&pm.MissDraws, 0)
	atomic.StoreInt64(&pm.Batches, 0)
	atomic.StoreInt64(&pm.FailedBatches, 0)
	atomic.StoreInt64(&pm.TotalBatchTime, 0)
	atomic.StoreInt64(&pm.AverageBatchTime, 0)
	atomic.StoreInt64(&pm.StoreErrors, 0)
	atomic.StoreInt64(&pm.StartTime, time.Now().UnixNano())
	atomic.StoreInt64(&pm.LastUpdateTime, time.Now().UnixNano())
}

// ================================================================================

// PerformanceMonitor 性能监控器
type PerformanceMonitor struct {
	metrics *PerformanceMetrics
	mu      sync.RWMutex
	enabled bool
}

// NewPerformanceMonitor 创建新的性能监控器
func NewPerformanceMonitor() *PerformanceMonitor {
	pm := &PerformanceMonitor{
		metrics: &PerformanceMetrics{},
		enabled: true,
	}
	pm.metrics.Reset()
	return pm
}

// Enable 启用性能监控
func (pm *PerformanceMonitor) Enable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.enabled = true
}

// Disable 禁用性能监控
func (pm *PerformanceMonitor) Disable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.enabled = false
}

// IsEnabled 检查是否启用了性能监控
func (pm *PerformanceMonitor) IsEnabled() bool {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	return pm.enabled
}

// RecordTrials 记录一组试验结果
func (pm *PerformanceMonitor) RecordTrials(completed, capped, draws, misses int64) {
	if !pm.IsEnabled() {
		return
	}

	atomic.AddInt64(&pm.metrics.TotalTrials, completed+capped)
	atomic.AddInt64(&pm.metrics.CompletedTrials, completed)
	atomic.AddInt64(&pm.metrics.CappedTrials, capped)
	atomic.AddInt64(&pm.metrics.TotalDraws, draws)
	atomic.AddInt64(&pm.metrics.MissDraws, misses)

	atomic.StoreInt64(&pm.metrics.LastUpdateTime, time.Now().UnixNano())
}

// RecordBatch 记录批次
func (pm *PerformanceMonitor) RecordBatch(success bool, duration time.Duration) {
	if !pm.IsEnabled() {
		return
	}

	if !success {
		atomic.AddInt64(&pm.metrics.FailedBatches, 1)
	}

	batches := atomic.AddInt64(&pm.metrics.Batches, 1)
	totalTime := atomic.AddInt64(&pm.metrics.TotalBatchTime, int64(duration))
	atomic.StoreInt64(&pm.metrics.AverageBatchTime, totalTime/batches)

	atomic.StoreInt64(&pm.metrics.LastUpdateTime, time.Now().UnixNano())
}

// RecordStoreError 记录存储错误
func (pm *PerformanceMonitor) RecordStoreError() {
	if !pm.IsEnabled() {
		return
	}

	atomic.AddInt64(&pm.metrics.StoreErrors, 1)
	atomic.StoreInt64(&pm.metrics.LastUpdateTime, time.Now().UnixNano())
}

// GetMetrics 获取性能指标的副本
func (pm *PerformanceMonitor) GetMetrics() PerformanceMetrics {
	return PerformanceMetrics{
		TotalTrials:      atomic.LoadInt64(&pm.metrics.TotalTrials),
		CompletedTrials:  atomic.LoadInt64(&pm.metrics.CompletedTrials),
		CappedTrials:     atomic.LoadInt64(&pm.metrics.CappedTrials),
		TotalDraws:       atomic.LoadInt64(&pm.metrics.TotalDraws),
		MissDraws:        atomic.LoadInt64(&pm.metrics.MissDraws),
		Batches:          atomic.LoadInt64(&pm.metrics.Batches),
		FailedBatches:    atomic.LoadInt64(&pm.metrics.FailedBatches),
		TotalBatchTime:   atomic.LoadInt64(&pm.metrics.TotalBatchTime),
		AverageBatchTime: atomic.LoadInt64(&pm.metrics.AverageBatchTime),
		StoreErrors:      atomic.LoadInt64(&pm.metrics.StoreErrors),
		StartTime:        atomic.LoadInt64(&pm.metrics.StartTime),
		LastUpdateTime:   atomic.LoadInt64(&pm.metrics.LastUpdateTime),
	}
}

// ResetMetrics 重置性能指标
func (pm *PerformanceMonitor) ResetMetrics() { pm.metrics.Reset() }
