package couponsim

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-redis/redis/v8"
	"github.com/spf13/viper"
)

// Config 配置结构
type Config struct {
	// 模拟配置
	Simulation *SimulationConfig `mapstructure:"simulation"`

	// 输出配置
	Output *OutputConfig `mapstructure:"output"`

	// Redis 配置
	Redis *RedisConfig `mapstructure:"redis"`

	// 熔断器配置
	CircuitBreaker *CircuitBreakerConfig `mapstructure:"circuit_breaker"`

	// 日志配置
	Log *LogConfig `mapstructure:"log"`
}

// Validate validates every section of the configuration
func (c *Config) Validate() error {
	if c.Simulation == nil || c.Output == nil || c.Redis == nil || c.CircuitBreaker == nil || c.Log == nil {
		return ErrConfigInvalid.WithDetails("missing configuration section")
	}

	if err := c.Simulation.Validate(); err != nil {
		return err
	}

	if c.Output.FilePrefix == "" && c.Output.TimestampFormat == "" {
		return ErrConfigInvalid.WithDetails("output file name cannot be empty")
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			return ErrConfigInvalid.WithDetails("redis address is required")
		}
		if c.Redis.PoolSize <= 0 {
			return ErrConfigInvalid.WithDetails("redis pool size must be positive")
		}
	}
	if c.Redis.RetryAttempts < 0 || c.Redis.RetryAttempts > MaxRetryAttempts {
		return ErrInvalidRetryAttempts
	}
	if c.Redis.RetryInterval < 0 {
		return ErrInvalidRetryInterval
	}

	if c.CircuitBreaker.FailureRatio < 0 || c.CircuitBreaker.FailureRatio > 1 {
		return ErrConfigInvalid.WithDetails("circuit breaker failure ratio must be between 0 and 1")
	}

	switch strings.ToLower(c.Log.Level) {
	case "error", "info", "debug", "trace", "":
	default:
		return ErrConfigInvalid.WithDetails("invalid log level: " + c.Log.Level)
	}

	return nil
}

// SimulationConfig 模拟配置
type SimulationConfig struct {
	Trials        int       `mapstructure:"trials"`
	MaxRuns       int       `mapstructure:"max_runs"`
	Probabilities []float64 `mapstructure:"probabilities"`
	Workers       int       `mapstructure:"workers"`
	Seed          uint64    `mapstructure:"seed"`
	ProgressSteps int       `mapstructure:"progress_steps"`
}

// Validate validates the simulation parameters.
// An empty probability list is accepted here; it is usually supplied on the command line.
func (c *SimulationConfig) Validate() error {
	if c.Trials <= 0 {
		return ErrInvalidTrialCount
	}
	if c.MaxRuns <= 0 {
		return ErrInvalidMaxRuns
	}
	if c.Workers < 0 || c.Workers > MaxWorkers {
		return ErrInvalidWorkers
	}
	if len(c.Probabilities) > 0 {
		if err := ValidateProbabilities(c.Probabilities); err != nil {
			return err
		}
	}
	return nil
}

// DefaultSimulationConfig 返回默认模拟配置
func DefaultSimulationConfig() *SimulationConfig {
	return &SimulationConfig{
		Trials:        DefaultTrials,
		MaxRuns:       DefaultMaxRuns,
		ProgressSteps: DefaultProgressSteps,
	}
}

// OutputConfig 输出配置
type OutputConfig struct {
	Dir             string `mapstructure:"dir"`
	FilePrefix      string `mapstructure:"file_prefix"`
	TimestampFormat string `mapstructure:"timestamp_format"`
	Summary         bool   `mapstructure:"summary"`
}

// DefaultOutputConfig 返回默认输出配置
func DefaultOutputConfig() *OutputConfig {
	return &OutputConfig{
		Dir:             DefaultOutputDir,
		FilePrefix:      DefaultFilePrefix,
		TimestampFormat: DefaultTimestampFormat,
	}
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// 连接配置
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// 连接池配置
	PoolSize     int `mapstructure:"pool_size"`
	MinIdleConns int `mapstructure:"min_idle_conns"`
	MaxRetries   int `mapstructure:"max_retries"`

	// 超时配置
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PoolTimeout  time.Duration `mapstructure:"pool_timeout"`

	// 结果存储配置
	ResultTTL     time.Duration `mapstructure:"result_ttl"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryInterval time.Duration `mapstructure:"retry_interval"`
}

// CircuitBreakerConfig 熔断器配置
type CircuitBreakerConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Name          string        `mapstructure:"name"`
	MaxRequests   uint32        `mapstructure:"max_requests"`
	Interval      time.Duration `mapstructure:"interval"`
	Timeout       time.Duration `mapstructure:"timeout"`
	FailureRatio  float64       `mapstructure:"failure_ratio"`
	MinRequests   uint32        `mapstructure:"min_requests"`
	OnStateChange bool          `mapstructure:"on_state_change"`
}

// DefaultCircuitBreakerConfig 返回默认熔断器配置
func DefaultCircuitBreakerConfig() *CircuitBreakerConfig {
	return &CircuitBreakerConfig{
		Enabled:       true,
		Name:          DefaultCircuitBreakerName,
		MaxRequests:   DefaultCircuitBreakerMaxRequests,
		Interval:      DefaultCircuitBreakerInterval,
		Timeout:       DefaultCircuitBreakerTimeout,
		FailureRatio:  DefaultCircuitBreakerFailureRatio,
		MinRequests:   DefaultCircuitBreakerMinRequests,
		OnStateChange: DefaultCircuitBreakerOnStateChange,
	}
}

// DefaultRedisConfig 返回默认的Redis配置
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:          DefaultRedisAddr,
		Password:      DefaultRedisPassword,
		DB:            DefaultRedisDB,
		PoolSize:      DefaultRedisPoolSize,
		MinIdleConns:  DefaultRedisMinIdleConns,
		MaxRetries:    DefaultRedisMaxRetries,
		DialTimeout:   DefaultRedisDialTimeout,
		ReadTimeout:   DefaultRedisReadTimeout,
		WriteTimeout:  DefaultRedisWriteTimeout,
		PoolTimeout:   DefaultRedisPoolTimeout,
		ResultTTL:     DefaultResultTTL,
		RetryAttempts: DefaultRetryAttempts,
		RetryInterval: DefaultRetryInterval,
	}
}

// DefaultConfig 返回完整的默认配置
func DefaultConfig() *Config {
	return &Config{
		Simulation:     DefaultSimulationConfig(),
		Output:         DefaultOutputConfig(),
		Redis:          DefaultRedisConfig(),
		CircuitBreaker: DefaultCircuitBreakerConfig(),
		Log:            &LogConfig{Level: "info"},
	}
}

// NewRedisClientFromConfig 从配置创建Redis客户端
func NewRedisClientFromConfig(config *RedisConfig) *redis.Client {
	if config == nil {
		config = DefaultRedisConfig()
	}

	return redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		MaxRetries:   config.MaxRetries,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		PoolTimeout:  config.PoolTimeout,
	})
}

// ConfigManager 配置管理器
type ConfigManager struct {
	viper  *viper.Viper
	config *Config
}

// NewConfigManager 创建配置管理器
func NewConfigManager() *ConfigManager {
	v := viper.New()

	// 设置配置文件名和路径
	v.SetConfigName("couponsim")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/couponsim")
	v.AddConfigPath("$HOME/.couponsim")

	// 设置环境变量前缀
	v.SetEnvPrefix("COUPONSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cm := &ConfigManager{viper: v}
	cm.setDefaults()
	return cm
}

// Viper exposes the underlying viper instance, e.g. for binding command line flags
func (cm *ConfigManager) Viper() *viper.Viper { return cm.viper }

// SetConfigFile uses an explicit config file instead of the search paths
func (cm *ConfigManager) SetConfigFile(path string) {
	if path != "" {
		cm.viper.SetConfigFile(path)
	}
}

// LoadConfig 加载配置
func (cm *ConfigManager) LoadConfig() (*Config, error) {
	// 读取配置文件
	if err := cm.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// 配置文件不存在时使用默认配置
	}

	config, err := cm.decode()
	if err != nil {
		return nil, err
	}

	cm.config = config
	return config, nil
}

func (cm *ConfigManager) decode() (*Config, error) {
	config := DefaultConfig()
	if err := cm.viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return config, nil
}

// setDefaults 设置默认配置值
func (cm *ConfigManager) setDefaults() {
	// 模拟默认配置
	cm.viper.SetDefault("simulation.trials", DefaultTrials)
	cm.viper.SetDefault("simulation.max_runs", DefaultMaxRuns)
	cm.viper.SetDefault("simulation.workers", 0)
	cm.viper.SetDefault("simulation.seed", 0)
	cm.viper.SetDefault("simulation.progress_steps", DefaultProgressSteps)

	// 输出默认配置
	cm.viper.SetDefault("output.dir", DefaultOutputDir)
	cm.viper.SetDefault("output.file_prefix", DefaultFilePrefix)
	cm.viper.SetDefault("output.timestamp_format", DefaultTimestampFormat)
	cm.viper.SetDefault("output.summary", false)

	// 日志默认配置
	cm.viper.SetDefault("log.level", "info")

	// Redis 默认配置
	cm.viper.SetDefault("redis.enabled", false)
	cm.viper.SetDefault("redis.addr", DefaultRedisAddr)
	cm.viper.SetDefault("redis.password", DefaultRedisPassword)
	cm.viper.SetDefault("redis.db", DefaultRedisDB)
	cm.viper.SetDefault("redis.pool_size", DefaultRedisPoolSize)
	cm.viper.SetDefault("redis.min_idle_conns", DefaultRedisMinIdleConns)
	cm.viper.SetDefault("redis.max_retries", DefaultRedisMaxRetries)
	cm.viper.SetDefault("redis.dial_timeout", "5s")
	cm.viper.SetDefault("redis.read_timeout", "3s")
	cm.viper.SetDefault("redis.write_timeout", "3s")
	cm.viper.SetDefault("redis.pool_timeout", "4s")
	cm.viper.SetDefault("redis.result_ttl", "168h")
	cm.viper.SetDefault("redis.retry_attempts", DefaultRetryAttempts)
	cm.viper.SetDefault("redis.retry_interval", "100ms")

	// 熔断器默认配置
	cm.viper.SetDefault("circuit_breaker.enabled", true)
	cm.viper.SetDefault("circuit_breaker.name", DefaultCircuitBreakerName)
	cm.viper.SetDefault("circuit_breaker.max_requests", DefaultCircuitBreakerMaxRequests)
	cm.viper.SetDefault("circuit_breaker.interval", "60s")
	cm.viper.SetDefault("circuit_breaker.timeout", "30s")
	cm.viper.SetDefault("circuit_breaker.failure_ratio", DefaultCircuitBreakerFailureRatio)
	cm.viper.SetDefault("circuit_breaker.min_requests", DefaultCircuitBreakerMinRequests)
	cm.viper.SetDefault("circuit_breaker.on_state_change", true)
}

// WatchConfig 监听配置变化
//
// Invalid updates are reported through onError and the previous configuration is kept.
func (cm *ConfigManager) WatchConfig(callback func(*Config), onError func(error)) {
	cm.viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}

		config, err := cm.decode()
		if err != nil {
			if onError != nil {
				onError(fmt.Errorf("reload %s: %w", e.Name, err))
			}
			return
		}

		cm.config = config
		if callback != nil {
			callback(config)
		}
	})
	cm.viper.WatchConfig()
}

// GetConfig 获取当前配置
func (cm *ConfigManager) GetConfig() *Config { return cm.config }

// ReloadConfig 重新加载配置
func (cm *ConfigManager) ReloadConfig() (*Config, error) { return cm.LoadConfig() }
