package main

import (
	"github.com/spf13/cobra"

	"github.com/kydenul/couponsim"
)

// flagBindings maps config keys to the command line flags that override them
var flagBindings = map[string]string{
	"log.level":          "log-level",
	"redis.addr":         "redis-addr",
	"redis.enabled":      "store",
	"simulation.seed":    "seed",
	"simulation.workers": "workers",
	"output.dir":         "out-dir",
	"output.summary":     "summary",
}

// loadConfig reads the config file and environment, then applies the command's flags on top
func loadConfig(cmd *cobra.Command) (*couponsim.Config, error) {
	cm := couponsim.NewConfigManager()

	path, _ := cmd.Flags().GetString("config")
	cm.SetConfigFile(path)

	v := cm.Viper()
	for key, name := range flagBindings {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, err
		}
	}

	// --redis-addr implies persistence for commands that can opt out of it
	if cmd.Flags().Changed("redis-addr") {
		v.Set("redis.enabled", true)
	}

	return cm.LoadConfig()
}

// openStore connects the circuit-breaker-guarded Redis report store
func openStore(cfg *couponsim.Config, logger couponsim.Logger, monitor *couponsim.PerformanceMonitor) (*couponsim.CircuitBreakerStore, func() error) {
	client := couponsim.NewRedisClientFromConfig(cfg.Redis)

	redisStore := couponsim.NewRedisResultStoreFromConfig(client, cfg.Redis, logger)
	if monitor != nil {
		redisStore.SetMonitor(monitor)
	}
	return couponsim.NewCircuitBreakerStore(redisStore, cfg.CircuitBreaker, logger), client.Close
}
