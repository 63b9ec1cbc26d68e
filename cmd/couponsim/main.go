package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev"

const banner = `Simulates the number of runs required to receive at least one copy
of every item, where each item has its own drop probability.`

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "couponsim",
		Short:         "Monte Carlo estimator for the generalized coupon collector problem",
		Long:          banner,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Config file (default: ./couponsim.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: error, info, debug, trace")
	rootCmd.PersistentFlags().String("redis-addr", "", "Redis address used to persist reports")

	rootCmd.AddCommand(
		newRunCmd(),
		newShowCmd(),
		newListCmd(),
		newDeleteCmd(),
	)
	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
