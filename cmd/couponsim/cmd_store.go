package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kydenul/couponsim"
)

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a persisted report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := storeFromFlags(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			report, err := store.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if asCSV, _ := cmd.Flags().GetBool("csv"); asCSV {
				return couponsim.WriteCSV(cmd.OutOrStdout(), report.Histogram())
			}
			return couponsim.WriteSummaryYAML(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().Bool("csv", false, "Print the histogram in the results file format instead of the summary")
	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List persisted reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := storeFromFlags(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			ids, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No reports stored.")
				return nil
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a persisted report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := storeFromFlags(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted report %s\n", args[0])
			return nil
		},
	}
}

// storeFromFlags opens the report store; show, list and delete always go to Redis
func storeFromFlags(cmd *cobra.Command) (couponsim.ResultStore, func() error, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	logger := couponsim.NewSlogLogger(cfg.Log.Level, cmd.ErrOrStderr())
	store, closeStore := openStore(cfg, logger, nil)
	return store, closeStore, nil
}
