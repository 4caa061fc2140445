package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func settleCmd(verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "settle",
		Short: "Run the monthly interest settlement now",
		Long: `Apply monthly interest to every child with outstanding debt.

The database function is idempotent within a calendar month, so running it twice is safe.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, logger, err := openService(*verbose)
			if err != nil {
				return err
			}
			defer svc.Close()
			defer logger.Sync()

			if err := svc.RunMonthlySettlement(cmd.Context()); err != nil {
				return fmt.Errorf("run settlement: %w", err)
			}

			logger.Info("monthly settlement completed")
			return nil
		},
	}
}
