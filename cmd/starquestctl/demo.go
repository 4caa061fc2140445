package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mmeshcher/starquest/internal/service"
)

func demoCmd(verbose *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Manage demo family data",
	}

	cmd.AddCommand(demoActionCmd(verbose, "snapshot", "Save a snapshot of the family's demo data",
		func(ctx context.Context, svc *service.Service, familyID uuid.UUID) error {
			return svc.SaveDemoSnapshot(ctx, familyID)
		}))
	cmd.AddCommand(demoActionCmd(verbose, "restore", "Restore the family's demo data from its snapshot",
		func(ctx context.Context, svc *service.Service, familyID uuid.UUID) error {
			return svc.RestoreDemoData(ctx, familyID)
		}))

	return cmd
}

func demoActionCmd(
	verbose *bool,
	use, short string,
	run func(ctx context.Context, svc *service.Service, familyID uuid.UUID) error,
) *cobra.Command {
	var family string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			familyID, err := parseFamily(family)
			if err != nil {
				return err
			}

			svc, logger, err := openService(*verbose)
			if err != nil {
				return err
			}
			defer svc.Close()
			defer logger.Sync()

			if err := run(cmd.Context(), svc, familyID); err != nil {
				return fmt.Errorf("demo %s: %w", use, err)
			}

			logger.Info("demo "+use+" completed", zap.String("familyID", familyID.String()))
			return nil
		},
	}

	cmd.Flags().StringVar(&family, "family", "", "family ID (required)")
	_ = cmd.MarkFlagRequired("family")

	return cmd
}
