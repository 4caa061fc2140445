package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mmeshcher/starquest/internal/credit"
	"github.com/mmeshcher/starquest/internal/model"
)

func tiersCmd(verbose *bool) *cobra.Command {
	var family string

	cmd := &cobra.Command{
		Use:   "tiers",
		Short: "Print the interest tier table",
		Long: `Print the interest tier table of a family.

Without --family the default table is printed and no database connection is made.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if family == "" {
				return printTiers(cmd.OutOrStdout(), credit.DefaultTiers())
			}

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

			tiers, err := svc.GetInterestTiers(cmd.Context(), familyID)
			if err != nil {
				return fmt.Errorf("get interest tiers: %w", err)
			}
			return printTiers(cmd.OutOrStdout(), tiers)
		},
	}

	cmd.Flags().StringVar(&family, "family", "", "family ID")

	return cmd
}

func printTiers(out io.Writer, tiers []model.CreditInterestTier) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	if _, err := fmt.Fprintln(w, "TIER\tDEBT\tRATE"); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, t := range tiers {
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\n",
			t.TierOrder, credit.FormatDebtRange(t.MinDebt, t.MaxDebt), credit.FormatInterestRate(t.InterestRate)); err != nil {
			return fmt.Errorf("write tier: %w", err)
		}
	}

	return w.Flush()
}
