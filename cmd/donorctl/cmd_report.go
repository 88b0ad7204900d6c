package main

import (
	"fmt"
	"time"

	"donors/internal/core"

	"github.com/spf13/cobra"
)

func newReportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Fundraising reports",
	}

	ltv := &cobra.Command{
		Use:   "ltv <donor-id>",
		Short: "Lifetime value of one donor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.reports.LifetimeValue(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, r)
		},
	}

	var threshold string
	major := &cobra.Command{
		Use:   "major-gifts",
		Short: "Donors whose total reaches the threshold",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cents, err := core.ParseDecimal(threshold)
			if err != nil {
				return fmt.Errorf("--threshold %q: %w", threshold, err)
			}
			gifts, err := a.reports.MajorGifts(cmd.Context(), core.FromMinorUnits(cents))
			if err != nil {
				return err
			}
			if gifts == nil {
				gifts = []core.MajorGift{}
			}
			return printJSON(cmd, gifts)
		},
	}
	major.Flags().StringVar(&threshold, "threshold", "10000", "minimum total in major units")

	campaign := &cobra.Command{
		Use:   "campaign <name>",
		Short: "Progress of one campaign",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.reports.CampaignSummary(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, r)
		},
	}

	var asOf string
	retention := &cobra.Command{
		Use:   "retention",
		Short: "Donor retention against the prior year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := time.Now()
			if asOf != "" {
				t, err := time.Parse(core.DateLayout, asOf)
				if err != nil {
					return fmt.Errorf("--as-of %q: %w", asOf, core.ErrInvalidDate)
				}
				now = t
			}
			r, err := a.reports.Retention(cmd.Context(), now)
			if err != nil {
				return err
			}
			return printJSON(cmd, r)
		},
	}
	retention.Flags().StringVar(&asOf, "as-of", "", "report date, YYYY-MM-DD (default today)")

	tiers := &cobra.Command{
		Use:   "tiers",
		Short: "Donor count and total per tier",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := a.reports.TierSummary(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, r)
		},
	}

	cmd.AddCommand(ltv, major, campaign, retention, tiers)
	return cmd
}
