package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"donors/internal/core"
	"donors/internal/services"

	"github.com/spf13/cobra"
)

func newDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "demo",
		Short:       "Walk through campaigns, donors, donations and reports in a scratch database",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{standaloneAnnotation: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := os.MkdirTemp("", "donorctl-demo-*")
			if err != nil {
				return err
			}
			defer os.RemoveAll(dir)

			a, err := openApp(filepath.Join(dir, "demo.db"))
			if err != nil {
				return err
			}
			defer a.close()
			return runDemo(cmd.Context(), a, cmd.OutOrStdout())
		},
	}
}

func runDemo(ctx context.Context, a *app, out io.Writer) error {
	fmt.Fprintln(out, "\n=== Creating Campaigns ===")
	for _, c := range []services.CreateCampaignParams{
		{Name: "Annual Fund 2025", Goal: core.FromMajor(500_000), StartDate: "2025-01-01", EndDate: "2025-12-31", Description: "General operating support"},
		{Name: "Capital Campaign", Goal: core.FromMajor(2_000_000), StartDate: "2025-03-01", EndDate: "2026-06-30", Description: "New building fund"},
	} {
		if _, err := a.campaigns.CreateCampaign(ctx, c); err != nil {
			return err
		}
	}
	fmt.Fprintln(out, "  Campaigns created")

	fmt.Fprintln(out, "\n=== Adding Donors ===")
	alice, err := a.donors.AddDonor(ctx, services.AddDonorParams{
		Name: "Alice Chen", Email: "alice@donor.com", Phone: "555-1234", Type: core.Individual, AssignedTo: "Sarah",
	})
	if err != nil {
		return err
	}
	corp, err := a.donors.AddDonor(ctx, services.AddDonorParams{
		Name: "Acme Corp", Email: "giving@acme.com", Type: core.Corporate, TaxID: "12-3456789",
	})
	if err != nil {
		return err
	}
	frank, err := a.donors.AddDonor(ctx, services.AddDonorParams{
		Name: "Frank Williams Foundation", Email: "frank@fwf.org", Type: core.Foundation,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "  Added: %s, %s, %s\n", alice.Name, corp.Name, frank.Name)

	fmt.Fprintln(out, "\n=== Recording Donations ===")
	gifts := []services.RecordDonationParams{
		{DonorID: alice.ID, Amount: core.FromMajor(500), Campaign: "Annual Fund 2025", Method: core.CreditCard},
		{DonorID: alice.ID, Amount: core.FromMajor(1_500), Campaign: "Annual Fund 2025", Method: core.Check},
		{DonorID: corp.ID, Amount: core.FromMajor(25_000), Campaign: "Capital Campaign", Method: core.Wire},
		{DonorID: frank.ID, Amount: core.FromMajor(100_000), Campaign: "Capital Campaign", Method: core.Wire, Type: core.Recurring},
	}
	var last core.Donation
	for _, g := range gifts {
		if last, err = a.donations.Record(ctx, g); err != nil {
			return err
		}
	}
	fmt.Fprintln(out, "  Donations recorded")

	fmt.Fprintln(out, "\n=== Tier Check ===")
	for _, id := range []string{alice.ID, frank.ID} {
		d, err := a.donors.GetDonor(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  %s: $%s -> %s\n", d.Name, d.TotalGiven, d.Tier)
	}

	fmt.Fprintln(out, "\n=== Send Receipt ===")
	if _, err := a.donations.SendReceipt(ctx, last.ID); err != nil {
		return err
	}
	fmt.Fprintln(out, "  Receipt sent")

	fmt.Fprintln(out, "\n=== Major Gifts ===")
	major, err := a.reports.MajorGifts(ctx, core.FromMajor(10_000))
	if err != nil {
		return err
	}
	for _, m := range major {
		fmt.Fprintf(out, "  %s: $%.2f (%s)\n", m.Name, m.TotalGiven, m.Tier)
	}

	fmt.Fprintln(out, "\n=== Campaign Summary ===")
	cs, err := a.reports.CampaignSummary(ctx, "Capital Campaign")
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "  Raised: $%.2f / $%.2f (%.1f%%)\n", cs.TotalRaised, cs.Goal, cs.ProgressPct)

	fmt.Fprintln(out, "\n=== LTV ===")
	ltv, err := a.reports.LifetimeValue(ctx, alice.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "  %s: LTV=$%.2f, avg gift=$%.2f\n", ltv.Name, ltv.LTV, ltv.AverageGift)

	fmt.Fprintln(out, "\nDemo complete")
	return nil
}
