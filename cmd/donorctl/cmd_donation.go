package main

import (
	"fmt"
	"time"

	"donors/internal/core"
	"donors/internal/services"

	"github.com/spf13/cobra"
)

func newDonationCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "donation",
		Short: "Record and manage donations",
	}

	var (
		p          services.RecordDonationParams
		amount     string
		kind       string
		method     string
		receivedAt string
	)
	record := &cobra.Command{
		Use:   "record",
		Short: "Record a donation and update the donor's totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := parseAmount("amount", amount)
			if err != nil {
				return err
			}
			p.Amount = m
			p.Type = core.DonationType(kind)
			p.Method = core.PaymentMethod(method)
			if p.Method == core.Gateway {
				return fmt.Errorf("--method gateway is reserved for gateway charges: %w", core.ErrInvalidMethod)
			}
			if receivedAt != "" {
				t, err := time.Parse(core.DateLayout, receivedAt)
				if err != nil {
					return fmt.Errorf("--received-at %q: %w", receivedAt, core.ErrInvalidDate)
				}
				p.ReceivedAt = &t
			}
			d, err := a.donations.Record(cmd.Context(), p)
			if err != nil {
				return err
			}
			return printJSON(cmd, d)
		},
	}
	record.Flags().StringVar(&p.DonorID, "donor", "", "donor id")
	record.Flags().StringVar(&amount, "amount", "", "amount in major units, e.g. 250.00")
	record.Flags().StringVar(&p.Campaign, "campaign", "", "campaign name")
	record.Flags().StringVar(&kind, "type", string(core.OneTime), "one_time or recurring")
	record.Flags().StringVar(&method, "method", string(core.CreditCard), "credit_card, check, wire, crypto, cash or stock")
	record.Flags().StringVar(&p.Notes, "notes", "", "free-form notes")
	record.Flags().StringVar(&p.ReferenceNumber, "reference", "", "check or wire reference")
	record.Flags().StringVar(&receivedAt, "received-at", "", "date received, YYYY-MM-DD (default now)")
	_ = record.MarkFlagRequired("donor")
	_ = record.MarkFlagRequired("amount")
	_ = record.MarkFlagRequired("campaign")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one donation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.donations.GetDonation(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, d)
		},
	}

	var f core.DonationFilter
	list := &cobra.Command{
		Use:   "list",
		Short: "List donations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := a.donations.ListDonations(cmd.Context(), f)
			if err != nil {
				return err
			}
			if items == nil {
				items = []core.Donation{}
			}
			return printJSON(cmd, items)
		},
	}
	list.Flags().StringVar(&f.DonorID, "donor", "", "only this donor")
	list.Flags().StringVar(&f.Campaign, "campaign", "", "only this campaign")

	ack := &cobra.Command{
		Use:   "ack <id>",
		Short: "Mark a donation acknowledged",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.donations.Acknowledge(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, d)
		},
	}

	receipt := &cobra.Command{
		Use:   "receipt <id>",
		Short: "Mark the tax receipt sent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.donations.SendReceipt(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, d)
		},
	}

	cmd.AddCommand(record, get, list, ack, receipt)
	return cmd
}
