package main

import (
	"donors/internal/core"
	"donors/internal/services"

	"github.com/spf13/cobra"
)

func newDonorCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "donor",
		Short: "Add, inspect and list donors",
	}

	var p services.AddDonorParams
	var donorType string
	add := &cobra.Command{
		Use:   "add",
		Short: "Register a donor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p.Type = core.DonorType(donorType)
			d, err := a.donors.AddDonor(cmd.Context(), p)
			if err != nil {
				return err
			}
			return printJSON(cmd, d)
		},
	}
	add.Flags().StringVar(&p.Name, "name", "", "donor name")
	add.Flags().StringVar(&p.Email, "email", "", "unique email address")
	add.Flags().StringVar(&p.Phone, "phone", "", "phone number")
	add.Flags().StringVar(&donorType, "type", string(core.Individual), "individual, corporate or foundation")
	add.Flags().StringVar(&p.Notes, "notes", "", "free-form notes")
	add.Flags().StringVar(&p.AssignedTo, "assigned-to", "", "relationship manager")
	add.Flags().StringVar(&p.Address, "address", "", "postal address")
	add.Flags().StringVar(&p.TaxID, "tax-id", "", "tax identifier")
	_ = add.MarkFlagRequired("name")
	_ = add.MarkFlagRequired("email")

	var byEmail bool
	get := &cobra.Command{
		Use:   "get <id|email>",
		Short: "Show one donor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				d   core.Donor
				err error
			)
			if byEmail {
				d, err = a.donors.GetDonorByEmail(cmd.Context(), args[0])
			} else {
				d, err = a.donors.GetDonor(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			return printJSON(cmd, d)
		},
	}
	get.Flags().BoolVar(&byEmail, "email", false, "look the donor up by email")

	var f struct{ tier, donorType, assignedTo string }
	list := &cobra.Command{
		Use:   "list",
		Short: "List donors, optionally filtered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			donors, err := a.donors.ListDonors(cmd.Context(), core.DonorFilter{
				Tier:       core.Tier(f.tier),
				Type:       core.DonorType(f.donorType),
				AssignedTo: f.assignedTo,
			})
			if err != nil {
				return err
			}
			if donors == nil {
				donors = []core.Donor{}
			}
			return printJSON(cmd, donors)
		},
	}
	list.Flags().StringVar(&f.tier, "tier", "", "bronze, silver, gold or platinum")
	list.Flags().StringVar(&f.donorType, "type", "", "individual, corporate or foundation")
	list.Flags().StringVar(&f.assignedTo, "assigned-to", "", "relationship manager")

	tier := &cobra.Command{
		Use:   "tier <id>",
		Short: "Recompute a donor's tier from their total",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.donations.RecalculateTier(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, d)
		},
	}

	cmd.AddCommand(add, get, list, tier)
	return cmd
}
