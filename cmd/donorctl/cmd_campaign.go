package main

import (
	"fmt"

	"donors/internal/core"
	"donors/internal/services"

	"github.com/spf13/cobra"
)

func newCampaignCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "campaign",
		Short: "Create and inspect campaigns",
	}

	var p services.CreateCampaignParams
	var goal string
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Register a campaign",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p.Name = args[0]
			cents, err := core.ParseDecimal(goal)
			if err != nil {
				return fmt.Errorf("--goal %q: %w", goal, err)
			}
			p.Goal = core.FromMinorUnits(cents)
			c, err := a.campaigns.CreateCampaign(cmd.Context(), p)
			if err != nil {
				return err
			}
			return printJSON(cmd, c)
		},
	}
	create.Flags().StringVar(&goal, "goal", "0", "fundraising goal in major units")
	create.Flags().StringVar(&p.StartDate, "start", "", "start date, YYYY-MM-DD")
	create.Flags().StringVar(&p.EndDate, "end", "", "end date, YYYY-MM-DD; empty for an open-ended campaign")
	create.Flags().StringVar(&p.Description, "description", "", "description")
	create.Flags().StringVar(&p.Status, "status", "", "status (default active)")
	_ = create.MarkFlagRequired("start")

	get := &cobra.Command{
		Use:   "get <name>",
		Short: "Show one campaign",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.campaigns.GetCampaign(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, c)
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List campaigns, latest start first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := a.campaigns.ListCampaigns(cmd.Context())
			if err != nil {
				return err
			}
			if items == nil {
				items = []core.Campaign{}
			}
			return printJSON(cmd, items)
		},
	}

	cmd.AddCommand(create, get, list)
	return cmd
}
