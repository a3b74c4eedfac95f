package main

import (
	"fmt"

	"github.com/spf13/cobra"

	daysync "github.com/Sjoneon/DaySync-Server"
)

func newRetentionCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retention",
		Short: "Apply history retention limits",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "sweep",
		Short: "Expire old sessions and cap session counts for every user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAssistant(cmd, open, func(a *daysync.Assistant) error {
				reports, err := a.SweepRetention(cmd.Context())
				if err != nil {
					return err
				}
				var expired, capped int
				for _, r := range reports {
					expired += r.SessionsExpired
					capped += r.SessionsCapped
				}
				fmt.Fprintf(cmd.OutOrStdout(), "swept %d users: %d sessions expired, %d over the cap removed\n",
					len(reports), expired, capped)
				return nil
			})
		},
	})
	return cmd
}
