package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	daysync "github.com/Sjoneon/DaySync-Server"
	"github.com/Sjoneon/DaySync-Server/core"
)

func newRoutesCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Inspect and prune the route search history",
	}

	var (
		userID string
		limit  int
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List recent routes, optionally for one user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAssistant(cmd, open, func(a *daysync.Assistant) error {
				var (
					routes []core.Route
					err    error
				)
				if userID != "" {
					routes, err = a.UserRoutes(cmd.Context(), core.UserID(userID), limit)
				} else {
					routes, err = a.RecentRoutes(cmd.Context(), limit)
				}
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), routes)
			})
		},
	}
	list.Flags().StringVarP(&userID, "user", "u", "", "only routes of this user")
	list.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of routes")

	var statsUser string
	stats := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the route searches of a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if statsUser == "" {
				return fmt.Errorf("--user is required")
			}
			return withAssistant(cmd, open, func(a *daysync.Assistant) error {
				st, err := a.RouteStats(cmd.Context(), core.UserID(statsUser))
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), st)
			})
		},
	}
	stats.Flags().StringVarP(&statsUser, "user", "u", "", "user id (required)")

	var olderThan time.Duration
	cleanup := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete routes older than the configured age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAssistant(cmd, open, func(a *daysync.Assistant) error {
				n, err := a.CleanupRoutes(cmd.Context(), olderThan)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d routes\n", n)
				return nil
			})
		},
	}
	cleanup.Flags().DurationVar(&olderThan, "older-than", 0, "override retention.route_max_age")

	cmd.AddCommand(list, stats, cleanup)
	return cmd
}
