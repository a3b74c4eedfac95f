package main

import (
	"fmt"

	"github.com/spf13/cobra"

	daysync "github.com/Sjoneon/DaySync-Server"
	"github.com/Sjoneon/DaySync-Server/core"
)

func newUsersCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage users",
	}
	cmd.AddCommand(
		newUsersCreateCmd(open),
		newUsersShowCmd(open),
		newUsersUpdateCmd(open),
		newUsersDeleteCmd(open),
		newUsersStatsCmd(open),
		newUsersCleanupCmd(open),
	)
	return cmd
}

func newUsersCreateCmd(open opener) *cobra.Command {
	var (
		nickname string
		prepTime int
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAssistant(cmd, open, func(a *daysync.Assistant) error {
				u, err := a.CreateUser(cmd.Context(), nickname, prepTime)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), u)
			})
		},
	}
	cmd.Flags().StringVar(&nickname, "nickname", "", "display name")
	cmd.Flags().IntVar(&prepTime, "prep-time", 0, "preparation time in seconds")
	return cmd
}

func newUsersShowCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "show <user-id>",
		Short: "Show a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAssistant(cmd, open, func(a *daysync.Assistant) error {
				u, err := a.GetUser(cmd.Context(), core.UserID(args[0]))
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), u)
			})
		},
	}
}

func newUsersUpdateCmd(open opener) *cobra.Command {
	var (
		nickname string
		prepTime int
	)
	cmd := &cobra.Command{
		Use:   "update <user-id>",
		Short: "Update a user's nickname or preparation time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch core.UserPatch
			if cmd.Flags().Changed("nickname") {
				patch.Nickname = &nickname
			}
			if cmd.Flags().Changed("prep-time") {
				patch.PrepTime = &prepTime
			}
			if patch.Empty() {
				return fmt.Errorf("nothing to update: pass --nickname or --prep-time")
			}
			return withAssistant(cmd, open, func(a *daysync.Assistant) error {
				u, err := a.UpdateUser(cmd.Context(), core.UserID(args[0]), patch)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), u)
			})
		},
	}
	cmd.Flags().StringVar(&nickname, "nickname", "", "new display name")
	cmd.Flags().IntVar(&prepTime, "prep-time", 0, "new preparation time in seconds")
	return cmd
}

func newUsersDeleteCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <user-id>",
		Short: "Soft-delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAssistant(cmd, open, func(a *daysync.Assistant) error {
				if err := a.DeleteUser(cmd.Context(), core.UserID(args[0])); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted user %s\n", args[0])
				return nil
			})
		},
	}
}

func newUsersStatsCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <user-id>",
		Short: "Show session and message totals of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAssistant(cmd, open, func(a *daysync.Assistant) error {
				stats, err := a.UserStats(cmd.Context(), core.UserID(args[0]))
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), stats)
			})
		},
	}
}

func newUsersCleanupCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Soft-delete users inactive for longer than the configured age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAssistant(cmd, open, func(a *daysync.Assistant) error {
				n, err := a.CleanupInactiveUsers(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d inactive users\n", n)
				return nil
			})
		},
	}
}
