package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	daysync "github.com/Sjoneon/DaySync-Server"
	"github.com/Sjoneon/DaySync-Server/core"
)

func newSessionsCmd(open opener) *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect and manage conversation sessions",
	}
	cmd.PersistentFlags().StringVarP(&userID, "user", "u", "", "owning user id (required)")
	_ = cmd.MarkPersistentFlagRequired("user")

	owner := func() core.UserID { return core.UserID(userID) }

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List recent sessions",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withAssistant(cmd, open, func(a *daysync.Assistant) error {
					sessions, err := a.ListSessions(cmd.Context(), owner())
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), sessions)
				})
			},
		},
		&cobra.Command{
			Use:   "messages <session-id>",
			Short: "Print the messages of a session",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				sid, err := parseSessionArg(args[0])
				if err != nil {
					return err
				}
				return withAssistant(cmd, open, func(a *daysync.Assistant) error {
					msgs, err := a.ListMessages(cmd.Context(), owner(), sid)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), msgs)
				})
			},
		},
		&cobra.Command{
			Use:   "rename <session-id> <title>",
			Short: "Rename a session",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				sid, err := parseSessionArg(args[0])
				if err != nil {
					return err
				}
				title := strings.Join(args[1:], " ")
				return withAssistant(cmd, open, func(a *daysync.Assistant) error {
					sess, err := a.RenameSession(cmd.Context(), owner(), sid, title)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), sess)
				})
			},
		},
		&cobra.Command{
			Use:   "delete <session-id>",
			Short: "Delete a session and its messages",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				sid, err := parseSessionArg(args[0])
				if err != nil {
					return err
				}
				return withAssistant(cmd, open, func(a *daysync.Assistant) error {
					if err := a.DeleteSession(cmd.Context(), owner(), sid); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "deleted session %d\n", sid)
					return nil
				})
			},
		},
	)
	return cmd
}
