package main

import (
	"bufio"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	daysync "github.com/Sjoneon/DaySync-Server"
	"github.com/Sjoneon/DaySync-Server/core"
	"github.com/Sjoneon/DaySync-Server/engine"
)

func newChatCmd(open opener) *cobra.Command {
	var (
		userID    string
		sessionID int64
	)
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation",
		Long:  "Reads one message per line and prints the assistant's reply. Type /quit or press Ctrl-D to leave.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAssistant(cmd, open, func(a *daysync.Assistant) error {
				var sid *core.SessionID
				if sessionID > 0 {
					id := core.SessionID(sessionID)
					sid = &id
				}
				return runChat(cmd, a, core.UserID(userID), sid)
			})
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "user id (required)")
	cmd.Flags().Int64VarP(&sessionID, "session", "s", 0, "continue an existing session")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func runChat(cmd *cobra.Command, a *daysync.Assistant, userID core.UserID, sid *core.SessionID) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if _, err := a.GetUser(ctx, userID); err != nil {
		return err
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		}

		res, err := a.Chat(ctx, engine.TurnRequest{UserID: userID, Message: line, SessionID: sid})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(out, "! %v\n", err)
			continue
		}
		id := res.SessionID
		sid = &id

		fmt.Fprintln(out, res.Text)
		if res.Pending != nil {
			fmt.Fprintf(out, "  [pending %s]%s\n", res.Pending.Kind, formatFields(res.Pending.Fields))
		}
	}
}

func formatFields(fields map[string]string) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%s", k, fields[k])
	}
	return b.String()
}
