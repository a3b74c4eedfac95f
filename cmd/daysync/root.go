package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	daysync "github.com/Sjoneon/DaySync-Server"
	"github.com/Sjoneon/DaySync-Server/config"
	"github.com/Sjoneon/DaySync-Server/core"
)

// opener builds an Assistant for one command invocation.
type opener func(cmd *cobra.Command) (*daysync.Assistant, error)

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:           "daysync",
		Short:         "DaySync personal schedule assistant",
		Long:          "daysync chats with the DaySync assistant and maintains its users, sessions and stored history.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (YAML)")

	open := func(cmd *cobra.Command) (*daysync.Assistant, error) {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return nil, err
		}
		return daysync.NewFromConfig(cmd.Context(), cfg)
	}

	root.AddCommand(
		newChatCmd(open),
		newUsersCmd(open),
		newSessionsCmd(open),
		newRetentionCmd(open),
		newRoutesCmd(open),
	)
	return root
}

// withAssistant opens an Assistant, runs fn and closes it again.
func withAssistant(cmd *cobra.Command, open opener, fn func(a *daysync.Assistant) error) (err error) {
	a, err := open(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(a)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseSessionArg(s string) (core.SessionID, error) {
	id, err := core.ParseSessionID(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid session id %q", s)
	}
	return id, nil
}
