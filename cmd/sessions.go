package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage chat sessions",
}

var sessionsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every chat session of the tenant",
	RunE:  runSessionsClear,
}

func init() {
	sessionsCmd.AddCommand(sessionsClearCmd)
}

func runSessionsClear(cmd *cobra.Command, args []string) error {
	cfg, log, st, err := bootstrap()
	if err != nil {
		return err
	}
	defer st.Close()

	ctrl, err := newController(cfg, st, log)
	if err != nil {
		return err
	}
	n, err := ctrl.ClearAllSessions(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "cleared %d sessions\n", n)
	return nil
}
