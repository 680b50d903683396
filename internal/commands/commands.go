// Package commands is the habitcal command line.
package commands

import (
	"github.com/spf13/cobra"
)

// New returns the root command. Without a subcommand it opens the UI.
func New() *cobra.Command {
	ro := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "habitcal",
		Short: "A habit calendar for the terminal.",
		Long: `habitcal tracks daily habits on a month calendar.

Run without arguments for the terminal UI, or use the sub-commands to
script check-ins.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return ro.Load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUI(cmd.Context(), ro)
		},
	}

	AddRootArgs(cmd, ro)
	AddCommands(cmd, ro)
	return cmd
}

// AddCommands registers every subcommand.
func AddCommands(topLevel *cobra.Command, ro *RootOptions) {
	addUI(topLevel, ro)
	addMonth(topLevel, ro)
	addHabit(topLevel, ro)
	addCheck(topLevel, ro)
	addProgress(topLevel, ro)
	addLogin(topLevel, ro)
	addLogout(topLevel, ro)
	addVersion(topLevel)
}
