package commands

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/habit-calendar/internal/app"
)

func addUI(topLevel *cobra.Command, ro *RootOptions) {
	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Open the terminal calendar.",
		Example: `
habitcal ui
habitcal ui --owner me --debug
`,
		ValidArgs: []string{},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUI(cmd.Context(), ro)
		},
	}

	topLevel.AddCommand(cmd)
}

func runUI(ctx context.Context, ro *RootOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := open(ctx, ro)
	if err != nil {
		return err
	}
	defer rt.Close()

	m := app.New(rt.engine, rt.cfg.Display.Columns, time.Now, rt.logger.Named("ui"))
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running ui: %w", err)
	}
	return nil
}
