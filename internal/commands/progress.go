package commands

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
)

func addProgress(topLevel *cobra.Command, ro *RootOptions) {
	oo := &OutputOptions{}

	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show each habit's completion rate since it started.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := open(ctx, ro)
			if err != nil {
				return oo.HandleError(err)
			}
			defer rt.Close()

			summaries, err := rt.engine.OpenProgress(ctx)
			if err != nil {
				return oo.HandleError(err)
			}
			defer rt.engine.CloseProgress()

			if oo.JSON {
				return oo.PrintJSON(summaries)
			}
			if len(summaries) == 0 {
				fmt.Fprintln(color.Output, faint("No active habits."))
				return nil
			}

			tbl := uitable.New()
			tbl.Separator = "  "
			tbl.AddRow("ICON", "TITLE", "DONE", "RATE", "")
			for _, s := range summaries {
				tbl.AddRow(s.Icon, s.Title,
					fmt.Sprintf("%d/%d", s.Completed, s.ElapsedDays),
					fmt.Sprintf("%3.0f%%", s.Rate()*100),
					bar(s.Rate(), 20))
			}
			_, _ = fmt.Fprintln(color.Output, tbl)
			return nil
		},
	}

	AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}

func bar(rate float64, width int) string {
	filled := int(rate*float64(width) + 0.5)
	if filled > width {
		filled = width
	}
	return green(strings.Repeat("█", filled)) + faint(strings.Repeat("░", width-filled))
}
