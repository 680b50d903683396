package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/nhle/habit-calendar/internal/engine"
	"github.com/nhle/habit-calendar/internal/model"
)

// CheckOptions choose how the ids given to `check` are applied.
type CheckOptions struct {
	Toggle bool
	Clear  bool
}

func addCheck(topLevel *cobra.Command, ro *RootOptions) {
	co := &CheckOptions{}
	oo := &OutputOptions{}

	cmd := &cobra.Command{
		Use:   "check [YYYY-MM-DD|today] [habit-id...]",
		Short: "Show or set the habits completed on a day.",
		Long: `Without habit ids, print the day's checklist.

With habit ids, the given habits become exactly the day's completions;
habits not listed are unchecked. Use --toggle to flip just the listed
habits, or --clear to uncheck everything.`,
		Example: `
habitcal check
habitcal check 2024-03-10 6f1c... 9a2b...
habitcal check today 6f1c... --toggle
habitcal check 2024-03-10 --clear
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			date := today()
			if len(args) > 0 && args[0] != "today" {
				d, err := model.ParseDate(args[0])
				if err != nil {
					return err
				}
				date = d
			}
			var ids []string
			if len(args) > 1 {
				ids = args[1:]
			}

			rt, err := open(ctx, ro)
			if err != nil {
				return oo.HandleError(err)
			}
			defer rt.Close()

			if err := loadDay(ctx, rt.engine, date); err != nil {
				return oo.HandleError(err)
			}

			switch {
			case co.Clear:
				if _, err := rt.engine.Save(ctx, date, nil); err != nil {
					return oo.HandleError(err)
				}
			case len(ids) > 0 && co.Toggle:
				for _, id := range ids {
					if _, err := rt.engine.Toggle(ctx, date, id); err != nil {
						return oo.HandleError(err)
					}
				}
			case len(ids) > 0:
				if _, err := rt.engine.Save(ctx, date, ids); err != nil {
					return oo.HandleError(err)
				}
			}

			items := rt.engine.Checklist(date)
			if oo.JSON {
				return oo.PrintJSON(checklistJSON(date, items))
			}
			printChecklist(date, items)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&co.Toggle, "toggle", "t", false, "Flip the listed habits instead of replacing the day.")
	cmd.Flags().BoolVar(&co.Clear, "clear", false, "Uncheck every habit on the day.")
	AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}

type checkJSON struct {
	Date   model.Date `json:"date"`
	Done   []string   `json:"done"`
	Undone []string   `json:"undone"`
}

func checklistJSON(date model.Date, items []engine.ChecklistItem) checkJSON {
	out := checkJSON{Date: date, Done: []string{}, Undone: []string{}}
	for _, it := range items {
		if it.Done {
			out.Done = append(out.Done, it.Habit.ID)
		} else {
			out.Undone = append(out.Undone, it.Habit.ID)
		}
	}
	return out
}

var green = color.New(color.FgGreen).SprintFunc()

func printChecklist(date model.Date, items []engine.ChecklistItem) {
	fmt.Fprintln(color.Output, bold(date.String()))
	if len(items) == 0 {
		fmt.Fprintln(color.Output, faint("No habits yet."))
		return
	}
	tbl := uitable.New()
	tbl.Separator = "  "
	for _, it := range items {
		mark := "[ ]"
		if it.Done {
			mark = green("[x]")
		}
		tbl.AddRow(mark, it.Habit.Icon, it.Habit.Title, faint(it.Habit.ID))
	}
	_, _ = fmt.Fprintln(color.Output, tbl)
}
