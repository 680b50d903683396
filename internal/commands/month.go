package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/nhle/habit-calendar/internal/engine"
	"github.com/nhle/habit-calendar/internal/model"
)

func addMonth(topLevel *cobra.Command, ro *RootOptions) {
	oo := &OutputOptions{}

	cmd := &cobra.Command{
		Use:   "month [YYYY-MM]",
		Short: "Print a month with its check-ins.",
		Example: `
habitcal month
habitcal month 2024-02
habitcal month 2024-02 --json
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := open(ctx, ro)
			if err != nil {
				return oo.HandleError(err)
			}
			defer rt.Close()

			year, month := time.Now().Year(), time.Now().Month()
			if len(args) == 1 {
				t, err := time.Parse("2006-01", args[0])
				if err != nil {
					return fmt.Errorf("%q is not YYYY-MM", args[0])
				}
				year, month = t.Year(), t.Month()
			}

			v, err := rt.engine.Navigate(ctx, year, month)
			if err != nil {
				return oo.HandleError(err)
			}
			if oo.JSON {
				return oo.PrintJSON(monthJSON(v))
			}
			printMonth(v)
			return nil
		},
	}

	AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}

type dayJSON struct {
	Date    model.Date `json:"date"`
	Holiday bool       `json:"holiday,omitempty"`
	Habits  []string   `json:"habits"`
	More    int        `json:"more,omitempty"`
}

func monthJSON(v engine.MonthView) []dayJSON {
	var out []dayJSON
	for _, d := range v.Days {
		if d.Empty {
			continue
		}
		out = append(out, dayJSON{
			Date:    d.Date,
			Holiday: d.IsHoliday,
			Habits:  d.Icons.HabitIDs(),
			More:    d.Icons.Overflow,
		})
	}
	return out
}

var (
	bold     = color.New(color.Bold, color.Underline).SprintFunc()
	red      = color.New(color.FgRed).SprintFunc()
	blue     = color.New(color.FgBlue).SprintFunc()
	faint    = color.New(color.Faint).SprintFunc()
	todayFmt = color.New(color.Bold, color.ReverseVideo).SprintFunc()
)

// printMonth draws the grid as a seven-column table.
func printMonth(v engine.MonthView) {
	fmt.Fprintln(color.Output, bold(fmt.Sprintf("%s %d", v.Month, v.Year)))

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 16

	header := make([]interface{}, 7)
	for i := range header {
		name := time.Weekday(i).String()[:3]
		switch time.Weekday(i) {
		case time.Sunday:
			name = red(name)
		case time.Saturday:
			name = blue(name)
		}
		header[i] = name
	}
	tbl.AddRow(header...)

	for _, week := range v.Weeks() {
		row := make([]interface{}, len(week))
		for i, d := range week {
			row[i] = dayLabel(d)
		}
		tbl.AddRow(row...)
	}
	fmt.Fprintln(color.Output, tbl)
}

func dayLabel(d engine.DayView) string {
	if d.Empty {
		return ""
	}
	num := fmt.Sprintf("%2d", d.DayNumber)
	switch {
	case d.IsToday:
		num = todayFmt(num)
	case d.IsHoliday || d.IsSunday:
		num = red(num)
	case d.IsSaturday:
		num = blue(num)
	}

	var icons []string
	for _, icon := range d.Icons.Icons {
		if icon.IsImage() {
			icons = append(icons, "▣")
			continue
		}
		icons = append(icons, icon.Glyph)
	}
	label := num + " " + strings.Join(icons, "")
	if d.Icons.Overflow > 0 {
		label += faint(fmt.Sprintf("+%d", d.Icons.Overflow))
	}
	return label
}

// loadDay loads the month of date so it can be read and edited.
func loadDay(ctx context.Context, e *engine.Engine, date model.Date) error {
	_, err := e.Navigate(ctx, date.Year, date.Month)
	return err
}
