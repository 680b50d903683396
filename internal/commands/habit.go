package commands

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/nhle/habit-calendar/internal/model"
)

// HabitOptions are the editable habit fields.
type HabitOptions struct {
	Glyph    string
	ImageURL string
	Color    string
	Unit     string
	Every    int
	Target   int
	Start    string
}

// AddHabitArgs registers the habit field flags.
func AddHabitArgs(cmd *cobra.Command, o *HabitOptions) {
	cmd.Flags().StringVar(&o.Glyph, "glyph", "",
		"Single emoji or character drawn in the calendar (default "+model.DefaultGlyph+").")
	cmd.Flags().StringVar(&o.ImageURL, "image", "",
		"http(s) URL of an icon image instead of a glyph.")
	cmd.Flags().StringVar(&o.Color, "color", "",
		"Colour as #RRGGBB (default "+model.DefaultColor+").")
	cmd.Flags().StringVar(&o.Unit, "unit", "",
		"Period unit: day, week or month.")
	cmd.Flags().IntVar(&o.Every, "every", 0,
		"Period length in units.")
	cmd.Flags().IntVar(&o.Target, "target", 0,
		"Completions wanted per period.")
	cmd.Flags().StringVar(&o.Start, "start", "",
		"Start date YYYY-MM-DD (default today).")
}

// Input builds a HabitInput for title.
func (o *HabitOptions) Input(title string) (model.HabitInput, error) {
	in := model.HabitInput{
		Title:       title,
		Glyph:       o.Glyph,
		ImageURL:    o.ImageURL,
		Color:       o.Color,
		PeriodUnit:  o.Unit,
		PeriodValue: o.Every,
		TargetCount: o.Target,
	}
	if o.Start != "" {
		d, err := model.ParseDate(o.Start)
		if err != nil {
			return model.HabitInput{}, err
		}
		in.StartDate = d
	}
	return in, nil
}

func addHabit(topLevel *cobra.Command, ro *RootOptions) {
	cmd := &cobra.Command{
		Use:     "habit",
		Aliases: []string{"habits"},
		Short:   "Manage habits.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	addHabitAdd(cmd, ro)
	addHabitEdit(cmd, ro)
	addHabitList(cmd, ro)
	addHabitArchive(cmd, ro)
	addHabitRemove(cmd, ro)
	topLevel.AddCommand(cmd)
}

func addHabitAdd(parent *cobra.Command, ro *RootOptions) {
	ho := &HabitOptions{}
	oo := &OutputOptions{}

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a habit.",
		Example: `
habitcal habit add "Run" --glyph 🏃 --color "#34C759"
habitcal habit add "Gym" --unit week --target 3
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := ho.Input(args[0])
			if err != nil {
				return err
			}
			rt, err := open(cmd.Context(), ro)
			if err != nil {
				return oo.HandleError(err)
			}
			defer rt.Close()

			h, err := rt.engine.CreateHabit(cmd.Context(), in)
			if err != nil {
				return oo.HandleError(err)
			}
			if oo.JSON {
				return oo.PrintJSON(h)
			}
			fmt.Fprintf(color.Output, "Created %s %s (%s)\n", h.Icon, h.Title, faint(h.ID))
			return nil
		},
	}

	AddHabitArgs(cmd, ho)
	AddOutputArg(cmd, oo)
	parent.AddCommand(cmd)
}

func addHabitEdit(parent *cobra.Command, ro *RootOptions) {
	ho := &HabitOptions{}
	var title string

	cmd := &cobra.Command{
		Use:   "edit <habit-id>",
		Short: "Change a habit. Unset flags keep their value.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := open(ctx, ro)
			if err != nil {
				return err
			}
			defer rt.Close()

			owner, err := rt.ownerID(ctx)
			if err != nil {
				return err
			}
			h, err := rt.store.GetHabit(ctx, owner, args[0])
			if err != nil {
				return err
			}

			in := model.HabitInput{
				Title:       h.Title,
				Glyph:       h.Icon.Glyph,
				ImageURL:    h.Icon.ImageURL,
				Color:       h.Color,
				PeriodUnit:  h.PeriodUnit,
				PeriodValue: h.PeriodValue,
				TargetCount: h.TargetCount,
			}
			flags := cmd.Flags()
			if flags.Changed("title") {
				in.Title = title
			}
			if flags.Changed("glyph") {
				in.Glyph, in.ImageURL = ho.Glyph, ""
			}
			if flags.Changed("image") {
				in.ImageURL, in.Glyph = ho.ImageURL, ""
			}
			if flags.Changed("color") {
				in.Color = ho.Color
			}
			if flags.Changed("unit") {
				in.PeriodUnit = ho.Unit
			}
			if flags.Changed("every") {
				in.PeriodValue = ho.Every
			}
			if flags.Changed("target") {
				in.TargetCount = ho.Target
			}
			if flags.Changed("start") {
				if in.StartDate, err = model.ParseDate(ho.Start); err != nil {
					return err
				}
			}

			updated, err := rt.engine.UpdateHabit(ctx, h.ID, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(color.Output, "Updated %s %s\n", updated.Icon, updated.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title.")
	AddHabitArgs(cmd, ho)
	parent.AddCommand(cmd)
}

func addHabitList(parent *cobra.Command, ro *RootOptions) {
	oo := &OutputOptions{}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List active habits, oldest first.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := open(ctx, ro)
			if err != nil {
				return oo.HandleError(err)
			}
			defer rt.Close()

			owner, err := rt.ownerID(ctx)
			if err != nil {
				return oo.HandleError(err)
			}
			habits, err := rt.store.ListActiveHabits(ctx, owner)
			if err != nil {
				return oo.HandleError(err)
			}
			if oo.JSON {
				return oo.PrintJSON(habits)
			}
			if len(habits) == 0 {
				fmt.Fprintln(color.Output, faint("No habits yet. Create one with `habitcal habit add <title>`."))
				return nil
			}

			tbl := uitable.New()
			tbl.Separator = "  "
			tbl.AddRow("ID", "ICON", "TITLE", "GOAL", "SINCE")
			for _, h := range habits {
				tbl.AddRow(faint(h.ID), h.Icon, h.Title,
					fmt.Sprintf("%d per %d %s", h.TargetCount, h.PeriodValue, h.PeriodUnit),
					h.StartDate)
			}
			_, _ = fmt.Fprintln(color.Output, tbl)
			return nil
		},
	}

	AddOutputArg(cmd, oo)
	parent.AddCommand(cmd)
}

func addHabitArchive(parent *cobra.Command, ro *RootOptions) {
	cmd := &cobra.Command{
		Use:   "archive <habit-id>",
		Short: "Deactivate a habit, keeping its history.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := open(cmd.Context(), ro)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.engine.ArchiveHabit(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(color.Output, "Archived", args[0])
			return nil
		},
	}
	parent.AddCommand(cmd)
}

func addHabitRemove(parent *cobra.Command, ro *RootOptions) {
	var yes bool

	cmd := &cobra.Command{
		Use:     "rm <habit-id>",
		Aliases: []string{"delete"},
		Short:   "Delete a habit and all of its check-ins.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("deleting removes every check-in of %s; pass --yes to confirm", args[0])
			}
			rt, err := open(cmd.Context(), ro)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.engine.DeleteHabit(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(color.Output, "Deleted", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm deletion.")
	parent.AddCommand(cmd)
}

// today is the local date, shared by commands that default to it.
func today() model.Date {
	return model.Today(time.Now)
}
