package habitform

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/habit-calendar/internal/model"
	"github.com/nhle/habit-calendar/internal/theme"
)

// SubmittedMsg is dispatched when the form is completed. ID is empty for a
// new habit.
type SubmittedMsg struct {
	ID    string
	Input model.HabitInput
}

// CancelMsg is dispatched when the user aborts the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title       string
	iconKind    string
	glyph       string
	imageURL    string
	color       string
	periodUnit  string
	periodValue string
	target      string
}

const (
	iconGlyph = "glyph"
	iconImage = "image"
)

// Model is the Bubble Tea model for the habit create/edit form.
type Model struct {
	form     *huh.Form
	fb       *formBindings
	editMode bool
	editID   string
	width    int
	height   int
}

// New creates a new habit form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// StartCreate initializes the form for a new habit with the defaults.
func (m *Model) StartCreate() tea.Cmd {
	m.editMode = false
	m.editID = ""
	*m.fb = formBindings{
		iconKind:    iconGlyph,
		glyph:       model.DefaultGlyph,
		color:       model.DefaultColor,
		periodUnit:  model.DefaultPeriodUnit,
		periodValue: strconv.Itoa(model.DefaultPeriodValue),
		target:      strconv.Itoa(model.DefaultTargetCount),
	}
	m.form = m.buildForm()
	return m.form.Init()
}

// StartEdit initializes the form with an existing habit.
func (m *Model) StartEdit(h model.Habit) tea.Cmd {
	m.editMode = true
	m.editID = h.ID
	*m.fb = formBindings{
		title:       h.Title,
		iconKind:    iconGlyph,
		glyph:       h.Icon.Glyph,
		imageURL:    h.Icon.ImageURL,
		color:       h.Color,
		periodUnit:  h.PeriodUnit,
		periodValue: strconv.Itoa(h.PeriodValue),
		target:      strconv.Itoa(h.TargetCount),
	}
	if h.Icon.IsImage() {
		m.fb.iconKind = iconImage
	}
	m.form = m.buildForm()
	return m.form.Init()
}

// Active reports whether a form is open.
func (m Model) Active() bool {
	return m.form != nil && m.form.State == huh.StateNormal
}

// Update handles messages for the habit form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the habit form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "New Habit"
	if m.editMode {
		titleText = "Edit Habit"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render(titleText) + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Placeholder("What do you want to keep doing?").
				Value(&m.fb.title).
				Validate(validateRequired("Title")),
			huh.NewSelect[string]().
				Title("Icon").
				Options(
					huh.NewOption("Emoji / character", iconGlyph),
					huh.NewOption("Image URL", iconImage),
				).
				Value(&m.fb.iconKind),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Glyph").
				Placeholder(model.DefaultGlyph).
				Value(&m.fb.glyph).
				Validate(validateGlyph),
		).WithHideFunc(func() bool { return m.fb.iconKind != iconGlyph }),
		huh.NewGroup(
			huh.NewInput().
				Title("Image URL").
				Placeholder("https://...").
				Value(&m.fb.imageURL).
				Validate(validateImage),
		).WithHideFunc(func() bool { return m.fb.iconKind != iconImage }),
		huh.NewGroup(
			huh.NewInput().
				Title("Color").
				Placeholder(model.DefaultColor).
				Value(&m.fb.color).
				Validate(validateColor),
			huh.NewSelect[string]().
				Title("Repeats every").
				Options(
					huh.NewOption("Day", model.PeriodDay),
					huh.NewOption("Week", model.PeriodWeek),
					huh.NewOption("Month", model.PeriodMonth),
				).
				Value(&m.fb.periodUnit),
			huh.NewInput().
				Title("Period length").
				Value(&m.fb.periodValue).
				Validate(validatePositive("Period length")),
			huh.NewInput().
				Title("Target per period").
				Value(&m.fb.target).
				Validate(validatePositive("Target")),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) handleSubmit() tea.Cmd {
	in := m.input()
	id := ""
	if m.editMode {
		id = m.editID
	}
	return func() tea.Msg { return SubmittedMsg{ID: id, Input: in} }
}

// input converts the bound values; validators already rejected bad numbers.
func (m Model) input() model.HabitInput {
	in := model.HabitInput{
		Title:      m.fb.title,
		Color:      m.fb.color,
		PeriodUnit: m.fb.periodUnit,
	}
	if m.fb.iconKind == iconImage {
		in.ImageURL = m.fb.imageURL
	} else {
		in.Glyph = m.fb.glyph
	}
	in.PeriodValue, _ = strconv.Atoi(strings.TrimSpace(m.fb.periodValue))
	in.TargetCount, _ = strconv.Atoi(strings.TrimSpace(m.fb.target))
	return in
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validatePositive(fieldName string) func(string) error {
	return func(s string) error {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || n < 1 {
			return fmt.Errorf("%s must be a positive number", fieldName)
		}
		return nil
	}
}

func validateGlyph(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return model.Icon{Glyph: s}.Validate()
}

func validateImage(s string) error {
	return model.Icon{ImageURL: strings.TrimSpace(s)}.Validate()
}

func validateColor(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	in := model.HabitInput{Title: "x", Color: s}.Normalize()
	return in.Validate()
}
