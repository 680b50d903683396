package model

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rivo/uniseg"
)

// Habit defaults, matching what the web client filled in when a field
// was left blank.
const (
	DefaultGlyph       = "✅"
	DefaultColor       = "#FF9500"
	DefaultPeriodUnit  = PeriodDay
	DefaultPeriodValue = 1
	DefaultTargetCount = 1
)

// Period units a habit recurs on.
const (
	PeriodDay   = "day"
	PeriodWeek  = "week"
	PeriodMonth = "month"
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Icon is how a habit is drawn in a day cell. Exactly one of ImageURL
// and Glyph is set on a valid icon.
type Icon struct {
	ImageURL string `json:"image_url,omitempty"`
	Glyph    string `json:"glyph,omitempty"`
}

// IsImage reports whether the icon is an image reference.
func (i Icon) IsImage() bool {
	return i.ImageURL != ""
}

// String returns the image reference if set, else the glyph.
func (i Icon) String() string {
	if i.IsImage() {
		return i.ImageURL
	}
	return i.Glyph
}

// Validate checks the icon's mutual exclusivity and format.
func (i Icon) Validate() error {
	switch {
	case i.ImageURL != "" && i.Glyph != "":
		return errors.New("icon must be an image or a glyph, not both")
	case i.ImageURL != "":
		u, err := url.Parse(i.ImageURL)
		if err != nil {
			return fmt.Errorf("malformed icon reference %q: %w", i.ImageURL, err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("malformed icon reference %q", i.ImageURL)
		}
	case i.Glyph != "":
		if uniseg.GraphemeClusterCount(i.Glyph) != 1 {
			return fmt.Errorf("icon glyph %q must be a single character", i.Glyph)
		}
	default:
		return errors.New("icon is empty")
	}
	return nil
}

// Habit is a user-defined recurring activity tracked per calendar date.
type Habit struct {
	ID          string    `json:"id" db:"id"`
	OwnerID     string    `json:"owner_id" db:"owner_id"`
	Title       string    `json:"title" db:"title"`
	Icon        Icon      `json:"icon" db:"-"`
	Color       string    `json:"color" db:"color"`
	PeriodUnit  string    `json:"period_unit" db:"period_unit"`
	PeriodValue int       `json:"period_value" db:"period_value"`
	TargetCount int       `json:"target_count" db:"target_count"`
	Active      bool      `json:"active" db:"active"`
	StartDate   Date      `json:"start_date" db:"-"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// HabitInput carries user-editable habit fields for create and update.
type HabitInput struct {
	Title       string
	ImageURL    string
	Glyph       string
	Color       string
	PeriodUnit  string
	PeriodValue int
	TargetCount int
	// StartDate defaults to today when zero.
	StartDate Date
}

// Normalize trims text fields and fills blanks with the habit defaults.
func (in HabitInput) Normalize() HabitInput {
	in.Title = strings.TrimSpace(in.Title)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	in.Glyph = strings.TrimSpace(in.Glyph)
	in.Color = strings.TrimSpace(in.Color)
	if in.ImageURL == "" && in.Glyph == "" {
		in.Glyph = DefaultGlyph
	}
	if in.Color == "" {
		in.Color = DefaultColor
	}
	if in.PeriodUnit == "" {
		in.PeriodUnit = DefaultPeriodUnit
	}
	if in.PeriodValue < 1 {
		in.PeriodValue = DefaultPeriodValue
	}
	if in.TargetCount < 1 {
		in.TargetCount = DefaultTargetCount
	}
	return in
}

// Validate returns a KindValidation error describing the first problem.
func (in HabitInput) Validate() error {
	const op = "validate habit"
	if in.Title == "" {
		return Validation(op, errors.New("title must not be empty"))
	}
	if err := (Icon{ImageURL: in.ImageURL, Glyph: in.Glyph}).Validate(); err != nil {
		return Validation(op, err)
	}
	if !colorPattern.MatchString(in.Color) {
		return Validation(op, fmt.Errorf("color %q must be #RRGGBB", in.Color))
	}
	switch in.PeriodUnit {
	case PeriodDay, PeriodWeek, PeriodMonth:
	default:
		return Validation(op, fmt.Errorf("unknown period unit %q", in.PeriodUnit))
	}
	return nil
}

// Apply copies the input's fields onto h.
func (in HabitInput) Apply(h *Habit) {
	h.Title = in.Title
	h.Icon = Icon{ImageURL: in.ImageURL, Glyph: in.Glyph}
	h.Color = in.Color
	h.PeriodUnit = in.PeriodUnit
	h.PeriodValue = in.PeriodValue
	h.TargetCount = in.TargetCount
	if !in.StartDate.IsZero() {
		h.StartDate = in.StartDate
	}
}

// LogEntry records that a habit was completed on a date. At most one
// entry exists per (habit, date, owner).
type LogEntry struct {
	HabitID string `json:"habit_id"`
	Date    Date   `json:"date"`
	OwnerID string `json:"owner_id"`
}
