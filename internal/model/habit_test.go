package model

import (
	"errors"
	"fmt"
	"testing"
)

func TestHabitInputDefaults(t *testing.T) {
	in := HabitInput{Title: "  Read  "}.Normalize()
	if err := in.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if in.Title != "Read" || in.Glyph != DefaultGlyph || in.Color != DefaultColor {
		t.Fatalf("unexpected defaults: %+v", in)
	}
	if in.PeriodUnit != PeriodDay || in.PeriodValue != 1 || in.TargetCount != 1 {
		t.Fatalf("unexpected period defaults: %+v", in)
	}
}

func TestHabitInputValidation(t *testing.T) {
	tests := []struct {
		name string
		in   HabitInput
	}{
		{"empty title", HabitInput{Title: "   "}},
		{"image and glyph", HabitInput{Title: "x", ImageURL: "https://cdn.example.com/a.png", Glyph: "🏃"}},
		{"relative image", HabitInput{Title: "x", ImageURL: "/a.png"}},
		{"two glyphs", HabitInput{Title: "x", Glyph: "🏃🏃"}},
		{"bad color", HabitInput{Title: "x", Color: "orange"}},
		{"bad unit", HabitInput{Title: "x", PeriodUnit: "fortnight"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Normalize().Validate()
			if !IsKind(err, KindValidation) {
				t.Fatalf("got %v, want validation error", err)
			}
		})
	}
}

func TestIconAcceptsComposedGlyph(t *testing.T) {
	// A flag and a skin-toned emoji are single grapheme clusters.
	for _, g := range []string{"🇰🇷", "👍🏽", "a"} {
		if err := (Icon{Glyph: g}).Validate(); err != nil {
			t.Errorf("glyph %q: %v", g, err)
		}
	}
	img := Icon{ImageURL: "https://cdn.example.com/run.png"}
	if err := img.Validate(); err != nil || !img.IsImage() || img.String() != img.ImageURL {
		t.Fatalf("image icon: %v", err)
	}
}

func TestErrorKinds(t *testing.T) {
	base := errors.New("boom")
	err := fmt.Errorf("saving: %w", NewError(KindConflict, "upsert logs", base))
	if !IsKind(err, KindConflict) {
		t.Fatalf("kind = %v", KindOf(err))
	}
	if !errors.Is(err, &Error{Kind: KindConflict}) {
		t.Fatalf("errors.Is by kind failed")
	}
	if !errors.Is(err, base) {
		t.Fatalf("cause lost")
	}
	// Re-wrapping keeps the original classification.
	if got := NewError(KindNetwork, "other", err); !IsKind(got, KindConflict) {
		t.Fatalf("rewrap changed kind to %v", KindOf(got))
	}
	if NewError(KindNetwork, "noop", nil) != nil {
		t.Fatalf("nil error wrapped")
	}
}
