package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/habit-calendar/internal/model"
)

// SQLiteStore implements Store (and kv.Store for settings) on a local
// SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	// PRAGMAs in the DSN apply to every pooled connection, not just the first.
	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	if dbPath == ":memory:" {
		// Every pooled connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys so deleting a habit cascades to its logs.
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// habitRow mirrors the habits table.
type habitRow struct {
	ID          string    `db:"id"`
	OwnerID     string    `db:"owner_id"`
	Title       string    `db:"title"`
	ImageURL    string    `db:"image_url"`
	Glyph       string    `db:"glyph"`
	Color       string    `db:"color"`
	PeriodUnit  string    `db:"period_unit"`
	PeriodValue int       `db:"period_value"`
	TargetCount int       `db:"target_count"`
	Active      bool      `db:"active"`
	StartDate   string    `db:"start_date"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r habitRow) toModel() (model.Habit, error) {
	start, err := model.ParseDate(r.StartDate)
	if err != nil {
		return model.Habit{}, fmt.Errorf("habit %s start_date: %w", r.ID, err)
	}
	return model.Habit{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		Title:       r.Title,
		Icon:        model.Icon{ImageURL: r.ImageURL, Glyph: r.Glyph},
		Color:       r.Color,
		PeriodUnit:  r.PeriodUnit,
		PeriodValue: r.PeriodValue,
		TargetCount: r.TargetCount,
		Active:      r.Active,
		StartDate:   start,
		CreatedAt:   r.CreatedAt,
	}, nil
}

const habitColumns = `id, owner_id, title, image_url, glyph, color,
	period_unit, period_value, target_count, active, start_date, created_at`

// ListActiveHabits returns the owner's active habits, oldest first.
func (s *SQLiteStore) ListActiveHabits(ctx context.Context, ownerID string) ([]model.Habit, error) {
	var rows []habitRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT "+habitColumns+" FROM habits WHERE owner_id = ? AND active = 1 ORDER BY created_at, rowid",
		ownerID)
	if err != nil {
		return nil, classify("listing habits", err)
	}

	habits := make([]model.Habit, 0, len(rows))
	for _, r := range rows {
		h, err := r.toModel()
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, nil
}

// GetHabit retrieves a single habit by ID.
func (s *SQLiteStore) GetHabit(ctx context.Context, ownerID, id string) (*model.Habit, error) {
	var r habitRow
	err := s.db.GetContext(ctx, &r,
		"SELECT "+habitColumns+" FROM habits WHERE owner_id = ? AND id = ?",
		ownerID, id)
	if err != nil {
		return nil, classify(fmt.Sprintf("getting habit %s", id), err)
	}
	h, err := r.toModel()
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// CreateHabit inserts a new habit. Generates a UUID if ID is empty.
func (s *SQLiteStore) CreateHabit(ctx context.Context, h model.Habit) (model.Habit, error) {
	if strings.TrimSpace(h.Title) == "" {
		return model.Habit{}, model.Validation("creating habit", fmt.Errorf("habit title must not be empty"))
	}
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}
	if h.StartDate.IsZero() {
		h.StartDate = model.DateOf(h.CreatedAt.Local())
	}
	h.Active = true

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO habits (
			id, owner_id, title, image_url, glyph, color,
			period_unit, period_value, target_count, active, start_date, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.OwnerID, h.Title, h.Icon.ImageURL, h.Icon.Glyph, h.Color,
		h.PeriodUnit, h.PeriodValue, h.TargetCount, boolToInt(h.Active),
		h.StartDate.String(), h.CreatedAt.UTC(),
	)
	if err != nil {
		return model.Habit{}, classify("creating habit", err)
	}
	return h, nil
}

// UpdateHabit updates the editable fields of a habit.
func (s *SQLiteStore) UpdateHabit(ctx context.Context, h model.Habit) error {
	if strings.TrimSpace(h.Title) == "" {
		return model.Validation("updating habit", fmt.Errorf("habit title must not be empty"))
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE habits SET
			title = ?, image_url = ?, glyph = ?, color = ?,
			period_unit = ?, period_value = ?, target_count = ?, start_date = ?
		WHERE owner_id = ? AND id = ?`,
		h.Title, h.Icon.ImageURL, h.Icon.Glyph, h.Color,
		h.PeriodUnit, h.PeriodValue, h.TargetCount, h.StartDate.String(),
		h.OwnerID, h.ID,
	)
	if err != nil {
		return classify(fmt.Sprintf("updating habit %s", h.ID), err)
	}
	return expectRow(result, "habit", h.ID)
}

// DeactivateHabit hides a habit without removing its history.
func (s *SQLiteStore) DeactivateHabit(ctx context.Context, ownerID, id string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE habits SET active = 0 WHERE owner_id = ? AND id = ?", ownerID, id)
	if err != nil {
		return classify(fmt.Sprintf("deactivating habit %s", id), err)
	}
	return expectRow(result, "habit", id)
}

// DeleteHabit removes a habit. Cascades to habit_logs.
func (s *SQLiteStore) DeleteHabit(ctx context.Context, ownerID, id string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM habits WHERE owner_id = ? AND id = ?", ownerID, id)
	if err != nil {
		return classify(fmt.Sprintf("deleting habit %s", id), err)
	}
	return expectRow(result, "habit", id)
}

// Get implements kv.Store over the settings table.
func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	var values []string
	if err := s.db.SelectContext(ctx, &values,
		"SELECT value FROM settings WHERE key = ?", key); err != nil {
		return "", false, fmt.Errorf("reading setting %q: %w", key, err)
	}
	if len(values) == 0 {
		return "", false, nil
	}
	return values[0], true, nil
}

// Set implements kv.Store over the settings table.
func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("writing setting %q: %w", key, err)
	}
	return nil
}

type rowsAffecter interface {
	RowsAffected() (int64, error)
}

func expectRow(result rowsAffecter, kind, id string) error {
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
