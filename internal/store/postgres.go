package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/nhle/habit-calendar/internal/model"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS habits (
	id           TEXT PRIMARY KEY,
	owner_id     TEXT NOT NULL,
	title        TEXT NOT NULL CHECK (length(trim(title)) > 0),
	image_url    TEXT NOT NULL DEFAULT '',
	glyph        TEXT NOT NULL DEFAULT '',
	color        TEXT NOT NULL DEFAULT '#FF9500',
	period_unit  TEXT NOT NULL DEFAULT 'day' CHECK (period_unit IN ('day', 'week', 'month')),
	period_value INTEGER NOT NULL DEFAULT 1 CHECK (period_value >= 1),
	target_count INTEGER NOT NULL DEFAULT 1 CHECK (target_count >= 1),
	active       BOOLEAN NOT NULL DEFAULT TRUE,
	start_date   DATE NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	CHECK (image_url = '' OR glyph = '')
);

CREATE INDEX IF NOT EXISTS idx_habits_owner_active ON habits(owner_id, active, created_at);

CREATE TABLE IF NOT EXISTS habit_logs (
	habit_id   TEXT NOT NULL REFERENCES habits(id) ON DELETE CASCADE,
	log_date   DATE NOT NULL,
	owner_id   TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (habit_id, log_date)
);

CREATE INDEX IF NOT EXISTS idx_habit_logs_owner_date ON habit_logs(owner_id, log_date);
`

// PostgresStore implements Store on a shared PostgreSQL database.
type PostgresStore struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresStore connects to dsn, pings, and ensures the schema exists.
func NewPostgresStore(ctx context.Context, dsn string, logger *zap.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing db config: %w", err)
	}
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 1
	poolCfg.MaxConnIdleTime = time.Minute

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, classify("connecting to postgres", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, classify("pinging postgres", err)
	}
	if _, err := pool.Exec(connectCtx, pgSchema); err != nil {
		pool.Close()
		return nil, classify("creating schema", err)
	}

	logger.Info("PostgreSQL connection established",
		zap.String("host", poolCfg.ConnConfig.Host),
		zap.String("db", poolCfg.ConnConfig.Database),
	)
	return &PostgresStore{db: pool, logger: logger}, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}

const pgHabitColumns = `id, owner_id, title, image_url, glyph, color,
	period_unit, period_value, target_count, active,
	to_char(start_date, 'YYYY-MM-DD'), created_at`

func scanHabit(row pgx.Row) (model.Habit, error) {
	var r habitRow
	if err := row.Scan(
		&r.ID,
		&r.OwnerID,
		&r.Title,
		&r.ImageURL,
		&r.Glyph,
		&r.Color,
		&r.PeriodUnit,
		&r.PeriodValue,
		&r.TargetCount,
		&r.Active,
		&r.StartDate,
		&r.CreatedAt,
	); err != nil {
		return model.Habit{}, err
	}
	return r.toModel()
}

func (s *PostgresStore) ListActiveHabits(ctx context.Context, ownerID string) ([]model.Habit, error) {
	s.logger.Debug("Listing active habits", zap.String("owner_id", ownerID))

	rows, err := s.db.Query(ctx,
		"SELECT "+pgHabitColumns+" FROM habits WHERE owner_id = $1 AND active = TRUE ORDER BY created_at, id",
		ownerID)
	if err != nil {
		return nil, classify("listing habits", err)
	}
	defer rows.Close()

	var habits []model.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, classify("scanning habit", err)
		}
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("listing habits", err)
	}
	return habits, nil
}

func (s *PostgresStore) GetHabit(ctx context.Context, ownerID, id string) (*model.Habit, error) {
	row := s.db.QueryRow(ctx,
		"SELECT "+pgHabitColumns+" FROM habits WHERE owner_id = $1 AND id = $2",
		ownerID, id)
	h, err := scanHabit(row)
	if err != nil {
		return nil, classify(fmt.Sprintf("getting habit %s", id), err)
	}
	return &h, nil
}

func (s *PostgresStore) CreateHabit(ctx context.Context, h model.Habit) (model.Habit, error) {
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

	_, err := s.db.Exec(ctx, `
		INSERT INTO habits (
			id, owner_id, title, image_url, glyph, color,
			period_unit, period_value, target_count, active, start_date, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::date, $12)`,
		h.ID, h.OwnerID, h.Title, h.Icon.ImageURL, h.Icon.Glyph, h.Color,
		h.PeriodUnit, h.PeriodValue, h.TargetCount, h.Active,
		h.StartDate.String(), h.CreatedAt,
	)
	if err != nil {
		s.logger.Error("Failed to insert habit", zap.Error(err))
		return model.Habit{}, classify("creating habit", err)
	}

	s.logger.Info("Habit inserted",
		zap.String("id", h.ID),
		zap.String("owner_id", h.OwnerID),
	)
	return h, nil
}

func (s *PostgresStore) UpdateHabit(ctx context.Context, h model.Habit) error {
	if strings.TrimSpace(h.Title) == "" {
		return model.Validation("updating habit", fmt.Errorf("habit title must not be empty"))
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE habits SET
			title = $1, image_url = $2, glyph = $3, color = $4,
			period_unit = $5, period_value = $6, target_count = $7, start_date = $8::date
		WHERE owner_id = $9 AND id = $10`,
		h.Title, h.Icon.ImageURL, h.Icon.Glyph, h.Color,
		h.PeriodUnit, h.PeriodValue, h.TargetCount, h.StartDate.String(),
		h.OwnerID, h.ID,
	)
	if err != nil {
		return classify(fmt.Sprintf("updating habit %s", h.ID), err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("habit %s: %w", h.ID, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) DeactivateHabit(ctx context.Context, ownerID, id string) error {
	tag, err := s.db.Exec(ctx,
		"UPDATE habits SET active = FALSE WHERE owner_id = $1 AND id = $2", ownerID, id)
	if err != nil {
		return classify(fmt.Sprintf("deactivating habit %s", id), err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("habit %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) DeleteHabit(ctx context.Context, ownerID, id string) error {
	tag, err := s.db.Exec(ctx,
		"DELETE FROM habits WHERE owner_id = $1 AND id = $2", ownerID, id)
	if err != nil {
		return classify(fmt.Sprintf("deleting habit %s", id), err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("habit %s: %w", id, ErrNotFound)
	}
	s.logger.Info("Habit deleted", zap.String("id", id))
	return nil
}

func (s *PostgresStore) ListLogs(ctx context.Context, ownerID string, start, end model.Date) ([]model.LogEntry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT habit_id, to_char(log_date, 'YYYY-MM-DD'), owner_id FROM habit_logs
		WHERE owner_id = $1 AND log_date >= $2::date AND log_date < $3::date
		ORDER BY log_date, created_at`,
		ownerID, start.String(), end.String())
	if err != nil {
		return nil, classify("listing logs", err)
	}
	defer rows.Close()

	var entries []model.LogEntry
	for rows.Next() {
		var r logRow
		if err := rows.Scan(&r.HabitID, &r.LogDate, &r.OwnerID); err != nil {
			return nil, classify("scanning log", err)
		}
		e, err := r.toModel()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("listing logs", err)
	}
	return entries, nil
}

func (s *PostgresStore) DeleteLogs(ctx context.Context, ownerID string, date model.Date, habitIDs []string) error {
	if len(habitIDs) == 0 {
		return nil
	}
	_, err := s.db.Exec(ctx,
		"DELETE FROM habit_logs WHERE owner_id = $1 AND log_date = $2::date AND habit_id = ANY($3)",
		ownerID, date.String(), habitIDs)
	if err != nil {
		return classify(fmt.Sprintf("deleting logs on %s", date), err)
	}
	return nil
}

func (s *PostgresStore) UpsertLogs(ctx context.Context, entries []model.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return classify("beginning upsert", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(`
			INSERT INTO habit_logs (habit_id, log_date, owner_id)
			VALUES ($1, $2::date, $3)
			ON CONFLICT (habit_id, log_date) DO NOTHING`,
			e.HabitID, e.Date.String(), e.OwnerID)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return classify("upserting logs", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return classify("committing upsert", err)
	}
	return nil
}

func (s *PostgresStore) CountCompletions(ctx context.Context, ownerID string, habitIDs []string, start, end model.Date) (map[string]int, error) {
	counts := make(map[string]int, len(habitIDs))
	if len(habitIDs) == 0 {
		return counts, nil
	}

	rows, err := s.db.Query(ctx, `
		SELECT habit_id, COUNT(DISTINCT log_date) FROM habit_logs
		WHERE owner_id = $1 AND log_date >= $2::date AND log_date < $3::date AND habit_id = ANY($4)
		GROUP BY habit_id`,
		ownerID, start.String(), end.String(), habitIDs)
	if err != nil {
		return nil, classify("counting completions", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id string
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, classify("scanning count", err)
		}
		counts[id] = n
	}
	if err := rows.Err(); err != nil {
		return nil, classify("counting completions", err)
	}
	return counts, nil
}

// Truncate removes every habit and log. Used by integration tests.
func (s *PostgresStore) Truncate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, "TRUNCATE habit_logs, habits"); err != nil {
		return classify("truncating", err)
	}
	return nil
}
