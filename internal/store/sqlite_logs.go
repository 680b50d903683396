package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/nhle/habit-calendar/internal/model"
)

type logRow struct {
	HabitID string `db:"habit_id"`
	LogDate string `db:"log_date"`
	OwnerID string `db:"owner_id"`
}

func (r logRow) toModel() (model.LogEntry, error) {
	d, err := model.ParseDate(r.LogDate)
	if err != nil {
		return model.LogEntry{}, fmt.Errorf("log for habit %s: %w", r.HabitID, err)
	}
	return model.LogEntry{HabitID: r.HabitID, Date: d, OwnerID: r.OwnerID}, nil
}

// ListLogs returns the owner's entries in [start, end), ordered by date.
// Dates are stored as YYYY-MM-DD so string comparison orders them.
func (s *SQLiteStore) ListLogs(ctx context.Context, ownerID string, start, end model.Date) ([]model.LogEntry, error) {
	var rows []logRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT habit_id, log_date, owner_id FROM habit_logs
		WHERE owner_id = ? AND log_date >= ? AND log_date < ?
		ORDER BY log_date, rowid`,
		ownerID, start.String(), end.String())
	if err != nil {
		return nil, classify("listing logs", err)
	}

	entries := make([]model.LogEntry, 0, len(rows))
	for _, r := range rows {
		e, err := r.toModel()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// DeleteLogs removes the entries for habitIDs on date in a single statement.
func (s *SQLiteStore) DeleteLogs(ctx context.Context, ownerID string, date model.Date, habitIDs []string) error {
	if len(habitIDs) == 0 {
		return nil
	}
	query, args, err := sqlx.In(
		"DELETE FROM habit_logs WHERE owner_id = ? AND log_date = ? AND habit_id IN (?)",
		ownerID, date.String(), habitIDs)
	if err != nil {
		return fmt.Errorf("building delete: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...); err != nil {
		return classify(fmt.Sprintf("deleting logs on %s", date), err)
	}
	return nil
}

// UpsertLogs inserts entries in one transaction. Rows already present for
// a (habit, date) key are kept.
func (s *SQLiteStore) UpsertLogs(ctx context.Context, entries []model.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return classify("beginning upsert", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO habit_logs (habit_id, log_date, owner_id)
		VALUES (?, ?, ?)
		ON CONFLICT(habit_id, log_date) DO NOTHING`)
	if err != nil {
		return classify("preparing upsert", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.HabitID, e.Date.String(), e.OwnerID); err != nil {
			return classify(fmt.Sprintf("upserting log %s on %s", e.HabitID, e.Date), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return classify("committing upsert", err)
	}
	return nil
}

// CountCompletions counts distinct completed dates per habit in [start, end).
func (s *SQLiteStore) CountCompletions(ctx context.Context, ownerID string, habitIDs []string, start, end model.Date) (map[string]int, error) {
	counts := make(map[string]int, len(habitIDs))
	if len(habitIDs) == 0 {
		return counts, nil
	}

	query, args, err := sqlx.In(`
		SELECT habit_id, COUNT(DISTINCT log_date) AS n FROM habit_logs
		WHERE owner_id = ? AND log_date >= ? AND log_date < ? AND habit_id IN (?)
		GROUP BY habit_id`,
		ownerID, start.String(), end.String(), habitIDs)
	if err != nil {
		return nil, fmt.Errorf("building count: %w", err)
	}

	var rows []struct {
		HabitID string `db:"habit_id"`
		N       int    `db:"n"`
	}
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, classify("counting completions", err)
	}
	for _, r := range rows {
		counts[r.HabitID] = r.N
	}
	return counts, nil
}
