package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"

	"github.com/nhle/habit-calendar/internal/model"
)

// ErrNotFound is returned when a habit does not exist for the owner.
var ErrNotFound = errors.New("not found")

// sqliteConstraint is SQLITE_CONSTRAINT; extended codes keep it in the low byte.
const sqliteConstraint = 19

// classify maps a driver error onto the engine's error taxonomy.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "23"):
			return model.NewError(model.KindConflict, op, err)
		case strings.HasPrefix(pgErr.Code, "28"), pgErr.Code == "42501":
			return model.NewError(model.KindAuthExpired, op, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) && liteErr.Code()&0xff == sqliteConstraint {
		return model.NewError(model.KindConflict, op, err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return model.NewError(model.KindNetwork, op, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return model.NewError(model.KindNetwork, op, err)
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return model.NewError(model.KindNetwork, op, err)
	}

	return fmt.Errorf("%s: %w", op, err)
}
