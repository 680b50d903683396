package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/nhle/habit-calendar/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// NewPostgresTestStore connects to TEST_DATABASE_URL, skipping the test
// when it is unset. Tables are truncated before the test runs.
func NewPostgresTestStore(t *testing.T) *store.PostgresStore {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	s, err := store.NewPostgresStore(ctx, dsn, nil)
	if err != nil {
		t.Fatalf("connecting test store: %v", err)
	}
	if err := s.Truncate(ctx); err != nil {
		t.Fatalf("truncating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}
