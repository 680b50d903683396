package kv

import (
	"context"
	"os"
	"testing"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "holidays/KR/1999"); err != nil || ok {
		t.Fatalf("Get on empty store = ok %v, err %v", ok, err)
	}
	if err := s.Set(ctx, "holidays/KR/1999", `["1999-01-01"]`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err := s.Get(ctx, "holidays/KR/1999")
	if err != nil || !ok || v != `["1999-01-01"]` {
		t.Fatalf("Get = %q, %v, %v", v, ok, err)
	}
	if err := s.Set(ctx, "holidays/KR/1999", `[]`); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if v, _, _ := s.Get(ctx, "holidays/KR/1999"); v != `[]` {
		t.Fatalf("overwrite not visible: %q", v)
	}
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	exerciseStore(t, m)
	if m.Len() != 1 {
		t.Fatalf("Len = %d", m.Len())
	}
}

func TestDisk(t *testing.T) {
	dir := t.TempDir()
	exerciseStore(t, NewDisk(dir))

	// A fresh handle on the same directory sees the persisted value.
	v, ok, err := NewDisk(dir).Get(context.Background(), "holidays/KR/1999")
	if err != nil || !ok || v != `[]` {
		t.Fatalf("reopen Get = %q, %v, %v", v, ok, err)
	}
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	s := NewRedis(addr)
	t.Cleanup(func() { s.Close() })
	s.prefix = "habitcal-test:" + t.Name() + ":"
	s.rdb.Del(context.Background(), s.prefix+"holidays/KR/1999")
	exerciseStore(t, s)
}
