package session

import (
	"context"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"github.com/golang-jwt/jwt/v5"

	"github.com/nhle/habit-calendar/internal/credential"
	"github.com/nhle/habit-calendar/internal/model"
)

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "owner-1",
		"exp": exp.Unix(),
	})
	s, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return s
}

func newProvider(login LoginFunc) *KeyringProvider {
	return NewKeyringProvider(credential.New(keyring.NewArrayKeyring(nil)), login)
}

func TestKeyringProviderNotLoggedIn(t *testing.T) {
	_, err := newProvider(nil).Current(context.Background())
	if !model.IsKind(err, model.KindAuthExpired) {
		t.Fatalf("got %v, want auth expired", err)
	}
}

func TestKeyringProviderRoundTrip(t *testing.T) {
	p := newProvider(nil)
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	if err := p.Save(Session{OwnerID: "owner-1", Token: signed(t, exp)}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	s, err := p.Current(context.Background())
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if s.OwnerID != "owner-1" || !s.ExpiresAt.Equal(exp) {
		t.Fatalf("session = %+v", s)
	}

	if err := p.Logout(); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := p.Current(context.Background()); !model.IsKind(err, model.KindAuthExpired) {
		t.Fatalf("after logout got %v", err)
	}
}

func TestKeyringProviderExpiredToken(t *testing.T) {
	p := newProvider(nil)
	if err := p.Save(Session{OwnerID: "owner-1", Token: signed(t, time.Now().Add(-time.Minute))}); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Current(context.Background()); !model.IsKind(err, model.KindAuthExpired) {
		t.Fatalf("got %v, want auth expired", err)
	}
	if err := p.Reauthenticate(context.Background()); !model.IsKind(err, model.KindAuthExpired) {
		t.Fatalf("reauthenticate without login func: %v", err)
	}
}

func TestKeyringProviderReauthenticate(t *testing.T) {
	fresh := Session{OwnerID: "owner-2", Token: "opaque-token"}
	p := newProvider(func(context.Context) (Session, error) { return fresh, nil })

	if err := p.Reauthenticate(context.Background()); err != nil {
		t.Fatalf("Reauthenticate: %v", err)
	}
	s, err := p.Current(context.Background())
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if s.OwnerID != "owner-2" || s.Token != "opaque-token" || !s.ExpiresAt.IsZero() {
		t.Fatalf("session = %+v", s)
	}
}

func TestStatic(t *testing.T) {
	if _, err := (Static{}).Current(context.Background()); !model.IsKind(err, model.KindAuthExpired) {
		t.Fatalf("empty static session: %v", err)
	}
	s, err := Static{Session: Session{OwnerID: "me"}}.Current(context.Background())
	if err != nil || s.OwnerID != "me" {
		t.Fatalf("static = %+v, %v", s, err)
	}
}
