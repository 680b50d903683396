// Package session supplies the owner identity every store call is scoped to.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nhle/habit-calendar/internal/credential"
	"github.com/nhle/habit-calendar/internal/model"
)

// Session is the current owner and their opaque bearer token.
type Session struct {
	OwnerID string
	Token   string
	// ExpiresAt is zero when the token carries no expiry.
	ExpiresAt time.Time
}

// Provider yields the current session and can be asked to renew it after
// the store rejected the credential.
type Provider interface {
	Current(ctx context.Context) (Session, error)
	Reauthenticate(ctx context.Context) error
}

// Static is a Provider with a fixed session.
type Static struct {
	Session Session
}

// Current returns the fixed session.
func (s Static) Current(context.Context) (Session, error) {
	if s.Session.OwnerID == "" {
		return Session{}, model.NewError(model.KindAuthExpired, "session", errors.New("no owner configured"))
	}
	return s.Session, nil
}

// Reauthenticate cannot renew a fixed session.
func (s Static) Reauthenticate(context.Context) error {
	return model.NewError(model.KindAuthExpired, "reauthenticate", errors.New("static session cannot be renewed"))
}

// LoginFunc obtains a fresh session, typically by prompting the user.
type LoginFunc func(ctx context.Context) (Session, error)

// KeyringProvider keeps the session in the OS keyring.
type KeyringProvider struct {
	creds *credential.Store
	login LoginFunc
	now   func() time.Time
}

// NewKeyringProvider creates a provider over creds. login may be nil, in
// which case Reauthenticate always fails and the user must log in again
// out of band.
func NewKeyringProvider(creds *credential.Store, login LoginFunc) *KeyringProvider {
	return &KeyringProvider{creds: creds, login: login, now: time.Now}
}

// Current reads the stored session. A missing owner or an expired token is
// reported as KindAuthExpired.
func (p *KeyringProvider) Current(ctx context.Context) (Session, error) {
	owner, err := p.creds.Get(credential.KeyOwnerID)
	if errors.Is(err, credential.ErrNotFound) {
		return Session{}, model.NewError(model.KindAuthExpired, "session", errors.New("not logged in"))
	}
	if err != nil {
		return Session{}, err
	}

	s := Session{OwnerID: owner}
	token, err := p.creds.Get(credential.KeyToken)
	switch {
	case errors.Is(err, credential.ErrNotFound):
		return s, nil
	case err != nil:
		return Session{}, err
	}

	s.Token = token
	exp, err := Expiry(token)
	if err != nil {
		return Session{}, model.NewError(model.KindAuthExpired, "session", err)
	}
	s.ExpiresAt = exp
	if !exp.IsZero() && !p.now().Before(exp) {
		return Session{}, model.NewError(model.KindAuthExpired, "session",
			fmt.Errorf("token expired at %s", exp.Format(time.RFC3339)))
	}
	return s, nil
}

// Reauthenticate runs the login function and stores its result.
func (p *KeyringProvider) Reauthenticate(ctx context.Context) error {
	if p.login == nil {
		return model.NewError(model.KindAuthExpired, "reauthenticate",
			errors.New("session expired, run `habitcal login`"))
	}
	s, err := p.login(ctx)
	if err != nil {
		return fmt.Errorf("logging in: %w", err)
	}
	return p.Save(s)
}

// Save stores s, replacing any previous session.
func (p *KeyringProvider) Save(s Session) error {
	if s.OwnerID == "" {
		return model.Validation("save session", errors.New("owner id must not be empty"))
	}
	if err := p.creds.Set(credential.KeyOwnerID, s.OwnerID); err != nil {
		return err
	}
	if s.Token == "" {
		return p.creds.Delete(credential.KeyToken)
	}
	return p.creds.Set(credential.KeyToken, s.Token)
}

// Logout removes the stored session.
func (p *KeyringProvider) Logout() error {
	if err := p.creds.Delete(credential.KeyToken); err != nil {
		return err
	}
	return p.creds.Delete(credential.KeyOwnerID)
}

// Expiry reads the exp claim of a JWT without verifying its signature;
// verification belongs to the store that issued it. Tokens that are not
// JWTs are treated as non-expiring.
func Expiry(token string) (time.Time, error) {
	claims := jwt.MapClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("reading token: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("reading token expiry: %w", err)
	}
	if exp == nil {
		return time.Time{}, nil
	}
	return exp.Time, nil
}
