package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures surfaced by the engine's collaborators.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	// KindNetwork covers transport failures and timeouts.
	KindNetwork
	// KindConflict is a constraint violation during upsert or delete.
	KindConflict
	// KindAuthExpired means the store rejected the session credential.
	KindAuthExpired
	// KindValidation is bad input: empty title, malformed date or icon.
	KindValidation
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network failure"
	case KindConflict:
		return "persistence conflict"
	case KindAuthExpired:
		return "auth expired"
	case KindValidation:
		return "validation error"
	default:
		return "unknown error"
	}
}

// Error is the typed error returned across component boundaries.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so callers can write
// errors.Is(err, &model.Error{Kind: model.KindConflict}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Op == "" || t.Op == e.Op)
}

// NewError wraps err with a kind and operation name. A nil err stays nil.
func NewError(kind ErrorKind, op string, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) && existing.Kind != KindUnknown {
		return err
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Validation builds a KindValidation error.
func Validation(op string, err error) error {
	return &Error{Kind: KindValidation, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
