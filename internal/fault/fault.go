// Package fault defines the error taxonomy shared by the vault core.
// Repository and service calls return these typed errors; translating them
// into user-facing text is the command layer's job.
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies an error.
type Kind int

const (
	// Validation marks bad input that was never persisted.
	Validation Kind = iota
	// Conflict marks uniqueness or state violations.
	Conflict
	// NotFound marks a missing referenced entity.
	NotFound
	// Permission marks an access denial.
	Permission
	// Crypto marks a decryption or authentication failure. Always fail-closed.
	Crypto
	// Persistence marks a storage or transaction failure.
	Persistence
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Conflict:
		return "conflict"
	case NotFound:
		return "not found"
	case Permission:
		return "permission"
	case Crypto:
		return "crypto"
	case Persistence:
		return "persistence"
	}
	return "unknown"
}

// Error is a classified error, optionally wrapping a cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New returns a classified error with a formatted message.
func New(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error.
func Wrap(kind Kind, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Validationf returns a Validation error.
func Validationf(format string, args ...any) error { return New(Validation, format, args...) }

// Conflictf returns a Conflict error.
func Conflictf(format string, args ...any) error { return New(Conflict, format, args...) }

// NotFoundf returns a NotFound error.
func NotFoundf(format string, args ...any) error { return New(NotFound, format, args...) }

// Permissionf returns a Permission error.
func Permissionf(format string, args ...any) error { return New(Permission, format, args...) }

// Cryptof returns a Crypto error.
func Cryptof(format string, args ...any) error { return New(Crypto, format, args...) }

// Persistencef wraps err as a Persistence error.
func Persistencef(err error, format string, args ...any) error {
	return Wrap(Persistence, err, format, args...)
}

// KindOf returns the kind of err, or ok=false if err is unclassified.
func KindOf(err error) (Kind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return 0, false
}

func is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// IsValidation reports whether err is a Validation error.
func IsValidation(err error) bool { return is(err, Validation) }

// IsConflict reports whether err is a Conflict error.
func IsConflict(err error) bool { return is(err, Conflict) }

// IsNotFound reports whether err is a NotFound error.
func IsNotFound(err error) bool { return is(err, NotFound) }

// IsPermission reports whether err is a Permission error.
func IsPermission(err error) bool { return is(err, Permission) }

// IsCrypto reports whether err is a Crypto error.
func IsCrypto(err error) bool { return is(err, Crypto) }

// IsPersistence reports whether err is a Persistence error.
func IsPersistence(err error) bool { return is(err, Persistence) }
