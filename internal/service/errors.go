package service

import (
	"errors"
	"fmt"
)

// Kind classifies a rejected operation so the transport layer can map it
// to a precise status and message instead of a generic failure.
type Kind int

const (
	// KindInternal covers storage and other unexpected failures.
	KindInternal Kind = iota
	// KindValidation covers bad input shape or values.
	KindValidation
	// KindUnauthorized covers caller-identity and role failures.
	KindUnauthorized
	// KindNotFound covers missing users, groups, expenses, settlements.
	KindNotFound
	// KindConflict covers consistency failures computed from ledger
	// state, e.g. a settlement exceeding the actual balance.
	KindConflict
)

// Error is a classified service failure.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the Kind from err, defaulting to KindInternal.
func KindOf(err error) Kind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindInternal
}

func validationf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func unauthorizedf(format string, args ...any) error {
	return &Error{Kind: KindUnauthorized, Msg: fmt.Sprintf(format, args...)}
}

func notFoundf(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func conflictf(format string, args ...any) error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

func internal(msg string, err error) error {
	return &Error{Kind: KindInternal, Msg: msg, Err: err}
}
