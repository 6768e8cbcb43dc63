// Package errs defines the failure taxonomy shared by the guard's commands.
package errs

import (
	"errors"
	"fmt"
)

// Kind categorizes a failure
type Kind int

const (
	KindUnknown Kind = iota
	KindMismatch
	KindMissingCredential
	KindAuthentication
	KindWrite
	KindPermission
	KindServiceManager
	KindAlreadyConfigured
	KindInvalidRecord
)

func (k Kind) String() string {
	switch k {
	case KindMismatch:
		return "passwords do not match"
	case KindMissingCredential:
		return "no password configured"
	case KindAuthentication:
		return "authentication failed"
	case KindWrite:
		return "write failed"
	case KindPermission:
		return "permission change failed"
	case KindServiceManager:
		return "service manager rejected request"
	case KindAlreadyConfigured:
		return "password already configured"
	case KindInvalidRecord:
		return "invalid credential record"
	default:
		return "unknown error"
	}
}

// Error wraps a failure with the operation and path it concerns
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

// Sentinels for errors.Is
var (
	ErrMismatch          = &Error{Kind: KindMismatch}
	ErrMissingCredential = &Error{Kind: KindMissingCredential}
	ErrAuthentication    = &Error{Kind: KindAuthentication}
	ErrWrite             = &Error{Kind: KindWrite}
	ErrPermission        = &Error{Kind: KindPermission}
	ErrServiceManager    = &Error{Kind: KindServiceManager}
	ErrAlreadyConfigured = &Error{Kind: KindAlreadyConfigured}
	ErrInvalidRecord     = &Error{Kind: KindInvalidRecord}
)

// New creates an error of the given kind
func New(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// Error implements error interface
func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Path != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Path)
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap implements error unwrapping
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Path == "" && t.Err == nil
}

// KindOf returns the kind of the first *Error in err's chain
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
