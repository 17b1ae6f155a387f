// Package failure defines the typed error variants shared by the model,
// search and extraction boundaries.
package failure

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// #region kind

// Kind categorizes why an external call failed.
type Kind string

const (
	KindNone        Kind = ""
	KindTimeout     Kind = "timeout"
	KindTransport   Kind = "transport"
	KindStatus      Kind = "status"
	KindParse       Kind = "parse"
	KindEmpty       Kind = "empty"
	KindUnsupported Kind = "unsupported"
)

// #endregion kind

// #region error

// Error is a failure of one external operation.
type Error struct {
	Kind Kind
	Op   string // e.g. "search", "fetch", "chat"
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

// New builds an Error of the given kind.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf builds an Error with a formatted cause.
func Newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// #endregion error

// #region classify

// Classify wraps a transport-level error, telling timeouts apart from other
// transport failures. An error that already carries a Kind is returned as is.
func Classify(op string, err error) *Error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}
	if IsTimeoutErr(err) {
		return New(KindTimeout, op, err)
	}
	return New(KindTransport, op, err)
}

// IsTimeoutErr reports whether err is a deadline or network timeout.
func IsTimeoutErr(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// KindOf returns the Kind carried by err, or KindNone.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindNone
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// #endregion classify
