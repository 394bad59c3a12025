// Package rlmerr defines the tagged error kinds surfaced across the
// storage and retrieval engine. Callers should test an error's Kind with
// Is rather than inspecting message text; errors.Is against the sentinel
// values matches only those exact instances, not other errors of the
// same Kind built with New or Wrap.
package rlmerr

import "errors"

// Kind tags an error with the taxonomy the engine promises never to break.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidID
	KindPathEscape
	KindInvalidSize
	KindNotFound
	KindDuplicate
	KindInvalidPattern
	KindEncoding
	KindProviderUnavailable
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindInvalidID:
		return "InvalidId"
	case KindPathEscape:
		return "PathEscape"
	case KindInvalidSize:
		return "InvalidSize"
	case KindNotFound:
		return "NotFound"
	case KindDuplicate:
		return "Duplicate"
	case KindInvalidPattern:
		return "InvalidPattern"
	case KindEncoding:
		return "EncodingError"
	case KindProviderUnavailable:
		return "ProviderUnavailable"
	case KindIO:
		return "IOError"
	default:
		return "Unknown"
	}
}

// Error wraps an underlying cause with a taxonomy Kind.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a tagged error with a message and no wrapped cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap tags an existing error with a Kind, preserving it for errors.Is/As.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// Sentinel instances for common input-validation failures, usable directly
// where no extra context is needed.
var (
	ErrInvalidID            = New(KindInvalidID, "invalid id")
	ErrPathEscape           = New(KindPathEscape, "resolved path escapes storage root")
	ErrInvalidSize          = New(KindInvalidSize, "content exceeds size limit")
	ErrNotFound             = New(KindNotFound, "not found")
	ErrInvalidPattern       = New(KindInvalidPattern, "invalid pattern")
	ErrEncoding             = New(KindEncoding, "invalid utf-8 content")
	ErrProviderUnavailable  = New(KindProviderUnavailable, "embedding provider unavailable")
)
