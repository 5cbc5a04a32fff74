package fetch

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
)

// Kind categorizes a fetch failure.
type Kind string

const (
	KindUnreachable Kind = "unreachable"
	KindHTTP        Kind = "http"
	KindParse       Kind = "parse"
	KindEmpty       Kind = "empty"
)

// Error is the single error type feeds surface to the scheduler.
type Error struct {
	Kind   Kind
	Status int // set for KindHTTP
	URL    string
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindHTTP:
		return fmt.Sprintf("http error %d from %s", e.Status, e.URL)
	case KindEmpty:
		if e.Err != nil {
			return fmt.Sprintf("empty result from %s: %v", e.URL, e.Err)
		}
		return fmt.Sprintf("empty result from %s", e.URL)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Kind, e.URL, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Kind, e.URL)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by Kind (and Status when both are HTTP errors),
// so errors.Is(err, ErrParse) works regardless of URL.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Status == 0 || t.Status == e.Status
}

// Sentinels for errors.Is checks.
var (
	ErrUnreachable = &Error{Kind: KindUnreachable}
	ErrHTTP        = &Error{Kind: KindHTTP}
	ErrParse       = &Error{Kind: KindParse}
	ErrEmpty       = &Error{Kind: KindEmpty}
)

// Empty builds a KindEmpty error for url with an optional reason.
func Empty(url, reason string) *Error {
	e := &Error{Kind: KindEmpty, URL: url}
	if reason != "" {
		e.Err = errors.New(reason)
	}
	return e
}

// ParseError builds a KindParse error for url.
func ParseError(url string, err error) *Error {
	return &Error{Kind: KindParse, URL: url, Err: err}
}

// Classify maps any error into the taxonomy. Errors that are already *Error
// are returned as is. Everything else, timeouts included, is unreachable.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}
	return &Error{Kind: KindUnreachable, Err: err}
}

// IsTimeout reports whether err came from a deadline or cancellation.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
