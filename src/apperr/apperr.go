// Package apperr holds the error kinds returned at service boundaries.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"
)

// Kind classifies a RequestError.
type Kind int

const (
	// KindGeneric covers every failure that is not about credentials.
	KindGeneric Kind = iota
	// KindAPIKey means the API key is missing, malformed or rejected.
	KindAPIKey
)

func (k Kind) String() string {
	switch k {
	case KindAPIKey:
		return "api_key"
	default:
		return "generic"
	}
}

// DefaultTimeout bounds Try when no timeout is given.
const DefaultTimeout = 15 * time.Second

var (
	// ErrGeneric matches any RequestError of KindGeneric via errors.Is.
	ErrGeneric = &RequestError{Kind: KindGeneric}
	// ErrAPIKey matches any RequestError of KindAPIKey via errors.Is.
	ErrAPIKey = &RequestError{Kind: KindAPIKey}
)

// RequestError is the error surfaced to callers of the services.
type RequestError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	msg := e.Message
	if msg == "" {
		if e.Kind == KindAPIKey {
			msg = "invalid or missing API key"
		} else {
			msg = "something went wrong"
		}
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Is matches another RequestError of the same kind.
func (e *RequestError) Is(target error) bool {
	t, ok := target.(*RequestError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Generic wraps err as a generic failure.
func Generic(message string, err error) error {
	return &RequestError{Kind: KindGeneric, Message: message, Err: err}
}

// APIKey wraps err as a credential failure.
func APIKey(message string, err error) error {
	return &RequestError{Kind: KindAPIKey, Message: message, Err: err}
}

// IsAPIKey reports whether err is a credential failure.
func IsAPIKey(err error) bool {
	return errors.Is(err, ErrAPIKey)
}

// KindOf returns the kind of the first RequestError in err's chain, or
// KindGeneric when there is none.
func KindOf(err error) Kind {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindGeneric
}

// ErrPanic wraps a recovered panic.
var ErrPanic = errors.New("panic")

// Try runs fn with a deadline. A non-positive timeout means DefaultTimeout.
// A panic in fn is returned as an error wrapping ErrPanic.
func Try[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (result T, err error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v\n%s", ErrPanic, r, debug.Stack())
		}
	}()

	result, err = fn(ctx)
	if err == nil && ctx.Err() != nil {
		var zero T
		return zero, ctx.Err()
	}
	return result, err
}
