package catgo

import (
	"errors"
	"fmt"
)

// Kind identifies the category of a catgo error, per the taxonomy the
// engine surfaces to callers. Values are opaque; obtain an error's Kind
// with KindOf, or compare with errors.Is against a *Error of the same Kind.
type Kind int

const (
	// InvalidShape signals ndim out of range, a zero/negative extent, a
	// block larger than its chunk, or a shape exceeding DMax.
	InvalidShape Kind = iota + 1
	// OutOfBounds signals a region coordinate outside [0, shape[i]] or
	// start > stop.
	OutOfBounds
	// BadBufferSize signals a caller buffer whose size does not match
	// the region it is meant to hold.
	BadBufferSize
	// BadAxis signals an axis index outside [0, ndim) or inconsistent
	// resize parameters.
	BadAxis
	// NotSqueezable signals a squeeze requested on an axis with extent > 1.
	NotSqueezable
	// NotCaterva signals a store lacking the shape meta descriptor, or
	// carrying an incompatible version.
	NotCaterva
	// StoreError is an opaque pass-through from the compressed-store layer.
	StoreError
	// OOM signals an allocation failure for descriptors or tile buffers.
	OOM
)

func (k Kind) String() string {
	switch k {
	case InvalidShape:
		return "InvalidShape"
	case OutOfBounds:
		return "OutOfBounds"
	case BadBufferSize:
		return "BadBufferSize"
	case BadAxis:
		return "BadAxis"
	case NotSqueezable:
		return "NotSqueezable"
	case NotCaterva:
		return "NotCaterva"
	case StoreError:
		return "StoreError"
	case OOM:
		return "OOM"
	default:
		return "Unknown"
	}
}

// Error is the error type returned by every public catgo operation that
// fails. Wrap with fmt.Errorf("...: %w", err) at call sites the way the
// rest of this codebase wraps store and I/O failures.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("catgo: %s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("catgo: %s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is allows errors.Is(err, target) to match any *Error target by Kind
// alone, independent of message or wrapped cause.
func (e *Error) Is(target error) bool {
	var te *Error
	if errors.As(target, &te) {
		return te.Kind == e.Kind
	}
	return false
}

func newErr(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

func wrapErr(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the Kind of err if it is (or wraps) a *Error, and ok=false
// otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
