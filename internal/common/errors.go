package common

import (
	"context"
	"errors"
)

var (
	ErrRecordNotFound    = errors.New("record not found")
	ErrConflict          = errors.New("record already exists")
	ErrUnauthorized      = errors.New("unauthorized access")
	ErrForbidden         = errors.New("action not permitted")
	ErrRemoteUnavailable = errors.New("remote backend unavailable")
)

// Kind is the class of failure an operation ended with. Every adapter error
// falls in exactly one kind so callers never have to guess from a sentinel value.
type Kind int

const (
	KindNone Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
	KindRemoteUnavailable
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindRemoteUnavailable:
		return "remote_unavailable"
	default:
		return "internal"
	}
}

// KindOf classifies err. Context cancellation and deadline errors count as the
// remote being unavailable since they only happen while waiting on it.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}

	var validationErr ValidationError
	switch {
	case errors.As(err, &validationErr):
		return KindValidation
	case errors.Is(err, ErrRecordNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrRemoteUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return KindRemoteUnavailable
	default:
		return KindInternal
	}
}
