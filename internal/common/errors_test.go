package common

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "nil", err: nil, want: KindNone},
		{name: "validation", err: ValidationError{Errors: map[string]string{"title": "must be provided"}}, want: KindValidation},
		{name: "wrapped validation", err: fmt.Errorf("create post: %w", ValidationError{}), want: KindValidation},
		{name: "not found", err: fmt.Errorf("get post: %w", ErrRecordNotFound), want: KindNotFound},
		{name: "conflict", err: ErrConflict, want: KindConflict},
		{name: "unauthorized", err: ErrUnauthorized, want: KindUnauthorized},
		{name: "forbidden", err: fmt.Errorf("revise: %w", ErrForbidden), want: KindForbidden},
		{name: "unavailable", err: ErrRemoteUnavailable, want: KindRemoteUnavailable},
		{name: "deadline", err: fmt.Errorf("list: %w", context.DeadlineExceeded), want: KindRemoteUnavailable},
		{name: "unknown", err: errors.New("boom"), want: KindInternal},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, KindOf(tc.err))
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "not_found", KindNotFound.String())
	assert.Equal(t, "remote_unavailable", KindRemoteUnavailable.String())
	assert.Equal(t, "internal", Kind(99).String())
}
