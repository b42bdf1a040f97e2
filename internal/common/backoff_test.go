package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff(t *testing.T) {
	testCases := []struct {
		name    string
		base    time.Duration
		attempt int
		max     time.Duration
	}{
		{name: "first attempt", base: 500 * time.Millisecond, attempt: 0, max: 500 * time.Millisecond},
		{name: "doubles", base: 500 * time.Millisecond, attempt: 3, max: 4 * time.Second},
		{name: "capped", base: 500 * time.Millisecond, attempt: 10, max: MaxBackoff},
		{name: "shift past int64", base: 500 * time.Millisecond, attempt: 40, max: MaxBackoff},
		{name: "huge attempt", base: time.Millisecond, attempt: 1000, max: MaxBackoff},
		{name: "base above cap", base: 2 * MaxBackoff, attempt: 1, max: MaxBackoff},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for i := 0; i < 100; i++ {
				d := Backoff(tc.base, tc.attempt)
				assert.GreaterOrEqual(t, d, time.Duration(0))
				assert.Less(t, d, tc.max)
			}
		})
	}

	assert.Zero(t, Backoff(0, 3))
}
