package repository

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel kinds for platform errors.
var (
	ErrNotFound       = errors.New("message not found")
	ErrInvalidChannel = errors.New("invalid channel")
)

// RateLimitedError reports that a write was refused by the platform's
// rate limiter.
type RateLimitedError struct {
	Retry time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited: retry after %s", e.Retry)
}

// RetryAfter returns how long the caller must wait before writing again.
func (e *RateLimitedError) RetryAfter() time.Duration { return e.Retry }
