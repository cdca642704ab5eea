package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyOwned     = errors.New("product already owned by buyer")
	ErrSoldOut          = errors.New("edition sold out")
	ErrMissingMetadata  = errors.New("missing metadata")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrNotConfigured    = errors.New("not configured")
	ErrInvalidInput     = errors.New("invalid input")
	ErrForbidden        = errors.New("forbidden")
	ErrRateLimited      = errors.New("rate limited")
)

// RateLimitError carries how long the caller has to wait.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry in %s", e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }
