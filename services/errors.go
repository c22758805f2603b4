package services

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors shared by all services. Handlers translate these to HTTP
// statuses; services wrap them with context via fmt.Errorf and %w, so callers
// must check with errors.Is.
var (
	// ErrNotFound — the referenced user, task or assignment does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict — a uniqueness constraint was violated (tg_id already
	// registered).
	ErrConflict = errors.New("already exists")

	// ErrAlreadyAssigned — the (user, task) pair already exists. Benign: the
	// caller's desired end state already holds.
	ErrAlreadyAssigned = errors.New("task already assigned")

	// ErrInvalidArgument — malformed input, or an attempt to patch a
	// system-managed field such as points or referral_code.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnavailable — the store timed out or failed transiently; safe to
	// retry with backoff.
	ErrUnavailable = errors.New("store unavailable")

	// ErrCodeSpaceExhausted — referral code generation kept colliding past
	// the retry bound. Practically unreachable; fatal when it happens.
	ErrCodeSpaceExhausted = errors.New("referral code space exhausted")
)

// wrapStore maps driver-level failures onto the service taxonomy. Timeouts
// and cancellations become ErrUnavailable so callers know the call is
// retryable; everything else passes through untouched.
func wrapStore(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
