package ledger

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

var (
	// Validation errors. The caller can recover by correcting the input.
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrDepositBelowMinimum  = errors.New("deposit amount is below the platform minimum")
	ErrDepositAboveMaximum  = errors.New("deposit amount is above the platform maximum")
	ErrInvalidOutcome       = errors.New("selected outcome is invalid")
	ErrInvalidOdds          = errors.New("payout odds are invalid")
	ErrInvalidDepositLimits = errors.New("deposit limits must satisfy 0 < minimum < maximum")
	ErrInvalidPlatformFee   = errors.New("platform fee exceeds the hard cap")

	// ErrInvalidTransferReference indicates a deposit without a verifiable
	// funding transfer reference.
	ErrInvalidTransferReference = errors.New("transfer reference is required")

	// Authorization errors. Non-retryable without a different signer.
	ErrOwnershipMismatch  = errors.New("account is owned by a different authority")
	ErrUnauthorizedSigner = errors.New("operation is not signed by the required authority")

	// State-precondition errors without an actionable payload
	ErrPlatformNotInitialized = errors.New("platform config is not initialized")
	ErrAlreadySettled         = errors.New("match is already settled")

	// ErrUnknownAccount indicates an address with no ledger, escrow or
	// platform record behind it.
	ErrUnknownAccount = errors.New("no account exists at the address")

	// ErrAlreadyProcessed indicates a resubmission of a transfer that was
	// already applied. The caller must not treat this as a fresh failure.
	ErrAlreadyProcessed = errors.New("transfer was already processed")

	ErrRateLimited = errors.New("rate limited")
)

// InsufficientAvailableBalanceError reports how much is actually available,
// so callers can act on the shortfall instead of guessing.
type InsufficientAvailableBalanceError struct {
	Available uint64
	Requested uint64
}

func newInsufficientAvailableBalanceError(available, requested uint64) error {
	return &InsufficientAvailableBalanceError{
		Available: available,
		Requested: requested,
	}
}

func (e *InsufficientAvailableBalanceError) Error() string {
	return fmt.Sprintf("insufficient available balance (available %d, requested %d)", e.Available, e.Requested)
}

// CooldownActiveError reports the remaining wait before the next withdrawal
// is allowed.
type CooldownActiveError struct {
	RemainingWait time.Duration
}

func newCooldownActiveError(remainingWait time.Duration) error {
	return &CooldownActiveError{
		RemainingWait: remainingWait,
	}
}

func (e *CooldownActiveError) Error() string {
	return fmt.Sprintf("withdrawal cooldown is active (%s remaining)", e.RemainingWait)
}
