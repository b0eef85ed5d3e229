package bet

import (
	"context"
	"errors"
	"time"
)

type Status uint8

const (
	StatusUnknown Status = iota
	StatusOpen
	StatusSettled
	StatusRefunded
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusSettled:
		return "settled"
	case StatusRefunded:
		return "refunded"
	}

	return "unknown"
}

var (
	ErrBetNotFound = errors.New("bet record not found")
	ErrBetExists   = errors.New("bet record already exists")

	// ErrBetNotOpen indicates an attempted transition on a bet that was
	// already settled or refunded. Settlement is applied exactly once.
	ErrBetNotOpen = errors.New("bet record is not open")
)

// Record is a single wager. It references exactly one ledger account (the
// bettor's) and holds the amount locked out of that account for the lifetime
// of the bet.
type Record struct {
	Id uint64

	Address string
	Bump    uint8

	MatchID string
	Bettor  string

	Amount          uint64
	SelectedOutcome uint8
	Status          Status

	Payout *uint64

	CreatedAt time.Time
	SettledAt *time.Time
}

type Store interface {
	// Put creates a new open bet record. ErrBetExists is returned if the
	// bettor already has a bet on the match.
	Put(ctx context.Context, record *Record) error

	// Update transitions an open bet to settled or refunded. ErrBetNotOpen
	// is returned if the stored bet already reached a terminal status.
	Update(ctx context.Context, record *Record) error

	// Get gets a bet record by match id and bettor
	Get(ctx context.Context, matchID, bettor string) (*Record, error)

	// GetByAddress gets a bet record by its derived escrow address
	GetByAddress(ctx context.Context, address string) (*Record, error)

	// GetAllByMatch gets all bet records for a match, in any status.
	// ErrBetNotFound is returned if there are none.
	GetAllByMatch(ctx context.Context, matchID string) ([]*Record, error)

	// GetDistinctOpenMatchIDs gets up to limit match ids that still have
	// open bets. ErrBetNotFound is returned if there are none.
	GetDistinctOpenMatchIDs(ctx context.Context, limit uint64) ([]string, error)

	// CountByStatus counts bet records in the provided status
	CountByStatus(ctx context.Context, status Status) (uint64, error)
}

func (r *Record) Validate() error {
	if len(r.Address) == 0 {
		return errors.New("address is required")
	}

	if len(r.MatchID) == 0 {
		return errors.New("match id is required")
	}

	if len(r.Bettor) == 0 {
		return errors.New("bettor is required")
	}

	if r.Amount == 0 {
		return errors.New("amount is required")
	}

	if r.SelectedOutcome == 0 {
		return errors.New("selected outcome is required")
	}

	switch r.Status {
	case StatusOpen:
		if r.Payout != nil || r.SettledAt != nil {
			return errors.New("open bet cannot have settlement fields")
		}
	case StatusSettled, StatusRefunded:
		if r.SettledAt == nil {
			return errors.New("settlement timestamp is required")
		}
	default:
		return errors.New("invalid status")
	}

	return nil
}

func (r *Record) IsOpen() bool {
	return r.Status == StatusOpen
}

func (r *Record) Clone() Record {
	var payout *uint64
	if r.Payout != nil {
		cloned := *r.Payout
		payout = &cloned
	}

	var settledAt *time.Time
	if r.SettledAt != nil {
		cloned := *r.SettledAt
		settledAt = &cloned
	}

	return Record{
		Id: r.Id,

		Address: r.Address,
		Bump:    r.Bump,

		MatchID: r.MatchID,
		Bettor:  r.Bettor,

		Amount:          r.Amount,
		SelectedOutcome: r.SelectedOutcome,
		Status:          r.Status,

		Payout: payout,

		CreatedAt: r.CreatedAt,
		SettledAt: settledAt,
	}
}

func (r *Record) CopyTo(dst *Record) {
	dst.Id = r.Id

	dst.Address = r.Address
	dst.Bump = r.Bump

	dst.MatchID = r.MatchID
	dst.Bettor = r.Bettor

	dst.Amount = r.Amount
	dst.SelectedOutcome = r.SelectedOutcome
	dst.Status = r.Status

	dst.Payout = r.Payout

	dst.CreatedAt = r.CreatedAt
	dst.SettledAt = r.SettledAt
}
