package event

import (
	"context"
	"errors"
	"time"
)

type Type uint8

const (
	TypeUnknown Type = iota
	TypePlatformInitialized
	TypeAccountCreated
	TypeDeposit
	TypeWithdrawal
	TypeBetPlaced
	TypeBetSettled
	TypeBetRefunded
)

func (t Type) String() string {
	switch t {
	case TypePlatformInitialized:
		return "platform_initialized"
	case TypeAccountCreated:
		return "account_created"
	case TypeDeposit:
		return "deposit"
	case TypeWithdrawal:
		return "withdrawal"
	case TypeBetPlaced:
		return "bet_placed"
	case TypeBetSettled:
		return "bet_settled"
	case TypeBetRefunded:
		return "bet_refunded"
	}

	return "unknown"
}

// DeliveryState tracks outbox delivery. Events are written in the same
// transaction as the mutation they describe, then published asynchronously.
type DeliveryState uint8

const (
	DeliveryStateUnknown DeliveryState = iota
	DeliveryStatePending
	DeliveryStatePublished
)

var (
	ErrEventNotFound = errors.New("event record not found")
	ErrEventExists   = errors.New("event record already exists")

	// ErrDuplicateTransferReference indicates the underlying transfer was
	// already applied to the ledger. Callers must treat this as "already
	// processed", not as a fresh failure.
	ErrDuplicateTransferReference = errors.New("transfer reference already applied")
)

// Record is one entry in the append-only ledger event log.
type Record struct {
	Id uint64

	EventID   string
	EventType Type

	Owner string

	Amount          uint64
	PreviousBalance uint64
	NewBalance      uint64

	MatchID           *string
	TransferReference *string

	DeliveryState DeliveryState

	CreatedAt   time.Time
	PublishedAt *time.Time
}

type Store interface {
	// Put appends a new event record. ErrDuplicateTransferReference is
	// returned if another event already claimed the transfer reference.
	Put(ctx context.Context, record *Record) error

	// Get gets an event record by its event id
	Get(ctx context.Context, eventID string) (*Record, error)

	// GetByTransferReference gets the event that applied a transfer
	GetByTransferReference(ctx context.Context, reference string) (*Record, error)

	// GetAllByOwner gets up to limit most recent events for an owner
	GetAllByOwner(ctx context.Context, owner string, limit uint64) ([]*Record, error)

	// GetBatchByDeliveryState gets up to limit oldest events in the provided
	// delivery state. ErrEventNotFound is returned if there are none.
	GetBatchByDeliveryState(ctx context.Context, state DeliveryState, limit uint64) ([]*Record, error)

	// MarkPublished transitions an event to the published delivery state
	MarkPublished(ctx context.Context, eventID string) error
}

func (r *Record) Validate() error {
	if len(r.EventID) == 0 {
		return errors.New("event id is required")
	}

	if r.EventType == TypeUnknown || r.EventType > TypeBetRefunded {
		return errors.New("invalid event type")
	}

	if len(r.Owner) == 0 {
		return errors.New("owner is required")
	}

	if r.MatchID != nil && len(*r.MatchID) == 0 {
		return errors.New("match id is required when set")
	}

	if r.TransferReference != nil && len(*r.TransferReference) == 0 {
		return errors.New("transfer reference is required when set")
	}

	if r.DeliveryState == DeliveryStateUnknown {
		return errors.New("delivery state is required")
	}

	return nil
}

func (r *Record) Clone() Record {
	var matchID *string
	if r.MatchID != nil {
		cloned := *r.MatchID
		matchID = &cloned
	}

	var transferReference *string
	if r.TransferReference != nil {
		cloned := *r.TransferReference
		transferReference = &cloned
	}

	var publishedAt *time.Time
	if r.PublishedAt != nil {
		cloned := *r.PublishedAt
		publishedAt = &cloned
	}

	return Record{
		Id: r.Id,

		EventID:   r.EventID,
		EventType: r.EventType,

		Owner: r.Owner,

		Amount:          r.Amount,
		PreviousBalance: r.PreviousBalance,
		NewBalance:      r.NewBalance,

		MatchID:           matchID,
		TransferReference: transferReference,

		DeliveryState: r.DeliveryState,

		CreatedAt:   r.CreatedAt,
		PublishedAt: publishedAt,
	}
}

func (r *Record) CopyTo(dst *Record) {
	dst.Id = r.Id

	dst.EventID = r.EventID
	dst.EventType = r.EventType

	dst.Owner = r.Owner

	dst.Amount = r.Amount
	dst.PreviousBalance = r.PreviousBalance
	dst.NewBalance = r.NewBalance

	dst.MatchID = r.MatchID
	dst.TransferReference = r.TransferReference

	dst.DeliveryState = r.DeliveryState

	dst.CreatedAt = r.CreatedAt
	dst.PublishedAt = r.PublishedAt
}
