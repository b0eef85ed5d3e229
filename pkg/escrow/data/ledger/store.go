package ledger

import (
	"context"
	"errors"
	"time"
)

var (
	ErrLedgerAccountNotFound = errors.New("ledger account not found")
	ErrLedgerAccountExists   = errors.New("ledger account already exists")

	// ErrStaleLedgerAccount indicates the update lost an optimistic
	// concurrency race. Callers must re-read state and retry.
	ErrStaleLedgerAccount = errors.New("ledger account version is stale")
)

// Record is a per-user balance record. The address is derived from the
// owner's public key, and the record is never deleted once created.
type Record struct {
	Id uint64

	Address string
	Bump    uint8
	Owner   string

	Balance       uint64
	LockedBalance uint64

	TotalDeposited  uint64
	TotalWithdrawn  uint64
	DepositCount    uint64
	WithdrawalCount uint64

	LastWithdrawalAt *time.Time

	// Version guards every update with an optimistic compare-and-swap.
	Version uint64

	CreatedAt     time.Time
	LastUpdatedAt time.Time
}

type Store interface {
	// Put creates a new ledger account record. ErrLedgerAccountExists is
	// returned if a record already exists for the address or owner.
	Put(ctx context.Context, record *Record) error

	// Update saves a mutated record if, and only if, the stored version
	// matches record.Version. On success the version is advanced. Otherwise
	// ErrStaleLedgerAccount is returned and no state is changed.
	Update(ctx context.Context, record *Record) error

	// GetByAddress finds the record for a derived ledger account address
	GetByAddress(ctx context.Context, address string) (*Record, error)

	// GetByOwner finds the record for an owner public key
	GetByOwner(ctx context.Context, owner string) (*Record, error)

	// Count returns the total number of ledger accounts
	Count(ctx context.Context) (uint64, error)
}

func (r *Record) Validate() error {
	if len(r.Address) == 0 {
		return errors.New("address is required")
	}

	if len(r.Owner) == 0 {
		return errors.New("owner is required")
	}

	if r.LockedBalance > r.Balance {
		return errors.New("locked balance cannot exceed balance")
	}

	if r.LastWithdrawalAt != nil && r.WithdrawalCount == 0 {
		return errors.New("withdrawal timestamp set without withdrawals")
	}

	return nil
}

// AvailableBalance is the portion of the balance not pledged to open bets.
func (r *Record) AvailableBalance() uint64 {
	return r.Balance - r.LockedBalance
}

func (r *Record) Clone() Record {
	var lastWithdrawalAt *time.Time
	if r.LastWithdrawalAt != nil {
		cloned := *r.LastWithdrawalAt
		lastWithdrawalAt = &cloned
	}

	return Record{
		Id: r.Id,

		Address: r.Address,
		Bump:    r.Bump,
		Owner:   r.Owner,

		Balance:       r.Balance,
		LockedBalance: r.LockedBalance,

		TotalDeposited:  r.TotalDeposited,
		TotalWithdrawn:  r.TotalWithdrawn,
		DepositCount:    r.DepositCount,
		WithdrawalCount: r.WithdrawalCount,

		LastWithdrawalAt: lastWithdrawalAt,

		Version: r.Version,

		CreatedAt:     r.CreatedAt,
		LastUpdatedAt: r.LastUpdatedAt,
	}
}

func (r *Record) CopyTo(dst *Record) {
	dst.Id = r.Id

	dst.Address = r.Address
	dst.Bump = r.Bump
	dst.Owner = r.Owner

	dst.Balance = r.Balance
	dst.LockedBalance = r.LockedBalance

	dst.TotalDeposited = r.TotalDeposited
	dst.TotalWithdrawn = r.TotalWithdrawn
	dst.DepositCount = r.DepositCount
	dst.WithdrawalCount = r.WithdrawalCount

	dst.LastWithdrawalAt = r.LastWithdrawalAt

	dst.Version = r.Version

	dst.CreatedAt = r.CreatedAt
	dst.LastUpdatedAt = r.LastUpdatedAt
}
