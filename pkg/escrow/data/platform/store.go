package platform

import (
	"context"
	"errors"
	"time"
)

// MaxPlatformFeeBps is the hard cap on the settlement fee rate (10%).
const MaxPlatformFeeBps = 1000

var (
	ErrConfigNotFound = errors.New("platform config not found")

	// ErrAlreadyInitialized indicates the singleton already exists.
	// Reinitialization is rejected, never merged.
	ErrAlreadyInitialized = errors.New("platform config already initialized")
)

// Record is the platform configuration singleton. It is created exactly once
// and no update path exists.
type Record struct {
	Id uint64

	Address string
	Bump    uint8
	Admin   string

	MinimumDeposit uint64
	MaximumDeposit uint64
	PlatformFeeBps uint16

	CreatedAt time.Time
}

type Store interface {
	// Put creates the platform config singleton. ErrAlreadyInitialized is
	// returned if a record already exists at the address.
	Put(ctx context.Context, record *Record) error

	// Get gets the platform config at a derived address
	Get(ctx context.Context, address string) (*Record, error)
}

func (r *Record) Validate() error {
	if len(r.Address) == 0 {
		return errors.New("address is required")
	}

	if len(r.Admin) == 0 {
		return errors.New("admin is required")
	}

	if r.MinimumDeposit == 0 {
		return errors.New("minimum deposit must be positive")
	}

	if r.MinimumDeposit >= r.MaximumDeposit {
		return errors.New("minimum deposit must be less than maximum deposit")
	}

	if r.PlatformFeeBps > MaxPlatformFeeBps {
		return errors.New("platform fee exceeds hard cap")
	}

	return nil
}

func (r *Record) Clone() Record {
	return Record{
		Id: r.Id,

		Address: r.Address,
		Bump:    r.Bump,
		Admin:   r.Admin,

		MinimumDeposit: r.MinimumDeposit,
		MaximumDeposit: r.MaximumDeposit,
		PlatformFeeBps: r.PlatformFeeBps,

		CreatedAt: r.CreatedAt,
	}
}

func (r *Record) CopyTo(dst *Record) {
	dst.Id = r.Id

	dst.Address = r.Address
	dst.Bump = r.Bump
	dst.Admin = r.Admin

	dst.MinimumDeposit = r.MinimumDeposit
	dst.MaximumDeposit = r.MaximumDeposit
	dst.PlatformFeeBps = r.PlatformFeeBps

	dst.CreatedAt = r.CreatedAt
}
