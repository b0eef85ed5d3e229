// Package derivation computes the deterministic account addresses used by the
// betting program. Every derived address is an ed25519 public key that does
// not lie on the curve, so no corresponding private key can exist.
package derivation

import (
	"crypto/ed25519"
	"crypto/sha256"
	"math"

	"github.com/jdgcs/ed25519/edwards25519"
	"github.com/pkg/errors"
)

const (
	// LedgerSeed derives the per-user ledger account from the owner's key.
	LedgerSeed = "ledger"

	// PlatformSeed derives the platform configuration singleton.
	PlatformSeed = "platform"

	// EscrowSeed derives a bet escrow account from the bettor's key and a
	// match id.
	EscrowSeed = "escrow"
)

const (
	maxSeeds      = 16
	maxSeedLength = 32

	derivationMarker = "ProgramDerivedAddress"
)

var (
	ErrTooManySeeds          = errors.New("too many seeds")
	ErrMaxSeedLengthExceeded = errors.New("max seed length exceeded")

	// ErrPointOnCurve indicates the candidate address is a valid curve point,
	// and must be rejected so derived addresses never have a signing key.
	ErrPointOnCurve = errors.New("derived address is on the ed25519 curve")

	// ErrDerivationExhausted indicates no valid bump was found in the entire
	// search range. This requires roughly 2^-255 luck per seed set.
	ErrDerivationExhausted = errors.New("derivation bump search exhausted")

	// ErrDerivationMismatch indicates a supplied address disagrees with the
	// one recomputed from its seeds and stored bump. This is a deployment or
	// derivation bug, never a recoverable caller error.
	ErrDerivationMismatch = errors.New("address doesn't match derivation")
)

// Derived is the result of a successful address derivation.
type Derived struct {
	Address ed25519.PublicKey
	Bump    uint8
}

// CreateAddress computes the address for an exact seed set, including the
// bump. ErrPointOnCurve is returned when the candidate must be rejected.
func CreateAddress(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, error) {
	if len(seeds) > maxSeeds {
		return nil, ErrTooManySeeds
	}

	h := sha256.New()
	for _, seed := range seeds {
		if len(seed) > maxSeedLength {
			return nil, ErrMaxSeedLengthExceeded
		}

		if _, err := h.Write(seed); err != nil {
			return nil, errors.Wrap(err, "failed to hash seed")
		}
	}

	for _, v := range [][]byte{program, []byte(derivationMarker)} {
		if _, err := h.Write(v); err != nil {
			return nil, errors.Wrap(err, "failed to hash seed")
		}
	}

	hash := h.Sum(nil)
	var candidate [32]byte
	copy(candidate[:], hash)

	// A candidate that decompresses to a valid Edwards point has a private
	// key somewhere, which breaks the address/key confusion guard.
	var point edwards25519.ExtendedGroupElement
	if point.FromBytes(&candidate) {
		return nil, ErrPointOnCurve
	}

	return candidate[:], nil
}

// FindAddress searches for the canonical bump, starting at 255 and walking
// down until the derived address falls off the curve.
func FindAddress(program ed25519.PublicKey, seeds ...[]byte) (*Derived, error) {
	bumpSeed := []byte{math.MaxUint8}
	for i := 0; i < math.MaxUint8; i++ {
		address, err := CreateAddress(program, append(seeds, bumpSeed)...)
		if err == nil {
			return &Derived{
				Address: address,
				Bump:    bumpSeed[0],
			}, nil
		}
		if err != ErrPointOnCurve {
			return nil, err
		}

		bumpSeed[0]--
	}

	return nil, ErrDerivationExhausted
}

// Verify recomputes an address from its seeds and stored bump, and fails with
// ErrDerivationMismatch when the supplied address disagrees.
func Verify(program, expected ed25519.PublicKey, bump uint8, seeds ...[]byte) error {
	address, err := CreateAddress(program, append(seeds, []byte{bump})...)
	if err != nil {
		return ErrDerivationMismatch
	}

	if !address.Equal(expected) {
		return ErrDerivationMismatch
	}

	return nil
}

// DeriveLedgerAddress computes the ledger account address for an owner.
func DeriveLedgerAddress(program, owner ed25519.PublicKey) (*Derived, error) {
	return FindAddress(program, []byte(LedgerSeed), owner)
}

// VerifyLedgerAddress checks a ledger account address against its stored bump.
func VerifyLedgerAddress(program, owner, expected ed25519.PublicKey, bump uint8) error {
	return Verify(program, expected, bump, []byte(LedgerSeed), owner)
}

// DerivePlatformAddress computes the platform configuration singleton address.
// The platform has no owner, so the tag is the only seed.
func DerivePlatformAddress(program ed25519.PublicKey) (*Derived, error) {
	return FindAddress(program, []byte(PlatformSeed))
}

// VerifyPlatformAddress checks the platform configuration address against its
// stored bump.
func VerifyPlatformAddress(program, expected ed25519.PublicKey, bump uint8) error {
	return Verify(program, expected, bump, []byte(PlatformSeed))
}

// DeriveEscrowAddress computes the escrow account address for a bettor's
// wager on a match. The match id is capped at the maximum seed length.
func DeriveEscrowAddress(program, bettor ed25519.PublicKey, matchID string) (*Derived, error) {
	if len(matchID) == 0 {
		return nil, errors.New("match id is required")
	}
	if len(matchID) > maxSeedLength {
		return nil, ErrMaxSeedLengthExceeded
	}

	return FindAddress(program, []byte(EscrowSeed), bettor, []byte(matchID))
}

// VerifyEscrowAddress checks a bet escrow address against its stored bump.
func VerifyEscrowAddress(program, bettor, expected ed25519.PublicKey, matchID string, bump uint8) error {
	return Verify(program, expected, bump, []byte(EscrowSeed), bettor, []byte(matchID))
}
