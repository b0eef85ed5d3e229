package state

import (
	"bytes"
	"crypto/ed25519"
)

// BetStatus is the lifecycle state of a wager.
type BetStatus uint8

const (
	BetStatusUnknown BetStatus = iota
	BetStatusOpen
	BetStatusSettled
	BetStatusRefunded
)

func (s BetStatus) String() string {
	switch s {
	case BetStatusOpen:
		return "open"
	case BetStatusSettled:
		return "settled"
	case BetStatusRefunded:
		return "refunded"
	}

	return "unknown"
}

// MaxMatchIDLength bounds the match id so it always fits in a derivation
// seed.
const MaxMatchIDLength = 32

// BetAccount is the on-ledger layout of a single wager's escrow record.
type BetAccount struct {
	DataVersion DataVersion

	Bettor ed25519.PublicKey
	Bump   uint8

	MatchID         string
	Amount          uint64
	SelectedOutcome uint8
	Status          BetStatus

	Payout *uint64

	CreatedAt int64
	SettledAt *int64
}

const BetAccountSize = (discriminatorSize +
	1 + // data_version

	32 + // bettor
	1 + // bump

	1 + MaxMatchIDLength + // match_id
	8 + // amount
	1 + // selected_outcome
	1 + // status

	1 + 8 + // payout

	8 + // created_at
	1 + 8) // settled_at

var betAccountDiscriminator = []byte{0x62, 0x65, 0x74, 0x65, 0x73, 0x63, 0x72, 0x77} // "betescrw"

func (obj *BetAccount) Marshal() []byte {
	data := make([]byte, BetAccountSize)

	var offset int

	putDiscriminator(data, betAccountDiscriminator, &offset)
	putUint8(data, uint8(obj.DataVersion), &offset)

	putKey(data, obj.Bettor, &offset)
	putUint8(data, obj.Bump, &offset)

	putFixedString(data, obj.MatchID, MaxMatchIDLength, &offset)
	putUint64(data, obj.Amount, &offset)
	putUint8(data, obj.SelectedOutcome, &offset)
	putUint8(data, uint8(obj.Status), &offset)

	putOptionalUint64(data, obj.Payout, &offset)

	putInt64(data, obj.CreatedAt, &offset)
	putOptionalInt64(data, obj.SettledAt, &offset)

	return data
}

func (obj *BetAccount) Unmarshal(data []byte) error {
	if len(data) < BetAccountSize {
		return ErrInvalidAccountData
	}

	var offset int
	var discriminator []byte

	getDiscriminator(data, &discriminator, &offset)
	if !bytes.Equal(discriminator, betAccountDiscriminator) {
		return ErrDiscriminatorMismatch
	}

	var dataVersion uint8
	getUint8(data, &dataVersion, &offset)
	obj.DataVersion = DataVersion(dataVersion)
	if obj.DataVersion != DataVersion1 {
		return ErrUnsupportedDataVersion
	}

	getKey(data, &obj.Bettor, &offset)
	getUint8(data, &obj.Bump, &offset)

	getFixedString(data, &obj.MatchID, MaxMatchIDLength, &offset)
	getUint64(data, &obj.Amount, &offset)
	getUint8(data, &obj.SelectedOutcome, &offset)

	var status uint8
	getUint8(data, &status, &offset)
	obj.Status = BetStatus(status)

	getOptionalUint64(data, &obj.Payout, &offset)

	getInt64(data, &obj.CreatedAt, &offset)
	getOptionalInt64(data, &obj.SettledAt, &offset)

	return nil
}
