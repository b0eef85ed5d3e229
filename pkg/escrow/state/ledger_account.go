package state

import (
	"bytes"
	"crypto/ed25519"
)

// LedgerAccount is the on-ledger layout of a user's balance record.
type LedgerAccount struct {
	DataVersion DataVersion

	Owner ed25519.PublicKey
	Bump  uint8

	Balance       uint64
	LockedBalance uint64

	TotalDeposited  uint64
	TotalWithdrawn  uint64
	DepositCount    uint64
	WithdrawalCount uint64

	LastWithdrawalAt *int64 // Unix seconds
	CreatedAt        int64
	LastUpdatedAt    int64
}

const LedgerAccountSize = (discriminatorSize +
	1 + // data_version

	32 + // owner
	1 + // bump

	8 + // balance
	8 + // locked_balance

	8 + // total_deposited
	8 + // total_withdrawn
	8 + // deposit_count
	8 + // withdrawal_count

	1 + 8 + // last_withdrawal_at
	8 + // created_at
	8) // last_updated_at

var ledgerAccountDiscriminator = []byte{0x6c, 0x65, 0x64, 0x67, 0x65, 0x72, 0x61, 0x63} // "ledgerac"

func (obj *LedgerAccount) Marshal() []byte {
	data := make([]byte, LedgerAccountSize)

	var offset int

	putDiscriminator(data, ledgerAccountDiscriminator, &offset)
	putUint8(data, uint8(obj.DataVersion), &offset)

	putKey(data, obj.Owner, &offset)
	putUint8(data, obj.Bump, &offset)

	putUint64(data, obj.Balance, &offset)
	putUint64(data, obj.LockedBalance, &offset)

	putUint64(data, obj.TotalDeposited, &offset)
	putUint64(data, obj.TotalWithdrawn, &offset)
	putUint64(data, obj.DepositCount, &offset)
	putUint64(data, obj.WithdrawalCount, &offset)

	putOptionalInt64(data, obj.LastWithdrawalAt, &offset)
	putInt64(data, obj.CreatedAt, &offset)
	putInt64(data, obj.LastUpdatedAt, &offset)

	return data
}

func (obj *LedgerAccount) Unmarshal(data []byte) error {
	if len(data) < LedgerAccountSize {
		return ErrInvalidAccountData
	}

	var offset int
	var discriminator []byte

	getDiscriminator(data, &discriminator, &offset)
	if !bytes.Equal(discriminator, ledgerAccountDiscriminator) {
		return ErrDiscriminatorMismatch
	}

	var dataVersion uint8
	getUint8(data, &dataVersion, &offset)
	obj.DataVersion = DataVersion(dataVersion)
	if obj.DataVersion != DataVersion1 {
		return ErrUnsupportedDataVersion
	}

	getKey(data, &obj.Owner, &offset)
	getUint8(data, &obj.Bump, &offset)

	getUint64(data, &obj.Balance, &offset)
	getUint64(data, &obj.LockedBalance, &offset)

	getUint64(data, &obj.TotalDeposited, &offset)
	getUint64(data, &obj.TotalWithdrawn, &offset)
	getUint64(data, &obj.DepositCount, &offset)
	getUint64(data, &obj.WithdrawalCount, &offset)

	getOptionalInt64(data, &obj.LastWithdrawalAt, &offset)
	getInt64(data, &obj.CreatedAt, &offset)
	getInt64(data, &obj.LastUpdatedAt, &offset)

	return nil
}
