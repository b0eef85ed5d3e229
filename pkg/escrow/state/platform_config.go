package state

import (
	"bytes"
	"crypto/ed25519"
)

// PlatformConfig is the on-ledger layout of the platform configuration
// singleton.
type PlatformConfig struct {
	DataVersion DataVersion

	Admin ed25519.PublicKey
	Bump  uint8

	MinimumDeposit uint64
	MaximumDeposit uint64
	PlatformFeeBps uint16

	CreatedAt int64
}

const PlatformConfigSize = (discriminatorSize +
	1 + // data_version

	32 + // admin
	1 + // bump

	8 + // minimum_deposit
	8 + // maximum_deposit
	2 + // platform_fee_bps

	8) // created_at

var platformConfigDiscriminator = []byte{0x70, 0x6c, 0x61, 0x74, 0x66, 0x63, 0x66, 0x67} // "platfcfg"

func (obj *PlatformConfig) Marshal() []byte {
	data := make([]byte, PlatformConfigSize)

	var offset int

	putDiscriminator(data, platformConfigDiscriminator, &offset)
	putUint8(data, uint8(obj.DataVersion), &offset)

	putKey(data, obj.Admin, &offset)
	putUint8(data, obj.Bump, &offset)

	putUint64(data, obj.MinimumDeposit, &offset)
	putUint64(data, obj.MaximumDeposit, &offset)
	putUint16(data, obj.PlatformFeeBps, &offset)

	putInt64(data, obj.CreatedAt, &offset)

	return data
}

func (obj *PlatformConfig) Unmarshal(data []byte) error {
	if len(data) < PlatformConfigSize {
		return ErrInvalidAccountData
	}

	var offset int
	var discriminator []byte

	getDiscriminator(data, &discriminator, &offset)
	if !bytes.Equal(discriminator, platformConfigDiscriminator) {
		return ErrDiscriminatorMismatch
	}

	var dataVersion uint8
	getUint8(data, &dataVersion, &offset)
	obj.DataVersion = DataVersion(dataVersion)
	if obj.DataVersion != DataVersion1 {
		return ErrUnsupportedDataVersion
	}

	getKey(data, &obj.Admin, &offset)
	getUint8(data, &obj.Bump, &offset)

	getUint64(data, &obj.MinimumDeposit, &offset)
	getUint64(data, &obj.MaximumDeposit, &offset)
	getUint16(data, &obj.PlatformFeeBps, &offset)

	getInt64(data, &obj.CreatedAt, &offset)

	return nil
}
