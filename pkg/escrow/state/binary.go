package state

import (
	"crypto/ed25519"
	"encoding/binary"

	"github.com/pkg/errors"
)

// DataVersion tracks the account layout version so the format can evolve
// without misinterpreting old blobs.
type DataVersion uint8

const (
	DataVersionUnknown DataVersion = iota
	DataVersion1
)

const discriminatorSize = 8

var (
	// ErrInvalidAccountData indicates a blob that is too short or otherwise
	// malformed for the expected layout.
	ErrInvalidAccountData = errors.New("invalid account data")

	// ErrDiscriminatorMismatch indicates a blob belonging to a foreign
	// account type. It must be rejected outright, never reinterpreted.
	ErrDiscriminatorMismatch = errors.New("account discriminator mismatch")

	// ErrUnsupportedDataVersion indicates a layout version this build can't
	// parse.
	ErrUnsupportedDataVersion = errors.New("unsupported account data version")
)

func putDiscriminator(dst []byte, v []byte, offset *int) {
	copy(dst[*offset:], v)
	*offset += discriminatorSize
}

func getDiscriminator(src []byte, dst *[]byte, offset *int) {
	*dst = make([]byte, discriminatorSize)
	copy(*dst, src[*offset:])
	*offset += discriminatorSize
}

func putKey(dst []byte, src ed25519.PublicKey, offset *int) {
	copy(dst[*offset:], src)
	*offset += ed25519.PublicKeySize
}

func getKey(src []byte, dst *ed25519.PublicKey, offset *int) {
	*dst = make([]byte, ed25519.PublicKeySize)
	copy(*dst, src[*offset:])
	*offset += ed25519.PublicKeySize
}

func putUint8(dst []byte, v uint8, offset *int) {
	dst[*offset] = v
	*offset += 1
}

func getUint8(src []byte, dst *uint8, offset *int) {
	*dst = src[*offset]
	*offset += 1
}

func putUint16(dst []byte, v uint16, offset *int) {
	binary.LittleEndian.PutUint16(dst[*offset:], v)
	*offset += 2
}

func getUint16(src []byte, dst *uint16, offset *int) {
	*dst = binary.LittleEndian.Uint16(src[*offset:])
	*offset += 2
}

func putUint64(dst []byte, v uint64, offset *int) {
	binary.LittleEndian.PutUint64(dst[*offset:], v)
	*offset += 8
}

func getUint64(src []byte, dst *uint64, offset *int) {
	*dst = binary.LittleEndian.Uint64(src[*offset:])
	*offset += 8
}

func putInt64(dst []byte, v int64, offset *int) {
	binary.LittleEndian.PutUint64(dst[*offset:], uint64(v))
	*offset += 8
}

func getInt64(src []byte, dst *int64, offset *int) {
	*dst = int64(binary.LittleEndian.Uint64(src[*offset:]))
	*offset += 8
}

func putOptionalInt64(dst []byte, v *int64, offset *int) {
	if v != nil {
		dst[*offset] = 1
		binary.LittleEndian.PutUint64(dst[*offset+1:], uint64(*v))
	}
	*offset += 1 + 8
}

func getOptionalInt64(src []byte, dst **int64, offset *int) {
	if src[*offset] == 1 {
		val := int64(binary.LittleEndian.Uint64(src[*offset+1:]))
		*dst = &val
	} else {
		*dst = nil
	}
	*offset += 1 + 8
}

func putOptionalUint64(dst []byte, v *uint64, offset *int) {
	if v != nil {
		dst[*offset] = 1
		binary.LittleEndian.PutUint64(dst[*offset+1:], *v)
	}
	*offset += 1 + 8
}

func getOptionalUint64(src []byte, dst **uint64, offset *int) {
	if src[*offset] == 1 {
		val := binary.LittleEndian.Uint64(src[*offset+1:])
		*dst = &val
	} else {
		*dst = nil
	}
	*offset += 1 + 8
}

func putFixedString(dst []byte, src string, size int, offset *int) {
	putUint8(dst, uint8(len(src)), offset)
	copy(dst[*offset:], src)
	*offset += size
}

func getFixedString(src []byte, dst *string, size int, offset *int) {
	var length uint8
	getUint8(src, &length, offset)
	if int(length) > size {
		length = uint8(size)
	}
	*dst = string(src[*offset : *offset+int(length)])
	*offset += size
}
