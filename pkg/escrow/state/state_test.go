package state

import (
	"crypto/ed25519"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerAccount_RoundTrip(t *testing.T) {
	owner, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	lastWithdrawal := time.Now().Unix() - 3600

	expected := &LedgerAccount{
		DataVersion: DataVersion1,

		Owner: owner,
		Bump:  254,

		Balance:       1_000_000_000,
		LockedBalance: 250_000_000,

		TotalDeposited:  2_000_000_000,
		TotalWithdrawn:  1_000_000_000,
		DepositCount:    3,
		WithdrawalCount: 1,

		LastWithdrawalAt: &lastWithdrawal,
		CreatedAt:        time.Now().Unix() - 86400,
		LastUpdatedAt:    time.Now().Unix(),
	}

	marshalled := expected.Marshal()
	assert.Len(t, marshalled, LedgerAccountSize)

	var actual LedgerAccount
	require.NoError(t, actual.Unmarshal(marshalled))
	assert.Equal(t, expected, &actual)
}

func TestLedgerAccount_NoWithdrawals(t *testing.T) {
	owner, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	expected := &LedgerAccount{
		DataVersion: DataVersion1,

		Owner: owner,
		Bump:  255,

		CreatedAt:     time.Now().Unix(),
		LastUpdatedAt: time.Now().Unix(),
	}

	var actual LedgerAccount
	require.NoError(t, actual.Unmarshal(expected.Marshal()))
	assert.Nil(t, actual.LastWithdrawalAt)
	assert.Equal(t, expected, &actual)
}

func TestPlatformConfig_RoundTrip(t *testing.T) {
	admin, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	expected := &PlatformConfig{
		DataVersion: DataVersion1,

		Admin: admin,
		Bump:  253,

		MinimumDeposit: 100_000_000,
		MaximumDeposit: 100_000_000_000,
		PlatformFeeBps: 250,

		CreatedAt: time.Now().Unix(),
	}

	marshalled := expected.Marshal()
	assert.Len(t, marshalled, PlatformConfigSize)

	var actual PlatformConfig
	require.NoError(t, actual.Unmarshal(marshalled))
	assert.Equal(t, expected, &actual)
}

func TestBetAccount_RoundTrip(t *testing.T) {
	bettor, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	payout := uint64(475_000_000)
	settledAt := time.Now().Unix()

	expected := &BetAccount{
		DataVersion: DataVersion1,

		Bettor: bettor,
		Bump:   252,

		MatchID:         "match-2024-03-01-a",
		Amount:          250_000_000,
		SelectedOutcome: 1,
		Status:          BetStatusSettled,

		Payout: &payout,

		CreatedAt: time.Now().Unix() - 3600,
		SettledAt: &settledAt,
	}

	marshalled := expected.Marshal()
	assert.Len(t, marshalled, BetAccountSize)

	var actual BetAccount
	require.NoError(t, actual.Unmarshal(marshalled))
	assert.Equal(t, expected, &actual)
}

func TestUnmarshal_ForeignBlobRejected(t *testing.T) {
	owner, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	ledger := &LedgerAccount{
		DataVersion:   DataVersion1,
		Owner:         owner,
		Bump:          255,
		CreatedAt:     time.Now().Unix(),
		LastUpdatedAt: time.Now().Unix(),
	}

	var config PlatformConfig
	assert.Equal(t, ErrDiscriminatorMismatch, config.Unmarshal(ledger.Marshal()))

	var bet BetAccount
	assert.Equal(t, ErrDiscriminatorMismatch, bet.Unmarshal(ledger.Marshal()))
}

func TestUnmarshal_TooShort(t *testing.T) {
	var ledger LedgerAccount
	assert.Equal(t, ErrInvalidAccountData, ledger.Unmarshal([]byte{1, 2, 3}))

	var config PlatformConfig
	assert.Equal(t, ErrInvalidAccountData, config.Unmarshal(nil))
}

func TestUnmarshal_UnsupportedVersion(t *testing.T) {
	owner, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	ledger := &LedgerAccount{
		DataVersion:   DataVersion1,
		Owner:         owner,
		Bump:          255,
		CreatedAt:     time.Now().Unix(),
		LastUpdatedAt: time.Now().Unix(),
	}
	data := ledger.Marshal()
	data[discriminatorSize] = 99

	var actual LedgerAccount
	assert.Equal(t, ErrUnsupportedDataVersion, actual.Unmarshal(data))
}
