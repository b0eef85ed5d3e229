package ledger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentarena/escrow-server/pkg/escrow/common"
	"github.com/agentarena/escrow-server/pkg/escrow/data/event"
	ledgerstore "github.com/agentarena/escrow-server/pkg/escrow/data/ledger"
	"github.com/agentarena/escrow-server/pkg/escrow/derivation"
)

func TestDeposit_HappyPath(t *testing.T) {
	env := setup(t)
	env.initializePlatform(t)

	owner := newRandomTestAccount(t)
	env.deposit(t, owner, 1_000_000_000)

	accountRecord := env.getAccount(t, owner)
	assert.EqualValues(t, 1_000_000_000, accountRecord.Balance)
	assert.EqualValues(t, 0, accountRecord.LockedBalance)
	assert.EqualValues(t, 1_000_000_000, accountRecord.TotalDeposited)
	assert.EqualValues(t, 1, accountRecord.DepositCount)
	assert.Nil(t, accountRecord.LastWithdrawalAt)

	require.NoError(t, derivation.VerifyLedgerAddress(
		env.program.PublicKey().ToBytes(),
		owner.PublicKey().ToBytes(),
		mustKeyBytes(t, accountRecord.Address),
		accountRecord.Bump,
	))

	// Lazy account creation emits its own event before the deposit event
	events, err := env.service.GetEventHistory(env.ctx, owner.PublicKey())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, event.TypeDeposit, events[0].EventType)
	assert.EqualValues(t, 1_000_000_000, events[0].Amount)
	assert.EqualValues(t, 0, events[0].PreviousBalance)
	assert.EqualValues(t, 1_000_000_000, events[0].NewBalance)
	require.NotNil(t, events[0].TransferReference)
	assert.Equal(t, event.TypeAccountCreated, events[1].EventType)

	// Second deposit reuses the account
	env.deposit(t, owner, 500_000_000)

	accountRecord = env.getAccount(t, owner)
	assert.EqualValues(t, 1_500_000_000, accountRecord.Balance)
	assert.EqualValues(t, 2, accountRecord.DepositCount)
}

func TestDeposit_BelowMinimum(t *testing.T) {
	env := setup(t)
	env.initializePlatform(t)

	owner := newRandomTestAccount(t)
	env.deposit(t, owner, 1_000_000_000)

	err := env.service.Deposit(env.ctx, owner, 50_000_000, uuid.New().String())
	assert.Equal(t, ErrDepositBelowMinimum, err)

	// Zero is just the degenerate below-minimum case
	err = env.service.Deposit(env.ctx, owner, 0, uuid.New().String())
	assert.Equal(t, ErrDepositBelowMinimum, err)

	accountRecord := env.getAccount(t, owner)
	assert.EqualValues(t, 1_000_000_000, accountRecord.Balance)
	assert.EqualValues(t, 1, accountRecord.DepositCount)
}

func TestDeposit_AboveMaximum(t *testing.T) {
	env := setup(t)
	env.initializePlatform(t)

	owner := newRandomTestAccount(t)
	err := env.service.Deposit(env.ctx, owner, testMaximumDeposit+1, uuid.New().String())
	assert.Equal(t, ErrDepositAboveMaximum, err)

	_, err = env.service.GetAccount(env.ctx, owner.PublicKey())
	assert.Equal(t, ledgerstore.ErrLedgerAccountNotFound, err)
}

func TestDeposit_AlreadyProcessed(t *testing.T) {
	env := setup(t)
	env.initializePlatform(t)

	owner := newRandomTestAccount(t)
	transferReference := uuid.New().String()

	require.NoError(t, env.service.Deposit(env.ctx, owner, 1_000_000_000, transferReference))

	err := env.service.Deposit(env.ctx, owner, 1_000_000_000, transferReference)
	assert.Equal(t, ErrAlreadyProcessed, err)

	accountRecord := env.getAccount(t, owner)
	assert.EqualValues(t, 1_000_000_000, accountRecord.Balance)
	assert.EqualValues(t, 1, accountRecord.DepositCount)
}

func TestDeposit_PlatformNotInitialized(t *testing.T) {
	env := setup(t)

	owner := newRandomTestAccount(t)
	err := env.service.Deposit(env.ctx, owner, 1_000_000_000, uuid.New().String())
	assert.Equal(t, ErrPlatformNotInitialized, err)
}

func TestDeposit_Validation(t *testing.T) {
	env := setup(t)
	env.initializePlatform(t)

	owner := newRandomTestAccount(t)

	err := env.service.Deposit(env.ctx, owner, 1_000_000_000, "")
	assert.Equal(t, ErrInvalidTransferReference, err)

	publicOnlyOwner, err := common.NewAccountFromPublicKey(owner.PublicKey())
	require.NoError(t, err)
	err = env.service.Deposit(env.ctx, publicOnlyOwner, 1_000_000_000, uuid.New().String())
	assert.Equal(t, ErrUnauthorizedSigner, err)
}

func TestDeposit_OwnershipMismatch(t *testing.T) {
	env := setup(t)
	env.initializePlatform(t)

	owner := newRandomTestAccount(t)
	other := newRandomTestAccount(t)

	// Plant a record at the owner's derived address held by another authority
	derived, err := derivation.DeriveLedgerAddress(env.program.PublicKey().ToBytes(), owner.PublicKey().ToBytes())
	require.NoError(t, err)
	address, err := common.NewKeyFromBytes(derived.Address)
	require.NoError(t, err)
	require.NoError(t, env.data.CreateLedgerAccount(env.ctx, &ledgerstore.Record{
		Address:       address.ToBase58(),
		Bump:          derived.Bump,
		Owner:         other.PublicKey().ToBase58(),
		CreatedAt:     env.currentTime,
		LastUpdatedAt: env.currentTime,
	}))

	err = env.service.Deposit(env.ctx, owner, 1_000_000_000, uuid.New().String())
	assert.Equal(t, ErrOwnershipMismatch, err)
}
