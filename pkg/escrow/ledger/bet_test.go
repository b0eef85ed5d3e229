package ledger

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	betstore "github.com/agentarena/escrow-server/pkg/escrow/data/bet"
	"github.com/agentarena/escrow-server/pkg/escrow/data/event"
)

func TestPlaceBet_HappyPath(t *testing.T) {
	env := setup(t)
	env.initializePlatform(t)

	bettor := newRandomTestAccount(t)
	env.deposit(t, bettor, 1_000_000_000)

	require.NoError(t, env.service.PlaceBet(env.ctx, bettor, "match1", 300_000_000, 1))

	// Locking never changes the balance itself
	accountRecord := env.getAccount(t, bettor)
	assert.EqualValues(t, 1_000_000_000, accountRecord.Balance)
	assert.EqualValues(t, 300_000_000, accountRecord.LockedBalance)
	assert.EqualValues(t, 700_000_000, accountRecord.AvailableBalance())

	betRecord, err := env.data.GetBet(env.ctx, "match1", bettor.PublicKey().ToBase58())
	require.NoError(t, err)
	assert.Equal(t, betstore.StatusOpen, betRecord.Status)
	assert.EqualValues(t, 300_000_000, betRecord.Amount)
	assert.EqualValues(t, 1, betRecord.SelectedOutcome)

	events, err := env.service.GetEventHistory(env.ctx, bettor.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, event.TypeBetPlaced, events[0].EventType)
	require.NotNil(t, events[0].MatchID)
	assert.Equal(t, "match1", *events[0].MatchID)
}

func TestPlaceBet_Validation(t *testing.T) {
	env := setup(t)
	env.initializePlatform(t)

	bettor := newRandomTestAccount(t)
	env.deposit(t, bettor, 1_000_000_000)

	err := env.service.PlaceBet(env.ctx, bettor, "match1", 0, 1)
	assert.Equal(t, ErrInvalidAmount, err)

	err = env.service.PlaceBet(env.ctx, bettor, "match1", 100_000_000, 0)
	assert.Equal(t, ErrInvalidOutcome, err)

	err = env.service.PlaceBet(env.ctx, bettor, "match1", 2_000_000_000, 1)
	insufficientErr, ok := err.(*InsufficientAvailableBalanceError)
	require.True(t, ok)
	assert.EqualValues(t, 1_000_000_000, insufficientErr.Available)

	require.NoError(t, env.service.PlaceBet(env.ctx, bettor, "match1", 100_000_000, 1))

	// One bet per bettor per match
	err = env.service.PlaceBet(env.ctx, bettor, "match1", 100_000_000, 2)
	assert.Equal(t, betstore.ErrBetExists, err)
}

func TestSettleMatch_WinnerAndLoser(t *testing.T) {
	env := setup(t)
	env.initializePlatform(t)

	winner := newRandomTestAccount(t)
	loser := newRandomTestAccount(t)
	env.deposit(t, winner, 1_000_000_000)
	env.deposit(t, loser, 1_000_000_000)

	require.NoError(t, env.service.PlaceBet(env.ctx, winner, "match1", 100_000_000, 1))
	require.NoError(t, env.service.PlaceBet(env.ctx, loser, "match1", 100_000_000, 2))

	// Even odds, so winnings are 2x the stake, less the 2.5% platform fee
	require.NoError(t, env.service.SettleMatch(env.ctx, env.admin, "match1", 1, 2, 1))

	winnerRecord := env.getAccount(t, winner)
	assert.EqualValues(t, 0, winnerRecord.LockedBalance)
	assert.EqualValues(t, 1_195_000_000, winnerRecord.Balance)

	loserRecord := env.getAccount(t, loser)
	assert.EqualValues(t, 0, loserRecord.LockedBalance)
	assert.EqualValues(t, 900_000_000, loserRecord.Balance)

	winnerBet, err := env.data.GetBet(env.ctx, "match1", winner.PublicKey().ToBase58())
	require.NoError(t, err)
	assert.Equal(t, betstore.StatusSettled, winnerBet.Status)
	require.NotNil(t, winnerBet.Payout)
	assert.EqualValues(t, 195_000_000, *winnerBet.Payout)

	loserBet, err := env.data.GetBet(env.ctx, "match1", loser.PublicKey().ToBase58())
	require.NoError(t, err)
	assert.Equal(t, betstore.StatusSettled, loserBet.Status)
	assert.Nil(t, loserBet.Payout)

	events, err := env.service.GetEventHistory(env.ctx, winner.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, event.TypeBetSettled, events[0].EventType)
}

func TestSettleMatch_LargeStakeAndOdds(t *testing.T) {
	env := setup(t)
	env.initializePlatform(t)

	bettor := newRandomTestAccount(t)
	env.deposit(t, bettor, testMaximumDeposit)

	require.NoError(t, env.service.PlaceBet(env.ctx, bettor, "match1", testMaximumDeposit, 1))

	// The intermediate stake * numerator product exceeds 64 bits here, but
	// the quotient does not, so settlement must still pay out exactly
	require.NoError(t, env.service.SettleMatch(env.ctx, env.admin, "match1", 1, 1_000_000_000, 500_000_000))

	accountRecord := env.getAccount(t, bettor)
	assert.EqualValues(t, 0, accountRecord.LockedBalance)
	assert.EqualValues(t, 295_000_000_000, accountRecord.Balance)

	betRecord, err := env.data.GetBet(env.ctx, "match1", bettor.PublicKey().ToBase58())
	require.NoError(t, err)
	require.NotNil(t, betRecord.Payout)
	assert.EqualValues(t, 195_000_000_000, *betRecord.Payout)
}

func TestSettleMatch_PayoutOverflowRejected(t *testing.T) {
	env := setup(t)
	env.initializePlatform(t)

	bettor := newRandomTestAccount(t)
	env.deposit(t, bettor, 1_000_000_000)

	require.NoError(t, env.service.PlaceBet(env.ctx, bettor, "match1", 1_000_000_000, 1))

	err := env.service.SettleMatch(env.ctx, env.admin, "match1", 1, math.MaxUint64, 1)
	assert.Equal(t, ErrInvalidOdds, err)

	// The match stays open, so it can still be settled with sane odds
	betRecord, err := env.data.GetBet(env.ctx, "match1", bettor.PublicKey().ToBase58())
	require.NoError(t, err)
	assert.Equal(t, betstore.StatusOpen, betRecord.Status)

	require.NoError(t, env.service.SettleMatch(env.ctx, env.admin, "match1", 1, 2, 1))
}

func TestSettleMatch_NoDoubleSettlement(t *testing.T) {
	env := setup(t)
	env.initializePlatform(t)

	bettor := newRandomTestAccount(t)
	env.deposit(t, bettor, 1_000_000_000)

	require.NoError(t, env.service.PlaceBet(env.ctx, bettor, "match1", 100_000_000, 1))
	require.NoError(t, env.service.SettleMatch(env.ctx, env.admin, "match1", 1, 2, 1))

	balanceAfterSettlement := env.getAccount(t, bettor).Balance

	err := env.service.SettleMatch(env.ctx, env.admin, "match1", 1, 2, 1)
	assert.Equal(t, ErrAlreadySettled, err)

	// The payout was applied exactly once
	assert.Equal(t, balanceAfterSettlement, env.getAccount(t, bettor).Balance)
}

func TestSettleMatch_Validation(t *testing.T) {
	env := setup(t)
	env.initializePlatform(t)

	bettor := newRandomTestAccount(t)
	env.deposit(t, bettor, 1_000_000_000)
	require.NoError(t, env.service.PlaceBet(env.ctx, bettor, "match1", 100_000_000, 1))

	err := env.service.SettleMatch(env.ctx, env.admin, "match1", 0, 2, 1)
	assert.Equal(t, ErrInvalidOutcome, err)

	err = env.service.SettleMatch(env.ctx, env.admin, "match1", 1, 0, 1)
	assert.Equal(t, ErrInvalidOdds, err)

	err = env.service.SettleMatch(env.ctx, env.admin, "match1", 1, 2, 0)
	assert.Equal(t, ErrInvalidOdds, err)

	notAdmin := newRandomTestAccount(t)
	err = env.service.SettleMatch(env.ctx, notAdmin, "match1", 1, 2, 1)
	assert.Equal(t, ErrUnauthorizedSigner, err)

	err = env.service.SettleMatch(env.ctx, env.admin, "unknown", 1, 2, 1)
	assert.Equal(t, betstore.ErrBetNotFound, err)

	// Nothing was settled by the failed attempts
	accountRecord := env.getAccount(t, bettor)
	assert.EqualValues(t, 100_000_000, accountRecord.LockedBalance)
}

func TestRefundMatch_ReleasesLocksWithoutFee(t *testing.T) {
	env := setup(t)
	env.initializePlatform(t)

	bettor := newRandomTestAccount(t)
	env.deposit(t, bettor, 1_000_000_000)

	require.NoError(t, env.service.PlaceBet(env.ctx, bettor, "match1", 400_000_000, 1))
	require.NoError(t, env.service.RefundMatch(env.ctx, env.admin, "match1"))

	accountRecord := env.getAccount(t, bettor)
	assert.EqualValues(t, 0, accountRecord.LockedBalance)
	assert.EqualValues(t, 1_000_000_000, accountRecord.Balance)

	betRecord, err := env.data.GetBet(env.ctx, "match1", bettor.PublicKey().ToBase58())
	require.NoError(t, err)
	assert.Equal(t, betstore.StatusRefunded, betRecord.Status)
	assert.Nil(t, betRecord.Payout)

	// A refunded match cannot be settled afterwards
	err = env.service.SettleMatch(env.ctx, env.admin, "match1", 1, 2, 1)
	assert.Equal(t, ErrAlreadySettled, err)

	events, err := env.service.GetEventHistory(env.ctx, bettor.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, event.TypeBetRefunded, events[0].EventType)
}

func TestLockUnlockConservation(t *testing.T) {
	env := setup(t)
	env.initializePlatform(t)

	bettor := newRandomTestAccount(t)
	env.deposit(t, bettor, 1_000_000_000)

	for i, matchID := range []string{"match1", "match2", "match3"} {
		require.NoError(t, env.service.PlaceBet(env.ctx, bettor, matchID, 100_000_000, uint8(i+1)))
	}

	accountRecord := env.getAccount(t, bettor)
	assert.EqualValues(t, 300_000_000, accountRecord.LockedBalance)

	require.NoError(t, env.service.RefundMatch(env.ctx, env.admin, "match1"))
	require.NoError(t, env.service.SettleMatch(env.ctx, env.admin, "match2", 2, 3, 2))
	require.NoError(t, env.service.SettleMatch(env.ctx, env.admin, "match3", 1, 3, 2))

	// All locks released: refund is neutral, match2 won 150M less 2.5% fee,
	// match3 forfeited its 100M stake
	accountRecord = env.getAccount(t, bettor)
	assert.EqualValues(t, 0, accountRecord.LockedBalance)
	assert.EqualValues(t, 1_000_000_000+146_250_000-100_000_000, accountRecord.Balance)
}
