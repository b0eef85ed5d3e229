package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/agentarena/escrow-server/pkg/escrow/common"
	escrow_data "github.com/agentarena/escrow-server/pkg/escrow/data"
	ledgerstore "github.com/agentarena/escrow-server/pkg/escrow/data/ledger"
)

const (
	testMinimumDeposit = 100_000_000
	testMaximumDeposit = 100_000_000_000
	testPlatformFeeBps = 250
)

type testEnv struct {
	ctx     context.Context
	data    escrow_data.DatabaseData
	service *Service
	program *common.Account
	admin   *common.Account

	currentTime time.Time
}

func setup(t *testing.T) *testEnv {
	data := escrow_data.NewTestDatabaseProvider()

	env := &testEnv{
		ctx:     context.Background(),
		data:    data,
		program: newRandomTestAccount(t),
		admin:   newRandomTestAccount(t),

		currentTime: time.Now(),
	}

	env.service = New(data, env.program, withManualTestOverrides(&testOverrides{
		mutationsPerSecondPerOwner: 10000,
	}))
	env.service.now = func() time.Time {
		return env.currentTime
	}

	return env
}

func newRandomTestAccount(t *testing.T) *common.Account {
	account, err := common.NewRandomAccount()
	require.NoError(t, err)
	return account
}

func (env *testEnv) advanceClock(d time.Duration) {
	env.currentTime = env.currentTime.Add(d)
}

func (env *testEnv) initializePlatform(t *testing.T) {
	require.NoError(t, env.service.InitializePlatform(env.ctx, env.admin, testMinimumDeposit, testMaximumDeposit, testPlatformFeeBps))
}

func (env *testEnv) deposit(t *testing.T, owner *common.Account, amount uint64) {
	require.NoError(t, env.service.Deposit(env.ctx, owner, amount, uuid.New().String()))
}

func (env *testEnv) getAccount(t *testing.T, owner *common.Account) *ledgerstore.Record {
	record, err := env.service.GetAccount(env.ctx, owner.PublicKey())
	require.NoError(t, err)
	return record
}
