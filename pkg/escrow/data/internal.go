package data

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/agentarena/escrow-server/pkg/cache"
	pg "github.com/agentarena/escrow-server/pkg/database/postgres"

	"github.com/agentarena/escrow-server/pkg/escrow/data/bet"
	"github.com/agentarena/escrow-server/pkg/escrow/data/event"
	"github.com/agentarena/escrow-server/pkg/escrow/data/ledger"
	"github.com/agentarena/escrow-server/pkg/escrow/data/platform"

	bet_memory_client "github.com/agentarena/escrow-server/pkg/escrow/data/bet/memory"
	event_memory_client "github.com/agentarena/escrow-server/pkg/escrow/data/event/memory"
	ledger_memory_client "github.com/agentarena/escrow-server/pkg/escrow/data/ledger/memory"
	platform_memory_client "github.com/agentarena/escrow-server/pkg/escrow/data/platform/memory"

	bet_postgres_client "github.com/agentarena/escrow-server/pkg/escrow/data/bet/postgres"
	event_postgres_client "github.com/agentarena/escrow-server/pkg/escrow/data/event/postgres"
	ledger_postgres_client "github.com/agentarena/escrow-server/pkg/escrow/data/ledger/postgres"
	platform_postgres_client "github.com/agentarena/escrow-server/pkg/escrow/data/platform/postgres"
)

const (
	maxPlatformConfigCacheBudget = 4

	// The platform config is a write-once singleton, so a short TTL covers
	// the initialization window without risking stale fee parameters.
	platformConfigCacheTTL = 5 * time.Second
)

type platformConfigCacheEntry struct {
	mu            sync.RWMutex
	record        *platform.Record
	lastUpdatedAt time.Time
}

type DatabaseData interface {
	// Ledger Account
	// --------------------------------------------------------------------------------
	CreateLedgerAccount(ctx context.Context, record *ledger.Record) error
	UpdateLedgerAccount(ctx context.Context, record *ledger.Record) error
	GetLedgerAccountByAddress(ctx context.Context, address string) (*ledger.Record, error)
	GetLedgerAccountByOwner(ctx context.Context, owner string) (*ledger.Record, error)
	GetLedgerAccountCount(ctx context.Context) (uint64, error)

	// Platform Config
	// --------------------------------------------------------------------------------
	InitializePlatformConfig(ctx context.Context, record *platform.Record) error
	GetPlatformConfig(ctx context.Context, address string) (*platform.Record, error)

	// Bet
	// --------------------------------------------------------------------------------
	CreateBet(ctx context.Context, record *bet.Record) error
	UpdateBet(ctx context.Context, record *bet.Record) error
	GetBet(ctx context.Context, matchID, bettor string) (*bet.Record, error)
	GetBetByAddress(ctx context.Context, address string) (*bet.Record, error)
	GetAllBetsByMatch(ctx context.Context, matchID string) ([]*bet.Record, error)
	GetDistinctOpenMatchIDs(ctx context.Context, limit uint64) ([]string, error)
	GetBetCountByStatus(ctx context.Context, status bet.Status) (uint64, error)

	// Ledger Event
	// --------------------------------------------------------------------------------
	CreateLedgerEvent(ctx context.Context, record *event.Record) error
	GetLedgerEvent(ctx context.Context, eventID string) (*event.Record, error)
	GetLedgerEventByTransferReference(ctx context.Context, reference string) (*event.Record, error)
	GetLedgerEventsByOwner(ctx context.Context, owner string, limit uint64) ([]*event.Record, error)
	GetLedgerEventBatchByDeliveryState(ctx context.Context, state event.DeliveryState, limit uint64) ([]*event.Record, error)
	MarkLedgerEventPublished(ctx context.Context, eventID string) error

	// ExecuteInTx executes fn with a single DB transaction that is scoped to the
	// call. This enables transactions that span many calls across the provider.
	ExecuteInTx(ctx context.Context, isolation sql.IsolationLevel, fn func(ctx context.Context) error) error
}

type DatabaseProvider struct {
	ledgerAccounts ledger.Store
	platformConfig platform.Store
	bets           bet.Store
	events         event.Store

	platformConfigCache cache.Cache

	db *sqlx.DB
}

func NewDatabaseProvider(dbConfig *pg.Config) (DatabaseData, error) {
	db, err := pg.NewWithUsernameAndPassword(
		dbConfig.User,
		dbConfig.Password,
		dbConfig.Host,
		fmt.Sprint(dbConfig.Port),
		dbConfig.DbName,
	)
	if err != nil {
		return nil, err
	}

	if dbConfig.MaxOpenConnections > 0 {
		db.SetMaxOpenConns(dbConfig.MaxOpenConnections)
	}
	if dbConfig.MaxIdleConnections > 0 {
		db.SetMaxIdleConns(dbConfig.MaxIdleConnections)
	}
	db.SetConnMaxIdleTime(time.Hour)
	db.SetConnMaxLifetime(time.Hour)

	return &DatabaseProvider{
		ledgerAccounts: ledger_postgres_client.New(db),
		platformConfig: platform_postgres_client.New(db),
		bets:           bet_postgres_client.New(db),
		events:         event_postgres_client.New(db),

		platformConfigCache: cache.NewCache(maxPlatformConfigCacheBudget),

		db: sqlx.NewDb(db, "pgx"),
	}, nil
}

func NewTestDatabaseProvider() DatabaseData {
	return &DatabaseProvider{
		ledgerAccounts: ledger_memory_client.New(),
		platformConfig: platform_memory_client.New(),
		bets:           bet_memory_client.New(),
		events:         event_memory_client.New(),

		platformConfigCache: nil, // Shouldn't be used for tests
	}
}

func (dp *DatabaseProvider) ExecuteInTx(ctx context.Context, isolation sql.IsolationLevel, fn func(ctx context.Context) error) error {
	if dp.db == nil {
		return fn(ctx)
	}

	return pg.ExecuteTxWithinCtx(ctx, dp.db, isolation, fn)
}

// Ledger Account
// --------------------------------------------------------------------------------
func (dp *DatabaseProvider) CreateLedgerAccount(ctx context.Context, record *ledger.Record) error {
	return dp.ledgerAccounts.Put(ctx, record)
}
func (dp *DatabaseProvider) UpdateLedgerAccount(ctx context.Context, record *ledger.Record) error {
	return dp.ledgerAccounts.Update(ctx, record)
}
func (dp *DatabaseProvider) GetLedgerAccountByAddress(ctx context.Context, address string) (*ledger.Record, error) {
	return dp.ledgerAccounts.GetByAddress(ctx, address)
}
func (dp *DatabaseProvider) GetLedgerAccountByOwner(ctx context.Context, owner string) (*ledger.Record, error) {
	return dp.ledgerAccounts.GetByOwner(ctx, owner)
}
func (dp *DatabaseProvider) GetLedgerAccountCount(ctx context.Context) (uint64, error) {
	return dp.ledgerAccounts.Count(ctx)
}

// Platform Config
// --------------------------------------------------------------------------------
func (dp *DatabaseProvider) InitializePlatformConfig(ctx context.Context, record *platform.Record) error {
	// The cache is only ever filled from committed reads in GetPlatformConfig.
	// Inserting here would publish the record before the surrounding
	// transaction commits, or retain it if the transaction rolls back.
	return dp.platformConfig.Put(ctx, record)
}
func (dp *DatabaseProvider) GetPlatformConfig(ctx context.Context, address string) (*platform.Record, error) {
	// Don't use a cache if it hasn't been setup (eg. test implementation)
	if dp.platformConfigCache == nil {
		return dp.platformConfig.Get(ctx, address)
	}

	cached, ok := dp.platformConfigCache.Retrieve(address)
	if ok {
		// First do an optimized cache value check using a read lock
		cacheEntry := cached.(*platformConfigCacheEntry)
		cacheEntry.mu.RLock()
		if time.Since(cacheEntry.lastUpdatedAt) < platformConfigCacheTTL {
			cloned := cacheEntry.record.Clone()
			cacheEntry.mu.RUnlock()
			return &cloned, nil
		}
		cacheEntry.mu.RUnlock()

		// Cache value is stale, so acquire the write lock in an attempt
		// to refresh the value.
		cacheEntry.mu.Lock()
		defer cacheEntry.mu.Unlock()

		// Check the cache value state again in the event we lost the race
		// to update the value
		if time.Since(cacheEntry.lastUpdatedAt) < platformConfigCacheTTL {
			cloned := cacheEntry.record.Clone()
			return &cloned, nil
		}

		record, err := dp.platformConfig.Get(ctx, address)
		if err == nil {
			cloned := record.Clone()
			cacheEntry.record = &cloned
			cacheEntry.lastUpdatedAt = time.Now()
		}
		return record, err
	}

	// Config not cached, so fetch it and insert the initial cache entry
	record, err := dp.platformConfig.Get(ctx, address)
	if err == nil {
		cloned := record.Clone()
		dp.platformConfigCache.Insert(address, &platformConfigCacheEntry{
			record:        &cloned,
			lastUpdatedAt: time.Now(),
		}, 1)
	}
	return record, err
}

// Bet
// --------------------------------------------------------------------------------
func (dp *DatabaseProvider) CreateBet(ctx context.Context, record *bet.Record) error {
	return dp.bets.Put(ctx, record)
}
func (dp *DatabaseProvider) UpdateBet(ctx context.Context, record *bet.Record) error {
	return dp.bets.Update(ctx, record)
}
func (dp *DatabaseProvider) GetBet(ctx context.Context, matchID, bettor string) (*bet.Record, error) {
	return dp.bets.Get(ctx, matchID, bettor)
}
func (dp *DatabaseProvider) GetBetByAddress(ctx context.Context, address string) (*bet.Record, error) {
	return dp.bets.GetByAddress(ctx, address)
}
func (dp *DatabaseProvider) GetAllBetsByMatch(ctx context.Context, matchID string) ([]*bet.Record, error) {
	return dp.bets.GetAllByMatch(ctx, matchID)
}
func (dp *DatabaseProvider) GetDistinctOpenMatchIDs(ctx context.Context, limit uint64) ([]string, error) {
	return dp.bets.GetDistinctOpenMatchIDs(ctx, limit)
}
func (dp *DatabaseProvider) GetBetCountByStatus(ctx context.Context, status bet.Status) (uint64, error) {
	return dp.bets.CountByStatus(ctx, status)
}

// Ledger Event
// --------------------------------------------------------------------------------
func (dp *DatabaseProvider) CreateLedgerEvent(ctx context.Context, record *event.Record) error {
	return dp.events.Put(ctx, record)
}
func (dp *DatabaseProvider) GetLedgerEvent(ctx context.Context, eventID string) (*event.Record, error) {
	return dp.events.Get(ctx, eventID)
}
func (dp *DatabaseProvider) GetLedgerEventByTransferReference(ctx context.Context, reference string) (*event.Record, error) {
	return dp.events.GetByTransferReference(ctx, reference)
}
func (dp *DatabaseProvider) GetLedgerEventsByOwner(ctx context.Context, owner string, limit uint64) ([]*event.Record, error) {
	return dp.events.GetAllByOwner(ctx, owner, limit)
}
func (dp *DatabaseProvider) GetLedgerEventBatchByDeliveryState(ctx context.Context, state event.DeliveryState, limit uint64) ([]*event.Record, error) {
	return dp.events.GetBatchByDeliveryState(ctx, state, limit)
}
func (dp *DatabaseProvider) MarkLedgerEventPublished(ctx context.Context, eventID string) error {
	return dp.events.MarkPublished(ctx, eventID)
}
