package postgres

import (
	"database/sql"
	"os"
	"testing"

	"github.com/ory/dockertest/v3"
	"github.com/sirupsen/logrus"

	"github.com/agentarena/escrow-server/pkg/escrow/data/ledger"
	"github.com/agentarena/escrow-server/pkg/escrow/data/ledger/tests"

	postgrestest "github.com/agentarena/escrow-server/pkg/database/postgres/test"

	_ "github.com/jackc/pgx/v4/stdlib"
)

const (
	// Used for testing ONLY, the table and migrations are external to this repository
	tableCreate = `
		CREATE TABLE agentarena__core_ledgeraccount(
			id SERIAL NOT NULL PRIMARY KEY,

			address TEXT NOT NULL,
			bump INTEGER NOT NULL,
			owner TEXT NOT NULL,

			balance BIGINT NOT NULL CHECK (balance >= 0),
			locked_balance BIGINT NOT NULL CHECK (locked_balance >= 0),

			total_deposited BIGINT NOT NULL,
			total_withdrawn BIGINT NOT NULL,
			deposit_count BIGINT NOT NULL,
			withdrawal_count BIGINT NOT NULL,

			last_withdrawal_at TIMESTAMP WITH TIME ZONE,

			version BIGINT NOT NULL,

			created_at TIMESTAMP WITH TIME ZONE NOT NULL,
			last_updated_at TIMESTAMP WITH TIME ZONE NOT NULL,

			CONSTRAINT agentarena__core_ledgeraccount__uniq__address UNIQUE (address),
			CONSTRAINT agentarena__core_ledgeraccount__uniq__owner UNIQUE (owner),
			CONSTRAINT agentarena__core_ledgeraccount__locked_lte_balance CHECK (locked_balance <= balance)
		);
	`

	// Used for testing ONLY, the table and migrations are external to this repository
	tableDestroy = `
		DROP TABLE agentarena__core_ledgeraccount;
	`
)

var (
	testStore ledger.Store
	teardown  func()
)

func TestMain(m *testing.M) {
	log := logrus.StandardLogger()

	testPool, err := dockertest.NewPool("")
	if err != nil {
		log.WithError(err).Error("Error creating docker pool")
		os.Exit(1)
	}

	var cleanUpFunc func()
	db, cleanUpFunc, err := postgrestest.StartPostgresDB(testPool)
	if err != nil {
		log.WithError(err).Error("Error starting postgres image")
		os.Exit(1)
	}
	defer db.Close()

	if err := createTestTables(db); err != nil {
		logrus.StandardLogger().WithError(err).Error("Error creating test tables")
		cleanUpFunc()
		os.Exit(1)
	}

	testStore = New(db)
	teardown = func() {
		if pc := recover(); pc != nil {
			cleanUpFunc()
			panic(pc)
		}

		if err := resetTestTables(db); err != nil {
			logrus.StandardLogger().WithError(err).Error("Error resetting test tables")
			cleanUpFunc()
			os.Exit(1)
		}
	}

	code := m.Run()
	cleanUpFunc()
	os.Exit(code)
}

func TestLedgerPostgresStore(t *testing.T) {
	tests.RunTests(t, testStore, teardown)
}

func createTestTables(db *sql.DB) error {
	_, err := db.Exec(tableCreate)
	if err != nil {
		logrus.StandardLogger().WithError(err).Error("could not create test tables")
		return err
	}
	return nil
}

func resetTestTables(db *sql.DB) error {
	_, err := db.Exec(tableDestroy)
	if err != nil {
		logrus.StandardLogger().WithError(err).Error("could not drop test tables")
		return err
	}

	return createTestTables(db)
}
