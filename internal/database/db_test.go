package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(Config{Path: filepath.Join(t.TempDir(), "runs.db"), Name: "runs"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate())
	return db
}

func TestNew_CreatesDirectoryAndMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "runs.db")

	db, err := New(Config{Path: path, Profile: ProfileBulk})
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, path, db.Path())
	assert.Equal(t, "runs", db.Name())
	require.NoError(t, db.Migrate())
	require.NoError(t, db.Migrate(), "migration must be idempotent")
	require.NoError(t, db.QuickCheck(context.Background()))

	var n int
	err = db.Conn().QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('runs','run_segments','run_percentiles','investors')").Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestBuildConnectionString(t *testing.T) {
	standard := buildConnectionString("/tmp/a.db", ProfileStandard)
	assert.Contains(t, standard, "/tmp/a.db?_pragma=journal_mode(WAL)")
	assert.Contains(t, standard, "synchronous(NORMAL)")
	assert.Contains(t, standard, "foreign_keys(1)")

	bulk := buildConnectionString("file:mem?mode=memory", ProfileBulk)
	assert.Contains(t, bulk, "file:mem?mode=memory&_pragma=journal_mode(WAL)")
	assert.Contains(t, bulk, "synchronous(OFF)")
}

func TestWithTransaction(t *testing.T) {
	db := newTestDB(t)

	err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO runs (id, scenario, started_at, finished_at, investors) VALUES ('a', 's', 't', 't', 1)`)
		return err
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO runs (id, scenario, started_at, finished_at, investors) VALUES ('b', 's', 't', 't', 1)`); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	err = WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		panic("bad")
	})
	assert.ErrorContains(t, err, "panic in transaction")

	var n int
	require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM runs").Scan(&n))
	assert.Equal(t, 1, n, "rolled back rows must not persist")

	assert.Error(t, WithTransaction(nil, func(*sql.Tx) error { return nil }))
}
