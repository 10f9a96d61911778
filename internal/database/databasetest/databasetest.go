// Package databasetest opens throwaway databases for tests.
package databasetest

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/robalyx/todbot/internal/database"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver
)

// New returns a client backed by a migrated SQLite file in the test's temp dir.
// The client is closed when the test finishes.
func New(t testing.TB) database.Client {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	sqldb, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path))
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	require.NoError(t, database.Migrate(context.Background(), db, zap.NewNop()))

	client := database.NewClient(db, zap.NewNop())
	t.Cleanup(func() { _ = client.Close() })

	return client
}
