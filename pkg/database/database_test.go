package database

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(Config{Path: MemoryPath}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestLoadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"002_add_index.sql":    {Data: []byte("CREATE INDEX idx ON t (name);")},
		"001_create_table.sql": {Data: []byte("CREATE TABLE t (id INTEGER, name TEXT);")},
		"README.md":            {Data: []byte("ignored")},
	}

	migrations, err := LoadMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "create_table", migrations[0].Name)
	assert.Equal(t, 2, migrations[1].Version)
}

func TestLoadMigrations_Invalid(t *testing.T) {
	t.Run("bad filename", func(t *testing.T) {
		_, err := LoadMigrations(fstest.MapFS{"init.sql": {Data: []byte("")}})
		assert.Error(t, err)
	})

	t.Run("duplicate version", func(t *testing.T) {
		_, err := LoadMigrations(fstest.MapFS{
			"001_a.sql": {Data: []byte("")},
			"001_b.sql": {Data: []byte("")},
		})
		assert.Error(t, err)
	})
}

func TestMigrator_RunMigrationsIsIdempotent(t *testing.T) {
	db := newMemoryDB(t)
	ctx := context.Background()
	fsys := fstest.MapFS{
		"001_create_table.sql": {Data: []byte("CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT);")},
	}

	m := NewMigrator(db, nil)
	require.NoError(t, m.RunMigrations(ctx, fsys))
	require.NoError(t, m.RunMigrations(ctx, fsys))

	var count int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestWithTransaction(t *testing.T) {
	db := newMemoryDB(t)
	ctx := context.Background()
	_, err := db.ExecContext(ctx, "CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT)")
	require.NoError(t, err)

	t.Run("commits", func(t *testing.T) {
		err := db.WithTransaction(ctx, func(ctx context.Context) error {
			_, err := db.Conn(ctx).ExecContext(ctx, "INSERT INTO t (name) VALUES ('a')")
			return err
		})
		require.NoError(t, err)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := db.WithTransaction(ctx, func(ctx context.Context) error {
			if _, err := db.Conn(ctx).ExecContext(ctx, "INSERT INTO t (name) VALUES ('b')"); err != nil {
				return err
			}
			return boom
		})
		assert.True(t, errors.Is(err, boom))
	})

	t.Run("nested call reuses transaction", func(t *testing.T) {
		err := db.WithTransaction(ctx, func(outer context.Context) error {
			return db.WithTransaction(outer, func(inner context.Context) error {
				assert.Same(t, extractTx(outer), extractTx(inner))
				_, err := db.Conn(inner).ExecContext(inner, "INSERT INTO t (name) VALUES ('c')")
				return err
			})
		})
		require.NoError(t, err)
	})

	var names []string
	rows, err := db.QueryContext(ctx, "SELECT name FROM t ORDER BY id")
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"a", "c"}, names)
}
