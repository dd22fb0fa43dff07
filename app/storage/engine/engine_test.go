package engine

import (
	"context"
	"errors"
	"net/url"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-pkgz/testutils/containers"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		url     string
		want    Type
		wantErr string
	}{
		{name: "memory", url: ":memory:", want: Sqlite},
		{name: "file scheme", url: "file://" + filepath.Join(dir, "a.db"), want: Sqlite},
		{name: "file prefix", url: "file:" + filepath.Join(dir, "b.db"), want: Sqlite},
		{name: "sqlite scheme", url: "sqlite://" + filepath.Join(dir, "c"), want: Sqlite},
		{name: "sqlite suffix", url: filepath.Join(dir, "rss.sqlite"), want: Sqlite},
		{name: "db suffix", url: filepath.Join(dir, "rss-sniffer.db"), want: Sqlite},
		{name: "postgres unreachable", url: "postgres://u:p@127.0.0.1:1/sniffer", wantErr: "failed to connect to postgres"},
		{name: "postgresql unreachable", url: "postgresql://u:p@127.0.0.1:1/sniffer", wantErr: "failed to connect to postgres"},
		{name: "empty", url: "", wantErr: "connection URL is empty"},
		{name: "mysql", url: "mysql://localhost/db", wantErr: "unsupported database type"},
		{name: "plain name", url: "sniffer", wantErr: "unsupported database type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			db, err := New(ctx, tt.url, "feed-1")
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			defer db.Close()
			assert.Equal(t, tt.want, db.Type())
			assert.Equal(t, "feed-1", db.GID())
		})
	}
}

func TestNewSqlite(t *testing.T) {
	t.Run("bad path", func(t *testing.T) {
		db, err := NewSqlite("/no/such/dir/rss.db", "feed-1")
		require.Error(t, err)
		assert.Equal(t, Unknown, db.Type())
	})

	t.Run("memory database shared between calls", func(t *testing.T) {
		db, err := NewSqlite(":memory:", "feed-1")
		require.NoError(t, err)
		defer db.Close()

		_, err = db.Exec(`CREATE TABLE seen (entry_id TEXT)`)
		require.NoError(t, err)
		_, err = db.Exec(`INSERT INTO seen VALUES ('t3_abc')`)
		require.NoError(t, err)

		var n int
		require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM seen`))
		assert.Equal(t, 1, n)
		assert.Equal(t, 1, db.Stats().MaxOpenConnections)
	})

	t.Run("busy timeout set", func(t *testing.T) {
		db, err := NewSqlite(":memory:", "feed-1")
		require.NoError(t, err)
		defer db.Close()

		var timeout int
		require.NoError(t, db.Get(&timeout, `PRAGMA busy_timeout`))
		assert.Equal(t, 5000, timeout)
	})

	t.Run("zero value", func(t *testing.T) {
		e := &SQL{}
		assert.Equal(t, Unknown, e.Type())
		assert.Empty(t, e.GID())
	})
}

func TestSQL_ConcurrentWrites(t *testing.T) {
	db, err := NewSqlite(filepath.Join(t.TempDir(), "rss.db"), "feed-1")
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE seen (id INTEGER PRIMARY KEY, entry_id TEXT)`)
	require.NoError(t, err)

	lock := db.MakeLock()
	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lock.Lock()
			defer lock.Unlock()
			if _, err := db.Exec(`INSERT INTO seen (entry_id) VALUES (?)`, i); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("insert failed: %v", err)
	}

	lock.RLock()
	defer lock.RUnlock()
	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM seen`))
	assert.Equal(t, 20, n)
}

const (
	cmdCreateFeeds DBCmd = iota + 900
	cmdCreateFeedsIndexes
	cmdInsertFeed
	cmdCountFeeds
)

var feedsQueries = NewQueryMap().
	Add(cmdCreateFeeds, Query{
		Sqlite: `CREATE TABLE IF NOT EXISTS feeds (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			gid TEXT NOT NULL DEFAULT '',
			url TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			UNIQUE(gid, url)
		)`,
		Postgres: `CREATE TABLE IF NOT EXISTS feeds (
			id SERIAL PRIMARY KEY,
			gid TEXT NOT NULL DEFAULT '',
			url TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			UNIQUE(gid, url)
		)`,
	}).
	AddSame(cmdCreateFeedsIndexes, `CREATE INDEX IF NOT EXISTS idx_feeds_gid ON feeds(gid)`).
	AddSame(cmdInsertFeed, `INSERT INTO feeds (gid, url, title) VALUES (?, ?, ?)`).
	AddSame(cmdCountFeeds, `SELECT COUNT(*) FROM feeds WHERE gid = ?`)

func feedsTable(migrate func(ctx context.Context, tx *sqlx.Tx, gid string) error) TableConfig {
	return TableConfig{
		Name:          "feeds",
		CreateTable:   cmdCreateFeeds,
		CreateIndexes: cmdCreateFeedsIndexes,
		MigrateFunc:   migrate,
		QueriesMap:    feedsQueries,
	}
}

func TestInitTable(t *testing.T) {
	ctx := context.Background()

	tableExists := func(t *testing.T, db *SQL, kind, name string) bool {
		var n int
		err := db.Get(&n, `SELECT COUNT(*) FROM sqlite_master WHERE type = ? AND name = ?`, kind, name)
		require.NoError(t, err)
		return n > 0
	}

	t.Run("creates table and index, migrates with gid", func(t *testing.T) {
		db, err := NewSqlite(":memory:", "feed-1")
		require.NoError(t, err)
		defer db.Close()

		var migratedFor string
		err = InitTable(ctx, db, feedsTable(func(_ context.Context, _ *sqlx.Tx, gid string) error {
			migratedFor = gid
			return nil
		}))
		require.NoError(t, err)
		assert.Equal(t, "feed-1", migratedFor)
		assert.True(t, tableExists(t, db, "table", "feeds"))
		assert.True(t, tableExists(t, db, "index", "idx_feeds_gid"))

		// second run keeps existing rows
		insert, err := db.Statement(feedsQueries, cmdInsertFeed)
		require.NoError(t, err)
		_, err = db.Exec(insert, db.GID(), "https://example.com/r/golang/.rss", "golang")
		require.NoError(t, err)
		require.NoError(t, InitTable(ctx, db, feedsTable(nil)))
		count, err := db.Statement(feedsQueries, cmdCountFeeds)
		require.NoError(t, err)
		var n int
		require.NoError(t, db.Get(&n, count, db.GID()))
		assert.Equal(t, 1, n)
	})

	t.Run("nil db", func(t *testing.T) {
		err := InitTable(ctx, nil, feedsTable(nil))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db connection is nil")
	})

	t.Run("migration failure rolls back", func(t *testing.T) {
		db, err := NewSqlite(":memory:", "feed-1")
		require.NoError(t, err)
		defer db.Close()

		errMigrate := errors.New("bad migration")
		err = InitTable(ctx, db, feedsTable(func(context.Context, *sqlx.Tx, string) error { return errMigrate }))
		require.ErrorIs(t, err, errMigrate)
		assert.Contains(t, err.Error(), "failed to migrate feeds")
		assert.False(t, tableExists(t, db, "table", "feeds"))
	})

	t.Run("unknown create command", func(t *testing.T) {
		db, err := NewSqlite(":memory:", "feed-1")
		require.NoError(t, err)
		defer db.Close()

		cfg := feedsTable(nil)
		cfg.CreateTable = 12345
		err = InitTable(ctx, db, cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get create table query")
	})

	t.Run("unknown index command", func(t *testing.T) {
		db, err := NewSqlite(":memory:", "feed-1")
		require.NoError(t, err)
		defer db.Close()

		cfg := feedsTable(nil)
		cfg.CreateIndexes = 12345
		err = InitTable(ctx, db, cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get create indexes query")
		assert.False(t, tableExists(t, db, "table", "feeds"))
	})
}

func TestNewPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres test in short mode")
	}

	ctx := context.Background()
	pg := containers.NewPostgresTestContainerWithDB(ctx, t, "postgres")
	base, err := url.Parse(pg.ConnectionString())
	require.NoError(t, err)
	dbURL := func(name string) string {
		u := *base
		u.Path = "/" + name
		return u.String()
	}

	t.Run("bad urls", func(t *testing.T) {
		_, err := NewPostgres(ctx, "postgres://bad::url", "feed-1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid postgres connection url")

		_, err = NewPostgres(ctx, dbURL(""), "feed-1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database name not specified")
	})

	t.Run("database created once and reused", func(t *testing.T) {
		for range 2 {
			db, err := NewPostgres(ctx, dbURL("sniffer_engine"), "feed-1")
			require.NoError(t, err)
			assert.Equal(t, Postgres, db.Type())
			var one int
			require.NoError(t, db.Get(&one, "SELECT 1"))
			assert.Equal(t, 1, one)
			db.Close()
		}
	})

	t.Run("shared statements get numbered placeholders", func(t *testing.T) {
		db, err := New(ctx, dbURL("sniffer_tables"), "feed-2")
		require.NoError(t, err)
		defer db.Close()

		require.NoError(t, InitTable(ctx, db, feedsTable(nil)))
		insert, err := db.Statement(feedsQueries, cmdInsertFeed)
		require.NoError(t, err)
		assert.Equal(t, `INSERT INTO feeds (gid, url, title) VALUES ($1, $2, $3)`, insert)
		_, err = db.Exec(insert, db.GID(), "https://example.com/r/golang/.rss", "golang")
		require.NoError(t, err)

		count, err := db.Statement(feedsQueries, cmdCountFeeds)
		require.NoError(t, err)
		var n int
		require.NoError(t, db.Get(&n, count, db.GID()))
		assert.Equal(t, 1, n)
		assert.IsType(t, nopLocker{}, db.MakeLock())
	})
}
