package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/umputun/rss-sniffer/app/storage/engine"
)

// Profiles is a durable key-value store of profile cache entries, satisfies profile.Store
type Profiles struct {
	*engine.SQL
	engine.RWLocker
	now func() time.Time
}

// all profile cache queries
const (
	CmdCreateProfilesTable engine.DBCmd = iota + 100
	CmdCreateProfilesIndexes
	CmdUpsertProfile
	CmdSelectProfile
	CmdDeleteProfilesBefore
	CmdCountProfiles
)

var profilesQueries = engine.NewQueryMap().
	Add(CmdCreateProfilesTable, engine.Query{
		Sqlite: `CREATE TABLE IF NOT EXISTS profile_cache (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			gid TEXT NOT NULL DEFAULT '',
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(gid, key)
		)`,
		Postgres: `CREATE TABLE IF NOT EXISTS profile_cache (
			id SERIAL PRIMARY KEY,
			gid TEXT NOT NULL DEFAULT '',
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(gid, key)
		)`,
	}).
	AddSame(CmdCreateProfilesIndexes, `CREATE INDEX IF NOT EXISTS idx_profile_cache_gid_updated ON profile_cache(gid, updated_at)`).
	AddSame(CmdUpsertProfile, `INSERT INTO profile_cache (gid, key, value, updated_at) VALUES (?, ?, ?, ?)
			ON CONFLICT (gid, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`).
	AddSame(CmdSelectProfile, `SELECT value FROM profile_cache WHERE gid = ? AND key = ?`).
	AddSame(CmdDeleteProfilesBefore, `DELETE FROM profile_cache WHERE gid = ? AND updated_at < ?`).
	AddSame(CmdCountProfiles, `SELECT COUNT(*) FROM profile_cache WHERE gid = ?`)

// NewProfiles creates profile cache store, the table is created if missing
func NewProfiles(ctx context.Context, db *engine.SQL) (*Profiles, error) {
	if db == nil {
		return nil, fmt.Errorf("no db provided")
	}

	cfg := engine.TableConfig{
		Name:          "profile_cache",
		CreateTable:   CmdCreateProfilesTable,
		CreateIndexes: CmdCreateProfilesIndexes,
		MigrateFunc:   noopMigrate,
		QueriesMap:    profilesQueries,
	}
	if err := engine.InitTable(ctx, db, cfg); err != nil {
		return nil, fmt.Errorf("failed to init profile_cache table: %w", err)
	}
	return &Profiles{SQL: db, RWLocker: db.MakeLock(), now: time.Now}, nil
}

// GetItem returns value by key, found is false if the key is missing
func (p *Profiles) GetItem(ctx context.Context, key string) (value string, found bool, err error) {
	p.RLock()
	defer p.RUnlock()

	query, err := p.Statement(profilesQueries, CmdSelectProfile)
	if err != nil {
		return "", false, err
	}
	if err = p.GetContext(ctx, &value, query, p.GID(), key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get profile %s: %w", key, err)
	}
	return value, true, nil
}

// SetItem sets value by key, last write wins
func (p *Profiles) SetItem(ctx context.Context, key, value string) error {
	p.Lock()
	defer p.Unlock()

	query, err := p.Statement(profilesQueries, CmdUpsertProfile)
	if err != nil {
		return err
	}
	if _, err = p.ExecContext(ctx, query, p.GID(), key, value, p.now().UTC()); err != nil {
		return fmt.Errorf("failed to set profile %s: %w", key, err)
	}
	return nil
}

// Prune removes entries not updated since the given time, returns number of removed entries
func (p *Profiles) Prune(ctx context.Context, before time.Time) (int64, error) {
	p.Lock()
	defer p.Unlock()

	query, err := p.Statement(profilesQueries, CmdDeleteProfilesBefore)
	if err != nil {
		return 0, err
	}
	res, err := p.ExecContext(ctx, query, p.GID(), before.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune profiles: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get number of pruned profiles: %w", err)
	}
	return n, nil
}

// Count returns number of entries of the origin
func (p *Profiles) Count(ctx context.Context) (int, error) {
	p.RLock()
	defer p.RUnlock()

	query, err := p.Statement(profilesQueries, CmdCountProfiles)
	if err != nil {
		return 0, err
	}
	var count int
	if err = p.GetContext(ctx, &count, query, p.GID()); err != nil {
		return 0, fmt.Errorf("failed to count profiles: %w", err)
	}
	return count, nil
}

// noopMigrate is a no-op migration function, tables have a single schema version so far
func noopMigrate(_ context.Context, _ *sqlx.Tx, gid string) error {
	log.Printf("[DEBUG] no migration needed for gid %q", gid)
	return nil
}
