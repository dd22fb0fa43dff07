package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/umputun/rss-sniffer/app/storage/engine"
	"github.com/umputun/rss-sniffer/lib/textcheck"
)

// Entries is a log of classified entries. Entries are keyed by id, writing the same entry again
// (e.g. after recompute with a new model) replaces the stored one.
type Entries struct {
	*engine.SQL
	engine.RWLocker
}

// entryRow is a db representation of textcheck.Entry
type entryRow struct {
	EntryID      string          `db:"entry_id"`
	Identity     string          `db:"identity"`
	Text         string          `db:"text"`
	Kind         string          `db:"kind"`
	Emoji        string          `db:"emoji"`
	BotScore     float64         `db:"bot_score"`
	AIScore      float64         `db:"ai_score"`
	ProfileScore float64         `db:"profile_score"`
	ModelProb    sql.NullFloat64 `db:"model_prob"`
	Duplicate    bool            `db:"duplicate"`
	Reasons      string          `db:"reasons"` // json of textcheck.Reasons
	CheckedAt    time.Time       `db:"checked_at"`
}

// all entries queries
const (
	CmdCreateEntriesTable engine.DBCmd = iota + 200
	CmdCreateEntriesIndexes
	CmdUpsertEntry
	CmdSelectEntries
	CmdCountEntries
)

var entriesQueries = engine.NewQueryMap().
	Add(CmdCreateEntriesTable, engine.Query{
		Sqlite: `CREATE TABLE IF NOT EXISTS entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			gid TEXT NOT NULL DEFAULT '',
			entry_id TEXT NOT NULL,
			identity TEXT NOT NULL DEFAULT '',
			text TEXT NOT NULL DEFAULT '',
			kind TEXT NOT NULL,
			emoji TEXT NOT NULL DEFAULT '',
			bot_score REAL NOT NULL DEFAULT 0,
			ai_score REAL NOT NULL DEFAULT 0,
			profile_score REAL NOT NULL DEFAULT 0,
			model_prob REAL,
			duplicate BOOLEAN NOT NULL DEFAULT 0,
			reasons TEXT NOT NULL DEFAULT '{}',
			checked_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(gid, entry_id)
		)`,
		Postgres: `CREATE TABLE IF NOT EXISTS entries (
			id SERIAL PRIMARY KEY,
			gid TEXT NOT NULL DEFAULT '',
			entry_id TEXT NOT NULL,
			identity TEXT NOT NULL DEFAULT '',
			text TEXT NOT NULL DEFAULT '',
			kind TEXT NOT NULL,
			emoji TEXT NOT NULL DEFAULT '',
			bot_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			ai_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			profile_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			model_prob DOUBLE PRECISION,
			duplicate BOOLEAN NOT NULL DEFAULT FALSE,
			reasons TEXT NOT NULL DEFAULT '{}',
			checked_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(gid, entry_id)
		)`,
	}).
	AddSame(CmdCreateEntriesIndexes, `CREATE INDEX IF NOT EXISTS idx_entries_gid_checked ON entries(gid, checked_at)`).
	AddSame(CmdUpsertEntry, `INSERT INTO entries (gid, entry_id, identity, text, kind, emoji, bot_score, ai_score,
			profile_score, model_prob, duplicate, reasons, checked_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (gid, entry_id) DO UPDATE SET kind = excluded.kind, emoji = excluded.emoji,
			bot_score = excluded.bot_score, ai_score = excluded.ai_score, profile_score = excluded.profile_score,
			model_prob = excluded.model_prob, duplicate = excluded.duplicate, reasons = excluded.reasons`).
	AddSame(CmdSelectEntries, `SELECT entry_id, identity, text, kind, emoji, bot_score, ai_score, profile_score,
			model_prob, duplicate, reasons, checked_at FROM entries WHERE gid = ? ORDER BY checked_at DESC, id DESC LIMIT ?`).
	AddSame(CmdCountEntries, `SELECT COUNT(*) FROM entries WHERE gid = ?`)

// NewEntries creates entries log, the table is created if missing
func NewEntries(ctx context.Context, db *engine.SQL) (*Entries, error) {
	if db == nil {
		return nil, fmt.Errorf("no db provided")
	}

	cfg := engine.TableConfig{
		Name:          "entries",
		CreateTable:   CmdCreateEntriesTable,
		CreateIndexes: CmdCreateEntriesIndexes,
		MigrateFunc:   noopMigrate,
		QueriesMap:    entriesQueries,
	}
	if err := engine.InitTable(ctx, db, cfg); err != nil {
		return nil, fmt.Errorf("failed to init entries table: %w", err)
	}
	return &Entries{SQL: db, RWLocker: db.MakeLock()}, nil
}

// Write adds entries or replaces already stored ones with the same id
func (s *Entries) Write(ctx context.Context, entries ...textcheck.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	s.Lock()
	defer s.Unlock()

	query, err := s.Statement(entriesQueries, CmdUpsertEntry)
	if err != nil {
		return err
	}

	tx, err := s.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	for _, e := range entries {
		reasons, err := json.Marshal(e.Reasons)
		if err != nil {
			return fmt.Errorf("failed to marshal reasons of %s: %w", e.ID, err)
		}
		prob := sql.NullFloat64{}
		if e.ModelProb != nil {
			prob = sql.NullFloat64{Float64: *e.ModelProb, Valid: true}
		}
		_, err = tx.ExecContext(ctx, query, s.GID(), e.ID, e.Identity, e.Text, string(e.Classification.Kind),
			e.Classification.Emoji, e.Scores.Bot, e.Scores.AI, e.Scores.Profile, prob, e.Duplicate, string(reasons),
			e.CheckedAt.UTC())
		if err != nil {
			return fmt.Errorf("failed to write entry %s: %w", e.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit entries: %w", err)
	}
	return nil
}

// Read returns up to limit most recent entries, newest first
func (s *Entries) Read(ctx context.Context, limit int) ([]textcheck.Entry, error) {
	s.RLock()
	defer s.RUnlock()

	query, err := s.Statement(entriesQueries, CmdSelectEntries)
	if err != nil {
		return nil, err
	}
	var rows []entryRow
	if err = s.SelectContext(ctx, &rows, query, s.GID(), limit); err != nil {
		return nil, fmt.Errorf("failed to get entries: %w", err)
	}

	res := make([]textcheck.Entry, 0, len(rows))
	for _, r := range rows {
		e := textcheck.Entry{
			ID:             r.EntryID,
			Identity:       r.Identity,
			Text:           r.Text,
			Duplicate:      r.Duplicate,
			Scores:         textcheck.Scores{Bot: r.BotScore, AI: r.AIScore, Profile: r.ProfileScore},
			Classification: textcheck.Classification{Kind: textcheck.Kind(r.Kind), Emoji: r.Emoji},
			CheckedAt:      r.CheckedAt.UTC(),
		}
		if r.ModelProb.Valid {
			p := r.ModelProb.Float64
			e.ModelProb = &p
		}
		if err := json.Unmarshal([]byte(r.Reasons), &e.Reasons); err != nil {
			return nil, fmt.Errorf("failed to unmarshal reasons of %s: %w", r.EntryID, err)
		}
		res = append(res, e)
	}
	return res, nil
}

// Count returns number of stored entries of the origin
func (s *Entries) Count(ctx context.Context) (int, error) {
	s.RLock()
	defer s.RUnlock()

	query, err := s.Statement(entriesQueries, CmdCountEntries)
	if err != nil {
		return 0, err
	}
	var count int
	if err = s.GetContext(ctx, &count, query, s.GID()); err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return count, nil
}
