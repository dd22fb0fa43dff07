package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-pkgz/testutils/containers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/umputun/rss-sniffer/app/storage/engine"
	"github.com/umputun/rss-sniffer/lib/profile"
	"github.com/umputun/rss-sniffer/lib/textcheck"
)

// StorageTestSuite runs store tests against sqlite and, if not in short mode, postgres
type StorageTestSuite struct {
	suite.Suite
	dbs         map[string]*engine.SQL
	pgContainer *containers.PostgresTestContainer
	sqliteFile  string
	ctx         context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageTestSuite))
}

func (s *StorageTestSuite) SetupSuite() {
	s.ctx = context.Background()
	s.dbs = make(map[string]*engine.SQL)

	s.sqliteFile = filepath.Join(os.TempDir(), fmt.Sprintf("test-storage-%d-%d.db", os.Getpid(), time.Now().UnixNano()))
	sqliteDB, err := engine.NewSqlite(s.sqliteFile, "origin1")
	s.Require().NoError(err)
	s.dbs["sqlite"] = sqliteDB

	if !testing.Short() {
		s.T().Log("starting postgres container")
		s.pgContainer = containers.NewPostgresTestContainerWithDB(s.ctx, s.T(), "test")
		pgDB, err := engine.NewPostgres(s.ctx, s.pgContainer.ConnectionString(), "origin1")
		s.Require().NoError(err)
		s.dbs["postgres"] = pgDB
	}
}

func (s *StorageTestSuite) TearDownSuite() {
	for _, db := range s.dbs {
		db.Close()
	}
	if s.sqliteFile != "" {
		_ = os.Remove(s.sqliteFile)
	}
}

func (s *StorageTestSuite) SetupTest() {
	for _, db := range s.dbs {
		_, err := db.Exec("DROP TABLE IF EXISTS profile_cache")
		s.Require().NoError(err)
		_, err = db.Exec("DROP TABLE IF EXISTS entries")
		s.Require().NoError(err)
	}
}

func (s *StorageTestSuite) TestProfiles_GetSet() {
	for name, db := range s.dbs {
		s.Run(name, func() {
			store, err := NewProfiles(s.ctx, db)
			s.Require().NoError(err)

			_, found, err := store.GetItem(s.ctx, "rss:profile:someone")
			s.Require().NoError(err)
			s.False(found)

			s.Require().NoError(store.SetItem(s.ctx, "rss:profile:someone", `{"status":"fail","fetchedAt":1}`))
			s.Require().NoError(store.SetItem(s.ctx, "rss:profile:someone", `{"status":"ok","fetchedAt":2}`))
			val, found, err := store.GetItem(s.ctx, "rss:profile:someone")
			s.Require().NoError(err)
			s.True(found)
			s.Equal(`{"status":"ok","fetchedAt":2}`, val, "last write wins")

			count, err := store.Count(s.ctx)
			s.Require().NoError(err)
			s.Equal(1, count)
		})
	}
}

func (s *StorageTestSuite) TestProfiles_Origins() {
	store1, err := NewProfiles(s.ctx, s.dbs["sqlite"])
	s.Require().NoError(err)
	db2, err := engine.NewSqlite(s.sqliteFile, "origin2")
	s.Require().NoError(err)
	defer db2.Close()
	store2, err := NewProfiles(s.ctx, db2)
	s.Require().NoError(err)

	s.Require().NoError(store1.SetItem(s.ctx, "k", "v1"))
	s.Require().NoError(store2.SetItem(s.ctx, "k", "v2"))

	v1, _, err := store1.GetItem(s.ctx, "k")
	s.Require().NoError(err)
	v2, _, err := store2.GetItem(s.ctx, "k")
	s.Require().NoError(err)
	s.Equal("v1", v1)
	s.Equal("v2", v2)
}

func (s *StorageTestSuite) TestProfiles_Prune() {
	for name, db := range s.dbs {
		s.Run(name, func() {
			store, err := NewProfiles(s.ctx, db)
			s.Require().NoError(err)

			now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
			store.now = func() time.Time { return now.Add(-48 * time.Hour) }
			s.Require().NoError(store.SetItem(s.ctx, "old", "v"))
			store.now = func() time.Time { return now }
			s.Require().NoError(store.SetItem(s.ctx, "fresh", "v"))

			n, err := store.Prune(s.ctx, now.Add(-24*time.Hour))
			s.Require().NoError(err)
			s.Equal(int64(1), n)

			_, found, err := store.GetItem(s.ctx, "old")
			s.Require().NoError(err)
			s.False(found)
			_, found, err = store.GetItem(s.ctx, "fresh")
			s.Require().NoError(err)
			s.True(found)
		})
	}
}

func (s *StorageTestSuite) TestProfiles_WithCache() {
	for name, db := range s.dbs {
		s.Run(name, func() {
			store, err := NewProfiles(s.ctx, db)
			s.Require().NoError(err)

			entry := `{"status":"ok","fetchedAt":` + fmt.Sprint(time.Now().UnixMilli()) + `,"data":{"created_utc":1000,"comment_karma":5}}`
			s.Require().NoError(store.SetItem(s.ctx, "rss:profile:stored_user", entry))

			c := profile.NewCache(profile.Config{Store: store, HTTPClient: failingClient{}})
			p := c.Get(s.ctx, "u/Stored_User")
			s.Require().NotNil(p)
			s.Equal(int64(5), p.CommentKarma)
		})
	}
}

func (s *StorageTestSuite) TestEntries_WriteRead() {
	for name, db := range s.dbs {
		s.Run(name, func() {
			store, err := NewEntries(s.ctx, db)
			s.Require().NoError(err)

			ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
			prob := 0.93
			e1 := textcheck.Entry{ID: "id1", Identity: "u/someone", Text: "first", Duplicate: true,
				Scores:         textcheck.Scores{Bot: 2, AI: 1.5, Profile: -2},
				Reasons:        textcheck.Reasons{Bot: []string{"near-duplicate of an earlier text"}, AI: []string{}, Profile: []string{"old account, 900 days old"}},
				Classification: textcheck.Classification{Kind: textcheck.KindUnknown, Emoji: "❓"},
				CheckedAt:      ts,
			}
			e2 := textcheck.Entry{ID: "id2", Identity: "other", Text: "second", ModelProb: &prob,
				Scores:         textcheck.Scores{AI: 8.5},
				Reasons:        textcheck.Reasons{Bot: []string{}, AI: []string{"model p(ai)=0.93"}, Profile: []string{}},
				Classification: textcheck.Classification{Kind: textcheck.KindAI, Emoji: "🧠"},
				CheckedAt:      ts.Add(time.Minute),
			}
			s.Require().NoError(store.Write(s.ctx, e1, e2))
			s.Require().NoError(store.Write(s.ctx))

			res, err := store.Read(s.ctx, 10)
			s.Require().NoError(err)
			s.Require().Len(res, 2)
			s.Equal("id2", res[0].ID, "newest first")
			s.Require().NotNil(res[0].ModelProb)
			s.InDelta(0.93, *res[0].ModelProb, 1e-9)
			s.Equal(e2.Reasons, res[0].Reasons)
			s.Equal(e2.Classification, res[0].Classification)
			s.True(res[0].CheckedAt.Equal(e2.CheckedAt), "checked at %v", res[0].CheckedAt)

			s.Nil(res[1].ModelProb)
			s.True(res[1].Duplicate)
			s.Equal(e1.Scores, res[1].Scores)
			s.Equal(e1.Identity, res[1].Identity)
			s.Equal(e1.Text, res[1].Text)

			// rewrite after recompute replaces the entry
			e1.Scores.AI = 4
			e1.Classification = textcheck.Classification{Kind: textcheck.KindBot, Emoji: "🤖"}
			s.Require().NoError(store.Write(s.ctx, e1))
			count, err := store.Count(s.ctx)
			s.Require().NoError(err)
			s.Equal(2, count)

			res, err = store.Read(s.ctx, 1)
			s.Require().NoError(err)
			s.Require().Len(res, 1)
			s.Equal("id2", res[0].ID)

			res, err = store.Read(s.ctx, 2)
			s.Require().NoError(err)
			s.Equal(textcheck.KindBot, res[1].Classification.Kind)
			s.InDelta(4.0, res[1].Scores.AI, 1e-9)
		})
	}
}

func (s *StorageTestSuite) TestEntries_Concurrent() {
	for name, db := range s.dbs {
		s.Run(name, func() {
			store, err := NewEntries(s.ctx, db)
			s.Require().NoError(err)

			var wg sync.WaitGroup
			for i := range 20 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					e := textcheck.Entry{ID: fmt.Sprintf("id%d", i), Classification: textcheck.Classification{Kind: textcheck.KindHuman},
						CheckedAt: time.Now()}
					s.NoError(store.Write(s.ctx, e))
				}()
			}
			wg.Wait()

			count, err := store.Count(s.ctx)
			s.Require().NoError(err)
			s.Equal(20, count)
		})
	}
}

type failingClient struct{}

func (failingClient) Do(*http.Request) (*http.Response, error) { return nil, errors.New("no network in tests") }

func TestNewStores_NilDB(t *testing.T) {
	_, err := NewProfiles(context.Background(), nil)
	require.Error(t, err)
	_, err = NewEntries(context.Background(), nil)
	require.Error(t, err)
}

func TestRedis(t *testing.T) {
	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	store, err := NewRedis(ctx, redisURL, time.Minute)
	require.NoError(t, err)
	defer store.Close()

	key := fmt.Sprintf("test:profile:%d", time.Now().UnixNano())
	_, found, err := store.GetItem(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.SetItem(ctx, key, "v1"))
	require.NoError(t, store.SetItem(ctx, key, "v2"))
	val, found, err := store.GetItem(ctx, key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v2", val)
}

func TestNewRedis_Errors(t *testing.T) {
	_, err := NewRedis(context.Background(), "not-a-redis-url", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid redis url")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = NewRedis(ctx, "redis://127.0.0.1:1/0", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to redis")
}
