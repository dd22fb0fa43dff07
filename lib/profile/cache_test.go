package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/rss-sniffer/lib/profile/mocks"
	"github.com/umputun/rss-sniffer/lib/textcheck"
)

const aboutResp = `{"kind":"t2","data":{"name":"someuser","created_utc":1600000000.0,"comment_karma":120,"link_karma":30,"is_employee":false}}`

func okResponse(body string) *http.Response {
	return &http.Response{StatusCode: http.StatusOK, Header: http.Header{}, Body: io.NopCloser(bytes.NewBufferString(body))}
}

func statusResponse(code int, header http.Header) *http.Response {
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{StatusCode: code, Header: header, Body: io.NopCloser(bytes.NewBufferString(`{}`))}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Add(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestNormalize(t *testing.T) {
	tests := []struct{ in, out string }{
		{"SomeUser", "someuser"},
		{"u/SomeUser", "someuser"},
		{"/u/SomeUser/", "someuser"},
		{"/user/SomeUser", "someuser"},
		{"U/SomeUser", "someuser"},
		{"@SomeUser", "someuser"},
		{"  someuser  ", "someuser"},
		{"", ""},
		{"u/", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.out, Normalize(tt.in))
		})
	}
}

func TestCache_Get(t *testing.T) {
	mockedHTTPClient := &mocks.HTTPClientMock{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			return okResponse(aboutResp), nil
		},
	}
	store := NewMemStore()
	c := NewCache(Config{BaseURL: "http://localhost/", UserAgent: "sniffer-test", HTTPClient: mockedHTTPClient,
		Store: store, MinInterval: time.Millisecond})

	p := c.Get(context.Background(), "u/SomeUser")
	require.NotNil(t, p)
	assert.Equal(t, textcheck.Profile{CreatedAtSeconds: 1600000000, CommentKarma: 120, LinkKarma: 30}, *p)

	require.Len(t, mockedHTTPClient.DoCalls(), 1)
	req := mockedHTTPClient.DoCalls()[0].Req
	assert.Equal(t, "http://localhost/user/someuser/about.json", req.URL.String())
	assert.Equal(t, "sniffer-test", req.Header.Get("User-Agent"))
	assert.Equal(t, http.MethodGet, req.Method)

	// cached, no more calls
	p2 := c.Get(context.Background(), "/u/someuser")
	assert.Equal(t, p, p2)
	assert.Len(t, mockedHTTPClient.DoCalls(), 1)

	// persisted in the durable store
	val, found, err := store.GetItem(context.Background(), "rss:profile:someuser")
	require.NoError(t, err)
	require.True(t, found)
	var e Entry
	require.NoError(t, json.Unmarshal([]byte(val), &e))
	assert.Equal(t, StatusOK, e.Status)
	assert.Positive(t, e.FetchedAt)
	assert.Equal(t, p, e.Data)

	assert.Nil(t, c.Get(context.Background(), " "), "empty identity")
	assert.Len(t, mockedHTTPClient.DoCalls(), 1)
}

func TestCache_ConcurrentSingleFetch(t *testing.T) {
	mockedHTTPClient := &mocks.HTTPClientMock{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			time.Sleep(50 * time.Millisecond)
			return okResponse(aboutResp), nil
		},
	}
	c := NewCache(Config{HTTPClient: mockedHTTPClient, MinInterval: time.Millisecond})

	var wg sync.WaitGroup
	results := make([]*textcheck.Profile, 10)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = c.Get(context.Background(), "someuser")
		}()
	}
	wg.Wait()

	assert.Len(t, mockedHTTPClient.DoCalls(), 1)
	for _, p := range results {
		require.NotNil(t, p)
		assert.Equal(t, int64(120), p.CommentKarma)
	}
}

func TestCache_RateLimitBackoff(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)}
	limited := true
	var mu sync.Mutex
	mockedHTTPClient := &mocks.HTTPClientMock{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			mu.Lock()
			defer mu.Unlock()
			if limited {
				return statusResponse(http.StatusTooManyRequests, http.Header{RateLimitResetHeader: []string{"2.5"}}), nil
			}
			return okResponse(aboutResp), nil
		},
	}
	c := NewCache(Config{HTTPClient: mockedHTTPClient, MinInterval: time.Millisecond, Now: clock.Now})

	assert.Nil(t, c.Get(context.Background(), "user1"))
	assert.Len(t, mockedHTTPClient.DoCalls(), 1)
	assert.Equal(t, clock.Now().Add(2500*time.Millisecond), c.Backoff())

	// during backoff no network calls at all
	assert.Nil(t, c.Get(context.Background(), "user2"))
	assert.Nil(t, c.Get(context.Background(), "user1"))
	assert.Len(t, mockedHTTPClient.DoCalls(), 1)

	// backoff elapsed, rate-limited result was not cached
	mu.Lock()
	limited = false
	mu.Unlock()
	clock.Add(3 * time.Second)
	assert.True(t, c.Backoff().IsZero())
	p := c.Get(context.Background(), "user1")
	require.NotNil(t, p)
	assert.Len(t, mockedHTTPClient.DoCalls(), 2)
}

func TestCache_RateLimitDefaultBackoff(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)}
	for _, hdr := range []string{"", "junk", "-5"} {
		t.Run("header "+hdr, func(t *testing.T) {
			mockedHTTPClient := &mocks.HTTPClientMock{
				DoFunc: func(req *http.Request) (*http.Response, error) {
					return statusResponse(http.StatusTooManyRequests, http.Header{RateLimitResetHeader: []string{hdr}}), nil
				},
			}
			c := NewCache(Config{HTTPClient: mockedHTTPClient, MinInterval: time.Millisecond, Now: clock.Now,
				DefaultBackoff: 45 * time.Second})
			assert.Nil(t, c.Get(context.Background(), "user1"))
			assert.Equal(t, clock.Now().Add(45*time.Second), c.Backoff())
		})
	}
}

func TestCache_Failures(t *testing.T) {
	tests := []struct {
		name string
		do   func(req *http.Request) (*http.Response, error)
	}{
		{"network error", func(req *http.Request) (*http.Response, error) { return nil, errors.New("connection refused") }},
		{"not found", func(req *http.Request) (*http.Response, error) { return statusResponse(http.StatusNotFound, nil), nil }},
		{"server error", func(req *http.Request) (*http.Response, error) { return statusResponse(http.StatusBadGateway, nil), nil }},
		{"malformed json", func(req *http.Request) (*http.Response, error) { return okResponse(`{"data":`), nil }},
		{"no data", func(req *http.Request) (*http.Response, error) { return okResponse(`{"kind":"t2"}`), nil }},
		{"wrong types", func(req *http.Request) (*http.Response, error) { return okResponse(`{"data":{"comment_karma":"x"}}`), nil }},
		{"no created_utc", func(req *http.Request) (*http.Response, error) {
			return okResponse(`{"kind":"t2","data":{"name":"x","is_suspended":true}}`), nil
		}},
		{"zero created_utc", func(req *http.Request) (*http.Response, error) {
			return okResponse(`{"data":{"created_utc":0,"comment_karma":10}}`), nil
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockedHTTPClient := &mocks.HTTPClientMock{DoFunc: tt.do}
			store := NewMemStore()
			c := NewCache(Config{HTTPClient: mockedHTTPClient, Store: store, MinInterval: time.Millisecond,
				FailTTL: 100 * time.Millisecond})

			assert.Nil(t, c.Get(context.Background(), "user1"))
			assert.Nil(t, c.Get(context.Background(), "user1"))
			assert.Len(t, mockedHTTPClient.DoCalls(), 1, "failure cached")

			val, found, err := store.GetItem(context.Background(), "rss:profile:user1")
			require.NoError(t, err)
			require.True(t, found)
			assert.Contains(t, val, `"status":"fail"`)
			assert.NotContains(t, val, `"data"`)

			time.Sleep(150 * time.Millisecond)
			assert.Nil(t, c.Get(context.Background(), "user1"))
			assert.Len(t, mockedHTTPClient.DoCalls(), 2, "failure expired")
		})
	}
}

func TestCache_DurableStore(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)}
	newClient := func() *mocks.HTTPClientMock {
		return &mocks.HTTPClientMock{DoFunc: func(req *http.Request) (*http.Response, error) { return okResponse(aboutResp), nil }}
	}
	ctx := context.Background()
	fetchedAt := clock.Now().Add(-time.Hour).UnixMilli()

	t.Run("valid ok entry", func(t *testing.T) {
		store := NewMemStore()
		require.NoError(t, store.SetItem(ctx, "rss:profile:user1",
			`{"status":"ok","fetchedAt":`+jsonInt(fetchedAt)+`,"data":{"created_utc":1,"comment_karma":5,"link_karma":6}}`))
		client := newClient()
		c := NewCache(Config{HTTPClient: client, Store: store, Now: clock.Now, MinInterval: time.Millisecond})
		p := c.Get(ctx, "User1")
		require.NotNil(t, p)
		assert.Equal(t, int64(5), p.CommentKarma)
		assert.Empty(t, client.DoCalls())
	})

	t.Run("valid fail entry", func(t *testing.T) {
		store := NewMemStore()
		require.NoError(t, store.SetItem(ctx, "rss:profile:user1",
			`{"status":"fail","fetchedAt":`+jsonInt(clock.Now().Add(-time.Minute).UnixMilli())+`}`))
		client := newClient()
		c := NewCache(Config{HTTPClient: client, Store: store, Now: clock.Now, MinInterval: time.Millisecond})
		assert.Nil(t, c.Get(ctx, "user1"))
		assert.Empty(t, client.DoCalls())
	})

	t.Run("expired and corrupted entries are a miss", func(t *testing.T) {
		values := []string{
			`{"status":"ok","fetchedAt":` + jsonInt(clock.Now().Add(-13*time.Hour).UnixMilli()) + `,"data":{"created_utc":1}}`,
			`{"status":"fail","fetchedAt":` + jsonInt(clock.Now().Add(-11*time.Minute).UnixMilli()) + `}`,
			`{"status":"ok","fetchedAt":` + jsonInt(fetchedAt) + `}`,
			`{"status":"ok","fetchedAt":` + jsonInt(fetchedAt) + `,"data":{"comment_karma":5}}`,
			`{"status":"weird","fetchedAt":` + jsonInt(fetchedAt) + `}`,
			`not a json at all`,
			`{"status":"ok","fetchedAt":"yesterday"}`,
		}
		for _, val := range values {
			store := NewMemStore()
			require.NoError(t, store.SetItem(ctx, "rss:profile:user1", val))
			client := newClient()
			c := NewCache(Config{HTTPClient: client, Store: store, Now: clock.Now, MinInterval: time.Millisecond})
			p := c.Get(ctx, "user1")
			require.NotNil(t, p, val)
			assert.Equal(t, int64(120), p.CommentKarma, val)
			assert.Len(t, client.DoCalls(), 1, val)

			// replaced with a fresh entry, last write wins
			stored, _, err := store.GetItem(ctx, "rss:profile:user1")
			require.NoError(t, err)
			assert.Contains(t, stored, `"status":"ok"`)
		}
	})

	t.Run("store errors ignored", func(t *testing.T) {
		store := &mocks.StoreMock{
			GetItemFunc: func(ctx context.Context, key string) (string, bool, error) {
				return "", false, errors.New("storage unavailable")
			},
			SetItemFunc: func(ctx context.Context, key, value string) error { return errors.New("quota exceeded") },
		}
		client := newClient()
		c := NewCache(Config{HTTPClient: client, Store: store, Now: clock.Now, MinInterval: time.Millisecond})
		require.NotNil(t, c.Get(ctx, "user1"))
		require.NotNil(t, c.Get(ctx, "user1"))
		assert.Len(t, client.DoCalls(), 1, "memory cache still works")
		assert.Len(t, store.SetItemCalls(), 1)
		assert.Equal(t, "rss:profile:user1", store.SetItemCalls()[0].Key)
	})
}

func TestCache_CancelledCaller(t *testing.T) {
	release := make(chan struct{})
	mockedHTTPClient := &mocks.HTTPClientMock{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			<-release
			return okResponse(aboutResp), nil
		},
	}
	c := NewCache(Config{HTTPClient: mockedHTTPClient, MinInterval: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan *textcheck.Profile)
	go func() { done <- c.Get(ctx, "user1") }()
	time.Sleep(20 * time.Millisecond)
	cancel()
	assert.Nil(t, <-done, "cancelled caller gets nil")

	close(release)
	require.Eventually(t, func() bool {
		return c.Get(context.Background(), "user1") != nil
	}, time.Second, 10*time.Millisecond, "fetch completed and cached")
	assert.Len(t, mockedHTTPClient.DoCalls(), 1)
}

func TestCache_MinInterval(t *testing.T) {
	mockedHTTPClient := &mocks.HTTPClientMock{
		DoFunc: func(req *http.Request) (*http.Response, error) { return okResponse(aboutResp), nil },
	}
	c := NewCache(Config{HTTPClient: mockedHTTPClient, MinInterval: 100 * time.Millisecond})

	st := time.Now()
	for _, id := range []string{"user1", "user2", "user3"} {
		require.NotNil(t, c.Get(context.Background(), id))
	}
	assert.GreaterOrEqual(t, time.Since(st), 190*time.Millisecond)
	assert.Len(t, mockedHTTPClient.DoCalls(), 3)
}

func jsonInt(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
