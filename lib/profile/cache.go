// Package profile provides cached, rate-limited lookups of account profiles from the identity service.
//
// Lookups check the durable store first, then the in-memory cache. Concurrent lookups of the same identity
// share one fetch. All outbound calls go through a single queue enforcing a minimal interval between calls,
// and a rate-limit response suppresses all calls until the backoff deadline passes.
// Get never returns an error, any failure results in a nil profile.
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	cache "github.com/go-pkgz/expirable-cache/v3"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/umputun/rss-sniffer/lib/textcheck"
)

//go:generate moq --out mocks/http_client.go --pkg mocks --skip-ensure --with-resets . HTTPClient
//go:generate moq --out mocks/store.go --pkg mocks --skip-ensure --with-resets . Store

// HTTPClient is an interface for http client, satisfied by http.Client
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Store is a durable key-value storage for cache entries. Values are untrusted and may be corrupted.
type Store interface {
	GetItem(ctx context.Context, key string) (value string, found bool, err error)
	SetItem(ctx context.Context, key, value string) error
}

// RateLimitResetHeader is the response header with seconds until rate limit reset
const RateLimitResetHeader = "X-Ratelimit-Reset"

// Config defines cache parameters, zero values replaced with defaults
type Config struct {
	BaseURL        string        // identity service url, default https://www.reddit.com
	UserAgent      string        // user-agent header of outbound requests
	OKTTL          time.Duration // ttl of successful lookups, default 12h
	FailTTL        time.Duration // ttl of failed lookups, default 10m
	MinInterval    time.Duration // minimal interval between outbound calls, default 1s
	DefaultBackoff time.Duration // backoff if rate-limit response has no reset hint, default 60s
	KeyPrefix      string        // durable store key prefix, default "rss:profile:"
	MemoryLimit    int           // max identities kept in memory, default 10000
	HTTPClient     HTTPClient    // required
	Store          Store         // optional durable store
	Now            func() time.Time
}

// Status of cache entry
type Status string

// enum of statuses
const (
	StatusOK   Status = "ok"
	StatusFail Status = "fail"
)

// Entry is a cache entry, stored as json in the durable store
type Entry struct {
	Status    Status             `json:"status"`
	FetchedAt int64              `json:"fetchedAt"` // unix milliseconds
	Data      *textcheck.Profile `json:"data,omitempty"`
}

// Cache is a profile cache with a rate-limited request queue. Safe for concurrent use.
type Cache struct {
	cfg     Config
	mem     cache.Cache[string, Entry]
	group   singleflight.Group
	queue   sync.Mutex // serializes outbound calls
	limiter *rate.Limiter

	backoffMu    sync.Mutex
	backoffUntil time.Time
}

// NewCache makes profile cache
func NewCache(cfg Config) *Cache {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.reddit.com"
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.OKTTL <= 0 {
		cfg.OKTTL = 12 * time.Hour
	}
	if cfg.FailTTL <= 0 {
		cfg.FailTTL = 10 * time.Minute
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = time.Second
	}
	if cfg.DefaultBackoff <= 0 {
		cfg.DefaultBackoff = 60 * time.Second
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "rss:profile:"
	}
	if cfg.MemoryLimit <= 0 {
		cfg.MemoryLimit = 10000
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Cache{
		cfg:     cfg,
		mem:     cache.NewCache[string, Entry]().WithMaxKeys(cfg.MemoryLimit).WithLRU(),
		limiter: rate.NewLimiter(rate.Every(cfg.MinInterval), 1),
	}
}

// Normalize strips u/ style prefixes, trims and lower-cases identity
func Normalize(identity string) string {
	res := strings.TrimSpace(identity)
	for _, prefix := range []string{"/user/", "user/", "/u/", "u/", "@"} {
		if len(res) >= len(prefix) && strings.EqualFold(res[:len(prefix)], prefix) {
			res = res[len(prefix):]
			break
		}
	}
	return strings.ToLower(strings.Trim(strings.TrimSpace(res), "/"))
}

// Get returns profile of the identity or nil if it is unknown, failed or rate-limited.
// The shared fetch is not cancelled by ctx, a caller with cancelled ctx gets nil while the fetch
// completes and updates the cache.
func (c *Cache) Get(ctx context.Context, identity string) *textcheck.Profile {
	id := Normalize(identity)
	if id == "" {
		return nil
	}

	if e, ok := c.fromStore(ctx, id); ok {
		return e.Data
	}
	if e, ok := c.mem.Get(id); ok {
		return e.Data
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(id, func() (any, error) {
		if e, ok := c.mem.Get(id); ok { // filled by a fetch completed meanwhile
			return e.Data, nil
		}
		return c.fetch(fetchCtx, id), nil
	})

	select {
	case res := <-ch:
		p, _ := res.Val.(*textcheck.Profile)
		return p
	case <-ctx.Done():
		return nil
	}
}

// Backoff returns the deadline of the current rate-limit backoff, zero time if not in backoff
func (c *Cache) Backoff() time.Time {
	c.backoffMu.Lock()
	defer c.backoffMu.Unlock()
	if c.cfg.Now().Before(c.backoffUntil) {
		return c.backoffUntil
	}
	return time.Time{}
}

// fromStore loads valid entry from the durable store and mirrors it in memory.
// Missing, expired and corrupted values are reported as a miss.
func (c *Cache) fromStore(ctx context.Context, id string) (Entry, bool) {
	if c.cfg.Store == nil {
		return Entry{}, false
	}
	val, found, err := c.cfg.Store.GetItem(ctx, c.cfg.KeyPrefix+id)
	if err != nil {
		log.Printf("[DEBUG] can't read profile %q from store: %v", id, err)
		return Entry{}, false
	}
	if !found {
		return Entry{}, false
	}

	var e Entry
	if err := json.Unmarshal([]byte(val), &e); err != nil {
		log.Printf("[DEBUG] corrupted profile entry %q in store: %v", id, err)
		return Entry{}, false
	}
	ttl, valid := c.ttl(e)
	if !valid {
		return Entry{}, false
	}
	remaining := ttl - c.cfg.Now().Sub(time.UnixMilli(e.FetchedAt))
	if remaining <= 0 {
		return Entry{}, false
	}
	c.mem.Set(id, e, remaining)
	return e, true
}

// ttl returns ttl of the entry by its status, false for entries of unexpected shape
func (c *Cache) ttl(e Entry) (time.Duration, bool) {
	switch {
	case e.Status == StatusOK && e.Data != nil && e.Data.CreatedAtSeconds > 0:
		return c.cfg.OKTTL, true
	case e.Status == StatusFail && e.Data == nil:
		return c.cfg.FailTTL, true
	}
	return 0, false
}

// fetch makes the outbound call through the queue. Returns nil without network call while in backoff.
func (c *Cache) fetch(ctx context.Context, id string) *textcheck.Profile {
	c.queue.Lock()
	defer c.queue.Unlock()

	if !c.Backoff().IsZero() {
		log.Printf("[DEBUG] profile %q skipped, rate limited until %s", id, c.Backoff().Format(time.RFC3339))
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		log.Printf("[WARN] profile %q rate limiter: %v", id, err)
		return nil
	}

	reqURL := fmt.Sprintf("%s/user/%s/about.json", c.cfg.BaseURL, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		log.Printf("[WARN] failed to make request %s: %v", reqURL, err)
		c.put(ctx, id, Entry{Status: StatusFail})
		return nil
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		log.Printf("[DEBUG] failed to send request %s: %v", reqURL, err)
		c.put(ctx, id, Entry{Status: StatusFail})
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		backoff := c.cfg.DefaultBackoff
		if secs, err := strconv.ParseFloat(strings.TrimSpace(resp.Header.Get(RateLimitResetHeader)), 64); err == nil &&
			secs > 0 && secs < 24*3600 {
			backoff = time.Duration(secs * float64(time.Second))
		}
		c.backoffMu.Lock()
		c.backoffUntil = c.cfg.Now().Add(backoff)
		c.backoffMu.Unlock()
		log.Printf("[WARN] profile service rate limited, backoff %v", backoff)
		return nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("[DEBUG] unexpected status %d from %s", resp.StatusCode, reqURL)
		c.put(ctx, id, Entry{Status: StatusFail})
		return nil
	}

	p, err := parseAbout(resp.Body)
	if err != nil {
		log.Printf("[DEBUG] failed to parse profile response from %s: %v", reqURL, err)
		c.put(ctx, id, Entry{Status: StatusFail})
		return nil
	}

	c.put(ctx, id, Entry{Status: StatusOK, Data: p})
	return p
}

// parseAbout decodes profile response, suspended and deleted accounts come without creation time
func parseAbout(r io.Reader) (*textcheck.Profile, error) {
	var resp struct {
		Data *struct {
			CreatedAtSeconds *float64 `json:"created_utc"`
			CommentKarma     int64    `json:"comment_karma"`
			LinkKarma        int64    `json:"link_karma"`
			IsEmployee       bool     `json:"is_employee"`
		} `json:"data"`
	}
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, errors.New("no data")
	}
	if resp.Data.CreatedAtSeconds == nil || *resp.Data.CreatedAtSeconds <= 0 {
		return nil, errors.New("no creation time")
	}
	return &textcheck.Profile{
		CreatedAtSeconds: *resp.Data.CreatedAtSeconds,
		CommentKarma:     resp.Data.CommentKarma,
		LinkKarma:        resp.Data.LinkKarma,
		IsEmployee:       resp.Data.IsEmployee,
	}, nil
}

// put sets fetch time and saves entry in memory and in the durable store
func (c *Cache) put(ctx context.Context, id string, e Entry) {
	e.FetchedAt = c.cfg.Now().UnixMilli()
	ttl, _ := c.ttl(e)
	c.mem.Set(id, e, ttl)

	if c.cfg.Store == nil {
		return
	}
	data, err := json.Marshal(e)
	if err != nil {
		log.Printf("[WARN] can't marshal profile entry %q: %v", id, err)
		return
	}
	if err := c.cfg.Store.SetItem(ctx, c.cfg.KeyPrefix+id, string(data)); err != nil {
		log.Printf("[DEBUG] can't save profile %q to store: %v", id, err)
	}
}
