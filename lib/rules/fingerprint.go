package rules

import (
	"regexp"
	"strings"
	"sync"
	"time"

	cache "github.com/go-pkgz/expirable-cache/v3"
)

const (
	// MaxFingerprintRunes is the length normalized text is truncated to
	MaxFingerprintRunes = 600
	// MinFingerprintRunes is the shortest fingerprint taken into account
	MinFingerprintRunes = 24
)

var (
	reFpURL      = regexp.MustCompile(`(?:https?://|www\.)\S+`)
	reFpNumber   = regexp.MustCompile(`\d+(?:[.,:]\d+)*`)
	reFpMarkdown = regexp.MustCompile("[*_`~#>|\\[\\]()]+")
)

// Fingerprint returns a normalized form of the text used for near-duplicate detection.
// Urls and numbers are replaced with placeholders, so texts differing only in them share a fingerprint.
func Fingerprint(text string) string {
	s := strings.ToLower(strings.ToValidUTF8(text, ""))
	s = reFpURL.ReplaceAllString(s, " ⟨url⟩ ")
	s = reFpNumber.ReplaceAllString(s, " ⟨n⟩ ")
	s = reFpMarkdown.ReplaceAllString(s, " ")
	s = strings.Join(strings.Fields(s), " ")

	if runes := []rune(s); len(runes) > MaxFingerprintRunes {
		s = string(runes[:MaxFingerprintRunes])
	}
	return s
}

// History keeps per-identity fingerprint counts. Identities are held in LRU cache with idle ttl,
// each identity keeps up to maxPerIdentity fingerprints, the oldest evicted first. Thread-safe.
type History struct {
	mu             sync.Mutex
	identities     cache.Cache[string, *identityHistory]
	ttl            time.Duration
	maxPerIdentity int
}

type identityHistory struct {
	counts map[string]int // fingerprint -> occurrences
	order  []string       // fingerprints in order of first appearance
}

// HistoryOpts defines bounds of the history
type HistoryOpts struct {
	MaxIdentities  int           // max number of identities kept, default 10000
	TTL            time.Duration // idle ttl for an identity, default 24h
	MaxPerIdentity int           // max fingerprints per identity, default 256
}

// NewHistory makes history with given bounds, zero values replaced with defaults
func NewHistory(opts HistoryOpts) *History {
	if opts.MaxIdentities <= 0 {
		opts.MaxIdentities = 10000
	}
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if opts.MaxPerIdentity <= 0 {
		opts.MaxPerIdentity = 256
	}
	return &History{
		identities:     cache.NewCache[string, *identityHistory]().WithMaxKeys(opts.MaxIdentities).WithTTL(opts.TTL).WithLRU(),
		ttl:            opts.TTL,
		maxPerIdentity: opts.MaxPerIdentity,
	}
}

// Track records fingerprint for the identity and returns true if it was seen before.
// The occurrence count is incremented in both cases. Short fingerprints and empty identities are ignored.
func (h *History) Track(identity, fp string) bool {
	if h == nil || identity == "" || len([]rune(fp)) < MinFingerprintRunes {
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ih, found := h.identities.Get(identity)
	if !found {
		ih = &identityHistory{counts: make(map[string]int)}
	}

	seen := ih.counts[fp] > 0
	if !seen {
		ih.order = append(ih.order, fp)
		for len(ih.order) > h.maxPerIdentity {
			delete(ih.counts, ih.order[0])
			ih.order = ih.order[1:]
		}
	}
	ih.counts[fp]++
	h.identities.Set(identity, ih, h.ttl) // refresh idle ttl
	return seen
}

// Count returns number of occurrences of the fingerprint for the identity
func (h *History) Count(identity, fp string) int {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	ih, found := h.identities.Get(identity)
	if !found {
		return 0
	}
	return ih.counts[fp]
}

// Len returns number of tracked identities
func (h *History) Len() int {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.identities.Len()
}
