package textcheck

import (
	"container/ring"
	"sync"
)

// LastEntries keeps track of last N classified entries, thread-safe.
type LastEntries struct {
	entries *ring.Ring
	size    int
	lock    sync.RWMutex
}

// NewLastEntries creates new entries tracker
func NewLastEntries(size int) *LastEntries {
	// minimum size is 1
	if size < 1 {
		size = 1
	}
	return &LastEntries{
		entries: ring.New(size),
		size:    size,
	}
}

// Push adds new entry to the history
func (h *LastEntries) Push(e Entry) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.entries.Value = e
	h.entries = h.entries.Next()
}

// Last returns up to n last entries in chronological order (oldest to newest)
func (h *LastEntries) Last(n int) []Entry {
	if n < 1 {
		return []Entry{}
	}

	h.lock.RLock()
	defer h.lock.RUnlock()

	if n > h.size {
		n = h.size
	}

	result := make([]Entry, 0, h.size)
	h.entries.Do(func(v any) {
		if e, ok := v.(Entry); ok {
			result = append(result, e)
		}
	})

	if len(result) > n {
		result = result[len(result)-n:]
	}
	return result
}

// Replace swaps stored entries with updated ones matched by id, keeping positions.
func (h *LastEntries) Replace(updated []Entry) {
	if len(updated) == 0 {
		return
	}
	byID := make(map[string]Entry, len(updated))
	for _, e := range updated {
		byID[e.ID] = e
	}

	h.lock.Lock()
	defer h.lock.Unlock()
	r := h.entries
	for range h.size {
		if e, ok := r.Value.(Entry); ok {
			if upd, found := byID[e.ID]; found {
				r.Value = upd
			}
		}
		r = r.Next()
	}
}

// Size returns the size of entries history
func (h *LastEntries) Size() int {
	return h.size
}
