package engine

import "sync"

// RWLocker guards table access. Sqlite stores get a real mutex as the driver allows a single writer,
// postgres stores get a no-op one.
type RWLocker interface {
	sync.Locker
	RLock()
	RUnlock()
}

// MakeLock returns locker suitable for the engine
func (e *SQL) MakeLock() RWLocker {
	if e.dbType == Sqlite {
		return &sync.RWMutex{}
	}
	return nopLocker{}
}

type nopLocker struct{}

func (nopLocker) Lock()    {}
func (nopLocker) Unlock()  {}
func (nopLocker) RLock()   {}
func (nopLocker) RUnlock() {}
