package services

import (
	"sync"

	"github.com/google/uuid"
)

// articleLocks serializes mutations per article within this process. The
// version column on the article row still guards against writers in other
// processes; the local lock just keeps same-process writers from burning
// retries against each other.
type articleLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newArticleLocks() *articleLocks {
	return &articleLocks{locks: make(map[uuid.UUID]*lockEntry)}
}

// Lock acquires the per-article mutex and returns its unlock func.
func (al *articleLocks) Lock(articleID uuid.UUID) func() {
	al.mu.Lock()
	entry, ok := al.locks[articleID]
	if !ok {
		entry = &lockEntry{}
		al.locks[articleID] = entry
	}
	entry.refs++
	al.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		al.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(al.locks, articleID)
		}
		al.mu.Unlock()
	}
}
