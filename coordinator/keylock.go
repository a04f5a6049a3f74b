package coordinator

import "sync"

// keyLock serializes the fetch-merge-write cycle per model key. Without it
// two concurrent submissions for one model could both read the same
// baseline and overwrite each other's merge (last-write-wins lost update).
type keyLock struct {
	mu    sync.Mutex
	locks map[string]*keyLockEntry
}

// keyLockEntry refcounts waiters so entries for idle models can be pruned
// and the map stays bounded by the number of in-flight submissions.
type keyLockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyLock() *keyLock {
	return &keyLock{
		locks: make(map[string]*keyLockEntry),
	}
}

func (k *keyLock) lock(key string) func() {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &keyLockEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
