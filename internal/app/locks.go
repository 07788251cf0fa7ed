package service

import "sync"

// keyedLocks hands out one mutex per project id. Recompute-then-transition
// must be serialized per project; locks for distinct projects never contend.
//
// Entries are never removed. The map grows with the number of distinct
// projects, which is bounded by the registry size.
type keyedLocks struct {
	locks sync.Map // string -> *sync.Mutex
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{}
}

// Lock acquires the mutex for key and returns its unlock func.
func (k *keyedLocks) Lock(key string) func() {
	v, _ := k.locks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
