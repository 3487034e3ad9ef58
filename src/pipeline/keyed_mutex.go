package pipeline

import "sync"

// KeyedMutex serializes work per strategy id. The Flat/InPosition
// transition is check-then-act, so two near-simultaneous alerts for the
// same strategy must not both observe Flat; alerts for different strategies
// proceed in parallel.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[uint]*sync.Mutex)}
}

// WithLock runs fn while holding the strategy's exclusive lock. Lock
// entries are never removed; the map is bounded by the number of
// configured strategies.
func (k *KeyedMutex) WithLock(strategyID uint, fn func() error) error {
	k.mu.Lock()
	lock, ok := k.locks[strategyID]
	if !ok {
		lock = &sync.Mutex{}
		k.locks[strategyID] = lock
	}
	k.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()

	return fn()
}
