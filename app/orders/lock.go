package orders

import (
	"context"
	"sync"
)

// keyedMutex serializes work per order id. Entries are dropped once no
// goroutine holds or waits on them.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[uint]*refLock
}

type refLock struct {
	ch   chan struct{}
	refs int
}

// Lock blocks until id is free or ctx is done and returns the matching
// unlock func. On ctx expiry the lock is not held and ctx.Err() is returned.
func (k *keyedMutex) Lock(ctx context.Context, id uint) (func(), error) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[uint]*refLock)
	}
	l, ok := k.locks[id]
	if !ok {
		l = &refLock{ch: make(chan struct{}, 1)}
		k.locks[id] = l
	}
	l.refs++
	k.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
	case <-ctx.Done():
		k.release(id, l)
		return nil, ctx.Err()
	}
	return func() {
		<-l.ch
		k.release(id, l)
	}, nil
}

func (k *keyedMutex) release(id uint, l *refLock) {
	k.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(k.locks, id)
	}
	k.mu.Unlock()
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
