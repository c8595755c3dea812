// Package lock provides the per-game single-writer lock. A second caller for
// the same game is rejected with ErrBusy rather than queued.
package lock

import (
	"context"
	"errors"
	"sync"
)

// ErrBusy is returned when another writer holds the game.
var ErrBusy = errors.New("game is locked by another writer")

// Release gives the lock back. It is safe to call more than once.
type Release func()

// Locker acquires the exclusive lock for a key.
type Locker interface {
	Acquire(ctx context.Context, key string) (Release, error)
}

// Local is an in-process Locker.
type Local struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewLocal creates an in-process Locker.
func NewLocal() *Local {
	return &Local{held: make(map[string]bool)}
}

// Acquire takes the lock for key or fails with ErrBusy.
func (l *Local) Acquire(ctx context.Context, key string) (Release, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return nil, ErrBusy
	}
	l.held[key] = true

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, nil
}
