// Package limiter caps how many database connections the gateway holds open
// at the same time.
package limiter

import (
	"context"
	"errors"
	"sync"
)

var ErrBusy = errors.New("gateway busy: too many open database connections")

// Limiter hands out connection slots. The returned release func is safe to
// call more than once; only the first call frees the slot.
type Limiter interface {
	Acquire(ctx context.Context) (release func(), err error)
}

// Local is an in-process counting semaphore.
type Local struct {
	slots chan struct{}
}

func NewLocal(max int) *Local {
	return &Local{slots: make(chan struct{}, max)}
}

func (l *Local) Acquire(ctx context.Context) (func(), error) {
	select {
	case l.slots <- struct{}{}:
		return Once(func() { <-l.slots }), nil
	case <-ctx.Done():
		return nil, ErrBusy
	}
}

// InUse reports how many slots are currently held.
func (l *Local) InUse() int {
	return len(l.slots)
}

type Unlimited struct{}

func (Unlimited) Acquire(context.Context) (func(), error) {
	return func() {}, nil
}

func Once(fn func()) func() {
	var once sync.Once
	return func() { once.Do(fn) }
}
