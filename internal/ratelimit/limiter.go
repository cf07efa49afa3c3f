// Package ratelimit bounds the number of concurrently in-flight upstream
// requests. It is a pure counting semaphore with strict FIFO fairness: it
// knows nothing about what a permit is used for.
package ratelimit

import (
	"container/list"
	"context"
	"fmt"
	"sync"
)

// Limiter grants up to a fixed number of permits. Capacity is set at
// construction and cannot change afterwards. Waiters are served strictly in
// arrival order.
type Limiter struct {
	capacity int

	mu       sync.Mutex
	inFlight int
	waiters  list.List // of chan struct{}
}

// New builds a limiter with the given capacity. Panics when capacity is not
// positive, misconfiguration here is a programming error.
func New(capacity int) *Limiter {
	if capacity < 1 {
		panic(fmt.Sprintf("ratelimit: capacity must be positive, got %d", capacity))
	}
	return &Limiter{capacity: capacity}
}

// Acquire returns a permit, blocking while the limiter is at capacity. Calls
// are served in arrival order. When ctx is cancelled before a slot frees up,
// the waiter leaves the queue without consuming a slot.
func (l *Limiter) Acquire(ctx context.Context) (*Permit, error) {
	l.mu.Lock()
	if l.inFlight < l.capacity && l.waiters.Len() == 0 {
		l.inFlight++
		l.mu.Unlock()
		return &Permit{limiter: l}, nil
	}

	ready := make(chan struct{})
	elem := l.waiters.PushBack(ready)
	l.mu.Unlock()

	select {
	case <-ready:
		return &Permit{limiter: l}, nil
	case <-ctx.Done():
		l.mu.Lock()
		select {
		case <-ready:
			// The slot was handed over while we were cancelling; pass it on
			// so it doesn't leak.
			l.releaseLocked()
		default:
			l.waiters.Remove(elem)
		}
		l.mu.Unlock()
		return nil, ctx.Err()
	}
}

// InFlight returns the number of granted, unreleased permits.
func (l *Limiter) InFlight() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inFlight
}

// Waiting returns the number of queued acquisitions.
func (l *Limiter) Waiting() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.waiters.Len()
}

// Capacity returns the construction-time capacity.
func (l *Limiter) Capacity() int { return l.capacity }

func (l *Limiter) release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.releaseLocked()
}

// releaseLocked hands the freed slot to the head waiter when one exists,
// keeping inFlight unchanged, otherwise it decrements the counter.
func (l *Limiter) releaseLocked() {
	if e := l.waiters.Front(); e != nil {
		l.waiters.Remove(e)
		close(e.Value.(chan struct{}))
		return
	}
	l.inFlight--
}

// Permit is one unit of limiter capacity. Release must be called on every
// exit path; it is idempotent so deferred and explicit releases can coexist.
type Permit struct {
	limiter *Limiter
	once    sync.Once
}

// Release returns the permit to the limiter, waking the oldest waiter if any.
func (p *Permit) Release() {
	p.once.Do(p.limiter.release)
}
