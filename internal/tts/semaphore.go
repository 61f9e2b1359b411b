package tts

import (
	"context"
	"sync"
)

// dynamicSemaphore is a counting semaphore whose capacity can be resized
// while permits are outstanding, which golang.org/x/sync/semaphore does
// not support. The ladder calls SetCapacity at task-completion boundaries;
// outstanding permits already acquired are never revoked (spec §4.3:
// "outstanding tasks are not interrupted").
type dynamicSemaphore struct {
	mu       sync.Mutex
	cond     *sync.Cond
	capacity int
	inUse    int
}

func newDynamicSemaphore(initial int) *dynamicSemaphore {
	s := &dynamicSemaphore{capacity: initial}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Acquire blocks until a permit is available or ctx is done.
func (s *dynamicSemaphore) Acquire(ctx context.Context) error {
	done := make(chan struct{})
	stopWatcher := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			s.cond.Broadcast()
			s.mu.Unlock()
		case <-stopWatcher:
		}
		close(done)
	}()
	defer func() {
		close(stopWatcher)
		<-done
	}()

	s.mu.Lock()
	defer s.mu.Unlock()
	for s.inUse >= s.capacity {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.cond.Wait()
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	s.inUse++
	return nil
}

// Release returns a permit.
func (s *dynamicSemaphore) Release() {
	s.mu.Lock()
	s.inUse--
	s.cond.Broadcast()
	s.mu.Unlock()
}

// SetCapacity changes how many permits may be in use concurrently.
// Lowering it below the current in-use count simply blocks further
// acquires until enough permits are released.
func (s *dynamicSemaphore) SetCapacity(n int) {
	s.mu.Lock()
	s.capacity = n
	s.cond.Broadcast()
	s.mu.Unlock()
}
