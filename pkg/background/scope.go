package background

import (
	"context"
	"sync"
	"time"
)

// Scope - abstract concurrency scope.
// Goroutines started with Go share the scope context and are awaited by Wait.
type Scope struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	sealed bool
	wg     sync.WaitGroup
}

// NewScope - concurrency scope builder.
// Returned cancel func stops the scope and waits for all its goroutines.
func NewScope(parent context.Context) (scope *Scope, cancel func()) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancelFunc := context.WithCancel(parent)
	s := &Scope{
		ctx:    ctx,
		cancel: cancelFunc,
	}
	return s,
		func() {
			s.Cancel()
			s.Wait(0)
		}
}

// Context - return scope context.
func (s *Scope) Context() context.Context {
	return s.ctx
}

// Go - runs f in new goroutine under the scope.
// Returns false and does nothing if the scope is cancelled already.
func (s *Scope) Go(f func(ctx context.Context)) bool {
	s.mu.Lock()
	if s.sealed || s.ctx.Err() != nil {
		s.mu.Unlock()
		return false
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		f(s.ctx)
	}()
	return true
}

// Cancel - cancels scope context, no more goroutines are accepted after that.
func (s *Scope) Cancel() {
	s.seal()
	s.cancel()
}

// Wait - waits all goroutines of the scope have finished.
// Non-positive timeout means no limit. Returns false on timeout.
// No more goroutines are accepted after Wait is called.
func (s *Scope) Wait(timeout time.Duration) bool {
	s.seal()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	if timeout <= 0 {
		<-done
		return true
	}
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (s *Scope) seal() {
	s.mu.Lock()
	s.sealed = true
	s.mu.Unlock()
}
