package runner

import (
	"context"
	"sync"
)

// Counter counts down the queries still outstanding in one run.
//
// Misuse (completing more queries than were initialized, or completing
// before Init) is a programming error and panics.
type Counter struct {
	mu          sync.Mutex
	cond        *sync.Cond
	n           int
	initialized bool
}

// NewCounter returns an uninitialized counter.
func NewCounter() *Counter {
	c := &Counter{}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Init sets the number of outstanding queries.
func (c *Counter) Init(n int) {
	if n < 0 {
		panic("runner: negative counter initialization")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n = n
	c.initialized = true
}

// Done marks one query complete and wakes waiters. fn, if not nil, runs
// while the counter lock is held, after the decrement, with the number of
// queries still outstanding.
func (c *Counter) Done(fn func(remaining int)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		panic("runner: Done on uninitialized counter")
	}
	if c.n == 0 {
		panic("runner: counter underflow")
	}
	c.n--
	if fn != nil {
		fn(c.n)
	}
	c.cond.Broadcast()
}

// Remaining returns the number of outstanding queries.
func (c *Counter) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// Wait blocks until the count reaches zero or ctx is done.
func (c *Counter) Wait(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	stop := context.AfterFunc(ctx, func() {
		c.mu.Lock()
		c.cond.Broadcast()
		c.mu.Unlock()
	})
	defer stop()

	for c.n > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.cond.Wait()
	}
	return nil
}
