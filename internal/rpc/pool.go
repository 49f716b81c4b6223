package rpc

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// pool is the bounded set of goroutines that runs queued requests and their
// completion handlers. Its context lives until stop is called.
type pool struct {
	g      errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc
}

func newPool(workers int) *pool {
	ctx, cancel := context.WithCancel(context.Background())
	p := &pool{ctx: ctx, cancel: cancel}
	p.g.SetLimit(workers)
	return p
}

// tryGo runs fn on a free worker. It reports false, without blocking, when
// every worker is busy.
func (p *pool) tryGo(fn func(ctx context.Context)) bool {
	return p.g.TryGo(func() error {
		fn(p.ctx)
		return nil
	})
}

// stop cancels the context handed to running work.
func (p *pool) stop() { p.cancel() }

// join waits for running work to return.
func (p *pool) join() { _ = p.g.Wait() }
