// Package runner drives one balance run: it submits a history query per
// address over a single connection, steps the connection's I/O in the
// background, renders each result as it completes and tears everything down
// once the last query has finished.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dmagro/addr-balance/internal/balance"
	"github.com/dmagro/addr-balance/internal/history"
	"github.com/dmagro/addr-balance/internal/metrics"
	"github.com/dmagro/addr-balance/internal/output"
	"github.com/dmagro/addr-balance/internal/rpc"
	"github.com/dmagro/addr-balance/internal/stats"
)

// ErrNoAddresses is returned when a run is started without addresses. No
// connection is opened in that case.
var ErrNoAddresses = errors.New("no valid addresses")

// Conn is the connection a run queries.
type Conn interface {
	Stepper
	FetchHistory(addr btcutil.Address, handler rpc.HistoryHandler)
	Close() error
}

// Dialer opens the connection for one run.
type Dialer func() (Conn, error)

// Config holds everything one run needs.
type Config struct {
	Dial     Dialer
	Renderer output.Renderer
	Interval time.Duration      // driver step interval, DefaultInterval if zero
	Metrics  *metrics.Collector // optional
	Logger   *zap.Logger        // optional
}

// Summary counts how the queries of a run ended.
type Summary struct {
	Submitted int // zero when the run ended before any query was sent
	Succeeded int
	Failed    int
	Latency   stats.Tail // submit to completion, over every completed query
}

// run is the state shared by the callbacks of one Run call.
type run struct {
	counter  *Counter
	renderer output.Renderer
	metrics  *metrics.Collector
	log      *zap.Logger
	ctx      context.Context
	abort    context.CancelCauseFunc
	summary  Summary
	elapsed  []time.Duration

	fatalMu sync.Mutex
	fatal   error
}

// Run queries the history of every address and renders the balances.
//
// Per-address fetch failures are reported through the renderer and counted
// in the summary; they do not make Run fail. Run returns an error when no
// address is given, when the connection cannot be opened, when the driver
// fails, when ctx is cancelled, or when the service violates its contract
// (balance.ErrNegativeValue). In every case the driver is stopped and joined
// before the connection is closed.
func Run(ctx context.Context, cfg Config, addrs []btcutil.Address) (Summary, error) {
	if len(addrs) == 0 {
		return Summary{}, ErrNoAddresses
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	conn, err := cfg.Dial()
	if err != nil {
		return Summary{}, fmt.Errorf("open connection: %w", err)
	}

	runCtx, abort := context.WithCancelCause(ctx)
	defer abort(nil)

	// Callbacks stop rendering as soon as gctx is done, whether the run
	// was aborted, the driver failed or the caller cancelled.
	g, gctx := errgroup.WithContext(runCtx)

	r := &run{
		counter:  NewCounter(),
		renderer: cfg.Renderer,
		metrics:  cfg.Metrics,
		log:      log,
		ctx:      gctx,
		abort:    abort,
	}

	log.Info("balance run started", zap.Int("addresses", len(addrs)))
	started := time.Now()

	r.renderer.Begin()
	r.counter.Init(len(addrs))
	if r.metrics != nil {
		r.metrics.Submitted(len(addrs))
	}

	for i, addr := range addrs {
		conn.FetchHistory(addr, r.handler(i, addr, time.Now()))
	}
	r.summary.Submitted = len(addrs)

	driveCtx, stopDriver := context.WithCancel(gctx)
	g.Go(func() error {
		return Drive(driveCtx, conn, cfg.Interval)
	})

	waitErr := r.counter.Wait(gctx)

	stopDriver()
	driveErr := g.Wait()

	// g.Wait cancels gctx, so completion is judged from the errors.
	if waitErr == nil && driveErr == nil && r.fatalErr() == nil {
		r.renderer.End()
	}

	closeErr := conn.Close()

	r.summary.Latency = stats.Summarize(r.elapsed)
	log.Info("balance run finished",
		zap.Int("succeeded", r.summary.Succeeded),
		zap.Int("failed", r.summary.Failed),
		zap.Duration("p50", r.summary.Latency.P50),
		zap.Duration("p95", r.summary.Latency.P95),
		zap.Duration("max", r.summary.Latency.Max),
		zap.Duration("elapsed", time.Since(started)),
	)

	switch {
	case r.fatalErr() != nil:
		return r.summary, r.fatalErr()
	case driveErr != nil:
		return r.summary, driveErr
	case waitErr != nil:
		return r.summary, waitErr
	case closeErr != nil:
		return r.summary, fmt.Errorf("close connection: %w", closeErr)
	}
	return r.summary, nil
}

// handler binds the completion of one address query.
func (r *run) handler(index int, addr btcutil.Address, submitted time.Time) rpc.HistoryHandler {
	return func(err error, entries []history.Entry) {
		var res balance.Result
		if err == nil {
			res, err = balance.Accumulate(entries)
			if errors.Is(err, balance.ErrNegativeValue) {
				r.fail(fmt.Errorf("address %s: %w", addr.EncodeAddress(), err))
			}
		}

		r.counter.Done(func(remaining int) {
			if r.ctx.Err() != nil {
				return
			}
			elapsed := time.Since(submitted)
			r.elapsed = append(r.elapsed, elapsed)
			if err != nil {
				r.summary.Failed++
				r.log.Debug("history fetch failed", zap.String("address", addr.EncodeAddress()), zap.Error(err))
			} else {
				r.summary.Succeeded++
			}
			if r.metrics != nil {
				r.metrics.Completed(elapsed, res, err, remaining)
			}
			r.renderer.Render(output.Outcome{
				Index:     index,
				Address:   addr,
				Result:    res,
				Err:       err,
				Remaining: remaining,
			})
		})
	}
}

func (r *run) fail(err error) {
	r.fatalMu.Lock()
	if r.fatal == nil {
		r.fatal = err
	}
	r.fatalMu.Unlock()
	r.abort(err)
}

func (r *run) fatalErr() error {
	r.fatalMu.Lock()
	defer r.fatalMu.Unlock()
	return r.fatal
}
