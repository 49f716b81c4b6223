// Package rpc is the connection to an Esplora-compatible indexing service.
//
// History requests are asynchronous: FetchHistory only queues a request and
// Update hands queued requests to a bounded worker pool, where they are
// fetched and their handlers invoked. Update must be called periodically for
// any request to make progress.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dmagro/addr-balance/internal/history"
)

// chainPageSize is the number of confirmed transactions Esplora returns per
// page.
const chainPageSize = 25

var (
	ErrClosed            = errors.New("connection closed")
	ErrRateLimited       = errors.New("service rate limit exceeded")
	ErrUnexpectedStatus  = errors.New("unexpected HTTP status")
	ErrMalformedResponse = errors.New("malformed service response")
)

// StatusError is a non-200 response other than 429.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: HTTP %d", ErrUnexpectedStatus, e.Code)
}

func (e *StatusError) Unwrap() error { return ErrUnexpectedStatus }

// retryable reports whether a failed request may succeed when repeated.
// Client errors other than 429 never do.
func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= http.StatusInternalServerError
	}
	return true
}

// HistoryHandler receives the outcome of one FetchHistory request. It runs
// on a pool goroutine.
type HistoryHandler func(err error, entries []history.Entry)

// ClientConfig holds the settings for a Client.
type ClientConfig struct {
	URL            string
	Timeout        time.Duration
	MaxRetries     int
	BackoffInitial time.Duration // first retry delay, doubled per attempt (default 100ms)
	RateLimit      int           // requests per second, 0 = unlimited
	Workers        int           // pool size (default 1)
	HTTPClient     *http.Client  // optional, overrides Timeout
	Logger         *zap.Logger   // optional
}

type request struct {
	addr    btcutil.Address
	handler HistoryHandler
}

// Client is a session with one indexing service.
type Client struct {
	url        string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
	limiter    *rate.Limiter
	log        *zap.Logger
	pool       *pool

	mu      sync.Mutex
	pending []request
	closed  bool
}

// NewClient opens a session with the service at cfg.URL.
func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	backoff := cfg.BackoffInitial
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		// Burst 1 spreads requests evenly across the second.
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	log.Debug("indexer client created",
		zap.String("url", cfg.URL),
		zap.Int("workers", workers),
		zap.Int("rateLimit", cfg.RateLimit),
	)

	return &Client{
		url:        cfg.URL,
		httpClient: httpClient,
		maxRetries: cfg.MaxRetries,
		backoff:    backoff,
		limiter:    limiter,
		log:        log,
		pool:       newPool(workers),
	}
}

// FetchHistory queues a history request for addr. handler is called exactly
// once, with ErrClosed if the client is closed before the request runs.
func (c *Client) FetchHistory(addr btcutil.Address, handler HistoryHandler) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		handler(ErrClosed, nil)
		return
	}
	c.pending = append(c.pending, request{addr: addr, handler: handler})
	c.mu.Unlock()
}

// Update dispatches queued requests to idle workers. Requests that find no
// idle worker stay queued for the next call. It never blocks on I/O.
func (c *Client) Update(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	for i, req := range c.pending {
		if !c.pool.tryGo(func(ctx context.Context) { c.serve(ctx, req) }) {
			c.pending = append(c.pending[:0], c.pending[i:]...)
			return nil
		}
	}
	c.pending = c.pending[:0]
	return nil
}

// Pending returns the number of requests not yet handed to a worker.
func (c *Client) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Close fails every queued request with ErrClosed, cancels running requests
// and waits for their handlers to return. It is safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	for _, req := range pending {
		req.handler(ErrClosed, nil)
	}

	c.pool.stop()
	c.pool.join()
	c.httpClient.CloseIdleConnections()

	c.log.Debug("indexer client closed", zap.Int("abandoned", len(pending)))
	return nil
}

func (c *Client) serve(ctx context.Context, req request) {
	entries, err := c.History(ctx, req.addr)
	req.handler(err, entries)
}

// History fetches the full history of addr synchronously, following
// Esplora's confirmed-transaction pagination.
func (c *Client) History(ctx context.Context, addr btcutil.Address) ([]history.Entry, error) {
	encoded := addr.EncodeAddress()

	page, err := c.getTxs(ctx, fmt.Sprintf("%s/address/%s/txs", c.url, encoded))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var txs []Tx
	add := func(page []Tx) (confirmed []Tx, added int) {
		for _, tx := range page {
			if tx.Status.Confirmed {
				confirmed = append(confirmed, tx)
			}
			if _, dup := seen[tx.TxID]; dup {
				continue
			}
			seen[tx.TxID] = struct{}{}
			txs = append(txs, tx)
			added++
		}
		return confirmed, added
	}

	confirmed, _ := add(page)
	for len(confirmed) >= chainPageSize {
		last := confirmed[len(confirmed)-1].TxID
		page, err := c.getTxs(ctx, fmt.Sprintf("%s/address/%s/txs/chain/%s", c.url, encoded, last))
		if err != nil {
			return nil, err
		}
		var added int
		confirmed, added = add(page)
		if added == 0 {
			break
		}
	}

	c.log.Debug("history fetched",
		zap.String("address", encoded),
		zap.Int("transactions", len(txs)),
	)

	return Entries(encoded, txs)
}

// getTxs executes one GET with exponential backoff retry.
func (c *Client) getTxs(ctx context.Context, url string) ([]Tx, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limiter wait: %w", err)
			}
		}

		txs, err := c.doGet(ctx, url)
		if err == nil {
			return txs, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !retryable(err) {
			return nil, err
		}

		// Exponential backoff: 100ms, 200ms, 400ms...
		if attempt < c.maxRetries {
			backoff := time.Duration(1<<attempt) * c.backoff
			c.log.Warn("indexer request failed, retrying",
				zap.String("url", url),
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff),
				zap.Error(err),
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	if c.maxRetries == 0 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

func (c *Client) doGet(ctx context.Context, url string) ([]Tx, error) {
	c.log.Debug("indexer request", zap.String("url", url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	var txs []Tx
	if err := json.NewDecoder(resp.Body).Decode(&txs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return txs, nil
}
