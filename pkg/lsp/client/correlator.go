package client

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/YZTangent/lsmcp/pkg/errors"
	"github.com/YZTangent/lsmcp/pkg/logger"
	"github.com/YZTangent/lsmcp/pkg/lsp"
)

// requestTimeout bounds how long Send waits for a matching response before
// giving up.
const requestTimeout = 30 * time.Second

// pendingResult is delivered once to the channel a Send call is waiting
// on, carrying either a decoded result or a server-reported error.
type pendingResult struct {
	result json.RawMessage
	err    error
}

// correlator assigns monotonically increasing request IDs and matches
// asynchronous responses back to the caller awaiting them. One correlator
// is shared by a single language server's writer and reader goroutines.
type correlator struct {
	nextID atomic.Int64

	mu      sync.Mutex
	pending map[int64]chan pendingResult
	closed  bool

	write func(data []byte) error
}

func newCorrelator(write func(data []byte) error) *correlator {
	return &correlator{
		pending: make(map[int64]chan pendingResult),
		write:   write,
	}
}

// send encodes and writes a request, then blocks until a matching
// response is delivered, ctx is canceled, or requestTimeout elapses.
func (c *correlator) send(ctx context.Context, method string, params any) (json.RawMessage, error) {
	id := c.nextID.Add(1)
	ch := make(chan pendingResult, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, errors.NewServerCrashed(method)
	}
	c.pending[id] = ch
	c.mu.Unlock()

	cleanup := func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}

	data, err := lsp.EncodeRequest(id, method, params)
	if err != nil {
		cleanup()
		return nil, err
	}
	if err := c.write(data); err != nil {
		cleanup()
		return nil, errors.NewIO(err)
	}

	timer := time.NewTimer(requestTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		return res.result, res.err
	case <-ctx.Done():
		cleanup()
		return nil, ctx.Err()
	case <-timer.C:
		cleanup()
		return nil, errors.NewTimeout(int(requestTimeout.Seconds()))
	}
}

// notify encodes and writes a fire-and-forget notification.
func (c *correlator) notify(method string, params any) error {
	data, err := lsp.EncodeNotification(method, params)
	if err != nil {
		return err
	}
	if err := c.write(data); err != nil {
		return errors.NewIO(err)
	}
	return nil
}

// deliver routes a decoded response to the goroutine awaiting its ID. It
// is called from the reader loop; a response whose ID nothing is waiting
// on (the request may have already timed out) is logged and dropped.
func (c *correlator) deliver(msg *lsp.RawMessage) {
	var id int64
	if err := json.Unmarshal(msg.ID, &id); err != nil {
		logger.Debug("dropping LSP response with non-integer id", "id", string(msg.ID))
		return
	}

	c.mu.Lock()
	ch, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.mu.Unlock()
	if !ok {
		logger.Debug("dropping LSP response with no pending request", "id", id)
		return
	}

	if msg.Error != nil {
		ch <- pendingResult{err: errors.NewProtocolError(msg.Error.Message)}
		return
	}
	ch <- pendingResult{result: msg.Result}
}

// teardown fails every still-pending request with a server-crashed error
// and marks the correlator closed so further sends fail fast. Called once
// the reader loop observes the child process has exited.
func (c *correlator) teardown(serverName string) {
	c.mu.Lock()
	c.closed = true
	pending := c.pending
	c.pending = make(map[int64]chan pendingResult)
	c.mu.Unlock()

	for _, ch := range pending {
		ch <- pendingResult{err: errors.NewServerCrashed(serverName)}
	}
}
