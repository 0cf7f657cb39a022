package client

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YZTangent/lsmcp/pkg/errors"
	"github.com/YZTangent/lsmcp/pkg/lsp"
)

// fakeWriter records every frame written and lets the test reply by
// calling deliver directly, simulating a scripted server without any
// real process or pipe.
type fakeWriter struct {
	mu     sync.Mutex
	frames [][]byte
}

func (w *fakeWriter) write(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.frames = append(w.frames, data)
	return nil
}

func (w *fakeWriter) lastID(t *testing.T) int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	require.NotEmpty(t, w.frames)
	idx := len(w.frames) - 1
	body := extractBody(w.frames[idx])
	var req struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body, &req))
	return req.ID
}

func extractBody(framed []byte) []byte {
	for i := 0; i+3 < len(framed); i++ {
		if framed[i] == '\r' && framed[i+1] == '\n' && framed[i+2] == '\r' && framed[i+3] == '\n' {
			return framed[i+4:]
		}
	}
	return nil
}

func TestCorrelator_SendReceivesDeliveredResult(t *testing.T) {
	w := &fakeWriter{}
	c := newCorrelator(w.write)

	done := make(chan struct{})
	var result json.RawMessage
	var sendErr error
	go func() {
		result, sendErr = c.send(context.Background(), "textDocument/hover", nil)
		close(done)
	}()

	require.Eventually(t, func() bool {
		w.mu.Lock()
		defer w.mu.Unlock()
		return len(w.frames) == 1
	}, time.Second, time.Millisecond)

	id := w.lastID(t)
	c.deliver(&lsp.RawMessage{ID: json.RawMessage(marshalInt(id)), Result: json.RawMessage(`{"ok":true}`)})

	<-done
	require.NoError(t, sendErr)
	assert.JSONEq(t, `{"ok":true}`, string(result))
}

func TestCorrelator_SendPropagatesServerError(t *testing.T) {
	w := &fakeWriter{}
	c := newCorrelator(w.write)

	done := make(chan struct{})
	var sendErr error
	go func() {
		_, sendErr = c.send(context.Background(), "textDocument/definition", nil)
		close(done)
	}()

	require.Eventually(t, func() bool {
		w.mu.Lock()
		defer w.mu.Unlock()
		return len(w.frames) == 1
	}, time.Second, time.Millisecond)

	id := w.lastID(t)
	c.deliver(&lsp.RawMessage{ID: json.RawMessage(marshalInt(id)), Error: &lsp.RPCError{Code: -32601, Message: "method not found"}})

	<-done
	require.Error(t, sendErr)
	assert.Equal(t, errors.KindProtocolError, errors.Kind(sendErr))
}

func TestCorrelator_TeardownFailsPending(t *testing.T) {
	w := &fakeWriter{}
	c := newCorrelator(w.write)

	done := make(chan struct{})
	var sendErr error
	go func() {
		_, sendErr = c.send(context.Background(), "textDocument/hover", nil)
		close(done)
	}()

	require.Eventually(t, func() bool {
		w.mu.Lock()
		defer w.mu.Unlock()
		return len(w.frames) == 1
	}, time.Second, time.Millisecond)

	c.teardown("gopls")
	<-done

	require.Error(t, sendErr)
	assert.Equal(t, errors.KindServerCrashed, errors.Kind(sendErr))
}

func TestCorrelator_SendAfterTeardownFailsFast(t *testing.T) {
	w := &fakeWriter{}
	c := newCorrelator(w.write)
	c.teardown("gopls")

	_, err := c.send(context.Background(), "textDocument/hover", nil)
	require.Error(t, err)
	assert.Equal(t, errors.KindServerCrashed, errors.Kind(err))
}

func TestCorrelator_SendCanceledByContext(t *testing.T) {
	w := &fakeWriter{}
	c := newCorrelator(w.write)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	var sendErr error
	go func() {
		_, sendErr = c.send(ctx, "textDocument/hover", nil)
		close(done)
	}()

	require.Eventually(t, func() bool {
		w.mu.Lock()
		defer w.mu.Unlock()
		return len(w.frames) == 1
	}, time.Second, time.Millisecond)

	cancel()
	<-done
	require.Error(t, sendErr)
}

func TestCorrelator_Notify_NoPendingEntry(t *testing.T) {
	w := &fakeWriter{}
	c := newCorrelator(w.write)

	require.NoError(t, c.notify("textDocument/didOpen", nil))
	assert.Len(t, c.pending, 0)
	w.mu.Lock()
	assert.Len(t, w.frames, 1)
	w.mu.Unlock()
}

func marshalInt(n int64) []byte {
	data, _ := json.Marshal(n)
	return data
}
