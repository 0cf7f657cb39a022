package client

import (
	"context"
	"encoding/json"
	"io"
	"os/exec"

	"golang.org/x/sync/errgroup"

	"github.com/YZTangent/lsmcp/pkg/errors"
	"github.com/YZTangent/lsmcp/pkg/logger"
	"github.com/YZTangent/lsmcp/pkg/lsp"
	"github.com/YZTangent/lsmcp/pkg/schema"
)

// unmarshalParams decodes a raw params payload, wrapping decode failures
// in the taxonomized JSON error kind.
func unmarshalParams(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.NewJSON(err)
	}
	return nil
}

// writeRequest is one frame queued onto a transport's writer loop, with a
// channel the submitter blocks on for the write's outcome.
type writeRequest struct {
	data   []byte
	result chan error
}

// transport owns a spawned language server child process: its stdin/stdout
// pipes, a correlator for request/response matching, and the diagnostics
// table notifications are routed into. Writer and reader each run as their
// own goroutine for the lifetime of the process, supervised by an
// errgroup.Group; frames to write are handed to the writer loop over
// writeCh so concurrent callers never interleave partial frames on stdin.
type transport struct {
	name  string
	cmd   *exec.Cmd
	stdin io.WriteCloser

	writeCh   chan writeRequest
	stopWrite chan struct{}

	correlator  *correlator
	diagnostics *diagnosticsTable

	group      *errgroup.Group
	readerDone chan struct{}
}

// spawnTransport launches pkg.Command with pkg.Args, stderr discarded, and
// starts its reader loop. The caller is responsible for calling close when
// done with the client.
func spawnTransport(ctx context.Context, pkg *schema.LspPackage, rootDir string) (*transport, error) {
	if pkg.Command == "" {
		return nil, errors.NewServerNotFound(pkg.Name, "no command configured")
	}

	cmd := exec.CommandContext(ctx, pkg.Command, pkg.Args...)
	cmd.Dir = rootDir
	cmd.Stderr = io.Discard

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.NewIO(err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		_ = stdin.Close()
		return nil, errors.NewIO(err)
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		_ = stdout.Close()
		return nil, errors.NewServerNotFound(pkg.Name, err.Error())
	}

	t := &transport{
		name:        pkg.Name,
		cmd:         cmd,
		stdin:       stdin,
		writeCh:     make(chan writeRequest),
		stopWrite:   make(chan struct{}),
		diagnostics: newDiagnosticsTable(),
		readerDone:  make(chan struct{}),
	}
	t.correlator = newCorrelator(t.writeFrame)
	t.startLoops(stdout)

	return t, nil
}

// startLoops launches the reader and writer goroutines under a shared
// errgroup so close can join both with a single Wait.
func (t *transport) startLoops(stdout io.Reader) {
	var g errgroup.Group
	g.Go(func() error {
		t.readLoop(stdout)
		return nil
	})
	g.Go(func() error {
		t.writeLoop()
		return nil
	})
	t.group = &g
}

// writeLoop serializes every frame destined for stdin through a single
// goroutine, so concurrent Client callers never interleave partial writes.
func (t *transport) writeLoop() {
	for {
		select {
		case req := <-t.writeCh:
			_, err := t.stdin.Write(req.data)
			req.result <- err
		case <-t.stopWrite:
			return
		}
	}
}

func (t *transport) writeFrame(data []byte) error {
	req := writeRequest{data: data, result: make(chan error, 1)}
	select {
	case t.writeCh <- req:
	case <-t.stopWrite:
		return errors.NewIO(io.ErrClosedPipe)
	}
	select {
	case err := <-req.result:
		return err
	case <-t.stopWrite:
		return errors.NewIO(io.ErrClosedPipe)
	}
}

// readLoop decodes messages until the stream closes, routing responses to
// the correlator and publishDiagnostics notifications into the
// diagnostics table. Any other server-initiated request or notification is
// discarded. A frame whose body is not valid JSON is logged and skipped;
// EOF or a framing error ends the server session and fails every
// outstanding request.
func (t *transport) readLoop(stdout io.Reader) {
	defer close(t.readerDone)

	reader := lsp.NewReader(stdout)
	for {
		msg, err := reader.ReadMessage()
		if err != nil {
			if errors.Kind(err) == errors.KindJSON {
				// Malformed JSON inside an otherwise well-framed message is
				// not fatal: the frame boundary is intact, so the stream can
				// keep being read.
				logger.Warn("dropping malformed LSP message", "server", t.name, "error", err)
				continue
			}
			logger.Debug("lsp server stream closed", "server", t.name, "error", err)
			t.correlator.teardown(t.name)
			return
		}

		switch {
		case msg.IsResponse():
			t.correlator.deliver(msg)
		case msg.IsNotification():
			t.handleNotification(msg)
		default:
			// A server-initiated request. Nothing in this client answers
			// these; they are silently dropped.
		}
	}
}

func (t *transport) handleNotification(msg *lsp.RawMessage) {
	if msg.Method != "textDocument/publishDiagnostics" {
		logger.Debug("ignoring LSP notification", "server", t.name, "method", msg.Method)
		return
	}
	var params lsp.PublishDiagnosticsParams
	if err := unmarshalParams(msg.Params, &params); err != nil {
		logger.Warn("malformed publishDiagnostics notification", "server", t.name, "error", err)
		return
	}
	t.diagnostics.publish(params)
}

// close terminates the child process. There is no LSP shutdown/exit
// handshake; the process is killed directly and its streams closed.
func (t *transport) close() error {
	var err error
	if t.cmd != nil && t.cmd.Process != nil {
		err = t.cmd.Process.Kill()
	}
	_ = t.stdin.Close()
	<-t.readerDone
	close(t.stopWrite)
	if t.group != nil {
		_ = t.group.Wait()
	}
	if t.cmd != nil {
		_ = t.cmd.Wait()
	}
	return err
}
