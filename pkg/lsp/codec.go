package lsp

import (
	"bufio"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/YZTangent/lsmcp/pkg/errors"
)

// RawMessage is a decoded JSON-RPC 2.0 envelope before its Method/ID/Result
// shape has been classified as a request, response, or notification.
type RawMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// IsResponse reports whether m carries an ID and no Method, i.e. it is a
// reply to a request this process sent.
func (m *RawMessage) IsResponse() bool {
	return len(m.ID) > 0 && m.Method == ""
}

// IsNotification reports whether m carries a Method and no ID.
func (m *RawMessage) IsNotification() bool {
	return m.Method != "" && len(m.ID) == 0
}

// IsRequest reports whether m carries both a Method and an ID, i.e. the
// server is asking this process for something (e.g.
// workspace/configuration). The core has no handlers for these; the
// client's reader loop drops them without a reply.
func (m *RawMessage) IsRequest() bool {
	return m.Method != "" && len(m.ID) > 0
}

// request is the envelope this process sends for calls expecting a reply.
type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// notification is the envelope this process sends for fire-and-forget
// calls.
type notification struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// EncodeRequest frames a request as a Content-Length-prefixed JSON-RPC
// message.
func EncodeRequest(id int64, method string, params any) ([]byte, error) {
	return encode(request{JSONRPC: "2.0", ID: id, Method: method, Params: params})
}

// EncodeNotification frames a notification as a Content-Length-prefixed
// JSON-RPC message.
func EncodeNotification(method string, params any) ([]byte, error) {
	return encode(notification{JSONRPC: "2.0", Method: method, Params: params})
}

func encode(v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, errors.NewJSON(err)
	}
	var buf strings.Builder
	buf.WriteString("Content-Length: ")
	buf.WriteString(strconv.Itoa(len(body)))
	buf.WriteString("\r\n\r\n")
	buf.Write(body)
	return []byte(buf.String()), nil
}

// Reader decodes a stream of Content-Length-framed JSON-RPC messages, the
// way a language server's stdout is consumed.
type Reader struct {
	br *bufio.Reader
}

// NewReader wraps r in buffered framing decode.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReader(r)}
}

// ReadMessage blocks for the next header block and body, returning the
// decoded envelope. It returns io.EOF when the underlying stream
// closes between messages, the signal that the child process has exited.
func (r *Reader) ReadMessage() (*RawMessage, error) {
	contentLength := -1
	for {
		line, err := r.br.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		if name, value, ok := strings.Cut(line, ":"); ok && strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			n, convErr := strconv.Atoi(strings.TrimSpace(value))
			if convErr != nil {
				return nil, errors.NewProtocolError("malformed Content-Length header: " + value)
			}
			contentLength = n
		}
	}
	if contentLength < 0 {
		return nil, errors.NewProtocolError("message header missing Content-Length")
	}

	body := make([]byte, contentLength)
	if _, err := io.ReadFull(r.br, body); err != nil {
		return nil, err
	}

	var msg RawMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, errors.NewJSON(err)
	}
	return &msg, nil
}
