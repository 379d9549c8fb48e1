package port

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/akavel/dodo/pkg/core"
)

// ErrorType is the response type of lines that could not be dispatched.
const ErrorType = "error"

// Request is the wire form of core.Request.
type Request struct {
	ID       string        `json:"id,omitempty"`
	Type     string        `json:"type"`
	Version  core.Version  `json:"version,omitempty"`
	Document core.Document `json:"document,omitempty"`
}

// Response is the wire form of core.Response.
type Response struct {
	ID       string        `json:"id,omitempty"`
	Type     string        `json:"type"`
	Version  core.Version  `json:"version,omitempty"`
	Seq      uint64        `json:"seq,omitempty"`
	Document core.Document `json:"document,omitempty"`
	Error    *Error        `json:"error,omitempty"`
}

// Error is the wire form of a failure.
type Error struct {
	Kind    core.ErrorKind `json:"kind"`
	Message string         `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// ParseRequest decodes one request line. Numbers in the document are kept as
// json.Number.
func ParseRequest(line []byte) (core.Request, error) {
	decoder := json.NewDecoder(bytes.NewReader(line))
	decoder.UseNumber()

	var req Request
	if err := decoder.Decode(&req); err != nil {
		return core.Request{}, fmt.Errorf("%w: request: %w", core.ErrMalformedDocument, err)
	}
	if _, err := decoder.Token(); err != io.EOF {
		return core.Request{}, fmt.Errorf("%w: request: trailing data", core.ErrMalformedDocument)
	}
	return core.Request{
		ID:       req.ID,
		Type:     req.Type,
		Version:  req.Version,
		Document: req.Document,
	}, nil
}

// FromCore converts a bridge response to its wire form.
func FromCore(resp core.Response) Response {
	wire := Response{
		ID:      resp.ID,
		Type:    resp.Type,
		Version: resp.Version,
		Seq:     resp.Seq,
	}
	if resp.Err != nil {
		wire.Error = &Error{Kind: resp.Kind(), Message: resp.Err.Error()}
		return wire
	}
	wire.Document = resp.Document
	return wire
}

// Rejection builds the response to a line that never reached the bridge.
func Rejection(req core.Request, err error) Response {
	return Response{
		ID:      req.ID,
		Type:    ErrorType,
		Version: req.Version,
		Error:   &Error{Kind: core.KindOf(err), Message: err.Error()},
	}
}

// lineWriter serializes concurrent writers onto one JSON-lines stream.
type lineWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func newLineWriter(w io.Writer) *lineWriter {
	return &lineWriter{enc: json.NewEncoder(w)}
}

func (lw *lineWriter) write(resp Response) error {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.enc.Encode(resp)
}
