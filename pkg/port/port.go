// Package port carries the bridge message contract over a JSON-lines stream:
// one request object per input line, one response object per output line.
package port

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/akavel/dodo/pkg/core"
)

// MaxLineSize bounds a single request line.
const MaxLineSize = 16 * 1024 * 1024

// Server connects a bridge to a JSON-lines stream.
type Server struct {
	bridge *core.Bridge
	logger *slog.Logger
}

// NewServer creates a Server. A nil logger discards logs.
func NewServer(bridge *core.Bridge, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{bridge: bridge, logger: logger}
}

// Serve runs a Server with no logging.
func Serve(ctx context.Context, bridge *core.Bridge, r io.Reader, w io.Writer) error {
	return NewServer(bridge, nil).Serve(ctx, r, w)
}

// Serve dispatches every request read from r and writes every response to w.
// Lines that cannot be parsed or dispatched are answered with an ErrorType
// response and the loop continues.
//
// The server owns the bridge: when r is exhausted it closes the bridge, writes
// the outstanding responses and returns. If ctx is done first, pending
// responses are dropped and ctx.Err() is returned.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	out := newLineWriter(w)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for resp := range s.bridge.Responses() {
			if err := out.write(FromCore(resp)); err != nil {
				return fmt.Errorf("write response: %w", err)
			}
		}
		return nil
	})
	g.Go(func() error {
		readErr := s.readRequests(gctx, r, out)
		if err := s.bridge.Close(gctx); err != nil {
			s.logger.Warn("bridge closed before all responses were written", "error", err)
		}
		return readErr
	})
	return g.Wait()
}

func (s *Server) readRequests(ctx context.Context, r io.Reader, out *lineWriter) error {
	lines := make(chan []byte)
	scanErr := make(chan error, 1)

	// The scanner cannot be interrupted; on cancellation it is left to finish
	// with r.
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
		for scanner.Scan() {
			line := bytes.Clone(scanner.Bytes())
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("read request: %w", err)
					}
				default:
				}
				return nil
			}
			if err := s.handleLine(ctx, line, out); err != nil {
				return err
			}
		}
	}
}

func (s *Server) handleLine(ctx context.Context, line []byte, out *lineWriter) error {
	if len(bytes.TrimSpace(line)) == 0 {
		return nil
	}

	req, err := ParseRequest(line)
	if err == nil {
		err = s.bridge.Dispatch(ctx, req)
	}
	if err == nil {
		return nil
	}

	s.logger.Warn("request rejected", "id", req.ID, "type", req.Type, "error", err)
	if werr := out.write(Rejection(req, err)); werr != nil {
		return fmt.Errorf("write response: %w", werr)
	}
	return nil
}
