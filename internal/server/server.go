// Package server implements the TCP accept loop that dispatches framed
// protocol.Request messages to an engine.Engine and replies with a framed
// protocol.Response.
package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/jassi-singh/kvs/internal/engine"
	"github.com/jassi-singh/kvs/internal/format"
	"github.com/jassi-singh/kvs/internal/kvserr"
	"github.com/jassi-singh/kvs/internal/protocol"
)

// Server serves one engine over one TCP listener. Requests are handled
// one connection at a time; mu documents the single-writer contract
// rather than enabling any actual concurrency (spec's one-engine,
// one-request-at-a-time model).
type Server struct {
	mu  sync.Mutex
	eng engine.Engine
}

// New wraps eng in a Server ready to Serve.
func New(eng engine.Engine) *Server {
	return &Server{eng: eng}
}

// Serve binds addr and accepts connections until the listener errors or
// is closed. Each connection is read, dispatched, and closed in turn
// before the next Accept.
func (s *Server) Serve(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen on %s: %w", addr, err)
	}
	defer listener.Close()

	slog.Info("server: listening", "addr", listener.Addr())

	return s.ServeListener(listener)
}

// ServeListener runs the accept loop over an already-bound listener. It
// is split out from Serve so tests (and callers that want the ephemeral
// port net.Listen("tcp", "host:0") assigned) can obtain the listener's
// address before the loop starts blocking.
func (s *Server) ServeListener(listener net.Listener) error {
	for {
		conn, err := listener.Accept()
		if err != nil {
			return fmt.Errorf("server: accept: %w", err)
		}
		s.Handle(conn)
	}
}

// Handle services a single already-accepted connection: read one framed
// request, dispatch it, write one framed response, close.
func (s *Server) Handle(conn net.Conn) {
	defer conn.Close()

	req, err := protocol.ReadRequest(conn)
	if err != nil {
		slog.Warn("server: dropping connection: malformed request", "remote", conn.RemoteAddr(), "error", err)
		return
	}

	resp := s.dispatch(req)

	if err := protocol.WriteResponse(conn, resp); err != nil {
		slog.Warn("server: failed to write response", "remote", conn.RemoteAddr(), "error", err)
	}
}

func (s *Server) dispatch(req protocol.Request) protocol.Response {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch req.Kind {
	case format.CommandSet:
		if err := s.eng.Set(req.Key, req.Value); err != nil {
			return errorResponse(err)
		}
		return protocol.Response{Kind: protocol.ResponseOk}

	case format.CommandGet:
		value, err := s.eng.Get(req.Key)
		switch {
		case err == nil:
			return protocol.Response{Kind: protocol.ResponseValue, Value: value}
		case errors.Is(err, kvserr.ErrKeyNotFound):
			return protocol.Response{Kind: protocol.ResponseOk}
		default:
			return errorResponse(err)
		}

	case format.CommandRemove:
		if err := s.eng.Remove(req.Key); err != nil {
			return errorResponse(err)
		}
		return protocol.Response{Kind: protocol.ResponseOk}

	default:
		return protocol.Response{
			Kind:    protocol.ResponseError,
			ErrKind: protocol.ErrKindGeneric,
			Message: fmt.Sprintf("unknown request kind %d", req.Kind),
		}
	}
}

func errorResponse(err error) protocol.Response {
	return protocol.Response{
		Kind:    protocol.ResponseError,
		ErrKind: protocol.KindOf(err),
		Message: err.Error(),
	}
}
