// Package netsrv implements the TCP front end described in spec §6: a
// listener that accepts a connection, reads one request, dispatches it
// against an engineiface.Engine, writes one response, and closes the
// connection. Grounded on original_source's kvs-server.rs main loop
// (blocking Accept, one handler per connection) rendered in Go as one
// goroutine per connection rather than a single-threaded accept loop.
package netsrv

import (
	"errors"
	"net"

	"go.uber.org/zap"

	"github.com/emberkv/ember/internal/engineiface"
	"github.com/emberkv/ember/internal/record"
	"github.com/emberkv/ember/internal/wire"
	"github.com/emberkv/ember/pkg/ember"
)

// Server accepts connections on a single listener and dispatches each
// request to an engine.
type Server struct {
	listener net.Listener
	engine   engineiface.Engine
	log      *zap.SugaredLogger

	done chan struct{}
}

// New wraps an already-bound listener and an engine. Call Serve to start
// accepting connections.
func New(listener net.Listener, engine engineiface.Engine, log *zap.SugaredLogger) *Server {
	return &Server{listener: listener, engine: engine, log: log, done: make(chan struct{})}
}

// Addr returns the listener's bound address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve accepts connections until the listener is closed, handling each on
// its own goroutine. It returns nil when the listener is closed via Close.
func (s *Server) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return nil
			default:
				return err
			}
		}
		go s.handle(conn)
	}
}

// Close stops accepting new connections.
func (s *Server) Close() error {
	close(s.done)
	return s.listener.Close()
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()

	addr := conn.RemoteAddr()
	s.log.Infow("connection accepted", "remote", addr)

	cmd, err := wire.DecodeRequest(conn)
	if err != nil {
		s.log.Errorw("failed to decode request", "remote", addr, "error", err)
		writeResponse(conn, wire.ErrorResponse(err), s.log)
		return
	}

	resp := s.dispatch(cmd)
	writeResponse(conn, resp, s.log)
	s.log.Infow("connection closed", "remote", addr, "kind", cmd.Kind)
}

func (s *Server) dispatch(cmd record.Command) wire.Response {
	switch cmd.Kind {
	case record.KindGet:
		value, err := s.engine.Get(cmd.Key)
		if err != nil {
			if errors.Is(err, ember.ErrKeyNotFound) {
				return wire.NoneResponse()
			}
			return wire.ErrorResponse(err)
		}
		return wire.ValueResponse(value)

	case record.KindSet:
		if err := s.engine.Set(cmd.Key, cmd.Value); err != nil {
			return wire.ErrorResponse(err)
		}
		return wire.NoneResponse()

	case record.KindRemove:
		if err := s.engine.Remove(cmd.Key); err != nil {
			return wire.ErrorResponse(err)
		}
		return wire.NoneResponse()

	default:
		return wire.ErrorResponse(errors.New("netsrv: unknown command kind"))
	}
}

func writeResponse(conn net.Conn, resp wire.Response, log *zap.SugaredLogger) {
	body, err := wire.EncodeResponse(resp)
	if err != nil {
		log.Errorw("failed to encode response", "error", err)
		return
	}
	if _, err := conn.Write(body); err != nil {
		log.Errorw("failed to write response", "error", err)
	}
}
