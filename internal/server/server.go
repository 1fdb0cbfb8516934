// Package server is the TCP/JSON front of TicTacDB. It owns the acceptor
// loop, spawns one worker goroutine per connection, decodes the single
// request object, and dispatches on the "query" field. Every protocol-level
// failure becomes an error envelope; no per-request fault reaches the
// accept loop or any other connection.
package server

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/dc5v/tictacdb/internal/audit"
	"github.com/dc5v/tictacdb/internal/query"
	"github.com/dc5v/tictacdb/pkg/options"
)

// Server accepts connections and runs request workers. Workers are
// detached: the server does not serialise requests, and a worker failing
// affects only its own connection.
type Server struct {
	opts   *options.Options
	log    *zap.SugaredLogger
	engine *query.Engine
	audit  *audit.Logger

	mu       sync.Mutex
	listener net.Listener

	wg     sync.WaitGroup
	closed atomic.Bool
}

// Config encapsulates the parameters required to initialize a Server.
type Config struct {
	Options *options.Options
	Logger  *zap.SugaredLogger
	Engine  *query.Engine
	Audit   *audit.Logger
}

// New creates the server without binding the port; ListenAndServe does
// that.
func New(config *Config) (*Server, error) {
	if config == nil || config.Options == nil || config.Logger == nil ||
		config.Engine == nil || config.Audit == nil {
		return nil, fmt.Errorf("invalid configuration")
	}

	return &Server{
		opts:   config.Options,
		log:    config.Logger,
		engine: config.Engine,
		audit:  config.Audit,
	}, nil
}

// ListenAndServe binds the configured port on all interfaces and accepts
// until Close. Each accepted connection is handled on its own goroutine.
func (s *Server) ListenAndServe() error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.opts.Port))
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	s.log.Infow("TicTacDB listening", "port", s.opts.Port)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if s.closed.Load() {
				return nil
			}
			// Transient accept failures must not kill the loop.
			s.log.Warnw("Accept failed", "error", err)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(conn)
		}()
	}
}

// Addr returns the bound listener address, or nil before ListenAndServe.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close stops the acceptor and waits for the in-flight workers to finish.
func (s *Server) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()

	var err error
	if listener != nil {
		err = listener.Close()
	}
	s.wg.Wait()
	return err
}
