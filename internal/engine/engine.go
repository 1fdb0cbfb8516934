// Package engine wires the TicTacDB subsystems together and manages their
// lifecycle. The engine is the composition root below the public facade: it
// builds the UID index, the shard store, the statistics pool, the query
// engine, the audit logger, and the TCP server, in dependency order, and
// tears them down in reverse on Close.
package engine

import (
	stdErrors "errors"
	"fmt"
	"net"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/dc5v/tictacdb/internal/audit"
	"github.com/dc5v/tictacdb/internal/index"
	"github.com/dc5v/tictacdb/internal/query"
	"github.com/dc5v/tictacdb/internal/server"
	"github.com/dc5v/tictacdb/internal/stats"
	"github.com/dc5v/tictacdb/internal/storage"
	"github.com/dc5v/tictacdb/pkg/options"
)

var (
	// ErrEngineClosed is returned when operating on a closed engine.
	ErrEngineClosed = stdErrors.New("operation failed: cannot access closed engine")
)

// Engine owns every subsystem of a running instance.
type Engine struct {
	options *options.Options
	log     *zap.SugaredLogger
	closed  atomic.Bool

	index  *index.Index
	store  *storage.Store
	pool   *stats.Pool
	query  *query.Engine
	audit  *audit.Logger
	server *server.Server
}

// Config holds the parameters needed to initialize a new Engine instance.
type Config struct {
	Options *options.Options
	Logger  *zap.SugaredLogger
}

// New builds the full subsystem graph. Storage bootstraps the data
// directory; the statistics pool starts its workers; nothing listens until
// Serve.
func New(config *Config) (*Engine, error) {
	if config == nil || config.Options == nil || config.Logger == nil {
		return nil, fmt.Errorf("invalid configuration")
	}

	uidIndex, err := index.New(&index.Config{Logger: config.Logger})
	if err != nil {
		return nil, err
	}

	store, err := storage.New(&storage.Config{Options: config.Options, Logger: config.Logger})
	if err != nil {
		return nil, err
	}

	pool, err := stats.NewPool(&stats.PoolConfig{Options: config.Options, Logger: config.Logger})
	if err != nil {
		return nil, err
	}

	queryEngine, err := query.New(&query.Config{
		Options: config.Options,
		Logger:  config.Logger,
		Store:   store,
		Index:   uidIndex,
		Pool:    pool,
	})
	if err != nil {
		return nil, err
	}

	auditLog, err := audit.New(&audit.Config{Options: config.Options, Logger: config.Logger})
	if err != nil {
		return nil, err
	}

	srv, err := server.New(&server.Config{
		Options: config.Options,
		Logger:  config.Logger,
		Engine:  queryEngine,
		Audit:   auditLog,
	})
	if err != nil {
		return nil, err
	}

	return &Engine{
		options: config.Options,
		log:     config.Logger,
		index:   uidIndex,
		store:   store,
		pool:    pool,
		query:   queryEngine,
		audit:   auditLog,
		server:  srv,
	}, nil
}

// Serve runs the accept loop. Blocks until Close.
func (e *Engine) Serve() error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	return e.server.ListenAndServe()
}

// Addr returns the bound listener address once Serve is running.
func (e *Engine) Addr() net.Addr {
	return e.server.Addr()
}

// Query exposes the query engine for embedded use without the TCP front.
func (e *Engine) Query() *query.Engine {
	return e.query
}

// Close shuts the engine down: the acceptor stops, in-flight workers
// finish, the statistics queue drains, and the index releases its memory.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return ErrEngineClosed
	}

	err := e.server.Close()

	if poolErr := e.pool.Close(); poolErr != nil && err == nil {
		err = poolErr
	}
	if indexErr := e.index.Close(); indexErr != nil && err == nil {
		err = indexErr
	}

	e.log.Infow("Engine closed")
	return err
}
