// Package tictacdb provides the public entry point to TicTacDB, a
// tag-partitioned, append-only timeseries engine. Producers push numeric
// sample vectors under a set of tags; consumers query by tag predicate and
// time window, retrieving either the raw records or a battery of
// descriptive statistics computed over the aggregated samples. The service
// speaks a JSON request/response protocol over a plain TCP socket, one
// worker per connection.
package tictacdb

import (
	"github.com/dc5v/tictacdb/internal/engine"
	"github.com/dc5v/tictacdb/pkg/logger"
	"github.com/dc5v/tictacdb/pkg/options"
)

// Instance is one TicTacDB node: configuration plus the running engine.
type Instance struct {
	engine  *engine.Engine
	options *options.Options
}

// NewInstance creates and initializes an instance. Defaults are applied
// first, then the provided functional options in order.
func NewInstance(service string, opts ...options.OptionFunc) (*Instance, error) {
	log := logger.New(service)

	defaultOpts := options.NewDefaultOptions()
	for _, opt := range opts {
		opt(&defaultOpts)
	}

	eng, err := engine.New(&engine.Config{Logger: log, Options: &defaultOpts})
	if err != nil {
		return nil, err
	}

	return &Instance{engine: eng, options: &defaultOpts}, nil
}

// Serve binds the configured TCP port and handles requests until Close.
func (i *Instance) Serve() error {
	return i.engine.Serve()
}

// Options returns the effective configuration of this instance.
func (i *Instance) Options() *options.Options {
	return i.options
}

// Close gracefully shuts the instance down, draining in-flight requests and
// statistics batches.
func (i *Instance) Close() error {
	return i.engine.Close()
}
