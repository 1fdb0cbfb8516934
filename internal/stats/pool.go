package stats

import (
	stdErrors "errors"
	"io"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/dc5v/tictacdb/pkg/options"
)

var (
	ErrPoolClosed = stdErrors.New("operation failed: cannot submit to closed pool")
)

// Batch is one unit of offloaded work: a sorted sample buffer and the
// client it belongs to.
type Batch struct {
	// Samples is the sorted buffer to evaluate. Ownership transfers to the
	// pool on submission; the submitter must not touch it afterwards.
	Samples []float64

	// Writer receives the encoded JSON object.
	Writer io.Writer

	// WriteMu serialises writes to Writer. Batches of the same query share
	// one mutex so concurrent workers cannot interleave objects on the
	// socket.
	WriteMu *sync.Mutex

	// Release is invoked exactly once when the batch has been written (or
	// the write failed). The query engine uses it to retire the batch from
	// its resident-memory accounting and its completion wait.
	Release func()
}

// Pool is the fixed set of compute workers shared by every evaluate query.
// Work arrives through a bounded channel; a full channel blocks the
// submitting query worker, which is the backpressure that keeps a fast
// scanner from building an unbounded queue of batches.
type Pool struct {
	log    *zap.SugaredLogger
	jobs   chan Batch
	wg     sync.WaitGroup
	closed atomic.Bool
}

// PoolConfig encapsulates the parameters required to initialize a Pool.
type PoolConfig struct {
	Options *options.Options
	Logger  *zap.SugaredLogger
}

// NewPool starts the compute workers.
func NewPool(config *PoolConfig) (*Pool, error) {
	if config == nil || config.Options == nil || config.Logger == nil {
		return nil, stdErrors.New("pool configuration is required")
	}

	pool := &Pool{
		log:  config.Logger,
		jobs: make(chan Batch, config.Options.StatsQueueDepth),
	}

	for i := 0; i < config.Options.StatsWorkers; i++ {
		pool.wg.Add(1)
		go pool.worker(i)
	}

	config.Logger.Infow("Statistics pool started",
		"workers", config.Options.StatsWorkers,
		"queueDepth", config.Options.StatsQueueDepth,
	)
	return pool, nil
}

// Submit queues one batch, blocking while the queue is full.
func (p *Pool) Submit(batch Batch) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}
	p.jobs <- batch
	return nil
}

// Close stops accepting work, drains the queue, and waits for the workers
// to finish their in-flight batches.
func (p *Pool) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return ErrPoolClosed
	}
	close(p.jobs)
	p.wg.Wait()
	return nil
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for batch := range p.jobs {
		summary := Compute(batch.Samples)
		encoded := summary.EncodeJSON()

		batch.WriteMu.Lock()
		_, err := batch.Writer.Write(encoded)
		batch.WriteMu.Unlock()

		if err != nil {
			// The client is gone; the batch dies with the request.
			p.log.Debugw("Statistics write failed", "worker", id, "error", err)
		}

		if batch.Release != nil {
			batch.Release()
		}
	}
}
