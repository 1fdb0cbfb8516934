// Package query is the engine behind the three protocol operations. It
// validates requests, routes pushes into the tag shards and the UID index,
// and runs the shard-selection and record-filtering pipeline that feeds
// either the search serialiser or the statistics batcher.
package query

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/docker/go-units"
	"go.uber.org/zap"

	"github.com/dc5v/tictacdb/internal/index"
	"github.com/dc5v/tictacdb/internal/stats"
	"github.com/dc5v/tictacdb/internal/storage"
	"github.com/dc5v/tictacdb/pkg/epochtime"
	"github.com/dc5v/tictacdb/pkg/errors"
	"github.com/dc5v/tictacdb/pkg/options"
	"github.com/dc5v/tictacdb/pkg/uid"
)

// Engine ties the storage, index, and statistics subsystems together and
// implements the push, search, and evaluate operations. Request workers
// share one Engine; it holds no per-request state.
type Engine struct {
	opts  *options.Options
	log   *zap.SugaredLogger
	store *storage.Store
	index *index.Index
	pool  *stats.Pool
}

// Config encapsulates the parameters required to initialize an Engine.
type Config struct {
	Options *options.Options
	Logger  *zap.SugaredLogger
	Store   *storage.Store
	Index   *index.Index
	Pool    *stats.Pool
}

// New creates the query engine.
func New(config *Config) (*Engine, error) {
	if config == nil || config.Options == nil || config.Logger == nil ||
		config.Store == nil || config.Index == nil || config.Pool == nil {
		return nil, fmt.Errorf("invalid configuration")
	}

	return &Engine{
		opts:  config.Options,
		log:   config.Logger,
		store: config.Store,
		index: config.Index,
		pool:  config.Pool,
	}, nil
}

// Params is a parsed search/evaluate request. StartTime and EndTime are nil
// when the client omitted them; the window then defaults to [0, now].
type Params struct {
	Tags      []string
	Condition string
	StartTime *int64
	EndTime   *int64
}

// Push ingests one record: a server-assigned UID and epoch, one frame
// appended per tag, then the UID registered in the index. The record is
// deliberately duplicated across its tags' shards so that reading any one
// shard reconstructs the full tag set.
func (e *Engine) Push(tags []string, data []float64) (string, int64, error) {
	if len(tags) == 0 || len(data) == 0 {
		return "", 0, errors.NewRequestError(
			nil, errors.WireCodeBadPush, "Invalid request. Tags and data are required.",
		)
	}

	record := &storage.Record{
		UID:     uid.New(),
		EpochMS: epochtime.NowMS(),
		Samples: data,
		Tags:    tags,
	}
	frame := storage.EncodeRecord(record)

	for _, tag := range tags {
		path, err := e.store.ShardPath(tag, record.EpochMS)
		if err != nil {
			return "", 0, err
		}
		if err := e.store.Append(path, frame); err != nil {
			return "", 0, err
		}
	}

	// Offset is reserved; the index stores 0 until a direct-by-UID read
	// path exists.
	if err := e.index.Add(record.UID, record.EpochMS, 0); err != nil {
		return "", 0, err
	}

	e.log.Debugw("Record pushed",
		"uid", record.UID,
		"epoch", record.EpochMS,
		"tags", tags,
		"samples", len(data),
	)
	return record.UID, record.EpochMS, nil
}

// searchRecord is the wire form of one matched record.
type searchRecord struct {
	UID       string    `json:"uid"`
	Timestamp int64     `json:"timestamp"`
	Data      []float64 `json:"data"`
}

// Search streams matching records to w as JSON arrays, flushed every
// SearchChunkRecords records, with a final (possibly empty) residual array.
func (e *Engine) Search(w io.Writer, params *Params) error {
	tags, cond, startMS, endMS, err := e.validate(params)
	if err != nil {
		return err
	}

	chunk := make([]searchRecord, 0, options.SearchChunkRecords)
	flushed := 0
	flush := func() error {
		encoded, err := json.Marshal(chunk)
		if err != nil {
			return err
		}
		if _, err := w.Write(encoded); err != nil {
			return errors.NewBaseError(err, errors.ErrorCodeClientGone, "search reply send failed")
		}
		flushed++
		chunk = chunk[:0]
		return nil
	}

	err = e.scan(tags, cond, startMS, endMS, func(record *storage.Record) error {
		chunk = append(chunk, searchRecord{
			UID:       record.UID,
			Timestamp: record.EpochMS,
			Data:      record.Samples,
		})
		if len(chunk) >= options.SearchChunkRecords {
			return flush()
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Residual chunk; a query with no matches still replies with an empty
	// array.
	if len(chunk) > 0 || flushed == 0 {
		return flush()
	}
	return nil
}

// Evaluate funnels the matching records' samples into batches of
// EvaluateBatchSamples, sorts each batch, and hands it to the statistics
// pool, which writes one JSON object per batch directly to w. Returns after
// every batch of the query has been written.
func (e *Engine) Evaluate(w io.Writer, params *Params) error {
	tags, cond, startMS, endMS, err := e.validate(params)
	if err != nil {
		return err
	}

	var (
		writeMu  sync.Mutex
		inflight sync.WaitGroup
		resident atomic.Int64
		batches  int
	)

	buffer := make([]float64, 0, options.EvaluateBatchSamples)

	submit := func() error {
		if len(buffer) == 0 {
			return nil
		}

		samples := buffer
		buffer = make([]float64, 0, options.EvaluateBatchSamples)

		// The handoff contract: the statistics engine sees sorted input.
		sort.Float64s(samples)

		retire := int64(8 * len(samples))
		inflight.Add(1)
		err := e.pool.Submit(stats.Batch{
			Samples: samples,
			Writer:  w,
			WriteMu: &writeMu,
			Release: func() {
				resident.Add(-retire)
				inflight.Done()
			},
		})
		if err != nil {
			resident.Add(-retire)
			inflight.Done()
			return err
		}

		batches++
		return nil
	}

	scanErr := e.scan(tags, cond, startMS, endMS, func(record *storage.Record) error {
		resident.Add(int64(8 * len(record.Samples)))
		if resident.Load() > e.opts.EvaluateMemoryLimit {
			return errors.NewRequestError(
				nil, errors.WireCodeMemoryLimit, "Evaluate aborted. Sample buffer over memory limit.",
			).WithDetail("limit", units.BytesSize(float64(e.opts.EvaluateMemoryLimit)))
		}

		for _, sample := range record.Samples {
			buffer = append(buffer, sample)
			if len(buffer) == options.EvaluateBatchSamples {
				if err := submit(); err != nil {
					return err
				}
			}
		}
		return nil
	})

	if scanErr == nil {
		scanErr = submit()
	}

	// Even on an aborted query the in-flight batches must finish before the
	// handler replies and closes the socket.
	inflight.Wait()

	if scanErr != nil {
		return scanErr
	}

	if batches == 0 {
		// No matching samples: a single header-only object.
		writeMu.Lock()
		_, err := w.Write(stats.Compute(nil).EncodeJSON())
		writeMu.Unlock()
		if err != nil {
			return errors.NewBaseError(err, errors.ErrorCodeClientGone, "evaluate reply send failed")
		}
	}

	return nil
}

// scan runs the record-filtering pipeline: candidate shards from the
// router, per-record window re-check, predicate evaluation, and UID
// de-duplication, invoking emit for every match. De-duplication is required
// for and — a record with tag set covering {A, B} lives in both A's and B's
// shards — and equally suppresses the same multi-tag record reached twice
// under or.
func (e *Engine) scan(tags []string, cond Condition, startMS, endMS int64, emit func(*storage.Record) error) error {
	paths, err := e.store.Candidates(tags, cond.Negative(), startMS, endMS)
	if err != nil {
		return err
	}

	seen := make(map[string]struct{})

	for _, path := range paths {
		err := e.store.ScanShard(path, func(record *storage.Record) error {
			if record.EpochMS < startMS || record.EpochMS > endMS {
				return nil
			}
			if !cond.Matches(tags, record) {
				return nil
			}
			if _, dup := seen[record.UID]; dup {
				return nil
			}
			seen[record.UID] = struct{}{}

			return emit(record)
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// validate applies the request rules shared by search and evaluate: tags
// required, condition in the allowed set, window inside [0, now] and
// correctly ordered.
func (e *Engine) validate(params *Params) ([]string, Condition, int64, int64, error) {
	if len(params.Tags) == 0 {
		return nil, 0, 0, 0, errors.NewRequestError(
			nil, errors.WireCodeMissingTags, "Invalid request. Tags not found.",
		).WithField("tags")
	}

	cond, err := ParseCondition(params.Condition, len(params.Tags))
	if err != nil {
		return nil, 0, 0, 0, err
	}

	now := epochtime.NowMS()
	startMS := int64(0)
	endMS := now

	if params.StartTime != nil {
		startMS = *params.StartTime
	}
	if params.EndTime != nil {
		endMS = *params.EndTime
	}

	if startMS < 0 || startMS > now {
		return nil, 0, 0, 0, errors.NewRequestError(
			nil, errors.WireCodeBadStartTime,
			fmt.Sprintf("Start time must be between 0 and %d.", now),
		).WithField("startTime").WithProvided(startMS)
	}
	if endMS < 0 || endMS > now {
		return nil, 0, 0, 0, errors.NewRequestError(
			nil, errors.WireCodeBadEndTime,
			fmt.Sprintf("End time must be between 0 and %d.", now),
		).WithField("endTime").WithProvided(endMS)
	}
	if startMS > endMS {
		return nil, 0, 0, 0, errors.NewRequestError(
			nil, errors.WireCodeBadTimeWindow, "Start time must be less than the end time.",
		).WithField("startTime")
	}

	return params.Tags, cond, startMS, endMS, nil
}
