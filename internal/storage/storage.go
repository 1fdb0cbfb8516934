// Package storage is the persistence layer of TicTacDB: an append-only,
// tag-sharded, daily-rolling set of binary log files under a single data
// directory.
//
// Each tag a record carries produces one copy of the record's frame appended
// to that tag's daily shard (<tag>-<YYYYMMDD>.db), so any single shard is
// sufficient to reconstruct a record's full tag set. Shards are created
// lazily on first append and grow monotonically; nothing in the system
// mutates or deletes a written frame.
//
// Concurrent writers to the same shard rely on O_APPEND atomicity for
// frames up to PIPE_BUF. A reader racing a writer can observe a torn final
// frame; the codec's per-record validation bounds the damage to "stop
// reading this shard cleanly", which the scanner treats as the end of the
// shard.
package storage

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/docker/go-units"
	"go.uber.org/zap"

	"github.com/dc5v/tictacdb/pkg/epochtime"
	"github.com/dc5v/tictacdb/pkg/errors"
	"github.com/dc5v/tictacdb/pkg/filesys"
	"github.com/dc5v/tictacdb/pkg/options"
)

// ShardExt is the filename extension of every shard file.
const ShardExt = ".db"

// indexFileName is the reserved on-disk index file. Nothing in this core
// reads or writes it; the path exists for a future direct-by-UID lookup.
const indexFileName = "index.dat"

// Store owns the data directory and provides the append and scan APIs every
// other component goes through. Shards are exclusively owned by this layer.
type Store struct {
	dataDir string
	log     *zap.SugaredLogger
}

// Config encapsulates the parameters required to initialize a Store.
type Config struct {
	Options *options.Options
	Logger  *zap.SugaredLogger
}

// New creates the Store and bootstraps the data directory with private
// permissions.
func New(config *Config) (*Store, error) {
	if config == nil || config.Options == nil || config.Logger == nil {
		return nil, fmt.Errorf("invalid configuration")
	}

	store := &Store{dataDir: config.Options.DataDir, log: config.Logger}

	if err := store.ensureDataDir(); err != nil {
		return nil, err
	}

	config.Logger.Infow("Storage initialized",
		"dataDir", store.dataDir,
		"indexFile", store.IndexPath(),
	)
	return store, nil
}

// DataDir returns the shard directory path.
func (s *Store) DataDir() string {
	return s.dataDir
}

// IndexPath returns the reserved index.dat path under the data root.
func (s *Store) IndexPath() string {
	return filepath.Join(s.dataDir, indexFileName)
}

// ShardPath resolves the shard file for (tag, epoch): the tag's append log
// for the local calendar day the epoch falls on. Callable before the data
// directory exists; it ensures the data root first.
func (s *Store) ShardPath(tag string, epochMS int64) (string, error) {
	if err := s.ensureDataDir(); err != nil {
		return "", err
	}
	name := tag + "-" + epochtime.FormatDay(epochMS) + ShardExt
	return filepath.Join(s.dataDir, name), nil
}

// Append writes one encoded record frame to the shard at path, creating the
// shard on first use.
func (s *Store) Append(path string, frame []byte) error {
	if err := filesys.AppendFile(path, frame); err != nil {
		return errors.ClassifyAppendError(err, path)
	}

	s.log.Debugw("Appended record frame",
		"shard", filepath.Base(path),
		"size", units.BytesSize(float64(len(frame))),
	)
	return nil
}

// ScanShard streams the records of one shard through fn in write order.
//
// Shard corruption — an invalid header or a torn final frame — closes the
// shard cleanly: the scan stops, a warning is logged, and the error is NOT
// propagated, so a query continues with its remaining shards. A missing
// shard behaves as empty. Errors returned by fn abort the scan and are
// propagated verbatim; that is how the query layer stops on a dead client
// or a memory cap.
func (s *Store) ScanShard(path string, fn func(*Record) error) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		s.log.Warnw("Failed to open shard for read", "shard", path, "error", err)
		return nil
	}
	defer file.Close()

	reader := bufio.NewReader(file)

	for {
		record, err := ReadRecord(reader)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			if errors.IsShardCorruption(err) {
				s.log.Warnw("Shard scan stopped on damaged frame",
					"shard", path,
					"code", errors.GetErrorCode(err),
					"details", errors.GetErrorDetails(err),
				)
				return nil
			}
			s.log.Warnw("Shard scan stopped on read failure", "shard", path, "error", err)
			return nil
		}

		if err := fn(record); err != nil {
			return err
		}
	}
}

func (s *Store) ensureDataDir() error {
	if err := filesys.CreateDir(s.dataDir, filesys.PrivateDirMode); err != nil {
		return errors.ClassifyDirectoryCreationError(err, s.dataDir)
	}
	return nil
}
