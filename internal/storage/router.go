package storage

import (
	"path/filepath"
	"strings"

	"github.com/dc5v/tictacdb/pkg/epochtime"
	"github.com/dc5v/tictacdb/pkg/filesys"
)

// Candidates selects the shard files a query has to scan: every regular
// <tag>-<YYYYMMDD>.db in the data directory whose tag prefix matches the
// predicate's polarity and whose calendar day overlaps the query window.
//
// For a positive predicate (or, and) a shard qualifies when its prefix
// equals any query tag; for a negative predicate (nand, nor) when it equals
// none of them. A conjunction is NOT enforced here — a record matching
// and(A, B) lives in both A's and B's shard, so admitting either is enough
// and the per-record predicate plus UID de-duplication in the query layer
// finish the job.
//
// The day prune is deliberately coarse: a shard is kept when its local day
// [dayStart, dayStart+24h) intersects [startMS, endMS]. Per-record epochs
// are re-checked by the scanner, so the only cost of keeping a day is I/O.
func (s *Store) Candidates(tags []string, negative bool, startMS, endMS int64) ([]string, error) {
	if err := s.ensureDataDir(); err != nil {
		return nil, err
	}

	entries, err := filesys.ListDir(s.dataDir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}

		tag, day, ok := SplitShardName(entry.Name())
		if !ok {
			continue
		}

		if matchesQueryTag(tag, tags) == negative {
			continue
		}

		dayStart, err := epochtime.DayStartMS(day)
		if err != nil {
			continue
		}
		if dayStart > endMS || dayStart+epochtime.DayMS <= startMS {
			continue
		}

		paths = append(paths, filepath.Join(s.dataDir, entry.Name()))
	}

	return paths, nil
}

// SplitShardName parses a shard file name into its tag prefix and YYYYMMDD
// day. The prefix is everything before the last '-', which keeps tags that
// themselves contain dashes intact.
func SplitShardName(name string) (tag, day string, ok bool) {
	if !strings.HasSuffix(name, ShardExt) {
		return "", "", false
	}

	stem := strings.TrimSuffix(name, ShardExt)
	sep := strings.LastIndexByte(stem, '-')
	if sep <= 0 {
		return "", "", false
	}

	tag, day = stem[:sep], stem[sep+1:]
	if len(day) != len(epochtime.DayLayout) {
		return "", "", false
	}
	for i := 0; i < len(day); i++ {
		if day[i] < '0' || day[i] > '9' {
			return "", "", false
		}
	}

	return tag, day, true
}

func matchesQueryTag(shardTag string, tags []string) bool {
	for _, t := range tags {
		if shardTag == t {
			return true
		}
	}
	return false
}
