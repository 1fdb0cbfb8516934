// Package audit writes the per-day request log: one human-readable line per
// completed request, appended to <logs_root>/<YYYYMMDD>.log. The audit trail
// is off the hot path and deliberately lossy — a log that cannot be opened
// produces a warning, never a failed request.
package audit

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dc5v/tictacdb/pkg/epochtime"
	"github.com/dc5v/tictacdb/pkg/filesys"
	"github.com/dc5v/tictacdb/pkg/options"
)

// Logger appends request lines to the daily audit file.
type Logger struct {
	logsDir string
	log     *zap.SugaredLogger
}

// Config encapsulates the parameters required to initialize the audit Logger.
type Config struct {
	Options *options.Options
	Logger  *zap.SugaredLogger
}

// New creates the audit logger. The logs directory is created on demand at
// write time, so construction never touches the filesystem.
func New(config *Config) (*Logger, error) {
	if config == nil || config.Options == nil || config.Logger == nil {
		return nil, fmt.Errorf("invalid configuration")
	}
	return &Logger{logsDir: config.Options.LogsDir, log: config.Logger}, nil
}

// Record appends one request line:
//
//	[YYYY-MM-DD HH:MM:SS] <query> | tags: t1, t2 | condition: <c> | data: <payload> | response: <sec>
//
// Failures are soft: a warning is logged and the request proceeds.
func (l *Logger) Record(query string, tags []string, condition, payload string, elapsed time.Duration) {
	nowMS := epochtime.NowMS()

	line := fmt.Sprintf("[%s] %s | tags: %s | condition: %s | data: %s | response: %.3f\n",
		epochtime.Stamp(nowMS),
		query,
		strings.Join(tags, ", "),
		condition,
		payload,
		elapsed.Seconds(),
	)

	if err := filesys.CreateDir(l.logsDir, filesys.PrivateDirMode); err != nil {
		l.log.Warnw("Audit log directory unavailable", "dir", l.logsDir, "error", err)
		return
	}

	path := filepath.Join(l.logsDir, epochtime.FormatDay(nowMS)+".log")
	if err := filesys.AppendFile(path, []byte(line)); err != nil {
		l.log.Warnw("Audit log append failed", "path", path, "error", err)
	}
}
