// Package epochtime is the clock and calendar layer. It provides the
// millisecond wall-clock epoch that records are stamped with and the
// YYYYMMDD day-partition format used in shard filenames and audit logs.
//
// Day boundaries are resolved in the server's local timezone. This mirrors
// the shard layout the store produces: a record pushed at 23:30 local lands
// in that local day's shard. FormatDay and ParseDay are inverses on the
// YYYYMMDD boundary as long as both run in the same timezone; deployments
// that move data across timezones will see ambiguous day boundaries and
// should pin TZ for the process.
package epochtime

import "time"

// DayLayout is the partition format used in shard and audit file names.
const DayLayout = "20060102"

// DayMS is the length of one calendar day in milliseconds.
const DayMS int64 = 24 * 60 * 60 * 1000

// NowMS returns the current wall-clock time as milliseconds since the Unix
// epoch. Records receive this value at ingest; query windows are validated
// against it.
func NowMS() int64 {
	return time.Now().UnixMilli()
}

// FormatDay renders the local calendar day of the given millisecond epoch
// as YYYYMMDD.
func FormatDay(epochMS int64) string {
	return time.UnixMilli(epochMS).Local().Format(DayLayout)
}

// ParseDay parses a YYYYMMDD day string as local midnight and returns the
// epoch in seconds. The inverse of FormatDay on the day boundary.
func ParseDay(day string) (int64, error) {
	t, err := time.ParseInLocation(DayLayout, day, time.Local)
	if err != nil {
		return 0, err
	}
	return t.Unix(), nil
}

// DayStartMS returns the epoch in milliseconds of local midnight of the
// given YYYYMMDD day string.
func DayStartMS(day string) (int64, error) {
	sec, err := ParseDay(day)
	if err != nil {
		return 0, err
	}
	return sec * 1000, nil
}

// Stamp renders the given millisecond epoch as a local "2006-01-02 15:04:05"
// timestamp for the audit log.
func Stamp(epochMS int64) string {
	return time.UnixMilli(epochMS).Local().Format("2006-01-02 15:04:05")
}
