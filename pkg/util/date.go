package util

import (
	"strconv"
	"time"
)

// Values above this are read as unix milliseconds rather than seconds.
const unixMillisCutoff = 1e11

var layouts = []string{time.RFC3339Nano, time.RFC3339, time.DateOnly}

// ParseTime accepts RFC3339 (with or without fractional seconds), a bare
// date, or a positive unix timestamp in seconds or milliseconds.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	ts, err := strconv.ParseInt(s, 10, 64)
	if err != nil || ts <= 0 {
		return time.Time{}, false
	}
	if ts > unixMillisCutoff {
		return time.UnixMilli(ts), true
	}
	return time.Unix(ts, 0), true
}

func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}
