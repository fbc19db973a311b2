package utils

import (
	"time"
)

func TimeNowUTC() time.Time {
	return time.Now().UTC()
}

// ISOTimestamp renders t in UTC with microseconds, e.g. 2025-01-02T03:04:05.000006.
func ISOTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000")
}

// ISOTimestampZ is ISOTimestamp with a trailing Z.
func ISOTimestampZ(t time.Time) string {
	return ISOTimestamp(t) + "Z"
}
