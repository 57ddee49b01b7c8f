package model

import "time"

// Timestamps are persisted as 64-bit epoch milliseconds, both in the
// local store and on the remote mirror. The conversion is a lossless
// round trip at millisecond precision.

// TimeToMillis converts t to epoch milliseconds.
func TimeToMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// MillisToTime converts epoch milliseconds back to a UTC time.
func MillisToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// Now returns the current time truncated to millisecond precision, so
// that a value survives persistence unchanged.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
