package inter

import "time"

// Timestamp is a point in time in nanoseconds since the Unix epoch.
type Timestamp uint64

// TimestampOf converts a time.Time into a Timestamp.
func TimestampOf(t time.Time) Timestamp {
	return Timestamp(t.UnixNano())
}

// Time converts the Timestamp into a time.Time.
func (t Timestamp) Time() time.Time {
	return time.Unix(0, int64(t))
}
