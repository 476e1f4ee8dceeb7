package dbx

import "time"

// Timestamp normalizes t to what both dialects store and return: UTC with
// microsecond precision (postgres TIMESTAMPTZ resolution).
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// TimestampPtr is Timestamp for optional values.
func TimestampPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := Timestamp(*t)
	return &v
}
