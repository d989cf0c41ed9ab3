package store

import (
	"database/sql"
	"fmt"
	"time"
)

// timeLayout is the fixed-width UTC format used for every timestamp column.
// Fixed-width fractional seconds keep lexicographic order equal to
// chronological order, which the change-feed cursor queries rely on.
const timeLayout = "2006-01-02 15:04:05.000000000"

// encodeTime formats a timestamp for storage.
func encodeTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// decodeTime parses a stored timestamp.
func decodeTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(timeLayout, s, time.UTC)
	if err == nil {
		return t, nil
	}
	// Tolerate second-precision values (hand-edited or imported rows).
	t, err2 := time.ParseInLocation("2006-01-02 15:04:05", s, time.UTC)
	if err2 == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
}

// encodeNullTime formats an optional timestamp, mapping nil to SQL NULL.
func encodeNullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return encodeTime(*t)
}

// decodeNullTime parses an optional stored timestamp.
func decodeNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := decodeTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// nullStr maps an empty string to SQL NULL.
func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// strOrEmpty unwraps a nullable text column.
func strOrEmpty(s sql.NullString) string {
	if s.Valid {
		return s.String
	}
	return ""
}

// nullInt64Ptr unwraps a nullable integer column to a pointer.
func nullInt64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}
