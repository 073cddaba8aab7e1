package ledger

import (
	"encoding/json"
	"time"
)

// dayFormat is the UTC calendar-date key a snapshot is scoped to.
const dayFormat = "2006-01-02"

// Snapshot is the persisted per-day usage record for one tracking
// identity. A snapshot is valid only for the day it records; a read
// against any other day treats it as absent.
type Snapshot struct {
	// Day is the UTC calendar date this snapshot applies to (YYYY-MM-DD).
	Day string `json:"day"`

	// CharsUsed is the cumulative character count consumed this day.
	CharsUsed int64 `json:"chars_used"`

	// RequestCount is the number of successful usage recordings this day.
	RequestCount int64 `json:"request_count"`

	// LastUpdated is when this snapshot was last written.
	LastUpdated time.Time `json:"last_updated"`

	// Identity is the tracking key the snapshot was written under,
	// kept for diagnostic cross-checking.
	Identity string `json:"identity,omitempty"`
}

// DayKey formats t as a UTC calendar-date snapshot key.
func DayKey(t time.Time) string {
	return t.UTC().Format(dayFormat)
}

// ParseDay parses a snapshot day key back into a UTC time.
func ParseDay(day string) (time.Time, error) {
	return time.Parse(dayFormat, day)
}

// encodeSnapshot serializes a snapshot for the store.
func encodeSnapshot(s *Snapshot) ([]byte, error) {
	return json.Marshal(s)
}

// decodeSnapshot parses stored bytes. A decode failure is reported so
// the caller can treat the snapshot as absent; corrupt bytes must never
// surface to the consumer.
func decodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if s.CharsUsed < 0 || s.RequestCount < 0 {
		return nil, errMalformedSnapshot
	}
	if _, err := ParseDay(s.Day); err != nil {
		return nil, errMalformedSnapshot
	}
	return &s, nil
}
