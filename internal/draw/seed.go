package draw

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	// canonicalTimeLayout renders timestamps with 100ns precision and no zone.
	canonicalTimeLayout = "2006-01-02T15:04:05.0000000"

	// zonelessTimeLayout accepts ISO timestamps written without an offset.
	zonelessTimeLayout = "2006-01-02T15:04:05.999999999"

	// timestampResolution is the precision kept by generated timestamps.
	timestampResolution = 100 * time.Nanosecond
)

// Seed is the input that fully determines a draw.
type Seed struct {
	Timestamp         time.Time // Timestamp is the UTC instant the seed was created
	RandomPart        string    // RandomPart is 64 uppercase hex characters
	AdditionalEntropy string    // AdditionalEntropy is optional caller supplied data
}

// NewSeed builds a seed, normalizing the timestamp to UTC.
func NewSeed(timestamp time.Time, randomPart, additionalEntropy string) Seed {
	return Seed{
		Timestamp:         timestamp.UTC(),
		RandomPart:        randomPart,
		AdditionalEntropy: additionalEntropy,
	}
}

// String returns the canonical form fed to the selection algorithm:
// timestamp|randomPart| followed by |entropy only when entropy is set.
// The doubled pipe before the entropy is part of the format.
func (s Seed) String() string {
	out := s.Timestamp.UTC().Format(canonicalTimeLayout) + "|" + s.RandomPart + "|"
	if s.AdditionalEntropy != "" {
		out += "|" + s.AdditionalEntropy
	}

	return out
}

// seedJSON is the wire form of Seed inside audit documents.
type seedJSON struct {
	Timestamp         *string `json:"timestamp"`
	RandomPart        *string `json:"randomPart"`
	AdditionalEntropy *string `json:"additionalEntropy"`
}

// MarshalJSON writes the timestamp as RFC 3339 in UTC.
func (s Seed) MarshalJSON() ([]byte, error) {
	ts := s.Timestamp.UTC().Format(time.RFC3339Nano)

	return json.Marshal(seedJSON{
		Timestamp:         &ts,
		RandomPart:        &s.RandomPart,
		AdditionalEntropy: &s.AdditionalEntropy,
	})
}

// UnmarshalJSON parses the wire form. Timestamp and randomPart are required.
func (s *Seed) UnmarshalJSON(data []byte) error {
	var raw seedJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if raw.Timestamp == nil {
		return fmt.Errorf("seed: missing timestamp")
	}
	if raw.RandomPart == nil || *raw.RandomPart == "" {
		return fmt.Errorf("seed: missing randomPart")
	}

	ts, err := parseTimestamp(*raw.Timestamp)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	s.Timestamp = ts
	s.RandomPart = *raw.RandomPart
	s.AdditionalEntropy = ""
	if raw.AdditionalEntropy != nil {
		s.AdditionalEntropy = *raw.AdditionalEntropy
	}

	return nil
}

// parseTimestamp accepts RFC 3339 timestamps and zone-less ISO timestamps (read as UTC).
func parseTimestamp(value string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts.UTC(), nil
	}

	ts, err := time.ParseInLocation(zonelessTimeLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", value)
	}

	return ts, nil
}
