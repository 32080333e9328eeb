package config

import (
	"fmt"
	"time"
)

// compactTimeLayout is the fixed ISO-8601 form spec.md §6 names for
// DateTime fields: YYYYMMDDTHHMMSSZ.
const compactTimeLayout = "20060102T150405Z"

// CompactTime wraps time.Time with JSON marshaling in the compact ISO-8601
// form the wire format uses, the same "custom marshal wrapper around a
// plain value" shape mbtiles.Metadata.ToMap uses for its own string rows.
type CompactTime struct {
	time.Time
}

func (t CompactTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.Time.UTC().Format(compactTimeLayout) + `"`), nil
}

func (t *CompactTime) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("config: CompactTime must be a quoted string, got %s", data)
	}
	parsed, err := time.Parse(compactTimeLayout, string(data[1:len(data)-1]))
	if err != nil {
		return fmt.Errorf("config: parsing CompactTime: %w", err)
	}
	t.Time = parsed
	return nil
}
