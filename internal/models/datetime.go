package models

import (
	"fmt"
	"strconv"
	"time"
)

// DateTimeLayout is the wire format for timestamps: local date-time without offset.
const DateTimeLayout = "2006-01-02T15:04:05"

// DateTime marshals as yyyy-MM-ddTHH:mm:ss in the process local zone.
type DateTime struct {
	time.Time
}

func NewDateTime(t time.Time) DateTime {
	return DateTime{Time: t.Truncate(time.Second)}
}

func (d DateTime) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(d.Local().Format(DateTimeLayout))), nil
}

func (d *DateTime) UnmarshalJSON(data []byte) error {
	raw := string(data)
	if raw == "null" {
		d.Time = time.Time{}
		return nil
	}
	s, err := strconv.Unquote(raw)
	if err != nil {
		return fmt.Errorf("invalid date-time %s: %w", raw, err)
	}
	t, err := ParseDateTime(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// ParseDateTime parses the wire layout in the local zone. Fractional seconds are accepted.
func ParseDateTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateTimeLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date-time %q, expected yyyy-MM-ddTHH:mm:ss", s)
	}
	return t, nil
}
