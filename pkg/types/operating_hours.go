package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DayHours is one weekday's opening window, expressed as local "HH:MM" strings.
type DayHours struct {
	Open   string `json:"open"`
	Close  string `json:"close"`
	Closed bool   `json:"closed,omitempty"`
}

// OperatingHours maps lowercase weekday names ("monday") to opening windows, persisted as JSONB.
type OperatingHours map[string]DayHours

// Value marshals the hours into JSON for Postgres.
func (h OperatingHours) Value() (driver.Value, error) {
	if h == nil {
		return nil, nil
	}
	buf, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}
	return string(buf), nil
}

// Scan decodes JSONB into the map.
func (h *OperatingHours) Scan(value interface{}) error {
	if value == nil {
		*h = nil
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("operating hours: unsupported scan type %T", value)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		*h = nil
		return nil
	}

	result := make(OperatingHours)
	if err := json.Unmarshal(raw, &result); err != nil {
		return err
	}
	*h = result
	return nil
}

// IsOpenAt reports whether t's wall clock time falls inside an operating window. A close
// time at or before the open time closes after midnight, so the early hours of a day
// belong to the previous day's window.
func (h OperatingHours) IsOpenAt(t time.Time) bool {
	now := t.Hour()*60 + t.Minute()
	if open, closing, ok := h.window(t.Weekday()); ok {
		if closing <= open && now >= open {
			return true
		}
		if closing > open && now >= open && now < closing {
			return true
		}
	}
	prev := (t.Weekday() + 6) % 7
	if open, closing, ok := h.window(prev); ok && closing <= open && now < closing {
		return true
	}
	return false
}

// window returns the open and close minutes for a weekday; ok is false when the day is
// missing, closed or malformed.
func (h OperatingHours) window(day time.Weekday) (open, closing int, ok bool) {
	hours, found := h[strings.ToLower(day.String())]
	if !found || hours.Closed {
		return 0, 0, false
	}
	open, err := minuteOfDay(hours.Open)
	if err != nil {
		return 0, 0, false
	}
	closing, err = minuteOfDay(hours.Close)
	if err != nil {
		return 0, 0, false
	}
	return open, closing, true
}

func minuteOfDay(value string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(value), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("operating hours: invalid time %q", value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 24 {
		return 0, fmt.Errorf("operating hours: invalid hour %q", value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("operating hours: invalid minute %q", value)
	}
	return hour*60 + minute, nil
}
