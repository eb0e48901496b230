package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"
	// Embed tzdata for environments without zoneinfo.
	_ "time/tzdata"
)

// Time conversion constants.
const (
	daysPerWeek = 7
	maxHour     = 23
)

// Error messages.
const (
	errFmtInvalidTimezone = "invalid timezone: %w"
)

// Static errors for schedule validation.
var (
	ErrInvalidWeekday = errors.New("invalid weekday")
	ErrHourOutOfRange = errors.New("hour out of range")
)

var timezoneAliases = map[string]string{
	"Asia/Nicosia": "Europe/Nicosia",
	"GMT":          "UTC",
	"Z":            "UTC",
}

// NormalizeTimezone maps known aliases to canonical IANA names.
func NormalizeTimezone(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}

	if canonical, ok := timezoneAliases[value]; ok {
		return canonical
	}

	return value
}

// LoadLocation resolves a timezone name, defaulting to UTC when blank.
func LoadLocation(name string) (*time.Location, error) {
	name = NormalizeTimezone(name)
	if name == "" {
		return time.UTC, nil
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf(errFmtInvalidTimezone, err)
	}

	return loc, nil
}

// ParseWeekday accepts full or three-letter English day names in any case.
func ParseWeekday(value string) (time.Weekday, error) {
	v := strings.ToLower(strings.TrimSpace(value))

	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if v == name || v == name[:3] {
			return d, nil
		}
	}

	return time.Sunday, fmt.Errorf("%w: %q", ErrInvalidWeekday, value)
}

// Weekly is a slot that recurs once a week at the top of an hour.
type Weekly struct {
	Day      time.Weekday
	Hour     int
	Location *time.Location
}

// Validate checks the slot fields.
func (w Weekly) Validate() error {
	if w.Hour < 0 || w.Hour > maxHour {
		return fmt.Errorf("%w: %d", ErrHourOutOfRange, w.Hour)
	}

	if w.Day < time.Sunday || w.Day > time.Saturday {
		return fmt.Errorf("%w: %d", ErrInvalidWeekday, w.Day)
	}

	return nil
}

func (w Weekly) location() *time.Location {
	if w.Location == nil {
		return time.UTC
	}

	return w.Location
}

// Previous returns the latest slot at or before t.
func (w Weekly) Previous(t time.Time) time.Time {
	local := t.In(w.location())

	back := (int(local.Weekday()) - int(w.Day) + daysPerWeek) % daysPerWeek
	slot := time.Date(local.Year(), local.Month(), local.Day()-back, w.Hour, 0, 0, 0, w.location())

	if slot.After(t) {
		slot = slot.AddDate(0, 0, -daysPerWeek)
	}

	return slot
}

// Next returns the first slot strictly after t.
func (w Weekly) Next(t time.Time) time.Time {
	prev := w.Previous(t)

	return prev.AddDate(0, 0, daysPerWeek)
}

// Due reports whether the slot most recently passed at now has not been
// served by lastRun yet.
func (w Weekly) Due(now, lastRun time.Time) bool {
	slot := w.Previous(now)

	return lastRun.IsZero() || lastRun.Before(slot)
}
