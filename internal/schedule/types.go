// Package schedule defines trigger specifications and their per-script
// persistence. A schedule record is the single source of truth: the host
// scheduler's task set is always derivable from it and never read back.
package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// TriggerKind is the closed set of supported trigger shapes.
type TriggerKind string

const (
	KindOnce     TriggerKind = "once"
	KindDaily    TriggerKind = "daily"
	KindWeekly   TriggerKind = "weekly"
	KindInterval TriggerKind = "interval"
)

// IntervalUnit scales an interval trigger's magnitude.
type IntervalUnit string

const (
	UnitMinutes IntervalUnit = "minutes"
	UnitHours   IntervalUnit = "hours"
	UnitDays    IntervalUnit = "days"
)

// Weekday abbreviations accepted in weekly triggers, in calendar order
// starting Monday (matching how operators write schedules).
var weekdayOrder = []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}

var weekdayNames = map[string]time.Weekday{
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
	"sun": time.Sunday,
}

// TriggerSpec is one scheduling rule for one script. Exactly the fields
// for its Kind must be set; Validate enforces that.
type TriggerSpec struct {
	Kind    TriggerKind `json:"kind"`
	Enabled bool        `json:"enabled"`

	// Once: the fixed timestamp to fire at.
	At *time.Time `json:"at,omitempty"`

	// Daily and Weekly: local time of day.
	Hour   int `json:"hour"`
	Minute int `json:"minute"`

	// Weekly: at least one of "mon".."sun".
	Days []string `json:"days,omitempty"`

	// Interval: magnitude + unit.
	Every int          `json:"every,omitempty"`
	Unit  IntervalUnit `json:"unit,omitempty"`
}

var ErrInvalidTrigger = errors.New("invalid trigger")

// Validate checks that the kind-specific payload is present and
// internally consistent.
func (t TriggerSpec) Validate() error {
	switch t.Kind {
	case KindOnce:
		if t.At == nil || t.At.IsZero() {
			return fmt.Errorf("%w: once trigger requires a timestamp", ErrInvalidTrigger)
		}
	case KindDaily:
		if err := validClock(t.Hour, t.Minute); err != nil {
			return err
		}
	case KindWeekly:
		if err := validClock(t.Hour, t.Minute); err != nil {
			return err
		}
		if len(t.Days) == 0 {
			return fmt.Errorf("%w: weekly trigger requires at least one weekday", ErrInvalidTrigger)
		}
		seen := map[string]bool{}
		for _, d := range t.Days {
			key := strings.ToLower(strings.TrimSpace(d))
			if _, ok := weekdayNames[key]; !ok {
				return fmt.Errorf("%w: unknown weekday %q", ErrInvalidTrigger, d)
			}
			if seen[key] {
				return fmt.Errorf("%w: duplicate weekday %q", ErrInvalidTrigger, d)
			}
			seen[key] = true
		}
	case KindInterval:
		if t.Every <= 0 {
			return fmt.Errorf("%w: interval magnitude must be positive", ErrInvalidTrigger)
		}
		switch t.Unit {
		case UnitMinutes, UnitHours, UnitDays:
		default:
			return fmt.Errorf("%w: unknown interval unit %q", ErrInvalidTrigger, t.Unit)
		}
	default:
		return fmt.Errorf("%w: unknown trigger kind %q", ErrInvalidTrigger, t.Kind)
	}
	return nil
}

// Weekdays returns the trigger's weekday set normalized to calendar
// order (Monday first). Only meaningful for weekly triggers.
func (t TriggerSpec) Weekdays() []time.Weekday {
	want := map[string]bool{}
	for _, d := range t.Days {
		want[strings.ToLower(strings.TrimSpace(d))] = true
	}
	var out []time.Weekday
	for _, name := range weekdayOrder {
		if want[name] {
			out = append(out, weekdayNames[name])
		}
	}
	return out
}

// Interval returns the interval trigger's period as a duration.
func (t TriggerSpec) Interval() time.Duration {
	switch t.Unit {
	case UnitMinutes:
		return time.Duration(t.Every) * time.Minute
	case UnitHours:
		return time.Duration(t.Every) * time.Hour
	case UnitDays:
		return time.Duration(t.Every) * 24 * time.Hour
	default:
		return 0
	}
}

func validClock(hour, minute int) error {
	if hour < 0 || hour > 23 {
		return fmt.Errorf("%w: hour %d out of range", ErrInvalidTrigger, hour)
	}
	if minute < 0 || minute > 59 {
		return fmt.Errorf("%w: minute %d out of range", ErrInvalidTrigger, minute)
	}
	return nil
}

// Record is the persisted unit: one script and its ordered triggers.
// At most one record exists per script name.
type Record struct {
	Script   string        `json:"script"`
	Triggers []TriggerSpec `json:"triggers"`
}

// Validate checks the record and every trigger in it.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Script) == "" {
		return fmt.Errorf("%w: record has no script name", ErrInvalidTrigger)
	}
	for i, t := range r.Triggers {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("trigger %d: %w", i, err)
		}
	}
	return nil
}

// Enabled returns the enabled triggers in record order.
func (r Record) Enabled() []TriggerSpec {
	var out []TriggerSpec
	for _, t := range r.Triggers {
		if t.Enabled {
			out = append(out, t)
		}
	}
	return out
}
