package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// NextRun computes when a trigger would fire next after now. It exists
// purely for operator display; actual firing is entirely the host
// scheduler's business. Returns the zero time for disabled triggers and
// for once-triggers whose timestamp has already passed.
func NextRun(t TriggerSpec, now time.Time) time.Time {
	if !t.Enabled {
		return time.Time{}
	}
	switch t.Kind {
	case KindOnce:
		if t.At != nil && t.At.After(now) {
			return *t.At
		}
		return time.Time{}
	case KindInterval:
		return now.Add(t.Interval())
	case KindDaily, KindWeekly:
		sched, err := cron.ParseStandard(cronSpec(t))
		if err != nil {
			return time.Time{}
		}
		return sched.Next(now)
	default:
		return time.Time{}
	}
}

// cronSpec renders a daily/weekly trigger as a standard 5-field cron
// expression, the dialect robfig/cron parses.
func cronSpec(t TriggerSpec) string {
	dow := "*"
	if t.Kind == KindWeekly {
		var names []string
		for _, d := range t.Weekdays() {
			// cron weekday tokens match our lowercase abbreviations.
			names = append(names, strings.ToLower(d.String()[:3]))
		}
		dow = strings.Join(names, ",")
	}
	return fmt.Sprintf("%d %d * * %s", t.Minute, t.Hour, dow)
}

// Describe renders a trigger for listings, e.g. "weekly mon,fri 09:00".
func Describe(t TriggerSpec) string {
	state := ""
	if !t.Enabled {
		state = " (disabled)"
	}
	switch t.Kind {
	case KindOnce:
		at := ""
		if t.At != nil {
			at = t.At.Format("2006-01-02 15:04")
		}
		return fmt.Sprintf("once %s%s", at, state)
	case KindDaily:
		return fmt.Sprintf("daily %02d:%02d%s", t.Hour, t.Minute, state)
	case KindWeekly:
		return fmt.Sprintf("weekly %s %02d:%02d%s",
			strings.Join(t.Days, ","), t.Hour, t.Minute, state)
	case KindInterval:
		return fmt.Sprintf("every %d %s%s", t.Every, t.Unit, state)
	default:
		return string(t.Kind) + state
	}
}
