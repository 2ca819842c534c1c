package hostsched

import (
	"fmt"
	"strings"

	"toolshed/internal/schedule"
)

// timerLines renders a trigger as systemd timer unit directives.
// Kept free of build tags so the rendering is testable everywhere.
func timerLines(t schedule.TriggerSpec) []string {
	switch t.Kind {
	case schedule.KindOnce:
		return []string{
			fmt.Sprintf("OnCalendar=%s", t.At.Format("2006-01-02 15:04:05")),
			"RemainAfterElapse=no",
		}
	case schedule.KindDaily:
		return []string{
			fmt.Sprintf("OnCalendar=*-*-* %02d:%02d:00", t.Hour, t.Minute),
			"Persistent=true",
		}
	case schedule.KindWeekly:
		var days []string
		for _, d := range t.Weekdays() {
			days = append(days, d.String()[:3])
		}
		return []string{
			fmt.Sprintf("OnCalendar=%s *-*-* %02d:%02d:00",
				strings.Join(days, ","), t.Hour, t.Minute),
			"Persistent=true",
		}
	case schedule.KindInterval:
		span := timeSpan(t)
		return []string{
			fmt.Sprintf("OnBootSec=%s", span),
			fmt.Sprintf("OnUnitActiveSec=%s", span),
		}
	default:
		return nil
	}
}

// timeSpan renders an interval in systemd time-span syntax.
func timeSpan(t schedule.TriggerSpec) string {
	switch t.Unit {
	case schedule.UnitMinutes:
		return fmt.Sprintf("%dmin", t.Every)
	case schedule.UnitHours:
		return fmt.Sprintf("%dh", t.Every)
	case schedule.UnitDays:
		return fmt.Sprintf("%dd", t.Every)
	default:
		return "1h"
	}
}

// timerUnit renders a complete .timer unit file for the task.
func timerUnit(t Task) string {
	var b strings.Builder
	b.WriteString("[Unit]\n")
	fmt.Fprintf(&b, "Description=%s scheduled run (%s)\n", Namespace, t.Name)
	b.WriteString("\n[Timer]\n")
	for _, line := range timerLines(t.Trigger) {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "Unit=%s.service\n", t.Name)
	b.WriteString("\n[Install]\nWantedBy=timers.target\n")
	return b.String()
}

// serviceUnit renders the matching oneshot .service unit invoking the
// execution wrapper.
func serviceUnit(t Task) string {
	var b strings.Builder
	b.WriteString("[Unit]\n")
	fmt.Fprintf(&b, "Description=%s task %s\n", Namespace, t.Name)
	b.WriteString("\n[Service]\nType=oneshot\n")
	fmt.Fprintf(&b, "ExecStart=%s\n", strings.Join(quoteAll(t.Command), " "))
	if t.WorkingDir != "" {
		fmt.Fprintf(&b, "WorkingDirectory=%s\n", t.WorkingDir)
	}
	return b.String()
}

func quoteAll(argv []string) []string {
	out := make([]string, len(argv))
	for i, a := range argv {
		if strings.ContainsAny(a, " \t\"'") {
			out[i] = fmt.Sprintf("%q", a)
		} else {
			out[i] = a
		}
	}
	return out
}
