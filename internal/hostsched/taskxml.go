package hostsched

import (
	"fmt"
	"strings"
	"time"

	"toolshed/internal/schedule"
)

// taskXML renders a Windows Task Scheduler task definition for t.
// Registered via `schtasks /Create /XML`; overwriting with /F keeps
// updates in place. Kept free of build tags so the rendering is
// testable everywhere.
func taskXML(t Task, now time.Time) string {
	cmd := xmlEscape(t.Command[0])
	var args []string
	for _, a := range t.Command[1:] {
		// Plain double-quote wrapping: Windows paths keep their
		// backslashes, the quotes become &quot; in the escape below.
		args = append(args, `"`+a+`"`)
	}

	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-16"?>
<Task version="1.2" xmlns="http://schemas.microsoft.com/windows/2004/02/mit/task">
  <RegistrationInfo>
    <Description>%s scheduled run</Description>
    <Author>%s</Author>
  </RegistrationInfo>
  <Triggers>
%s
  </Triggers>
  <Principals>
    <Principal id="Author">
      <LogonType>InteractiveToken</LogonType>
      <RunLevel>LeastPrivilege</RunLevel>
    </Principal>
  </Principals>
  <Settings>
    <MultipleInstancesPolicy>IgnoreNew</MultipleInstancesPolicy>
    <DisallowStartIfOnBatteries>false</DisallowStartIfOnBatteries>
    <StopIfGoingOnBatteries>false</StopIfGoingOnBatteries>
    <AllowHardTerminate>true</AllowHardTerminate>
    <StartWhenAvailable>true</StartWhenAvailable>
    <AllowStartOnDemand>true</AllowStartOnDemand>
    <Enabled>true</Enabled>
    <Hidden>false</Hidden>
    <ExecutionTimeLimit>PT2H</ExecutionTimeLimit>
    <Priority>7</Priority>
  </Settings>
  <Actions Context="Author">
    <Exec>
      <Command>%s</Command>
      <Arguments>%s</Arguments>
      <WorkingDirectory>%s</WorkingDirectory>
    </Exec>
  </Actions>
</Task>`,
		xmlEscape(t.Name), Namespace,
		triggerXML(t.Trigger, now),
		cmd, xmlEscape(strings.Join(args, " ")), xmlEscape(t.WorkingDir))
}

func triggerXML(t schedule.TriggerSpec, now time.Time) string {
	switch t.Kind {
	case schedule.KindOnce:
		return fmt.Sprintf(`    <TimeTrigger>
      <StartBoundary>%s</StartBoundary>
      <Enabled>true</Enabled>
    </TimeTrigger>`, t.At.Format("2006-01-02T15:04:05"))

	case schedule.KindDaily:
		return fmt.Sprintf(`    <CalendarTrigger>
      <StartBoundary>%sT%02d:%02d:00</StartBoundary>
      <Enabled>true</Enabled>
      <ScheduleByDay>
        <DaysInterval>1</DaysInterval>
      </ScheduleByDay>
    </CalendarTrigger>`, now.Format("2006-01-02"), t.Hour, t.Minute)

	case schedule.KindWeekly:
		var days []string
		for _, d := range t.Weekdays() {
			days = append(days, fmt.Sprintf("        <%s />", d.String()))
		}
		return fmt.Sprintf(`    <CalendarTrigger>
      <StartBoundary>%sT%02d:%02d:00</StartBoundary>
      <Enabled>true</Enabled>
      <ScheduleByWeek>
        <DaysOfWeek>
%s
        </DaysOfWeek>
        <WeeksInterval>1</WeeksInterval>
      </ScheduleByWeek>
    </CalendarTrigger>`, now.Format("2006-01-02"), t.Hour, t.Minute, strings.Join(days, "\n"))

	case schedule.KindInterval:
		return fmt.Sprintf(`    <TimeTrigger>
      <Repetition>
        <Interval>%s</Interval>
        <StopAtDurationEnd>false</StopAtDurationEnd>
      </Repetition>
      <StartBoundary>%s</StartBoundary>
      <Enabled>true</Enabled>
    </TimeTrigger>`, iso8601Interval(t), now.Format("2006-01-02T15:04:05"))

	default:
		return ""
	}
}

// iso8601Interval renders an interval trigger as an ISO-8601 duration,
// the repetition format Task Scheduler expects.
func iso8601Interval(t schedule.TriggerSpec) string {
	switch t.Unit {
	case schedule.UnitMinutes:
		return fmt.Sprintf("PT%dM", t.Every)
	case schedule.UnitHours:
		return fmt.Sprintf("PT%dH", t.Every)
	case schedule.UnitDays:
		return fmt.Sprintf("P%dD", t.Every)
	default:
		return "PT1H"
	}
}

func xmlEscape(s string) string {
	repl := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	return repl.Replace(s)
}
