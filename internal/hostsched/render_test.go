package hostsched

import (
	"strings"
	"testing"
	"time"

	"toolshed/internal/schedule"
)

func TestTimerLines(t *testing.T) {
	t.Parallel()
	at := time.Date(2026, 9, 1, 7, 30, 0, 0, time.Local)
	tests := []struct {
		name string
		trig schedule.TriggerSpec
		want []string
	}{
		{
			name: "once",
			trig: schedule.TriggerSpec{Kind: schedule.KindOnce, At: &at},
			want: []string{"OnCalendar=2026-09-01 07:30:00", "RemainAfterElapse=no"},
		},
		{
			name: "daily",
			trig: schedule.TriggerSpec{Kind: schedule.KindDaily, Hour: 7, Minute: 5},
			want: []string{"OnCalendar=*-*-* 07:05:00", "Persistent=true"},
		},
		{
			name: "weekly",
			trig: schedule.TriggerSpec{Kind: schedule.KindWeekly, Hour: 9, Days: []string{"fri", "mon"}},
			want: []string{"OnCalendar=Mon,Fri *-*-* 09:00:00", "Persistent=true"},
		},
		{
			name: "interval minutes",
			trig: schedule.TriggerSpec{Kind: schedule.KindInterval, Every: 30, Unit: schedule.UnitMinutes},
			want: []string{"OnBootSec=30min", "OnUnitActiveSec=30min"},
		},
		{
			name: "interval days",
			trig: schedule.TriggerSpec{Kind: schedule.KindInterval, Every: 2, Unit: schedule.UnitDays},
			want: []string{"OnBootSec=2d", "OnUnitActiveSec=2d"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := timerLines(tt.trig)
			if len(got) != len(tt.want) {
				t.Fatalf("timerLines() = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("timerLines()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestUnitFiles(t *testing.T) {
	t.Parallel()
	task := Task{
		Name:       TaskName("Backup Home", schedule.KindDaily, 0),
		Trigger:    schedule.TriggerSpec{Kind: schedule.KindDaily, Enabled: true, Hour: 7},
		Command:    []string{"/usr/local/bin/toolshed", "wrapper", "/scripts/backup home.sh"},
		WorkingDir: "/scripts",
	}

	timer := timerUnit(task)
	for _, want := range []string{
		"[Timer]",
		"OnCalendar=*-*-* 07:00:00",
		"Unit=ToolShed_Backup_Home__daily__0.service",
		"WantedBy=timers.target",
	} {
		if !strings.Contains(timer, want) {
			t.Fatalf("timer unit missing %q:\n%s", want, timer)
		}
	}

	service := serviceUnit(task)
	for _, want := range []string{
		"Type=oneshot",
		`ExecStart=/usr/local/bin/toolshed wrapper "/scripts/backup home.sh"`,
		"WorkingDirectory=/scripts",
	} {
		if !strings.Contains(service, want) {
			t.Fatalf("service unit missing %q:\n%s", want, service)
		}
	}
}

func TestTaskXML(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 8, 26, 10, 0, 0, 0, time.Local)

	tests := []struct {
		name string
		trig schedule.TriggerSpec
		want []string
	}{
		{
			name: "daily",
			trig: schedule.TriggerSpec{Kind: schedule.KindDaily, Enabled: true, Hour: 7, Minute: 30},
			want: []string{
				"<ScheduleByDay>",
				"<StartBoundary>2026-08-26T07:30:00</StartBoundary>",
				"<DaysInterval>1</DaysInterval>",
			},
		},
		{
			name: "weekly",
			trig: schedule.TriggerSpec{Kind: schedule.KindWeekly, Enabled: true, Hour: 9, Days: []string{"mon", "fri"}},
			want: []string{
				"<ScheduleByWeek>",
				"<Monday />",
				"<Friday />",
				"<WeeksInterval>1</WeeksInterval>",
			},
		},
		{
			name: "interval",
			trig: schedule.TriggerSpec{Kind: schedule.KindInterval, Enabled: true, Every: 45, Unit: schedule.UnitMinutes},
			want: []string{
				"<Repetition>",
				"<Interval>PT45M</Interval>",
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			task := Task{
				Name:       TaskName("report", tt.trig.Kind, 0),
				Trigger:    tt.trig,
				Command:    []string{`C:\Tools\toolshed.exe`, "wrapper", `C:\Scripts\report.ps1`},
				WorkingDir: `C:\Scripts`,
			}
			xml := taskXML(task, now)
			for _, want := range tt.want {
				if !strings.Contains(xml, want) {
					t.Fatalf("task XML missing %q:\n%s", want, xml)
				}
			}
			if !strings.Contains(xml, `<Command>C:\Tools\toolshed.exe</Command>`) {
				t.Fatalf("task XML missing exec command:\n%s", xml)
			}
			// Single backslashes survive argument quoting.
			if !strings.Contains(xml, `<Arguments>&quot;wrapper&quot; &quot;C:\Scripts\report.ps1&quot;</Arguments>`) {
				t.Fatalf("task XML has mangled arguments:\n%s", xml)
			}
		})
	}
}

func TestTaskXMLKeepsUNCPaths(t *testing.T) {
	t.Parallel()
	task := Task{
		Name:       TaskName("sync", schedule.KindDaily, 0),
		Trigger:    schedule.TriggerSpec{Kind: schedule.KindDaily, Enabled: true, Hour: 1},
		Command:    []string{`C:\Tools\toolshed.exe`, "wrapper", `\\fileserver\ops\sync.ps1`},
		WorkingDir: `\\fileserver\ops`,
	}
	xml := taskXML(task, time.Date(2026, 8, 26, 10, 0, 0, 0, time.Local))
	if !strings.Contains(xml, `&quot;\\fileserver\ops\sync.ps1&quot;`) {
		t.Fatalf("UNC argument mangled:\n%s", xml)
	}
	if strings.Contains(xml, `\\\\fileserver`) {
		t.Fatalf("UNC backslashes doubled:\n%s", xml)
	}
}

func TestIso8601Interval(t *testing.T) {
	t.Parallel()
	tests := []struct {
		every int
		unit  schedule.IntervalUnit
		want  string
	}{
		{30, schedule.UnitMinutes, "PT30M"},
		{6, schedule.UnitHours, "PT6H"},
		{1, schedule.UnitDays, "P1D"},
	}
	for _, tt := range tests {
		trig := schedule.TriggerSpec{Kind: schedule.KindInterval, Every: tt.every, Unit: tt.unit}
		if got := iso8601Interval(trig); got != tt.want {
			t.Fatalf("iso8601Interval(%d %s) = %q, want %q", tt.every, tt.unit, got, tt.want)
		}
	}
}

func TestXMLEscape(t *testing.T) {
	t.Parallel()
	if got := xmlEscape(`a & <b> "c"`); got != "a &amp; &lt;b&gt; &quot;c&quot;" {
		t.Fatalf("xmlEscape() = %q", got)
	}
}
