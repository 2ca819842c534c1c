package schedule

import (
	"os"
	"path/filepath"
	"testing"

	logx "toolshed/pkg/logx"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir(), logx.Nop())
}

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()
	s := testStore(t)

	rec := Record{
		Script: "Backup Home",
		Triggers: []TriggerSpec{
			{Kind: KindWeekly, Enabled: true, Hour: 9, Days: []string{"mon"}},
			{Kind: KindInterval, Enabled: true, Every: 30, Unit: UnitMinutes},
		},
	}
	if err := s.Save(rec); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, ok := s.Load("Backup Home")
	if !ok {
		t.Fatalf("Load() did not find the saved record")
	}
	if got.Script != rec.Script || len(got.Triggers) != 2 {
		t.Fatalf("Load() = %+v, want %+v", got, rec)
	}
	if got.Triggers[0].Kind != KindWeekly || got.Triggers[1].Every != 30 {
		t.Fatalf("Load() triggers = %+v", got.Triggers)
	}
}

func TestStoreSaveRejectsInvalid(t *testing.T) {
	t.Parallel()
	s := testStore(t)
	err := s.Save(Record{Script: "x", Triggers: []TriggerSpec{{Kind: "hourly"}}})
	if err == nil {
		t.Fatalf("Save() accepted an invalid record")
	}
}

func TestStoreLoadMissing(t *testing.T) {
	t.Parallel()
	s := testStore(t)
	if _, ok := s.Load("nope"); ok {
		t.Fatalf("Load() found a record that was never saved")
	}
}

func TestStoreMalformedTreatedAsAbsent(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	s := NewStore(dir, logx.Nop())

	path := filepath.Join(dir, SafeName("Broken")+".json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seeding malformed record: %v", err)
	}
	if _, ok := s.Load("Broken"); ok {
		t.Fatalf("Load() returned a malformed record")
	}
	if got := s.List(); len(got) != 0 {
		t.Fatalf("List() = %+v, want malformed record skipped", got)
	}
}

func TestStoreDeleteMissingIsNoop(t *testing.T) {
	t.Parallel()
	s := testStore(t)
	if err := s.Delete("never existed"); err != nil {
		t.Fatalf("Delete() of missing record: %v", err)
	}
}

func TestStoreListSorted(t *testing.T) {
	t.Parallel()
	s := testStore(t)
	for _, name := range []string{"zeta", "alpha", "mid"} {
		rec := Record{Script: name, Triggers: []TriggerSpec{{Kind: KindDaily, Hour: 7, Enabled: true}}}
		if err := s.Save(rec); err != nil {
			t.Fatalf("Save(%s) error: %v", name, err)
		}
	}
	got := s.List()
	if len(got) != 3 || got[0].Script != "alpha" || got[1].Script != "mid" || got[2].Script != "zeta" {
		t.Fatalf("List() order = %+v", got)
	}
}

func TestSafeName(t *testing.T) {
	t.Parallel()
	tests := []struct{ in, want string }{
		{"Backup Home", "Backup_Home"},
		{"a/b\\c:d", "a_b_c_d"},
		{"  trimmed  ", "trimmed"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := SafeName(tt.in); got != tt.want {
			t.Fatalf("SafeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
