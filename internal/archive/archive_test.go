package archive

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/deusflow/insights/internal/storage"
)

func newTestArchiver(t *testing.T) (*Archiver, *storage.Store) {
	t.Helper()
	dir := t.TempDir()
	store := storage.NewStore(filepath.Join(dir, "insights-data.json"), filepath.Join(dir, "archive"))
	return New(store), store
}

func entry(label, link string) storage.Entry {
	return storage.Entry{Text: label, Link: link, Summary: "s"}
}

func TestRunNoSnapshotIsNoop(t *testing.T) {
	a, _ := newTestArchiver(t)
	n, err := a.Run(time.Date(2026, 8, 21, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if n != 0 {
		t.Errorf("archived %d, want 0", n)
	}
}

func TestStaleRecordMovesToItsDateFile(t *testing.T) {
	a, store := newTestArchiver(t)
	runDate := time.Date(2026, 8, 21, 9, 0, 0, 0, time.UTC)

	snap := storage.NewSnapshot([]string{"Malaysia", "Singapore"}, runDate)
	// Five days old: past the threshold of three.
	snap.RecentObservations["Malaysia"] = []storage.Entry{
		entry("[16-08-26 · Malaysia] Old policy", "http://x/old"),
	}
	// One day old: stays put.
	snap.RecentObservations["Singapore"] = []storage.Entry{
		entry("[20-08-26 · Singapore] Fresh policy", "http://x/fresh"),
	}
	if err := store.WriteSnapshot(snap); err != nil {
		t.Fatal(err)
	}

	n, err := a.Run(runDate)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if n != 1 {
		t.Errorf("archived %d, want 1", n)
	}

	arch := store.LoadArchive("2026-08-16")
	got := arch.RecentObservations["Malaysia"]
	if len(got) != 1 || got[0].Link != "http://x/old" {
		t.Errorf("archived entries under Malaysia: %+v", arch.RecentObservations)
	}
	if arch.ArchivedDate != "2026-08-16" {
		t.Errorf("archived_date %q", arch.ArchivedDate)
	}
	if arch.LastUpdated != snap.LastUpdated {
		t.Errorf("last_updated %q, want %q", arch.LastUpdated, snap.LastUpdated)
	}
	if other := store.LoadArchive("2026-08-20"); len(other.RecentObservations) != 0 {
		t.Errorf("fresh record must not be archived: %+v", other)
	}
}

func TestBoundaryAges(t *testing.T) {
	a, store := newTestArchiver(t)
	runDate := time.Date(2026, 8, 21, 9, 0, 0, 0, time.UTC)

	snap := storage.NewSnapshot([]string{"Malaysia"}, runDate)
	snap.IndustryObservations = []storage.Entry{
		entry("[18-08-26 · Energy] Exactly three days", "http://x/3d"),
		entry("[17-08-26 · Energy] Four days", "http://x/4d"),
	}
	if err := store.WriteSnapshot(snap); err != nil {
		t.Fatal(err)
	}

	n, err := a.Run(runDate)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if n != 1 {
		t.Errorf("archived %d, want only the four-day-old record", n)
	}
	arch := store.LoadArchive("2026-08-17")
	if len(arch.IndustryObservations) != 1 || arch.IndustryObservations[0].Link != "http://x/4d" {
		t.Errorf("industry archive: %+v", arch.IndustryObservations)
	}
	if got := store.LoadArchive("2026-08-18"); len(got.IndustryObservations) != 0 {
		t.Errorf("three-day-old record must stay in the snapshot: %+v", got)
	}
}

func TestRunTwiceIsIdempotent(t *testing.T) {
	a, store := newTestArchiver(t)
	runDate := time.Date(2026, 8, 21, 9, 0, 0, 0, time.UTC)

	snap := storage.NewSnapshot([]string{"Malaysia"}, runDate)
	snap.RecentObservations["Malaysia"] = []storage.Entry{
		entry("[15-08-26 · Malaysia] Old one", "http://x/1"),
	}
	snap.IndustryObservations = []storage.Entry{
		entry("[15-08-26 · Energy] Old two", "http://x/2"),
	}
	if err := store.WriteSnapshot(snap); err != nil {
		t.Fatal(err)
	}

	if _, err := a.Run(runDate); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first := store.LoadArchive("2026-08-15")

	if _, err := a.Run(runDate); err != nil {
		t.Fatalf("second run: %v", err)
	}
	second := store.LoadArchive("2026-08-15")

	if !reflect.DeepEqual(first, second) {
		t.Errorf("second run changed the archive:\nfirst:  %+v\nsecond: %+v", first, second)
	}
	if len(second.RecentObservations["Malaysia"]) != 1 || len(second.IndustryObservations) != 1 {
		t.Errorf("archive grew on rerun: %+v", second)
	}
}

func TestMergeKeepsExistingEntries(t *testing.T) {
	a, store := newTestArchiver(t)
	runDate := time.Date(2026, 8, 21, 9, 0, 0, 0, time.UTC)

	prior := &storage.Archive{
		ArchivedDate: "2026-08-14",
		RecentObservations: map[string][]storage.Entry{
			"Malaysia": {entry("[14-08-26 · Malaysia] Already archived", "http://x/prior")},
		},
	}
	if err := store.WriteArchive(prior); err != nil {
		t.Fatal(err)
	}

	snap := storage.NewSnapshot([]string{"Malaysia"}, runDate)
	snap.RecentObservations["Malaysia"] = []storage.Entry{
		entry("[14-08-26 · Malaysia] Already archived", "http://x/prior"),
		entry("[14-08-26 · Malaysia] New arrival", "http://x/new"),
	}
	if err := store.WriteSnapshot(snap); err != nil {
		t.Fatal(err)
	}

	if _, err := a.Run(runDate); err != nil {
		t.Fatalf("run: %v", err)
	}

	arch := store.LoadArchive("2026-08-14")
	got := arch.RecentObservations["Malaysia"]
	if len(got) != 2 {
		t.Fatalf("want 2 merged entries, got %+v", got)
	}
	if got[0].Link != "http://x/prior" || got[1].Link != "http://x/new" {
		t.Errorf("existing entry must stay first: %+v", got)
	}
}

func TestUnparseableLabelStays(t *testing.T) {
	a, store := newTestArchiver(t)
	runDate := time.Date(2026, 8, 21, 9, 0, 0, 0, time.UTC)

	snap := storage.NewSnapshot([]string{"Malaysia"}, runDate)
	snap.IndustryObservations = []storage.Entry{
		entry("No label at all", "http://x/1"),
	}
	if err := store.WriteSnapshot(snap); err != nil {
		t.Fatal(err)
	}

	n, err := a.Run(runDate)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if n != 0 {
		t.Errorf("archived %d, want 0 for unlabeled record", n)
	}
}
