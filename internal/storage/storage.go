// Package storage defines the published JSON documents and their file store.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// LastUpdatedLayout is the timestamp format stamped into documents.
const LastUpdatedLayout = "2006-01-02 15:04:05"

// ArchiveDateLayout keys archive files by calendar date.
const ArchiveDateLayout = "2006-01-02"

// Entry is one display record as the site consumes it.
type Entry struct {
	Text              string `json:"text"`
	TextTranslated    string `json:"text_translated,omitempty"`
	Link              string `json:"link"`
	Summary           string `json:"summary"`
	SummaryTranslated string `json:"summary_translated,omitempty"`
}

// Snapshot is the current-state document, replaced wholesale every run.
type Snapshot struct {
	LastUpdated          string             `json:"last_updated"`
	RecentObservations   map[string][]Entry `json:"recent_observations"`
	IndustryObservations []Entry            `json:"industry_observations"`
}

// NewSnapshot returns an empty snapshot with both regions present, so the
// consuming page always finds its keys.
func NewSnapshot(regions []string, now time.Time) *Snapshot {
	recent := make(map[string][]Entry, len(regions))
	for _, r := range regions {
		recent[r] = []Entry{}
	}
	return &Snapshot{
		LastUpdated:          now.Format(LastUpdatedLayout),
		RecentObservations:   recent,
		IndustryObservations: []Entry{},
	}
}

// Archive is one per-date document accumulating items that aged out of the
// snapshot. Created lazily, merged additively, never deleted.
type Archive struct {
	ArchivedDate         string             `json:"archived_date"`
	LastUpdated          string             `json:"last_updated"`
	RecentObservations   map[string][]Entry `json:"recent_observations"`
	IndustryObservations []Entry            `json:"industry_observations"`
}

// Store reads and writes the documents under one data directory.
type Store struct {
	snapshotPath string
	archiveDir   string
}

func NewStore(snapshotPath, archiveDir string) *Store {
	return &Store{snapshotPath: snapshotPath, archiveDir: archiveDir}
}

// LoadSnapshot reads the previous snapshot. A missing file returns nil, nil.
func (s *Store) LoadSnapshot() (*Snapshot, error) {
	if _, err := os.Stat(s.snapshotPath); os.IsNotExist(err) {
		return nil, nil
	}
	data, err := os.ReadFile(s.snapshotPath)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// WriteSnapshot replaces the current-state document.
func (s *Store) WriteSnapshot(snap *Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(s.snapshotPath), 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(s.snapshotPath, data, 0644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// LoadArchive reads the archive for one date key. A missing or unreadable
// file is an empty prior archive, not an error: new items must still land.
func (s *Store) LoadArchive(date string) *Archive {
	empty := &Archive{
		ArchivedDate:       date,
		RecentObservations: map[string][]Entry{},
	}
	data, err := os.ReadFile(s.archivePath(date))
	if err != nil {
		return empty
	}
	var arch Archive
	if err := json.Unmarshal(data, &arch); err != nil {
		return empty
	}
	if arch.RecentObservations == nil {
		arch.RecentObservations = map[string][]Entry{}
	}
	arch.ArchivedDate = date
	return &arch
}

// WriteArchive persists one per-date document.
func (s *Store) WriteArchive(arch *Archive) error {
	if err := os.MkdirAll(s.archiveDir, 0755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}
	data, err := json.MarshalIndent(arch, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal archive %s: %w", arch.ArchivedDate, err)
	}
	if err := os.WriteFile(s.archivePath(arch.ArchivedDate), data, 0644); err != nil {
		return fmt.Errorf("write archive %s: %w", arch.ArchivedDate, err)
	}
	return nil
}

func (s *Store) archivePath(date string) string {
	return filepath.Join(s.archiveDir, date+".json")
}
