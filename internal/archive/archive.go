// Package archive moves stale snapshot records into per-date archive files.
package archive

import (
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/deusflow/insights/internal/recency"
	"github.com/deusflow/insights/internal/storage"
)

// StalenessThresholdDays is how many calendar days a record may stay in the
// snapshot before it is moved to the archive.
const StalenessThresholdDays = 3

// labelDateRe extracts the display date from a record label like
// "[21-08-26 · Malaysia] ...".
var labelDateRe = regexp.MustCompile(`^\[(\d{2}-\d{2}-\d{2})`)

// Archiver scans the previous run's snapshot and merges aged-out records
// into the per-date archive documents.
type Archiver struct {
	store *storage.Store
}

func New(store *storage.Store) *Archiver {
	return &Archiver{store: store}
}

// Run performs the age-out pass against the previous snapshot. It returns
// the number of records archived. No previous snapshot means nothing to do.
// It must run before the new snapshot is written: the records it scans are
// the prior run's output.
func (a *Archiver) Run(runDate time.Time) (int, error) {
	snap, err := a.store.LoadSnapshot()
	if err != nil {
		return 0, fmt.Errorf("load previous snapshot: %w", err)
	}
	if snap == nil {
		return 0, nil
	}

	type bucket struct {
		recent   map[string][]storage.Entry
		industry []storage.Entry
	}
	buckets := make(map[string]*bucket)
	bucketFor := func(date string) *bucket {
		b, ok := buckets[date]
		if !ok {
			b = &bucket{recent: make(map[string][]storage.Entry)}
			buckets[date] = b
		}
		return b
	}

	archived := 0
	for region, entries := range snap.RecentObservations {
		for _, e := range entries {
			if date, stale := staleDate(e, runDate); stale {
				b := bucketFor(date)
				b.recent[region] = append(b.recent[region], e)
				archived++
			}
		}
	}
	for _, e := range snap.IndustryObservations {
		if date, stale := staleDate(e, runDate); stale {
			b := bucketFor(date)
			b.industry = append(b.industry, e)
			archived++
		}
	}

	// Deterministic write order across the touched dates.
	dates := make([]string, 0, len(buckets))
	for d := range buckets {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	for _, date := range dates {
		arch := a.store.LoadArchive(date)
		merge(arch, buckets[date].recent, buckets[date].industry)
		arch.LastUpdated = snap.LastUpdated
		if err := a.store.WriteArchive(arch); err != nil {
			return archived, err
		}
	}
	return archived, nil
}

// staleDate parses the record's display date back out of its label and
// reports whether the record has aged past the threshold, together with its
// archive date key. Records whose label carries no parseable date stay in
// place.
func staleDate(e storage.Entry, runDate time.Time) (string, bool) {
	m := labelDateRe.FindStringSubmatch(e.Text)
	if m == nil {
		return "", false
	}
	date, err := time.ParseInLocation("02-01-06", m[1], runDate.Location())
	if err != nil {
		return "", false
	}
	if recency.DaysBetween(date, runDate) <= StalenessThresholdDays {
		return "", false
	}
	return date.Format(storage.ArchiveDateLayout), true
}

// merge appends new records into the archive, link-deduplicated. Existing
// records win ties; a new record lands only if its link is unseen across the
// whole date.
func merge(arch *storage.Archive, recent map[string][]storage.Entry, industry []storage.Entry) {
	seen := make(map[string]struct{})
	for _, entries := range arch.RecentObservations {
		for _, e := range entries {
			seen[e.Link] = struct{}{}
		}
	}
	for _, e := range arch.IndustryObservations {
		seen[e.Link] = struct{}{}
	}

	for region, entries := range recent {
		for _, e := range entries {
			if _, dup := seen[e.Link]; dup {
				continue
			}
			seen[e.Link] = struct{}{}
			arch.RecentObservations[region] = append(arch.RecentObservations[region], e)
		}
	}
	for _, e := range industry {
		if _, dup := seen[e.Link]; dup {
			continue
		}
		seen[e.Link] = struct{}{}
		arch.IndustryObservations = append(arch.IndustryObservations, e)
	}
}
