// Package recency buckets publish times by calendar-day distance from the run date.
package recency

import (
	"math"
	"time"
)

// Bucket is the recency class of one item relative to the run date.
type Bucket int

const (
	Unknown Bucket = iota
	Today
	Yesterday
	DayBefore
)

func (b Bucket) String() string {
	switch b {
	case Today:
		return "today"
	case Yesterday:
		return "yesterday"
	case DayBefore:
		return "day_before"
	default:
		return "unknown"
	}
}

// Classify compares the publish instant against the run date by calendar day
// only; time of day is ignored. A nil instant is Unknown, and Unknown items
// never take part in windowed selection.
func Classify(instant *time.Time, runDate time.Time) Bucket {
	if instant == nil {
		return Unknown
	}
	delta := DaysBetween(*instant, runDate)
	switch {
	case delta <= 0:
		// Feeds occasionally carry slightly future timestamps; count them as today.
		return Today
	case delta == 1:
		return Yesterday
	case delta == 2:
		return DayBefore
	default:
		return Unknown
	}
}

// DaysBetween returns the calendar-day delta from date to runDate (positive
// when date is in the past). Used by the archiver's staleness check.
func DaysBetween(date, runDate time.Time) int {
	loc := runDate.Location()
	y1, m1, d1 := date.In(loc).Date()
	y2, m2, d2 := runDate.Date()
	from := time.Date(y1, m1, d1, 0, 0, 0, 0, loc)
	to := time.Date(y2, m2, d2, 0, 0, 0, 0, loc)
	// Rounded so DST transitions (23h/25h days) still count as one day.
	return int(math.Round(to.Sub(from).Hours() / 24))
}
