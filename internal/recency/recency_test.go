package recency

import (
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	runDate := time.Date(2026, 8, 21, 15, 30, 0, 0, time.UTC)

	cases := []struct {
		name    string
		instant *time.Time
		want    Bucket
	}{
		{"nil instant", nil, Unknown},
		{"same day morning", tp(2026, 8, 21, 1), Today},
		{"same day late", tp(2026, 8, 21, 23), Today},
		{"yesterday", tp(2026, 8, 20, 12), Yesterday},
		{"day before", tp(2026, 8, 19, 12), DayBefore},
		{"three days ago", tp(2026, 8, 18, 12), Unknown},
		{"a week ago", tp(2026, 8, 14, 12), Unknown},
		{"slightly future", tp(2026, 8, 22, 2), Today},
	}
	for _, tc := range cases {
		if got := Classify(tc.instant, runDate); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestClassifyIgnoresTimeOfDay(t *testing.T) {
	// 23:59 yesterday vs 00:01 today is still one calendar day apart.
	runDate := time.Date(2026, 8, 21, 0, 1, 0, 0, time.UTC)
	late := time.Date(2026, 8, 20, 23, 59, 0, 0, time.UTC)
	if got := Classify(&late, runDate); got != Yesterday {
		t.Errorf("got %v, want Yesterday", got)
	}
}

func TestDaysBetween(t *testing.T) {
	runDate := time.Date(2026, 8, 21, 9, 0, 0, 0, time.UTC)
	cases := []struct {
		date time.Time
		want int
	}{
		{time.Date(2026, 8, 21, 23, 0, 0, 0, time.UTC), 0},
		{time.Date(2026, 8, 18, 1, 0, 0, 0, time.UTC), 3},
		{time.Date(2026, 8, 16, 23, 59, 0, 0, time.UTC), 5},
		{time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC), -2},
	}
	for _, tc := range cases {
		if got := DaysBetween(tc.date, runDate); got != tc.want {
			t.Errorf("DaysBetween(%v): got %d, want %d", tc.date, got, tc.want)
		}
	}
}

func tp(y int, m time.Month, d, h int) *time.Time {
	t := time.Date(y, m, d, h, 0, 0, 0, time.UTC)
	return &t
}
