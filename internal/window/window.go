// Package window selects the publishable subset of a stream using the
// recency-window policy with widen-on-shortfall.
package window

import (
	"time"

	"github.com/deusflow/insights/internal/config"
	"github.com/deusflow/insights/internal/news"
	"github.com/deusflow/insights/internal/recency"
)

// Select picks items from one sorted stream. The today bucket is used as-is
// when it meets the target minimum; otherwise the yesterday and day-before
// buckets are appended in tier order until the target maximum is reached or
// the tiers run out. An empty result after all tiers falls back to the first
// min(target.Min, len) items of the full sorted stream, so a date-parsing
// failure upstream never publishes nothing.
func Select(items []news.Item, runDate time.Time, target config.TargetCount) []news.Item {
	tiers := map[recency.Bucket][]news.Item{}
	for _, item := range items {
		b := recency.Classify(item.PublishedAt, runDate)
		tiers[b] = append(tiers[b], item)
	}

	today := tiers[recency.Today]
	if len(today) >= target.Min {
		return today
	}

	selected := make([]news.Item, 0, target.Max)
	seen := make(map[string]struct{})
	appendTier := func(tier []news.Item) {
		for _, item := range tier {
			if len(selected) >= target.Max {
				return
			}
			if _, dup := seen[item.Link]; dup {
				continue
			}
			seen[item.Link] = struct{}{}
			selected = append(selected, item)
		}
	}

	appendTier(today)
	appendTier(tiers[recency.Yesterday])
	appendTier(tiers[recency.DayBefore])

	if len(selected) == 0 {
		n := target.Min
		if n > len(items) {
			n = len(items)
		}
		selected = append(selected, items[:n]...)
	}
	return selected
}

// CapPerRegion limits the policy stream to max items per region, first-come
// in the stream's sorted order.
func CapPerRegion(items []news.Item, max int) []news.Item {
	counts := make(map[string]int)
	out := make([]news.Item, 0, len(items))
	for _, item := range items {
		if counts[item.Region] >= max {
			continue
		}
		counts[item.Region]++
		out = append(out, item)
	}
	return out
}

// CapTotal truncates a stream at its global maximum.
func CapTotal(items []news.Item, max int) []news.Item {
	if len(items) <= max {
		return items
	}
	return items[:max]
}
