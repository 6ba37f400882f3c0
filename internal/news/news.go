// Package news accumulates entries from all sources into the policy and
// industry streams, deduplicating by link.
package news

import (
	"sort"
	"time"

	"github.com/deusflow/insights/internal/config"
	"github.com/deusflow/insights/internal/feed"
)

// Region labels used in the policy stream.
const (
	RegionMalaysia  = "Malaysia"
	RegionSingapore = "Singapore"
	RegionASEAN     = "ASEAN"
)

// IndustryOther labels industry items that matched no keyword rule. They are
// kept, not dropped.
const IndustryOther = "Other"

// Item is one collected news item.
type Item struct {
	Date        string // display date, DD-MM-YY
	PublishedAt *time.Time
	Title       string
	Link        string
	Summary     string
	SourceName  string
	Region      string
	Industry    string // empty for policy items and unmatched industry items

	TitleTranslated   string
	SummaryTranslated string
}

// regionRule assigns a bloc-tagged policy item to a concrete region when the
// text names it. Rules run top-down, first match wins; the trailing empty
// keyword set is the documented default assignment.
type regionRule struct {
	region   string
	keywords []string
}

var blocRegionRules = []regionRule{
	{RegionSingapore, []string{"singapore", "新加坡"}},
	{RegionMalaysia, []string{"malaysia", "马来西亚"}},
	{RegionMalaysia, nil}, // default: unmatched ASEAN items go to Malaysia
}

// Collector holds run-scoped state: the seen-link set and both streams.
type Collector struct {
	runDate       time.Time
	industryRules []config.IndustryRule
	seenLinks     map[string]struct{}

	policy   []Item
	industry []Item
}

func NewCollector(runDate time.Time, industryRules []config.IndustryRule) *Collector {
	return &Collector{
		runDate:       runDate,
		industryRules: industryRules,
		seenLinks:     make(map[string]struct{}),
	}
}

// Add routes one source's entries into the owning stream. Entries whose link
// was already seen this run are dropped silently. It returns how many entries
// were accepted.
func (c *Collector) Add(src config.Source, entries []feed.Entry) int {
	accepted := 0
	for _, e := range entries {
		if _, dup := c.seenLinks[e.Link]; dup {
			continue
		}
		c.seenLinks[e.Link] = struct{}{}

		item := Item{
			Date:        c.displayDate(e.PublishedAt),
			PublishedAt: e.PublishedAt,
			Title:       e.Title,
			Link:        e.Link,
			Summary:     e.Summary,
			SourceName:  e.SourceName,
			Region:      e.Region,
		}

		if src.Type == "policy" {
			item.Region = resolvePolicyRegion(e.Region, e.Title, e.Summary)
			c.policy = append(c.policy, item)
		} else {
			item.Industry = classifyIndustry(e.Title, e.Summary, c.industryRules)
			c.industry = append(c.industry, item)
		}
		accepted++
	}
	return accepted
}

// Policy returns the policy stream sorted by publish instant descending,
// items without an instant last.
func (c *Collector) Policy() []Item {
	return sortedByPublished(c.policy)
}

// Industry returns the industry stream in the same order.
func (c *Collector) Industry() []Item {
	return sortedByPublished(c.industry)
}

func (c *Collector) displayDate(instant *time.Time) string {
	if instant != nil {
		return instant.In(c.runDate.Location()).Format("02-01-06")
	}
	return c.runDate.Format("02-01-06")
}

// resolvePolicyRegion keeps concrete regions as-is and walks the rule table
// for bloc-tagged items.
func resolvePolicyRegion(region, title, summary string) string {
	if region != RegionASEAN {
		return region
	}
	text := title + " " + summary
	for _, rule := range blocRegionRules {
		if len(rule.keywords) == 0 || feed.ContainsAny(text, rule.keywords) {
			return rule.region
		}
	}
	return RegionMalaysia // unreachable while the table ends with a default
}

// classifyIndustry scans the ordered keyword rules; the first industry whose
// keywords match wins. No match returns empty and the item renders as Other.
func classifyIndustry(title, summary string, rules []config.IndustryRule) string {
	text := title + " " + summary
	for _, rule := range rules {
		if feed.ContainsAny(text, rule.Keywords) {
			return rule.Industry
		}
	}
	return ""
}

func sortedByPublished(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].PublishedAt, out[j].PublishedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
	return out
}
