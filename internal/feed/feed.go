// Package feed turns one configured source into normalized news entries.
package feed

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"

	"github.com/deusflow/insights/internal/config"
)

// SummaryMaxRunes caps stored summaries; long feed descriptions add noise
// without adding signal for classification.
const SummaryMaxRunes = 200

// Entry is one normalized feed entry, pre-filtered by the source keywords.
type Entry struct {
	Title       string
	Link        string
	Summary     string
	PublishedAt *time.Time // nil when the feed date was missing or unparseable
	SourceName  string
	Region      string
}

// Reader fetches and normalizes configured sources.
type Reader struct {
	parser *gofeed.Parser
}

func NewReader() *Reader {
	return &Reader{parser: gofeed.NewParser()}
}

// Fetch downloads one source and returns its matching entries. Errors are
// per-source: the caller logs and moves on to the next source.
func (r *Reader) Fetch(src config.Source) ([]Entry, error) {
	parsed, err := r.parser.ParseURL(src.URL)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", src.URL, err)
	}
	return r.Normalize(src, parsed), nil
}

// Normalize converts parsed feed items into entries, applying the source's
// keyword prefilter. An empty keyword list keeps everything.
func (r *Reader) Normalize(src config.Source, parsed *gofeed.Feed) []Entry {
	entries := make([]Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		summary := extractSummary(item)
		if len(src.Keywords) > 0 && !ContainsAny(item.Title+" "+summary, src.Keywords) {
			continue
		}
		entries = append(entries, Entry{
			Title:       strings.TrimSpace(item.Title),
			Link:        item.Link,
			Summary:     truncateRunes(summary, SummaryMaxRunes),
			PublishedAt: publishInstant(item),
			SourceName:  src.Name,
			Region:      src.Region,
		})
	}
	return entries
}

// ContainsAny reports whether text contains at least one keyword,
// case-insensitively.
func ContainsAny(text string, keywords []string) bool {
	text = strings.ToLower(text)
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// extractSummary picks the first non-empty of description and content,
// stripped of HTML markup.
func extractSummary(item *gofeed.Item) string {
	raw := item.Description
	if raw == "" {
		raw = item.Content
	}
	return stripHTML(raw)
}

// stripHTML reduces feed-supplied HTML fragments to plain text with
// collapsed whitespace.
func stripHTML(s string) string {
	if s == "" {
		return ""
	}
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// publishInstant resolves the entry's publish time. gofeed handles the common
// formats; dateparse covers the long tail of feed-native date strings. A date
// that resists both is left nil and the item becomes recency-unknown.
func publishInstant(item *gofeed.Item) *time.Time {
	if item.PublishedParsed != nil {
		return item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return item.UpdatedParsed
	}
	raw := item.Published
	if raw == "" {
		raw = item.Updated
	}
	if raw == "" {
		return nil
	}
	t, err := dateparse.ParseAny(raw)
	if err != nil {
		log.Printf("feed: unparseable publish date %q: %v", raw, err)
		return nil
	}
	return &t
}
