// Package app wires the pipeline together: archive the previous snapshot,
// fetch and collect, select, enrich, publish.
package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/deusflow/insights/internal/archive"
	"github.com/deusflow/insights/internal/config"
	"github.com/deusflow/insights/internal/enrich"
	"github.com/deusflow/insights/internal/feed"
	"github.com/deusflow/insights/internal/metrics"
	"github.com/deusflow/insights/internal/news"
	"github.com/deusflow/insights/internal/storage"
	"github.com/deusflow/insights/internal/window"
)

// Run executes one full pipeline pass. Per-source and enrichment failures
// are absorbed; only archive/snapshot write failures abort the run.
func Run(ctx context.Context, cfg *config.Config) error {
	start := time.Now()
	runDate := time.Now()
	store := storage.NewStore(cfg.SnapshotPath(), cfg.ArchiveDir())

	// Age out the prior run's snapshot before anything else touches disk.
	archived, err := archive.New(store).Run(runDate)
	if err != nil {
		return fmt.Errorf("archive previous snapshot: %w", err)
	}
	if archived > 0 {
		log.Printf("Archived %d records from previous snapshot", archived)
	}
	metrics.Global.AddItemsArchived(archived)

	sources := cfg.EnabledSources()
	log.Printf("Fetching %d sources (policy target %d-%d, industry target %d-%d)",
		len(sources),
		cfg.TargetDailyCount.Policy.Min, cfg.TargetDailyCount.Policy.Max,
		cfg.TargetDailyCount.Industry.Min, cfg.TargetDailyCount.Industry.Max)

	reader := feed.NewReader()
	collector := news.NewCollector(runDate, cfg.IndustryKeywords)
	unfiltered := make(map[string]bool) // sources with no keyword prefilter

	for _, src := range sources {
		entries, err := reader.Fetch(src)
		if err != nil {
			log.Printf("  %s: fetch failed, skipping: %v", src.Name, err)
			metrics.Global.RecordSource(false)
			continue
		}
		metrics.Global.RecordSource(true)
		if len(entries) == 0 {
			log.Printf("  %s: no matching entries", src.Name)
			continue
		}
		if len(src.Keywords) == 0 {
			unfiltered[src.Name] = true
		}
		accepted := collector.Add(src, entries)
		metrics.Global.AddEntriesCollected(accepted)
		metrics.Global.AddDuplicatesFiltered(len(entries) - accepted)
		log.Printf("  %s: %d matched, %d accepted", src.Name, len(entries), accepted)
	}

	policy := window.CapPerRegion(
		window.Select(collector.Policy(), runDate, cfg.TargetDailyCount.Policy),
		cfg.PolicyPerRegionMax)
	industry := window.CapTotal(
		window.Select(collector.Industry(), runDate, cfg.TargetDailyCount.Industry),
		cfg.TargetDailyCount.Industry.Max)

	client, err := enrich.NewClient(ctx, cfg.GeminiAPIKey, cfg.AIFiltering)
	if err != nil {
		log.Printf("Enrichment unavailable, continuing without it: %v", err)
		client = nil
	}
	defer client.Close()
	if client == nil {
		log.Printf("Enrichment disabled")
	} else {
		needsCheck := func(item news.Item) bool { return unfiltered[item.SourceName] }
		policy = client.FilterRelevant(ctx, policy, cfg.AIFiltering.PromptPolicy, needsCheck)
		industry = client.FilterRelevant(ctx, industry, cfg.AIFiltering.PromptIndustry, needsCheck)
		client.TranslateItems(ctx, policy)
		client.TranslateItems(ctx, industry)
	}

	snap := renderSnapshot(policy, industry, runDate)
	if err := store.WriteSnapshot(snap); err != nil {
		metrics.Global.SetError(err.Error())
		return fmt.Errorf("write snapshot: %w", err)
	}

	metrics.Global.AddItemsSelected(len(policy) + len(industry))
	perRegion := ""
	for _, region := range []string{news.RegionMalaysia, news.RegionSingapore} {
		perRegion += fmt.Sprintf(" %s=%d", region, len(snap.RecentObservations[region]))
	}
	log.Printf("Snapshot written: policy%s, industry=%d, updated %s",
		perRegion, len(snap.IndustryObservations), snap.LastUpdated)

	if cost := client.Cost(); cost.Calls > 0 {
		metrics.Global.AddEnrichment(cost.Calls, cost.PromptTokens+cost.OutputTokens)
		log.Printf("Enrichment usage: %s", cost)
	}

	metrics.Global.SetLastRun(time.Since(start))
	return nil
}

// renderSnapshot turns the selected items into the published document.
func renderSnapshot(policy, industry []news.Item, runDate time.Time) *storage.Snapshot {
	snap := storage.NewSnapshot([]string{news.RegionMalaysia, news.RegionSingapore}, runDate)

	for _, item := range policy {
		entries, ok := snap.RecentObservations[item.Region]
		if !ok {
			// Policy items outside the tracked regions have no slot on the page.
			log.Printf("Dropping policy item with untracked region %q: %s", item.Region, item.Title)
			continue
		}
		snap.RecentObservations[item.Region] = append(entries, renderEntry(item, item.Region))
	}

	for _, item := range industry {
		tag := item.Industry
		if tag == "" {
			tag = news.IndustryOther
		}
		snap.IndustryObservations = append(snap.IndustryObservations, renderEntry(item, tag))
	}
	return snap
}

// renderEntry composes the display record. The label embeds the date and the
// region or industry tag; the archiver later reads the date back from it.
func renderEntry(item news.Item, tag string) storage.Entry {
	e := storage.Entry{
		Text:              fmt.Sprintf("[%s · %s] %s", item.Date, tag, item.Title),
		Link:              item.Link,
		Summary:           item.Summary,
		SummaryTranslated: item.SummaryTranslated,
	}
	if item.TitleTranslated != "" {
		e.TextTranslated = fmt.Sprintf("[%s · %s] %s", item.Date, tag, item.TitleTranslated)
	}
	return e
}
