// Package pipeline orchestrates a harvest run: it walks the frontier
// sequentially, skips already-materialized records, throttles between
// requests, and keeps one URL's failure away from the rest of the
// batch.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"meritage-scraper/enrich"
	"meritage-scraper/fetcher"
	"meritage-scraper/models"
	"meritage-scraper/parser"
	"meritage-scraper/store"
)

// SessionFactory opens a rendering session for one top-level fetch.
// The pipeline closes the session when the URL is done.
type SessionFactory func() (fetcher.Session, error)

// Sink receives each materialized community record.
type Sink interface {
	SaveCommunity(community *models.Community) error
}

// Summary reports the outcome of a run.
type Summary struct {
	Processed int
	Skipped   int
	Failed    int
	// Communities collects the records materialized during this run
	Communities []*models.Community
}

// Pipeline processes frontier URLs one at a time.
type Pipeline struct {
	store      *store.Store
	baseURL    string
	newSession SessionFactory
	rng        *rand.Rand
	limiter    *rate.Limiter
	sinks      []Sink
}

// New creates a Pipeline. interval is the minimum delay between
// consecutive top-level fetches; rng seeds the assembler's image
// fallback so runs are reproducible.
func New(st *store.Store, baseURL string, newSession SessionFactory, rng *rand.Rand, interval time.Duration, sinks ...Sink) *Pipeline {
	return &Pipeline{
		store:      st,
		baseURL:    baseURL,
		newSession: newSession,
		rng:        rng,
		limiter:    rate.NewLimiter(rate.Every(interval), 1),
		sinks:      sinks,
	}
}

// Run processes every frontier URL. A URL whose record already exists
// is skipped without a fetch; a URL that fails is logged and the loop
// continues.
func (p *Pipeline) Run(urls []string) *Summary {
	summary := &Summary{}

	for i, url := range urls {
		log.Printf("Processing URL %d/%d\n", i+1, len(urls))

		key := store.OutputKey(url)
		if p.store.RecordExists(key) {
			log.Printf("JSON file already exists: %s, skipping...\n", p.store.RecordPath(key))
			summary.Skipped++
			continue
		}

		// Politeness throttle between consecutive fetches
		if err := p.limiter.Wait(context.Background()); err != nil {
			log.Printf("Warning: Rate limiter interrupted: %v\n", err)
		}

		community, err := p.processURL(url, key)
		if err != nil {
			log.Printf("Failed to process URL %s: %v\n", url, err)
			summary.Failed++
			continue
		}
		summary.Processed++
		summary.Communities = append(summary.Communities, community)
	}

	return summary
}

// processURL runs the fetch, assemble, persist cycle for one URL
// inside its own rendering session.
func (p *Pipeline) processURL(url, key string) (*models.Community, error) {
	log.Printf("Processing URL: %s\n", url)

	session, err := p.newSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create rendering session: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Printf("Warning: Failed to close rendering session: %v\n", err)
		}
	}()

	html, err := session.Fetch(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}

	// The top-level snapshot is retained, unlike enrichment sub-fetches
	snapshot := p.store.SnapshotPath("meritage_" + key)
	if err := p.store.SaveSnapshot(snapshot, html); err != nil {
		log.Printf("Warning: %v\n", err)
	} else {
		log.Printf("HTML saved to: %s\n", snapshot)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	enricher := enrich.New(session, p.store, p.baseURL)
	communityParser := parser.NewCommunityParser(p.baseURL, p.rng, enricher)
	community := communityParser.Parse(doc, url)

	if err := p.store.SaveRecord(key, community); err != nil {
		return nil, err
	}
	log.Printf("Data saved to: %s\n", p.store.RecordPath(key))

	for _, sink := range p.sinks {
		if err := sink.SaveCommunity(community); err != nil {
			log.Printf("Warning: Failed to save community to sink: %v\n", err)
		}
	}

	return community, nil
}
