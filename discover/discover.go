// Package discover builds the crawl frontier with two levels of link
// discovery: the site index yields region pages, and each region page
// yields community detail links.
package discover

import (
	"fmt"
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"meritage-scraper/extract"
	"meritage-scraper/fetcher"
	"meritage-scraper/store"
)

// Discoverer walks the site's navigation pages and persists the
// deduplicated frontier.
type Discoverer struct {
	fetcher  fetcher.Fetcher
	store    *store.Store
	baseURL  string
	startURL string
}

// New creates a new Discoverer.
func New(f fetcher.Fetcher, st *store.Store, baseURL, startURL string) *Discoverer {
	return &Discoverer{
		fetcher:  f,
		store:    st,
		baseURL:  baseURL,
		startURL: startURL,
	}
}

// Run performs both discovery levels and writes the frontier file.
// Zero region links is fatal for the run; a single region page failure
// only drops that region.
func (d *Discoverer) Run(frontierPath string) error {
	regionLinks, err := d.RegionLinks()
	if err != nil {
		return err
	}
	log.Printf("Found %d region links\n", len(regionLinks))
	if len(regionLinks) == 0 {
		return fmt.Errorf("no region links found")
	}

	communityLinks := d.CommunityLinks(regionLinks)
	log.Printf("Found %d community links\n", len(communityLinks))
	if len(communityLinks) == 0 {
		return fmt.Errorf("no community links found")
	}

	if err := store.SaveFrontier(frontierPath, communityLinks); err != nil {
		return err
	}
	log.Printf("Links have been saved to %s\n", frontierPath)
	return nil
}

// RegionLinks fetches the site index and extracts the region page
// links in first-seen order. The index snapshot is retained.
func (d *Discoverer) RegionLinks() ([]string, error) {
	log.Printf("Starting to fetch initial page...\n")
	html, err := d.fetcher.Fetch(d.startURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch initial page: %w", err)
	}

	snapshot := d.store.SnapshotPath("meritage_initial")
	if err := d.store.SaveSnapshot(snapshot, html); err != nil {
		log.Printf("Warning: %v\n", err)
	}

	links, err := ParseRegionLinks(html, d.baseURL)
	if err != nil {
		return nil, err
	}
	for _, link := range links {
		log.Printf("Found region link: %s\n", link)
	}
	return links, nil
}

// CommunityLinks fetches each region page and accumulates the detail
// page links. A region failure is logged and discovery continues.
func (d *Discoverer) CommunityLinks(regionLinks []string) []string {
	var all []string
	seen := make(map[string]bool)

	for _, regionURL := range regionLinks {
		log.Printf("Processing URL: %s\n", regionURL)
		html, err := d.fetcher.Fetch(regionURL)
		if err != nil {
			log.Printf("Error processing URL %s: %v\n", regionURL, err)
			continue
		}

		snapshot := d.store.SnapshotPath("meritage_" + store.OutputKey(regionURL))
		if err := d.store.SaveSnapshot(snapshot, html); err != nil {
			log.Printf("Warning: %v\n", err)
		}

		links, err := ParseCommunityLinks(html, d.baseURL)
		if err != nil {
			log.Printf("Error parsing region page %s: %v\n", regionURL, err)
			continue
		}
		for _, link := range links {
			if !seen[link] {
				seen[link] = true
				all = append(all, link)
				log.Printf("Found community link: %s\n", link)
			}
		}
	}

	return all
}

// ParseRegionLinks extracts every region link from the site index,
// normalized and deduplicated in first-seen order.
func ParseRegionLinks(html, baseURL string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse index page: %w", err)
	}

	var links []string
	seen := make(map[string]bool)
	doc.Find("a.city-link").Each(func(i int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || href == "" {
			return
		}
		link := extract.ResolveURL(baseURL, href)
		if !seen[link] {
			seen[link] = true
			links = append(links, link)
		}
	})
	return links, nil
}

// ParseCommunityLinks extracts the detail-page call-to-action links
// inside community cards on a region page.
func ParseCommunityLinks(html, baseURL string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse region page: %w", err)
	}

	var links []string
	seen := make(map[string]bool)
	doc.Find("div.community-horizontal").Each(func(i int, card *goquery.Selection) {
		card.Find("a.button--blue--solid").Each(func(j int, a *goquery.Selection) {
			href, ok := a.Attr("href")
			if !ok || href == "" {
				return
			}
			link := extract.ResolveURL(baseURL, href)
			if !seen[link] {
				seen[link] = true
				links = append(links, link)
			}
		})
	})
	return links, nil
}
