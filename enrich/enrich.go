// Package enrich drives the fetch, extract, cleanup cycle for child
// entities that have their own detail pages. A failure enriching one
// entity is logged and swallowed; it never reaches the sibling
// entities or the parent record.
package enrich

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"meritage-scraper/extract"
	"meritage-scraper/models"
	"meritage-scraper/store"
)

// DetailFetcher fetches the detail page of a child entity.
type DetailFetcher interface {
	FetchDetail(url string) (string, error)
}

// Enricher enriches home sites and home plans in place.
type Enricher struct {
	fetcher DetailFetcher
	store   *store.Store
	baseURL string
}

// New creates a new Enricher.
func New(fetcher DetailFetcher, st *store.Store, baseURL string) *Enricher {
	return &Enricher{
		fetcher: fetcher,
		store:   st,
		baseURL: baseURL,
	}
}

// EnrichHomeSite fills coordinates, overview and the image gallery
// from the home site's detail page. The transient snapshot is removed
// whether or not extraction succeeds.
func (e *Enricher) EnrichHomeSite(site *models.HomeSite) {
	if site.URL == nil {
		return
	}
	snapshot := e.store.SnapshotPath("meritage_homesite_" + store.OutputKey(*site.URL))
	defer e.store.RemoveSnapshot(snapshot)

	doc, err := e.fetchDetail(*site.URL, snapshot)
	if err != nil {
		log.Printf("Error processing homesite page %s: %v\n", *site.URL, err)
		return
	}

	article := doc.Find("article.small-12.medium-10.large-8.column.text-center.pad-bottom-2").First()
	if article.Length() > 0 {
		mapLink := article.Find("a.plain[href*='maps.google.com']").First()
		if href, ok := mapLink.Attr("href"); ok {
			site.Latitude, site.Longitude = extract.MapCoords(href)
			if site.Latitude != nil {
				log.Printf("Found coordinates: %s, %s\n", *site.Latitude, *site.Longitude)
			}
		}

		site.Overview = siteOverview(article)
	}

	if images := extract.SlideImages(doc, e.baseURL); len(images) > 0 {
		site.Images = images
	}
	log.Printf("Found %d images for homesite\n", len(site.Images))
}

// EnrichHomePlan fills included features, half baths, story count and
// per-story floorplan images from the plan's detail page. The
// transient snapshot is removed whether or not extraction succeeds.
func (e *Enricher) EnrichHomePlan(plan *models.HomePlan) {
	if plan.URL == nil {
		return
	}
	snapshot := e.store.SnapshotPath("meritage_" + store.OutputKey(*plan.URL))
	defer e.store.RemoveSnapshot(snapshot)

	doc, err := e.fetchDetail(*plan.URL, snapshot)
	if err != nil {
		log.Printf("Error processing plan page %s: %v\n", *plan.URL, err)
		return
	}

	var featureTexts []string
	doc.Find("div.small-12.large-6.column.text.align-middle.text-left").Each(func(i int, section *goquery.Selection) {
		section.Find("ul").First().Find("li").Each(func(j int, li *goquery.Selection) {
			featureTexts = append(featureTexts, strings.TrimSpace(li.Text()))
		})
	})
	plan.IncludedFeatures = BucketFeatures(featureTexts)
	log.Printf("Added %d included features\n", len(plan.IncludedFeatures))

	const planCol = "div.small-6.medium-6.large-4.column"
	plan.Details.HalfBaths = extract.LabeledColumn(doc, planCol, "Half Bathrooms")

	// A non-numeric story count means unknown: skip floorplan images
	if storiesText := extract.LabeledColumn(doc, planCol, "Stories"); storiesText != nil {
		if stories, err := strconv.Atoi(strings.TrimSpace(*storiesText)); err == nil {
			plan.FloorplanImages = e.floorplanImages(doc, stories)
		}
	}
}

// fetchDetail fetches a child detail page, persists the transient
// snapshot, and parses the markup.
func (e *Enricher) fetchDetail(url, snapshot string) (*goquery.Document, error) {
	html, err := e.fetcher.FetchDetail(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch detail page: %w", err)
	}
	if err := e.store.SaveSnapshot(snapshot, html); err != nil {
		log.Printf("Warning: %v\n", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse detail page: %w", err)
	}
	return doc, nil
}

// siteOverview picks the first paragraph that is not a plan-number
// line, a completion-date line, or an address line.
func siteOverview(article *goquery.Selection) *string {
	var overview *string
	article.Find("p").EachWithBreak(func(i int, p *goquery.Selection) bool {
		text := strings.TrimSpace(p.Text())
		if text == "" ||
			strings.HasPrefix(text, "Plan #") ||
			strings.Contains(text, "Estimated Completion") ||
			strings.Contains(text, "Home Address") {
			return true
		}
		overview = &text
		return false
	})
	return overview
}

// floorplanImages pairs each story with an ordinal label and the image
// from the story's tabbed panel, falling back to the first panel.
func (e *Enricher) floorplanImages(doc *goquery.Document, stories int) []models.FloorplanImage {
	images := []models.FloorplanImage{}
	panels := doc.Find("div.tabs-content div.tabs-panel")
	for i := 1; i <= stories; i++ {
		panel := panels.Eq(i - 1)
		if panel.Length() == 0 {
			panel = panels.First()
		}
		img := panel.Find("img").First()
		if img.Length() == 0 {
			continue
		}
		src := extract.ImageSrc(img)
		if src == "" || extract.IsPlaceholder(src) {
			continue
		}
		images = append(images, models.FloorplanImage{
			Name:     ordinalFloorLabel(i),
			ImageURL: extract.ResolveURL(e.baseURL, src),
		})
	}
	return images
}

// BucketFeatures assigns each feature to one of at most four sections.
// Each section holds total/4 features, the last absorbs the remainder.
// Empty descriptions count toward the total but are not emitted.
func BucketFeatures(texts []string) []models.Feature {
	total := len(texts)
	perSection := 0
	if total > 0 {
		perSection = total / 4
	}

	features := []models.Feature{}
	section := 0
	count := 0
	for _, text := range texts {
		if text == "" {
			continue
		}
		features = append(features, models.Feature{
			Description:  text,
			SectionIndex: section,
		})
		count++
		if count >= (section+1)*perSection && section < 3 {
			section++
		}
	}
	return features
}

// ordinalFloorLabel formats the floor label for story i.
func ordinalFloorLabel(i int) string {
	switch i {
	case 1:
		return "1st Floor Floorplan"
	case 2:
		return "2nd Floor Floorplan"
	case 3:
		return "3rd Floor Floorplan"
	default:
		return fmt.Sprintf("%dth Floor Floorplan", i)
	}
}
