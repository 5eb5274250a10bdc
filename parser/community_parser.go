package parser

import (
	"log"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"meritage-scraper/extract"
	"meritage-scraper/models"
)

// Enricher performs the secondary fetch-and-extract cycle for child
// entities that carry their own detail page. Implementations must
// contain their own failures; the assembler never sees them.
type Enricher interface {
	EnrichHomeSite(site *models.HomeSite)
	EnrichHomePlan(plan *models.HomePlan)
}

// CommunityParser assembles a Community record from a rendered detail
// page by running the extraction rules against the page's structural
// anchors.
type CommunityParser struct {
	baseURL  string
	rng      *rand.Rand
	enricher Enricher
}

// NewCommunityParser creates a new CommunityParser. rng drives the
// image fallback selection and is injected so runs are reproducible;
// enricher may be nil to skip child detail pages entirely.
func NewCommunityParser(baseURL string, rng *rand.Rand, enricher Enricher) *CommunityParser {
	return &CommunityParser{
		baseURL:  baseURL,
		rng:      rng,
		enricher: enricher,
	}
}

// Parse builds the full Community record for one detail page. Missing
// sections produce empty lists, never errors.
func (p *CommunityParser) Parse(doc *goquery.Document, pageURL string) *models.Community {
	community := models.NewCommunity(pageURL, time.Now().Format(time.RFC3339))

	// Community name from the overview article heading
	h1 := doc.Find("div.community-detail-overview article h1").First()
	if h1.Length() > 0 {
		name := strings.TrimSpace(h1.Text())
		community.Name = &name
		log.Printf("Found community name: %s\n", name)
	}

	fullText := doc.Text()

	if price := extract.StartingPrice(fullText); price != nil {
		community.PriceFrom = price
		community.Details.PriceRange = price
		log.Printf("Found price: %s\n", *price)
	}

	locationElem := doc.Find("div#community-driving-directions--location").First()
	if locationElem.Length() > 0 {
		addrP := locationElem.Find("div.has-dividers p").First()
		if addrP.Length() > 0 {
			addr := strings.TrimSpace(addrP.Text())
			community.Address = &addr
		}
		if lat, ok := locationElem.Attr("data-lat"); ok {
			community.Location.Latitude = &lat
		}
		if long, ok := locationElem.Attr("data-long"); ok {
			community.Location.Longitude = &long
		}
	}

	if desc, ok := doc.Find("meta[name='description']").Attr("content"); ok {
		trimmed := strings.TrimSpace(desc)
		community.Description = &trimmed
	}

	// Hero image from the first orbit slide, lazily-loaded span preferred
	firstSlide := doc.Find("li.slick-slide.orbit-slide").First()
	if firstSlide.Length() > 0 {
		span := firstSlide.Find("span[data-lazy]").First()
		if span.Length() > 0 {
			src := span.AttrOr("src", span.AttrOr("data-csrc", ""))
			if src != "" && !extract.IsPlaceholder(src) {
				community.Images = append(community.Images, extract.ResolveURL(p.baseURL, src))
			}
		}
	}

	community.Details.SqftRange = extract.SqftRange(fullText)

	const detailCol = "div.small-6.medium-6.large-3.column"
	community.Details.BedRange = extract.LabeledColumn(doc, detailCol, "Bedrooms")
	community.Details.BathRange = extract.LabeledColumn(doc, detailCol, "Full Bathrooms")
	community.Details.StoriesRange = extract.LabeledColumn(doc, detailCol, "Stories")

	community.NearbyPlaces = p.parseNearbyPlaces(doc)

	p.parseHomeSites(doc, community)
	p.parseHomePlans(doc, community)

	p.applyImageFallback(community)

	return community
}

// parseNearbyPlaces groups points of interest under the nearest
// preceding category heading.
func (p *CommunityParser) parseNearbyPlaces(doc *goquery.Document) []*models.NearbyPlace {
	places := []*models.NearbyPlace{}
	doc.Find("div.multicol").Each(func(i int, group *goquery.Selection) {
		var category *string
		if h5 := group.Find("h5").First(); h5.Length() > 0 {
			c := strings.TrimSpace(h5.Text())
			category = &c
		}
		group.Find("span.plain").Each(func(j int, link *goquery.Selection) {
			places = append(places, &models.NearbyPlace{
				Name:     strings.TrimSpace(link.Text()),
				Category: category,
			})
		})
	})
	return places
}

// parseHomeSites extracts the quick move-in rows and enriches each one
// from its own detail page.
func (p *CommunityParser) parseHomeSites(doc *goquery.Document, community *models.Community) {
	section := doc.Find("section[aria-label='Quick Move Ins']").First()
	if section.Length() == 0 {
		return
	}

	section.Find("div.qmi-vertical").Each(func(index int, qmi *goquery.Selection) {
		mid := qmi.Find("div.content div.mid").First()
		if mid.Length() == 0 {
			return
		}

		site := &models.HomeSite{
			ID:     strconv.Itoa(index + 1),
			Status: "Available",
			Images: []string{},
		}

		if addrP := mid.Find("p").First(); addrP.Length() > 0 {
			// Collapse newlines and runs of spaces in the address
			addr := strings.Join(strings.Fields(addrP.Text()), " ")
			if addr != "" {
				site.Address = &addr
				name := extract.StripTrailingZip(addr)
				site.Name = &name
			}
		}

		h3 := mid.Find("h3").First()
		if h3.Length() > 0 {
			plan := strings.TrimSpace(h3.Text())
			site.Plan = &plan
			if href, ok := h3.Find("a").First().Attr("href"); ok {
				u := extract.ResolveURL(p.baseURL, href)
				site.URL = &u
			}
		}

		if top := mid.Find("div.top-details").First(); top.Length() > 0 {
			price := strings.TrimSpace(top.Text())
			site.Price = &price
		}
		if bottom := mid.Find("div.bottom-details").First(); bottom.Length() > 0 {
			text := bottom.Text()
			site.Beds = extract.RowBeds(text)
			site.Baths = extract.RowBaths(text)
			site.Sqft = extract.RowSqft(text)
		}

		if img := qmi.Find("div.image img").First(); img.Length() > 0 {
			if src := extract.ImageSrc(img); src != "" && !extract.IsPlaceholder(src) {
				u := extract.ResolveURL(p.baseURL, src)
				site.ImageURL = &u
			}
		}

		if p.enricher != nil && site.URL != nil {
			p.enricher.EnrichHomeSite(site)
		}

		community.HomeSites = append(community.HomeSites, site)
		if site.Name != nil {
			log.Printf("Added homesite: %s\n", *site.Name)
		}
	})
}

// parseHomePlans extracts the floor plan rows and enriches each one
// from its own detail page.
func (p *CommunityParser) parseHomePlans(doc *goquery.Document, community *models.Community) {
	doc.Find("div.row.columns.collapse.floorplan-vertical").Each(func(i int, row *goquery.Selection) {
		plan := &models.HomePlan{
			Details:          models.HomePlanDetails{Status: "Actively selling"},
			FloorplanImages:  []models.FloorplanImage{},
			IncludedFeatures: []models.Feature{},
		}

		h3 := row.Find("div.content h3").First()
		if h3.Length() > 0 {
			name := strings.TrimSpace(h3.Text())
			plan.Name = &name
			if href, ok := h3.Find("a").First().Attr("href"); ok {
				u := extract.ResolveURL(p.baseURL, href)
				plan.URL = &u
			}
		}

		if top := row.Find("div.top-details").First(); top.Length() > 0 {
			price := strings.TrimSpace(top.Text())
			plan.Details.Price = &price
		}
		if bottom := row.Find("div.bottom-details").First(); bottom.Length() > 0 {
			text := bottom.Text()
			plan.Details.Beds = extract.RowBeds(text)
			plan.Details.Baths = extract.RowBaths(text)
			plan.Details.Sqft = extract.RowSqft(text)
		}

		if imgContainer := row.Find("div.image").First(); imgContainer.Length() > 0 {
			if lazy := extract.LazyScriptImage(imgContainer, p.baseURL); lazy != nil {
				plan.Details.ImageURL = lazy
			} else if img := imgContainer.Find("img").First(); img.Length() > 0 {
				if src := extract.ImageSrc(img); src != "" && !extract.IsPlaceholder(src) {
					u := extract.ResolveURL(p.baseURL, src)
					plan.Details.ImageURL = &u
				}
			}
		}

		if p.enricher != nil && plan.URL != nil {
			p.enricher.EnrichHomePlan(plan)
		}

		community.HomePlans = append(community.HomePlans, plan)
		if plan.Name != nil {
			log.Printf("Added plan: %s\n", *plan.Name)
		}
	})
}

// applyImageFallback fills an empty top-level image list with one image
// chosen uniformly from the union of plan and site images.
func (p *CommunityParser) applyImageFallback(community *models.Community) {
	if len(community.Images) > 0 {
		return
	}

	var available []string
	for _, plan := range community.HomePlans {
		if plan.Details.ImageURL != nil {
			available = append(available, *plan.Details.ImageURL)
		}
	}
	for _, site := range community.HomeSites {
		if site.ImageURL != nil {
			available = append(available, *site.ImageURL)
		}
		available = append(available, site.Images...)
	}

	if len(available) > 0 {
		community.Images = []string{available[p.rng.Intn(len(available))]}
		log.Printf("Added fallback image to main images array\n")
	}
}
