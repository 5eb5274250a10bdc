package enrich

import (
	"errors"
	"os"
	"testing"

	"meritage-scraper/models"
	"meritage-scraper/store"
)

const baseURL = "https://www.meritagehomes.com"

const siteDetailHTML = `<html><body>
<article class="small-12 medium-10 large-8 column text-center pad-bottom-2">
	<p>Plan # 870</p>
	<p>Estimated Completion: June 2026</p>
	<p>Home Address: 200 Oak Ln</p>
	<p>This stunning single-story home offers an open layout.</p>
	<a class="plain" href="https://maps.google.com/maps?daddr=34.702,-86.748">Get Directions</a>
</article>
<ul>
	<li class="slick-slide orbit-slide"><span class="hidden-image" data-lazy="/images/g1.jpg"></span></li>
	<li class="slick-slide orbit-slide"><img class="orbit-image" src="https://cdn.example.com/g2.jpg"></li>
	<li class="slick-slide orbit-slide"><img class="orbit-image" src="/images/meritageLoadingCommunityHero.gif"></li>
</ul>
</body></html>`

const planDetailHTML = `<html><body>
<div class="small-12 large-6 column text align-middle text-left"><ul>
	<li>Granite countertops</li><li>Stainless appliances</li><li>Tile flooring</li>
	<li>Smart thermostat</li><li>LED lighting</li><li>Low-E windows</li>
	<li>Spray foam insulation</li><li>Tankless water heater</li>
</ul></div>
<div class="small-6 medium-6 large-4 column"><h3>Half Bathrooms</h3><span>1</span></div>
<div class="small-6 medium-6 large-4 column"><h3>Stories</h3><span>2</span></div>
<div class="tabs-content">
	<div class="tabs-panel"><img src="/floorplans/f1.jpg"></div>
	<div class="tabs-panel"><img src="/floorplans/f2.jpg"></div>
</div>
</body></html>`

// stubFetcher serves canned detail pages or a transport error.
type stubFetcher struct {
	html string
	err  error
}

func (s *stubFetcher) FetchDetail(url string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.html, nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return st
}

func strPtr(s string) *string { return &s }

func TestEnrichHomeSite(t *testing.T) {
	st := newTestStore(t)
	e := New(&stubFetcher{html: siteDetailHTML}, st, baseURL)

	site := &models.HomeSite{
		URL:    strPtr(baseURL + "/state/al/huntsville/madison-preserve/200-oak-ln"),
		Images: []string{},
	}
	e.EnrichHomeSite(site)

	if site.Latitude == nil || *site.Latitude != "34.702" {
		t.Errorf("latitude = %v, want 34.702", site.Latitude)
	}
	if site.Longitude == nil || *site.Longitude != "-86.748" {
		t.Errorf("longitude = %v, want -86.748", site.Longitude)
	}
	if site.Overview == nil || *site.Overview != "This stunning single-story home offers an open layout." {
		t.Errorf("overview = %v, want the descriptive paragraph", site.Overview)
	}

	wantImages := []string{
		baseURL + "/images/g1.jpg",
		"https://cdn.example.com/g2.jpg",
	}
	if len(site.Images) != len(wantImages) {
		t.Fatalf("got %d images, want %d: %v", len(site.Images), len(wantImages), site.Images)
	}
	for i := range wantImages {
		if site.Images[i] != wantImages[i] {
			t.Errorf("image %d = %q, want %q", i, site.Images[i], wantImages[i])
		}
	}

	snapshot := st.SnapshotPath("meritage_homesite_200-oak-ln")
	if _, err := os.Stat(snapshot); !os.IsNotExist(err) {
		t.Errorf("transient snapshot %s still exists after enrichment", snapshot)
	}
}

func TestEnrichHomeSiteFetchFailure(t *testing.T) {
	st := newTestStore(t)
	e := New(&stubFetcher{err: errors.New("navigation timeout")}, st, baseURL)

	site := &models.HomeSite{
		URL:    strPtr(baseURL + "/state/al/huntsville/madison-preserve/200-oak-ln"),
		Images: []string{},
	}
	e.EnrichHomeSite(site)

	if site.Latitude != nil || site.Overview != nil || len(site.Images) != 0 {
		t.Error("a failed enrichment must leave the entity unenriched")
	}

	snapshot := st.SnapshotPath("meritage_homesite_200-oak-ln")
	if _, err := os.Stat(snapshot); !os.IsNotExist(err) {
		t.Errorf("transient snapshot %s still exists after failed enrichment", snapshot)
	}
}

func TestEnrichHomeSiteNoURL(t *testing.T) {
	e := New(&stubFetcher{err: errors.New("must not be called")}, newTestStore(t), baseURL)
	site := &models.HomeSite{Images: []string{}}
	e.EnrichHomeSite(site)
	if site.Overview != nil {
		t.Error("a site without a detail URL must stay untouched")
	}
}

func TestEnrichHomePlan(t *testing.T) {
	st := newTestStore(t)
	e := New(&stubFetcher{html: planDetailHTML}, st, baseURL)

	plan := &models.HomePlan{
		URL:              strPtr(baseURL + "/homes/al/huntsville/madison-preserve/larkspur"),
		FloorplanImages:  []models.FloorplanImage{},
		IncludedFeatures: []models.Feature{},
	}
	e.EnrichHomePlan(plan)

	if len(plan.IncludedFeatures) != 8 {
		t.Fatalf("got %d features, want 8", len(plan.IncludedFeatures))
	}
	wantSections := []int{0, 0, 1, 1, 2, 2, 3, 3}
	for i, w := range wantSections {
		if plan.IncludedFeatures[i].SectionIndex != w {
			t.Errorf("feature %d section = %d, want %d", i, plan.IncludedFeatures[i].SectionIndex, w)
		}
	}

	if plan.Details.HalfBaths == nil || *plan.Details.HalfBaths != "1" {
		t.Errorf("half_baths = %v, want 1", plan.Details.HalfBaths)
	}

	if len(plan.FloorplanImages) != 2 {
		t.Fatalf("got %d floorplan images, want 2", len(plan.FloorplanImages))
	}
	want := []models.FloorplanImage{
		{Name: "1st Floor Floorplan", ImageURL: baseURL + "/floorplans/f1.jpg"},
		{Name: "2nd Floor Floorplan", ImageURL: baseURL + "/floorplans/f2.jpg"},
	}
	for i := range want {
		if plan.FloorplanImages[i] != want[i] {
			t.Errorf("floorplan %d = %+v, want %+v", i, plan.FloorplanImages[i], want[i])
		}
	}

	snapshot := st.SnapshotPath("meritage_larkspur")
	if _, err := os.Stat(snapshot); !os.IsNotExist(err) {
		t.Errorf("transient snapshot %s still exists after enrichment", snapshot)
	}
}

func TestEnrichHomePlanNonNumericStories(t *testing.T) {
	html := `<html><body>
	<div class="small-6 medium-6 large-4 column"><h3>Stories</h3><span>1 - 2</span></div>
	<div class="tabs-content"><div class="tabs-panel"><img src="/floorplans/f1.jpg"></div></div>
	</body></html>`
	e := New(&stubFetcher{html: html}, newTestStore(t), baseURL)

	plan := &models.HomePlan{
		URL:              strPtr(baseURL + "/homes/plan"),
		FloorplanImages:  []models.FloorplanImage{},
		IncludedFeatures: []models.Feature{},
	}
	e.EnrichHomePlan(plan)

	if len(plan.FloorplanImages) != 0 {
		t.Errorf("non-numeric story count must skip floorplan images, got %v", plan.FloorplanImages)
	}
}

func TestBucketFeatures(t *testing.T) {
	tests := []struct {
		name     string
		count    int
		expected []int
	}{
		{"ten features, remainder absorbed by last bucket", 10, []int{0, 0, 1, 1, 2, 2, 3, 3, 3, 3}},
		{"eight features, even split", 8, []int{0, 0, 1, 1, 2, 2, 3, 3}},
		{"four features", 4, []int{0, 1, 2, 3}},
		{"degenerate three features", 3, []int{0, 1, 2}},
		{"single feature", 1, []int{0}},
		{"none", 0, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			texts := make([]string, tt.count)
			for i := range texts {
				texts[i] = "feature"
			}
			got := BucketFeatures(texts)
			if len(got) != len(tt.expected) {
				t.Fatalf("got %d features, want %d", len(got), len(tt.expected))
			}
			for i, want := range tt.expected {
				if got[i].SectionIndex != want {
					t.Errorf("feature %d section = %d, want %d", i, got[i].SectionIndex, want)
				}
			}
		})
	}
}

func TestBucketFeaturesSkipsEmptyDescriptions(t *testing.T) {
	got := BucketFeatures([]string{"a", "", "b"})
	if len(got) != 2 {
		t.Fatalf("got %d features, want 2", len(got))
	}
	if got[0].Description != "a" || got[1].Description != "b" {
		t.Errorf("descriptions = %v", got)
	}
}

func TestOrdinalFloorLabel(t *testing.T) {
	tests := []struct {
		floor    int
		expected string
	}{
		{1, "1st Floor Floorplan"},
		{2, "2nd Floor Floorplan"},
		{3, "3rd Floor Floorplan"},
		{4, "4th Floor Floorplan"},
		{5, "5th Floor Floorplan"},
	}
	for _, tt := range tests {
		if got := ordinalFloorLabel(tt.floor); got != tt.expected {
			t.Errorf("ordinalFloorLabel(%d) = %q, want %q", tt.floor, got, tt.expected)
		}
	}
}
