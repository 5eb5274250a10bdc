package models

// Community is the root record harvested from a community detail page.
// Field names and nesting mirror the JSON document consumed downstream,
// so nullable scalars are pointers and every list serializes as an
// array, never null.
type Community struct {
	Timestamp    string           `json:"timestamp"`
	Name         *string          `json:"name"`
	Status       *string          `json:"status"`
	URL          string           `json:"url"`
	PriceFrom    *string          `json:"price_from"`
	Address      *string          `json:"address"`
	Phone        *string          `json:"phone"`
	Description  *string          `json:"description"`
	Images       []string         `json:"images"`
	Location     Location         `json:"location"`
	Details      CommunityDetails `json:"details"`
	Amenities    []string         `json:"amenities"`
	HomePlans    []*HomePlan      `json:"homeplans"`
	HomeSites    []*HomeSite      `json:"homesites"`
	NearbyPlaces []*NearbyPlace   `json:"nearbyplaces"`
	Collections  []*Collection    `json:"collections"`
}

// NewCommunity returns a Community with every list initialized so the
// serialized document always contains arrays.
func NewCommunity(url, timestamp string) *Community {
	return &Community{
		Timestamp:    timestamp,
		URL:          url,
		Images:       []string{},
		Amenities:    []string{},
		HomePlans:    []*HomePlan{},
		HomeSites:    []*HomeSite{},
		NearbyPlaces: []*NearbyPlace{},
		Collections:  []*Collection{},
		Details:      CommunityDetails{CommunityCount: 1},
	}
}

// Location holds the community coordinates and structured address.
// Coordinates are kept as the raw attribute text from the page.
type Location struct {
	Latitude  *string `json:"latitude"`
	Longitude *string `json:"longitude"`
	Address   Address `json:"address"`
}

// Address is the structured city/state/market breakdown.
type Address struct {
	City   *string `json:"city"`
	State  *string `json:"state"`
	Market *string `json:"market"`
}

// CommunityDetails is the ranges block shown on the detail page.
type CommunityDetails struct {
	PriceRange     *string `json:"price_range"`
	SqftRange      *string `json:"sqft_range"`
	BedRange       *string `json:"bed_range"`
	BathRange      *string `json:"bath_range"`
	StoriesRange   *string `json:"stories_range"`
	CommunityCount int     `json:"community_count"`
}

// HomePlan is a floor plan offered by the community.
type HomePlan struct {
	Name             *string          `json:"name"`
	URL              *string          `json:"url"`
	Details          HomePlanDetails  `json:"details"`
	FloorplanImages  []FloorplanImage `json:"floorplan_images"`
	IncludedFeatures []Feature        `json:"includedFeatures"`
}

// HomePlanDetails carries the per-plan scalar attributes.
type HomePlanDetails struct {
	Price     *string `json:"price"`
	Beds      *string `json:"beds"`
	Baths     *string `json:"baths"`
	HalfBaths *string `json:"half_baths"`
	Sqft      *string `json:"sqft"`
	Status    string  `json:"status"`
	ImageURL  *string `json:"image_url"`
}

// FloorplanImage pairs an ordinal floor label with its image.
type FloorplanImage struct {
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
}

// Feature is one included-feature line, bucketed into a section.
type Feature struct {
	Description  string `json:"description"`
	SectionIndex int    `json:"section_index"`
}

// HomeSite is a move-in-ready home listed in the quick move-in section.
type HomeSite struct {
	Address   *string  `json:"address"`
	Name      *string  `json:"name"`
	Plan      *string  `json:"plan"`
	ID        string   `json:"id"`
	Price     *string  `json:"price"`
	Beds      *string  `json:"beds"`
	Baths     *string  `json:"baths"`
	Sqft      *string  `json:"sqft"`
	Status    string   `json:"status"`
	ImageURL  *string  `json:"image_url"`
	URL       *string  `json:"url"`
	Latitude  *string  `json:"latitude"`
	Longitude *string  `json:"longitude"`
	Overview  *string  `json:"overview"`
	Images    []string `json:"images"`
}

// NearbyPlace is a point of interest grouped under a category heading.
// Distance, rating and reviews are reserved for future population.
type NearbyPlace struct {
	Name     string   `json:"name"`
	Category *string  `json:"category"`
	Distance *string  `json:"distance"`
	Rating   *float64 `json:"rating"`
	Reviews  *int     `json:"reviews"`
}

// Collection is a named series of plans. The current markup exposes
// none, but the output schema keeps the array for consumers.
type Collection struct {
	Name string `json:"name"`
}
