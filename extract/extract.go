// Package extract holds the field extraction rules used to turn page
// fragments into typed values. Every extractor is pure: it operates on
// the fragment it is given, performs no network I/O, and reports a
// missing anchor or a non-matching pattern as nil, never as an error.
package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// placeholderSuffix marks the site's loading-spinner image, which must
// never be collected as a real listing image.
const placeholderSuffix = "meritageLoadingCommunityHero.gif"

var (
	priceRe         = regexp.MustCompile(`\$[\d,]+`)
	bedsRe          = regexp.MustCompile(`(\d+)\s*(?:Bedroom|Bed|BR)`)
	bathsRe         = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:Bathroom|Bath|BA)`)
	sqftRe          = regexp.MustCompile(`([\d,]+)\s*sq\s*ft`)
	startingAtRe    = regexp.MustCompile(`Starting at\s+(\$[\d,]+)`)
	sqftRangeRe     = regexp.MustCompile(`Approx\.\s+Sq\.\s+Ft\.\s+([\d,]+)\s*-\s*([\d,]+)`)
	rowBedsRe       = regexp.MustCompile(`Bed\s+(\d+)`)
	rowBathsRe      = regexp.MustCompile(`Bath\s+(\d+)`)
	rowSqftRe       = regexp.MustCompile(`Approx\.\s+([\d,]+)\s+sq\.\s+ft\.`)
	mapCoordsRe     = regexp.MustCompile(`daddr=([-\d.]+),([-\d.]+)`)
	trailingZipRe   = regexp.MustCompile(`\s+\d{5}$`)
	lazyScriptImgRe = regexp.MustCompile(`<img[^>]*src="([^"]*)"`)
)

// Price returns the first $-prefixed digit group in text.
func Price(text string) *string {
	if text == "" {
		return nil
	}
	if m := priceRe.FindString(text); m != "" {
		return &m
	}
	return nil
}

// BedsBaths returns the bed and bath counts found in free text,
// accepting the Bedroom/Bed/BR and Bathroom/Bath/BA synonyms.
func BedsBaths(text string) (*string, *string) {
	if text == "" {
		return nil, nil
	}
	var beds, baths *string
	if m := bedsRe.FindStringSubmatch(text); m != nil {
		beds = &m[1]
	}
	if m := bathsRe.FindStringSubmatch(text); m != nil {
		baths = &m[1]
	}
	return beds, baths
}

// Sqft returns the comma-stripped square footage preceding "sq ft".
func Sqft(text string) *string {
	if text == "" {
		return nil
	}
	if m := sqftRe.FindStringSubmatch(strings.ToLower(text)); m != nil {
		v := strings.ReplaceAll(m[1], ",", "")
		return &v
	}
	return nil
}

// StartingPrice finds the "Starting at $N" line and phrases it as the
// downstream "From $N" form.
func StartingPrice(text string) *string {
	if m := startingAtRe.FindStringSubmatch(text); m != nil {
		v := "From " + m[1]
		return &v
	}
	return nil
}

// SqftRange finds the "Approx. Sq. Ft. A - B" line.
func SqftRange(text string) *string {
	if m := sqftRangeRe.FindStringSubmatch(text); m != nil {
		v := m[1] + " - " + m[2]
		return &v
	}
	return nil
}

// RowBeds extracts the bed count from a listing-row details line,
// suffixed "bd".
func RowBeds(text string) *string {
	if m := rowBedsRe.FindStringSubmatch(text); m != nil {
		v := m[1] + "bd"
		return &v
	}
	return nil
}

// RowBaths extracts the bath count from a listing-row details line,
// suffixed "ba".
func RowBaths(text string) *string {
	if m := rowBathsRe.FindStringSubmatch(text); m != nil {
		v := m[1] + "ba"
		return &v
	}
	return nil
}

// RowSqft extracts the square footage from a listing-row details line,
// suffixed with the ft² unit.
func RowSqft(text string) *string {
	if m := rowSqftRe.FindStringSubmatch(text); m != nil {
		v := m[1] + " ft²"
		return &v
	}
	return nil
}

// MapCoords pulls the destination coordinates out of a Google Maps
// driving-directions link.
func MapCoords(href string) (*string, *string) {
	if m := mapCoordsRe.FindStringSubmatch(href); m != nil {
		return &m[1], &m[2]
	}
	return nil, nil
}

// StripTrailingZip derives the short display name from an address by
// removing the trailing 5-digit postal code.
func StripTrailingZip(address string) string {
	return trailingZipRe.ReplaceAllString(address, "")
}

// ResolveURL resolves href against the site origin. Absolute URLs pass
// through unchanged.
func ResolveURL(base, href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http") {
		return href
	}
	return base + href
}

// IsPlaceholder reports whether src is the loading-spinner image.
func IsPlaceholder(src string) bool {
	return strings.HasSuffix(src, placeholderSuffix)
}

// ImageSrc returns the image source of an img selection, preferring
// src over the data-csrc fallback attribute.
func ImageSrc(img *goquery.Selection) string {
	if src, ok := img.Attr("src"); ok && src != "" {
		return src
	}
	return img.AttrOr("data-csrc", "")
}

// LabeledColumn scans the columns matching colSelector for an h3 with
// the exact label text and returns its sibling span value.
func LabeledColumn(doc *goquery.Document, colSelector, label string) *string {
	var value *string
	doc.Find(colSelector).EachWithBreak(func(i int, col *goquery.Selection) bool {
		h3 := col.Find("h3").First()
		if h3.Length() == 0 || strings.TrimSpace(h3.Text()) != label {
			return true
		}
		span := h3.NextAllFiltered("span").First()
		if span.Length() > 0 {
			v := strings.TrimSpace(span.Text())
			value = &v
		}
		return false
	})
	return value
}

// SlideImages collects the ordered gallery from the orbit slides,
// preferring the lazily-loaded hidden image over the eager one and
// dropping placeholder frames.
func SlideImages(doc *goquery.Document, base string) []string {
	var images []string
	doc.Find("li.slick-slide.orbit-slide").Each(func(i int, slide *goquery.Selection) {
		hidden := slide.Find("span.hidden-image").First()
		if src, ok := hidden.Attr("data-lazy"); ok && src != "" {
			if !IsPlaceholder(src) {
				images = append(images, ResolveURL(base, src))
			}
			return
		}
		img := slide.Find("img.orbit-image").First()
		if img.Length() == 0 {
			return
		}
		if src := ImageSrc(img); src != "" && !IsPlaceholder(src) {
			images = append(images, ResolveURL(base, src))
		}
	})
	return images
}

// LazyScriptImage extracts the image source embedded in a
// text/lazyload script block.
func LazyScriptImage(container *goquery.Selection, base string) *string {
	script := container.Find("script[type='text/lazyload']").First()
	if script.Length() == 0 {
		return nil
	}
	if m := lazyScriptImgRe.FindStringSubmatch(script.Text()); m != nil && m[1] != "" {
		v := ResolveURL(base, m[1])
		return &v
	}
	return nil
}
