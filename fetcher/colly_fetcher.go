package fetcher

import (
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"
)

// CollyFetcher implements the Session interface using colly. It only
// sees server-rendered markup, so it is a fallback for environments
// without a browser; JavaScript-populated sections come back empty.
type CollyFetcher struct {
	collector *colly.Collector
}

// NewCollyFetcher creates a new CollyFetcher instance
func NewCollyFetcher() *CollyFetcher {
	c := colly.NewCollector(
		colly.UserAgent(userAgent),
	)

	c.Limit(&colly.LimitRule{
		DomainGlob:  "*meritagehomes.*",
		Parallelism: 1,
		Delay:       2 * time.Second,
	})

	return &CollyFetcher{
		collector: c,
	}
}

// Close implements the Session interface; there is no browser to release.
func (cf *CollyFetcher) Close() error {
	return nil
}

// Fetch implements the Fetcher interface
func (cf *CollyFetcher) Fetch(url string) (string, error) {
	return cf.fetch(url)
}

// FetchDetail implements the Fetcher interface
func (cf *CollyFetcher) FetchDetail(url string) (string, error) {
	return cf.fetch(url)
}

func (cf *CollyFetcher) fetch(url string) (string, error) {
	c := cf.collector.Clone()

	var body string
	var fetchErr error

	c.OnResponse(func(r *colly.Response) {
		body = string(r.Body)
	})
	c.OnError(func(r *colly.Response, err error) {
		fetchErr = err
	})

	if err := c.Visit(url); err != nil {
		return "", fmt.Errorf("failed to visit URL: %w", err)
	}
	c.Wait()

	if fetchErr != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", url, fetchErr)
	}
	if body == "" {
		return "", fmt.Errorf("empty response from %s", url)
	}

	return body, nil
}
