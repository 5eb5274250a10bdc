package fetcher

// userAgent is the realistic browser identity presented to the site.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Fetcher turns a URL into rendered markup.
type Fetcher interface {
	// Fetch retrieves the rendered HTML of a top-level page
	Fetch(url string) (string, error)
	// FetchDetail retrieves a child-entity detail page with a shorter
	// settle delay
	FetchDetail(url string) (string, error)
}

// Session is a scoped rendering session. It must be released on every
// exit path; Close failures are reported so the caller can log them.
type Session interface {
	Fetcher
	Close() error
}
