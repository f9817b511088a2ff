// Package fetcher downloads recipe pages over HTTP. It keeps a per-host
// adaptive rate limiter so repeated scrapes of the same blog back off when
// the site pushes back, and caps response bodies so a misbehaving server
// cannot balloon memory.
package fetcher

import (
	"context"
	"fmt"
)

// Page is a fetched HTML document. FinalURL reflects redirects, so the
// stored source URL points at the page that actually served the recipe.
type Page struct {
	FinalURL   string
	HTML       string
	StatusCode int
}

// Fetcher retrieves recipe pages.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Page, error)
}

// FetchError reports a non-2xx response. It is distinct from an extraction
// failure: the page was unreachable, not unparseable.
type FetchError struct {
	URL        string
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetcher: %s returned status %d", e.URL, e.StatusCode)
}
