// Package fetcher retrieves the exposure-site listing page.
package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Engine names a fetch implementation.
type Engine string

const (
	// EngineHTTP fetches with net/http.
	EngineHTTP Engine = "http"
	// EngineColly fetches with a colly collector.
	EngineColly Engine = "colly"
)

const (
	// DefaultTimeout bounds a single request.
	DefaultTimeout = 30 * time.Second
	// DefaultUserAgent identifies the watcher to the site.
	DefaultUserAgent = "exposure-watch/1.0 (+https://github.com/jonesrussell/exposure-watch)"
)

// Validators are the cache validators from a previous response, sent as
// If-None-Match and If-Modified-Since. Empty fields are omitted.
type Validators struct {
	ETag         string
	LastModified string
}

// Response is the result of a successful fetch.
type Response struct {
	StatusCode   int
	Body         []byte
	ETag         string
	LastModified string
}

// NotModified reports whether the server answered 304.
func (r *Response) NotModified() bool {
	return r.StatusCode == http.StatusNotModified
}

// Validators returns the cache validators carried by the response.
func (r *Response) Validators() Validators {
	return Validators{ETag: r.ETag, LastModified: r.LastModified}
}

//go:generate mockgen -destination=../../testutils/mocks/fetcher/fetcher.go -package=fetcher github.com/jonesrussell/exposure-watch/internal/fetcher Fetcher

// Fetcher performs one unauthenticated GET of url. A 200 or 304 yields a
// Response; any other outcome yields a *FetchError.
type Fetcher interface {
	Fetch(ctx context.Context, url string, v Validators) (*Response, error)
}

// Options configures New.
type Options struct {
	Engine    Engine
	Timeout   time.Duration
	UserAgent string
}

func (o *Options) setDefaults() {
	if o.Engine == "" {
		o.Engine = EngineHTTP
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
}

// New builds the Fetcher for opts.Engine.
func New(opts Options) (Fetcher, error) {
	opts.setDefaults()

	switch opts.Engine {
	case EngineHTTP:
		return NewHTTPFetcher(NewHTTPClient(opts.Timeout), opts.UserAgent), nil
	case EngineColly:
		return NewCollyFetcher(opts.Timeout, opts.UserAgent), nil
	default:
		return nil, fmt.Errorf("unknown fetch engine %q", opts.Engine)
	}
}
