package fetcher

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
)

var errNoResponse = errors.New("no response received")

// CollyFetcher implements Fetcher with a colly collector. A fresh
// collector is built per fetch so the request is bound to ctx.
type CollyFetcher struct {
	timeout   time.Duration
	userAgent string
}

// NewCollyFetcher creates a CollyFetcher.
func NewCollyFetcher(timeout time.Duration, userAgent string) *CollyFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &CollyFetcher{timeout: timeout, userAgent: userAgent}
}

// Fetch performs a conditional GET of url.
func (f *CollyFetcher) Fetch(ctx context.Context, url string, v Validators) (*Response, error) {
	c := colly.NewCollector(
		colly.StdlibContext(ctx),
		colly.UserAgent(f.userAgent),
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
		colly.IgnoreRobotsTxt(),
	)
	c.SetRequestTimeout(f.timeout)

	var result *Response
	c.OnResponse(func(r *colly.Response) {
		result = &Response{StatusCode: r.StatusCode}
		if r.Headers != nil {
			result.ETag = r.Headers.Get("ETag")
			result.LastModified = r.Headers.Get("Last-Modified")
		}
		if r.StatusCode != http.StatusNotModified {
			result.Body = r.Body
		}
	})

	hdr := http.Header{}
	setConditionalHeaders(hdr, v)

	if err := c.Request(http.MethodGet, url, nil, nil, hdr); err != nil {
		if result != nil && !isSuccess(result.StatusCode) {
			return nil, ClassifyHTTPStatus(result.StatusCode, url)
		}
		return nil, ClassifyNetworkError(err, url)
	}

	if result == nil {
		return nil, &FetchError{Type: ErrTypeUnexpected, Level: LevelError, URL: url, Cause: errNoResponse}
	}
	if !isSuccess(result.StatusCode) {
		return nil, ClassifyHTTPStatus(result.StatusCode, url)
	}

	return result, nil
}
