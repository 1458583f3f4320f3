package fetcher

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

const (
	maxIdleConns          = 10
	idleConnTimeout       = 90 * time.Second
	tlsHandshakeTimeout   = 10 * time.Second
	expectContinueTimeout = 1 * time.Second
	dialTimeout           = 10 * time.Second
	dialKeepAlive         = 30 * time.Second
)

// NewHTTPClient returns an http.Client with bounded dial, handshake and
// overall request timeouts.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: dialKeepAlive,
		}).DialContext,
		MaxIdleConns:          maxIdleConns,
		IdleConnTimeout:       idleConnTimeout,
		TLSHandshakeTimeout:   tlsHandshakeTimeout,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: expectContinueTimeout,
	}

	return &http.Client{Timeout: timeout, Transport: transport}
}

// HTTPFetcher implements Fetcher using net/http.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTPFetcher creates an HTTPFetcher backed by client.
func NewHTTPFetcher(client *http.Client, userAgent string) *HTTPFetcher {
	if client == nil {
		client = NewHTTPClient(DefaultTimeout)
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &HTTPFetcher{client: client, userAgent: userAgent}
}

// Fetch performs a conditional GET of url.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string, v Validators) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, &FetchError{
			Type:  ErrTypeUnexpected,
			Level: LevelError,
			URL:   url,
			Cause: fmt.Errorf("new request: %w", err),
		}
	}

	req.Header.Set("User-Agent", f.userAgent)
	setConditionalHeaders(req.Header, v)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, ClassifyNetworkError(err, url)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, ClassifyHTTPStatus(resp.StatusCode, url)
	}

	return buildResponse(resp, url)
}

func setConditionalHeaders(h http.Header, v Validators) {
	if v.ETag != "" {
		h.Set("If-None-Match", v.ETag)
	}
	if v.LastModified != "" {
		h.Set("If-Modified-Since", v.LastModified)
	}
}

func buildResponse(resp *http.Response, url string) (*Response, error) {
	result := &Response{
		StatusCode:   resp.StatusCode,
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
	}

	if resp.StatusCode == http.StatusNotModified {
		return result, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ClassifyNetworkError(fmt.Errorf("read body: %w", err), url)
	}
	result.Body = body

	return result, nil
}
