package trace

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"
)

// DefaultPath is the diagnostic trace resource served by the edge.
const DefaultPath = "/cdn-cgi/trace"

const maxBodySize = 64 << 10

// ErrBodyTooLarge marks a trace body longer than the read limit.
var ErrBodyTooLarge = errors.New("trace body exceeds 64 KiB")

// Fetcher retrieves the raw trace text from one origin.
type Fetcher struct {
	URL    string
	client *http.Client
}

// NewFetcher builds a Fetcher for origin+path. A nil transport uses http.DefaultTransport.
func NewFetcher(origin, path string, transport http.RoundTripper, timeout time.Duration) *Fetcher {
	if path == "" {
		path = DefaultPath
	}
	return &Fetcher{
		URL: singleJoiningSlash(origin, path),
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
	}
}

// Fetch performs a single GET. Any failure is a *FetchError.
func (f *Fetcher) Fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return "", &FetchError{Kind: KindNetwork, URL: f.URL, Err: err}
	}
	req.Header.Set("Accept", "text/plain")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &FetchError{Kind: KindNetwork, URL: f.URL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return "", &FetchError{Kind: KindHTTPStatus, URL: f.URL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return "", &FetchError{Kind: KindBodyRead, URL: f.URL, StatusCode: resp.StatusCode, Err: err}
	}
	if len(body) > maxBodySize {
		return "", &FetchError{Kind: KindBodyRead, URL: f.URL, StatusCode: resp.StatusCode, Err: ErrBodyTooLarge}
	}
	if len(body) == 0 {
		return "", &FetchError{Kind: KindEmptyBody, URL: f.URL, StatusCode: resp.StatusCode}
	}
	return string(body), nil
}

func singleJoiningSlash(a, b string) string {
	aslash := len(a) > 0 && a[len(a)-1] == '/'
	bslash := len(b) > 0 && b[0] == '/'
	switch {
	case aslash && bslash:
		return a + b[1:]
	case !aslash && !bslash:
		return a + "/" + b
	}
	return a + b
}
