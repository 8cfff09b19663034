package feed

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
)

const (
	// DefaultBaseURL is the MTA's per-feed GTFS-rt endpoint prefix.
	DefaultBaseURL = "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/nyct%2F"

	DefaultTimeout = 10 * time.Second
	DefaultMaxSize = 1 << 20 // 1 MB
)

// ErrFetch marks a transport-level failure reaching a feed source.
var ErrFetch = errors.New("feed fetch failed")

// A thing capable of retrieving the raw payload of a realtime feed.
// Implementations own network I/O and any transport-level retries;
// one implementation per feed family.
type Fetcher interface {
	Fetch(ctx context.Context, feedID string) ([]byte, error)
}

// Func adapts a plain function to the Fetcher interface.
type Func func(ctx context.Context, feedID string) ([]byte, error)

func (f Func) Fetch(ctx context.Context, feedID string) ([]byte, error) {
	return f(ctx, feedID)
}

// HTTPFetcher fetches GTFS-rt payloads over HTTP. The request URL is
// BaseURL with the feed id appended (path-escaped), matching the
// MTA-style per-feed endpoints.
type HTTPFetcher struct {
	BaseURL string
	Headers map[string]string
	Timeout time.Duration
	MaxSize int

	client *http.Client
}

func NewHTTPFetcher(baseURL string, headers map[string]string) *HTTPFetcher {
	return &HTTPFetcher{
		BaseURL: baseURL,
		Headers: headers,
		Timeout: DefaultTimeout,
		MaxSize: DefaultMaxSize,
		client:  &http.Client{},
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, feedID string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	reqURL := f.BaseURL + url.PathEscape(feedID)
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, errors.Wrapf(ErrFetch, "creating request: %v", err)
	}
	for k, v := range f.Headers {
		req.Header.Add(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(ErrFetch, "requesting %s: %v", reqURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(ErrFetch, "status %d from %s", resp.StatusCode, reqURL)
	}

	var reader io.Reader = resp.Body
	if f.MaxSize > 0 {
		reader = io.LimitReader(resp.Body, int64(f.MaxSize))
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrapf(ErrFetch, "reading body: %v", err)
	}

	return body, nil
}
