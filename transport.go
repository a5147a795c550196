package oaiharvest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/sethgrid/pester"
)

// HTTPDoer lets us use pester, http.DefaultClient or other HTTP client
// implementations interchangeably.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Response is a completed HTTP exchange, whatever its status.
type Response struct {
	StatusCode int
	Status     string
	Body       []byte
}

// Transport issues a single GET request. It must honour ctx, which carries
// both caller cancellation and the per-attempt deadline. Transports must not
// retry on their own.
type Transport interface {
	Get(ctx context.Context, endpoint string, query url.Values, header http.Header) (*Response, error)
}

// HTTPTransport is the default Transport.
type HTTPTransport struct {
	// Doer executes requests, http.DefaultClient if nil.
	Doer HTTPDoer
}

// NewHTTPTransport returns a transport backed by a pester client limited to
// one attempt per request.
func NewHTTPTransport() *HTTPTransport {
	c := pester.New()
	c.MaxRetries = 1
	c.Concurrency = 1
	return &HTTPTransport{Doer: c}
}

// Get sends query to endpoint, replacing any query string the endpoint has.
func (t *HTTPTransport) Get(ctx context.Context, endpoint string, query url.Values, header http.Header) (*Response, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	u.RawQuery = query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	doer := t.Doer
	if doer == nil {
		doer = http.DefaultClient
	}
	resp, err := doer.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Status: resp.Status, Body: body}, nil
}
