package oaiharvest

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

type getFunc func(ctx context.Context, n int, query url.Values) (*Response, error)

// stubTransport records every request and answers with fn. n counts calls,
// starting at 1.
type stubTransport struct {
	mu      sync.Mutex
	queries []url.Values
	headers []http.Header
	fn      getFunc
}

func (t *stubTransport) Get(ctx context.Context, endpoint string, query url.Values, header http.Header) (*Response, error) {
	t.mu.Lock()
	t.queries = append(t.queries, query)
	t.headers = append(t.headers, header)
	n := len(t.queries)
	t.mu.Unlock()
	return t.fn(ctx, n, query)
}

func (t *stubTransport) calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.queries)
}

func ok(body string) *Response {
	return &Response{StatusCode: http.StatusOK, Status: "200 OK", Body: []byte(body)}
}

// byToken answers the first list request with "first" and continuation
// requests with the body registered for their token.
func byToken(first string, next map[string]string) getFunc {
	return func(ctx context.Context, n int, query url.Values) (*Response, error) {
		token := query.Get("resumptionToken")
		if token == "" {
			return ok(first), nil
		}
		body, found := next[token]
		if !found {
			return nil, errors.New("unknown token " + token)
		}
		return ok(body), nil
	}
}

// stubPage is the document produced by stubParser.
type stubPage struct {
	token    string
	headers  []Header
	records  []Record
	sets     []Set
	identify *Identification
	formats  []MetadataFormat
	record   *Record
}

// stubParser maps response bodies to pages or errors.
type stubParser struct {
	pages  map[string]stubPage
	errors map[string]error
}

func (p stubParser) ParseDocument(body []byte) (Document, error) {
	if err, found := p.errors[string(body)]; found {
		return nil, err
	}
	page, found := p.pages[string(body)]
	if !found {
		return nil, errors.New("unparsable body")
	}
	return page, nil
}

func (p stubParser) ResumptionToken(doc Document, verb Verb) (string, error) {
	return doc.(stubPage).token, nil
}

func (p stubParser) Identify(doc Document) (*Identification, error) {
	if id := doc.(stubPage).identify; id != nil {
		return id, nil
	}
	return nil, errors.New("no Identify element")
}

func (p stubParser) MetadataFormats(doc Document) ([]MetadataFormat, error) {
	return doc.(stubPage).formats, nil
}

func (p stubParser) Record(doc Document) (*Record, error) {
	if rec := doc.(stubPage).record; rec != nil {
		return rec, nil
	}
	return nil, errors.New("no GetRecord element")
}

func (p stubParser) Headers(doc Document) ([]Header, error) { return doc.(stubPage).headers, nil }

func (p stubParser) Records(doc Document) ([]Record, error) { return doc.(stubPage).records, nil }

func (p stubParser) Sets(doc Document) ([]Set, error) { return doc.(stubPage).sets, nil }

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// newTestClient returns a client for a fake endpoint.
func newTestClient(t testing.TB, transport Transport, parser Parser, cfg Config) *Client {
	cfg.Endpoint = "http://example.com/oai"
	cfg.Transport = transport
	cfg.Parser = parser
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}
