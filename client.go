//  Copyright 2015 by Leipzig University Library, http://ub.uni-leipzig.de
//                    The Finc Authors, http://finc.info
//                    Martin Czygan, <martin.czygan@uni-leipzig.de>
//
// This file is part of some open source application.
//
// Some open source application is free software: you can redistribute
// it and/or modify it under the terms of the GNU General Public
// License as published by the Free Software Foundation, either
// version 3 of the License, or (at your option) any later version.
//
// Some open source application is distributed in the hope that it will
// be useful, but WITHOUT ANY WARRANTY; without even the implied warranty
// of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Foobar.  If not, see <http://www.gnu.org/licenses/>.
//
// @license GPL-3.0+ <http://spdx.org/licenses/GPL-3.0+>
//
package oaiharvest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Version
const Version = "0.2.0"

var (
	// UserAgent is sent when Config.UserAgent is empty.
	UserAgent = fmt.Sprintf("oaiharvest/%s (https://github.com/miku/oaiharvest)", Version)
	// DefaultTimeout bounds a single attempt when Config.Timeout is zero.
	DefaultTimeout = 60 * time.Second
)

// Config holds the settings of a Client. It is copied by New and not
// consulted again afterwards.
type Config struct {
	// Endpoint is the base URL of the repository, required.
	Endpoint string
	// UserAgent defaults to the package level UserAgent.
	UserAgent string
	// Timeout bounds each attempt. Zero means DefaultTimeout, a negative
	// value disables the deadline.
	Timeout time.Duration
	// MaxRetry is the number of additional attempts after a failed one.
	MaxRetry int
	// MaxRequests caps the round trips of a single list harvest, zero means
	// no limit. Guards against servers that hand out resumption tokens
	// forever.
	MaxRequests int
	// RequestsPerSecond limits the rate of attempts sent by the client, zero
	// means no limit. The wait for a slot does not count against Timeout.
	RequestsPerSecond float64
	// Transport defaults to NewHTTPTransport().
	Transport Transport
	// Parser decodes responses, required.
	Parser Parser
	// Logger is used unless the context of a call carries a zerolog logger.
	Logger *zerolog.Logger
}

// Client sends OAI-PMH requests to a single endpoint. It holds no mutable
// state and can be used from multiple goroutines.
type Client struct {
	cfg     Config
	header  http.Header
	limiter *rate.Limiter
}

// New validates cfg, fills in defaults and returns a client.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, &ValidationError{Field: "endpoint", Reason: "is required"}
	}
	u, err := url.Parse(cfg.Endpoint)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, &ValidationError{Field: "endpoint", Reason: fmt.Sprintf("%q is not a valid URL", cfg.Endpoint)}
	}
	if cfg.Parser == nil {
		return nil, &ValidationError{Field: "parser", Reason: "is required"}
	}
	if cfg.MaxRetry < 0 {
		return nil, &ValidationError{Field: "retry", Reason: "must not be negative"}
	}
	if cfg.RequestsPerSecond < 0 {
		return nil, &ValidationError{Field: "requestsPerSecond", Reason: "must not be negative"}
	}
	if cfg.MaxRequests < 0 {
		return nil, &ValidationError{Field: "maxRequests", Reason: "must not be negative"}
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = UserAgent
	}
	switch {
	case cfg.Timeout == 0:
		cfg.Timeout = DefaultTimeout
	case cfg.Timeout < 0:
		cfg.Timeout = 0
	}
	if cfg.Transport == nil {
		cfg.Transport = NewHTTPTransport()
	}
	if cfg.Logger == nil {
		nop := zerolog.Nop()
		cfg.Logger = &nop
	}
	header := http.Header{}
	header.Set("User-Agent", cfg.UserAgent)
	c := &Client{cfg: cfg, header: header}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return c, nil
}

// Endpoint returns the base URL of the repository.
func (c *Client) Endpoint() string { return c.cfg.Endpoint }

// RequestOption overrides a Config default for a single call.
type RequestOption func(*retryPolicy)

// WithTimeout sets the deadline of each attempt, zero or less disables it.
func WithTimeout(d time.Duration) RequestOption {
	return func(p *retryPolicy) {
		if d < 0 {
			d = 0
		}
		p.timeout = d
	}
}

// WithRetry sets the number of additional attempts after a failed one.
func WithRetry(n int) RequestOption {
	return func(p *retryPolicy) {
		if n < 0 {
			n = 0
		}
		p.retry = n
	}
}

func (c *Client) policy(log *zerolog.Logger, opts []RequestOption) retryPolicy {
	p := retryPolicy{timeout: c.cfg.Timeout, retry: c.cfg.MaxRetry, limiter: c.limiter, log: log}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// logger prefers a logger attached to ctx over the configured one.
func (c *Client) logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	return c.cfg.Logger
}

// do executes a single OAI request and parses the response.
func (c *Client) do(ctx context.Context, query url.Values, p retryPolicy) (Document, error) {
	p.log.Debug().Str("endpoint", c.cfg.Endpoint).Str("query", query.Encode()).Msg("request")
	body, err := p.execute(ctx, func(ctx context.Context) (*Response, error) {
		return c.cfg.Transport.Get(ctx, c.cfg.Endpoint, query, c.header)
	})
	if err != nil {
		return nil, err
	}
	doc, err := c.cfg.Parser.ParseDocument(body)
	if err != nil {
		return nil, malformed(err)
	}
	return doc, nil
}

// Identify retrieves information about the repository.
func (c *Client) Identify(ctx context.Context, opts ...RequestOption) (*Identification, error) {
	log := c.logger(ctx)
	doc, err := c.do(ctx, identifyQuery(), c.policy(log, opts))
	if err != nil {
		return nil, err
	}
	id, err := c.cfg.Parser.Identify(doc)
	if err != nil {
		return nil, malformed(err)
	}
	return id, nil
}

// GetRecord retrieves a single record. Both arguments are required.
func (c *Client) GetRecord(ctx context.Context, identifier, metadataPrefix string, opts ...RequestOption) (*Record, error) {
	if identifier == "" {
		return nil, &ValidationError{Field: "identifier", Reason: "is required"}
	}
	if metadataPrefix == "" {
		return nil, &ValidationError{Field: "metadataPrefix", Reason: "is required"}
	}
	log := c.logger(ctx)
	doc, err := c.do(ctx, getRecordQuery(identifier, metadataPrefix), c.policy(log, opts))
	if err != nil {
		return nil, err
	}
	rec, err := c.cfg.Parser.Record(doc)
	if err != nil {
		return nil, malformed(err)
	}
	return rec, nil
}

// ListMetadataFormats retrieves the metadata formats available for the item
// with the given identifier, or for the whole repository if identifier is
// empty.
func (c *Client) ListMetadataFormats(ctx context.Context, identifier string, opts ...RequestOption) ([]MetadataFormat, error) {
	log := c.logger(ctx)
	doc, err := c.do(ctx, metadataFormatsQuery(identifier), c.policy(log, opts))
	if err != nil {
		return nil, err
	}
	formats, err := c.cfg.Parser.MetadataFormats(doc)
	if err != nil {
		return nil, malformed(err)
	}
	return formats, nil
}

// ListIdentifiers harvests record headers. No request is sent before the
// first call to Next.
func (c *Client) ListIdentifiers(ctx context.Context, options ListOptions, opts ...RequestOption) *Harvest[Header] {
	return newHarvest(ctx, c, identifiersKind, options, opts)
}

// ListRecords harvests records. No request is sent before the first call to
// Next.
func (c *Client) ListRecords(ctx context.Context, options ListOptions, opts ...RequestOption) *Harvest[Record] {
	return newHarvest(ctx, c, recordsKind, options, opts)
}

// ListSets harvests the set structure of the repository. No request is sent
// before the first call to Next.
func (c *Client) ListSets(ctx context.Context, opts ...RequestOption) *Harvest[Set] {
	return newHarvest(ctx, c, setsKind, ListOptions{}, opts)
}
