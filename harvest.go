package oaiharvest

import (
	"context"
	"fmt"
	"iter"
	"net/url"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type harvestState int

const (
	stateStart harvestState = iota
	stateFetching
	stateDone
	stateFailed
)

// Harvest is a lazy, single pass sequence of pages of a list request. Each
// call to Next fetches one page and follows the resumption token of the
// previous one:
//
//	h := client.ListIdentifiers(ctx, oaiharvest.ListOptions{MetadataPrefix: "oai_dc"})
//	for h.Next() {
//		for _, header := range h.Batch() {
//			...
//		}
//	}
//	if err := h.Err(); err != nil {
//		...
//	}
//
// A Harvest is not safe for concurrent use. To harvest again, start a new
// one; resumption tokens are cursors kept by the server.
type Harvest[T any] struct {
	// ID identifies the harvest in log messages.
	ID string

	// ctx is the cancellation scope of the whole harvest, as passed to the
	// list call, like sql.Rows does.
	ctx    context.Context
	client *Client
	kind   listKind[T]
	opts   ListOptions
	policy retryPolicy
	log    zerolog.Logger

	state    harvestState
	query    url.Values
	batch    []T
	err      error
	requests int
	items    int
}

func newHarvest[T any](ctx context.Context, c *Client, kind listKind[T], opts ListOptions, ropts []RequestOption) *Harvest[T] {
	id := uuid.NewString()
	log := c.logger(ctx).With().Str("harvest", id).Str("verb", string(kind.verb)).Logger()
	return &Harvest[T]{
		ID:     id,
		ctx:    ctx,
		client: c,
		kind:   kind,
		opts:   opts,
		policy: c.policy(&log, ropts),
		log:    log,
	}
}

// Next fetches the next page. It returns false when the harvest is complete
// or has failed; Err tells the two apart. Once Next has returned false, it
// does not send any more requests.
func (h *Harvest[T]) Next() bool {
	h.batch = nil
	switch h.state {
	case stateStart:
		if err := h.opts.validate(h.kind.verb); err != nil {
			return h.fail(err)
		}
		h.query = h.opts.query(h.kind.verb)
		h.state = stateFetching
	case stateFetching:
	default:
		return false
	}

	if limit := h.client.cfg.MaxRequests; limit > 0 && h.requests >= limit {
		return h.fail(fmt.Errorf("%w: limit of %d reached", ErrTooManyRequests, limit))
	}
	h.requests++
	doc, err := h.client.do(h.ctx, h.query, h.policy)
	if err != nil {
		if h.requests == 1 && IsNoRecordsMatch(err) {
			h.log.Debug().Msg("no records match")
			h.state = stateDone
			return false
		}
		return h.fail(err)
	}
	batch, err := h.kind.project(h.client.cfg.Parser, doc)
	if err != nil {
		return h.fail(malformed(err))
	}
	token, err := h.client.cfg.Parser.ResumptionToken(doc, h.kind.verb)
	if err != nil {
		return h.fail(malformed(err))
	}

	h.batch = batch
	h.items += len(batch)
	if token == "" {
		h.state = stateDone
		h.log.Info().Int("requests", h.requests).Int("items", h.items).Msg("harvest complete")
	} else {
		h.query = continuation(h.kind.verb, token)
	}
	return true
}

func (h *Harvest[T]) fail(err error) bool {
	h.state = stateFailed
	h.err = err
	h.log.Debug().Err(err).Int("requests", h.requests).Msg("harvest failed")
	return false
}

// Batch returns the items of the page fetched by the last call to Next, in
// server order.
func (h *Harvest[T]) Batch() []T { return h.batch }

// Err returns the error that ended the harvest, if any.
func (h *Harvest[T]) Err() error { return h.err }

// Requests returns the number of round trips started so far, retries not
// counted.
func (h *Harvest[T]) Requests() int { return h.requests }

// Pages returns the remaining pages as an iterator. A failure is delivered
// as the last element.
func (h *Harvest[T]) Pages() iter.Seq2[[]T, error] {
	return func(yield func([]T, error) bool) {
		for h.Next() {
			if !yield(h.Batch(), nil) {
				return
			}
		}
		if err := h.Err(); err != nil {
			yield(nil, err)
		}
	}
}

// Collect drains the harvest into a single slice. Items gathered before a
// failure are returned along with the error.
func (h *Harvest[T]) Collect() ([]T, error) {
	var all []T
	for h.Next() {
		all = append(all, h.Batch()...)
	}
	return all, h.Err()
}
