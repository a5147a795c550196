package oaiharvest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// attemptFunc performs one round trip under ctx.
type attemptFunc func(ctx context.Context) (*Response, error)

// retryPolicy runs attempts one after another, each under its own deadline,
// until one completes, the budget is spent or the caller cancels. There is
// no backoff between attempts. With a limiter, every attempt first waits
// for a slot under the caller's ctx, outside of the attempt deadline.
type retryPolicy struct {
	timeout time.Duration
	retry   int
	limiter *rate.Limiter
	log     *zerolog.Logger
}

func (p retryPolicy) execute(ctx context.Context, fn attemptFunc) ([]byte, error) {
	budget := p.retry
	for attempt := 1; ; attempt++ {
		if err := p.wait(ctx); err != nil {
			return nil, err
		}
		resp, err := p.attempt(ctx, fn)
		if err == nil {
			if resp.StatusCode < 200 || resp.StatusCode > 299 {
				return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
			}
			return resp.Body, nil
		}
		// Caller cancellation wins over any remaining budget.
		if cerr := ctx.Err(); cerr != nil {
			return nil, cancelled(cerr)
		}
		if budget <= 0 {
			return nil, &TransportError{Attempts: attempt, Err: err}
		}
		budget--
		p.log.Warn().Err(err).Int("attempt", attempt).Int("remaining", budget).Msg("retrying request")
	}
}

// wait blocks until the limiter grants a slot. A wait that the caller's
// deadline would cut short counts as cancellation.
func (p retryPolicy) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return cancelled(err)
	}
	if p.limiter == nil {
		return nil
	}
	if err := p.limiter.Wait(ctx); err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return cancelled(cerr)
		}
		return cancelled(fmt.Errorf("%w: %w", context.DeadlineExceeded, err))
	}
	return nil
}

// attempt runs fn under a fresh deadline derived from ctx.
func (p retryPolicy) attempt(ctx context.Context, fn attemptFunc) (*Response, error) {
	actx, cancel := ctx, context.CancelFunc(func() {})
	if p.timeout > 0 {
		actx, cancel = context.WithTimeout(ctx, p.timeout)
	}
	defer cancel()

	resp, err := fn(actx)
	switch {
	case err != nil && ctx.Err() == nil && errors.Is(actx.Err(), context.DeadlineExceeded):
		return nil, fmt.Errorf("%w after %s: %w", ErrTimeout, p.timeout, err)
	case err != nil:
		return nil, err
	case resp == nil:
		return nil, errors.New("transport returned no response")
	}
	return resp, nil
}
