// Package poller implements the client-side reconciliation loop. After the
// buyer returns from the provider's hosted page the webhook may not have
// landed yet, so the client polls the order-by-intent boundary with a hard
// attempt cap instead of hanging indefinitely.
package poller

import (
	"context"
	"errors"
	"time"

	"github.com/npkcode00-bit/food-delivery-sub000/internal/model"
)

type Status int

const (
	StatusFound Status = iota
	StatusTimedOut
	StatusCanceled
)

func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusTimedOut:
		return "timed_out"
	default:
		return "canceled"
	}
}

type Result struct {
	Status Status
	Order  *model.Order
}

// ErrNotYet reports that no order is materialized for the intent yet.
var ErrNotYet = errors.New("order not yet materialized")

// Lookup fetches the order for an intent, returning ErrNotYet while the
// webhook has not landed.
type Lookup func(ctx context.Context, intentID string) (*model.Order, error)

const (
	DefaultMaxAttempts = 60
	DefaultInterval    = 2 * time.Second
)

// PollForOrder asks lookup up to maxAttempts times, interval apart, whether
// an order exists for intentID. It only observes payment state: a timeout
// means the webhook has not landed yet, and the order can still materialize
// after the caller gives up.
func PollForOrder(ctx context.Context, lookup Lookup, intentID string, maxAttempts int, interval time.Duration) (Result, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if interval <= 0 {
		interval = DefaultInterval
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return Result{Status: StatusCanceled}, nil
		}

		order, err := lookup(ctx, intentID)
		switch {
		case err == nil:
			return Result{Status: StatusFound, Order: order}, nil
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return Result{Status: StatusCanceled}, nil
		case !errors.Is(err, ErrNotYet):
			return Result{}, err
		}

		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return Result{Status: StatusCanceled}, nil
		case <-time.After(interval):
		}
	}

	return Result{Status: StatusTimedOut}, nil
}
