package llmclient

import (
	"context"
	"errors"
	"time"

	"github.com/audiobound/audiobound/internal/core"
)

// BackoffLadder is the unbounded retry schedule shared by every LLM stage
// (spec §4.2): attempts beyond the last entry keep reusing the cap.
var BackoffLadder = []time.Duration{
	1 * time.Second,
	3 * time.Second,
	5 * time.Second,
	10 * time.Second,
	30 * time.Second,
	60 * time.Second,
	120 * time.Second,
	300 * time.Second,
	600 * time.Second,
}

func backoffFor(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= len(BackoffLadder) {
		return BackoffLadder[len(BackoffLadder)-1]
	}
	return BackoffLadder[attempt]
}

// Retry calls fn repeatedly until it succeeds, ctx is cancelled, or fn
// returns a non-retriable error (core.Refused). Validation failures
// (core.ValidationFailed) and generic errors are retried with the shared
// backoff ladder.
func Retry(ctx context.Context, fn func(attempt int) (Response, error)) (Response, error) {
	for attempt := 0; ; attempt++ {
		resp, err := fn(attempt)
		if err == nil {
			return resp, nil
		}

		var refused core.Refused
		if errors.As(err, &refused) {
			return Response{}, err
		}
		if ctx.Err() != nil {
			return Response{}, core.Cancelled{}
		}

		select {
		case <-ctx.Done():
			return Response{}, core.Cancelled{}
		case <-time.After(backoffFor(attempt)):
		}
	}
}
