package batch

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/time/rate"
)

// The batch traversal is deliberately fail-fast: collaborator errors
// surface unchanged at the point the failing leaf is consumed. Resilience
// is layered on by decorating the injected functions before handing them
// to NewBatchDetector / NewBatchAnonymizer.

// RetryDetect wraps fn with bounded retries. Attempts counts the total
// number of calls, delay is the base backoff between them. The wrapped
// function honors ctx cancellation between attempts.
func RetryDetect(fn DetectFunc, attempts uint, delay time.Duration) DetectFunc {
	return func(ctx context.Context, text string, opts Options) ([]Span, error) {
		return retry.DoWithData(
			func() ([]Span, error) {
				return fn(ctx, text, opts)
			},
			retry.Context(ctx),
			retry.Attempts(attempts),
			retry.Delay(delay),
			retry.LastErrorOnly(true),
		)
	}
}

// RetryAnonymize wraps fn with bounded retries, mirroring RetryDetect.
func RetryAnonymize(fn AnonymizeFunc, attempts uint, delay time.Duration) AnonymizeFunc {
	return func(ctx context.Context, text string, spans []Span, opts Options) (string, error) {
		return retry.DoWithData(
			func() (string, error) {
				return fn(ctx, text, spans, opts)
			},
			retry.Context(ctx),
			retry.Attempts(attempts),
			retry.Delay(delay),
			retry.LastErrorOnly(true),
		)
	}
}

// ThrottleDetect gates fn behind a token bucket. Each leaf call waits for
// one token; waiting aborts with the context's error if ctx is canceled
// first. Useful when the detector fronts a rate-limited remote service.
func ThrottleDetect(fn DetectFunc, limiter *rate.Limiter) DetectFunc {
	return func(ctx context.Context, text string, opts Options) ([]Span, error) {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return fn(ctx, text, opts)
	}
}

// ThrottleAnonymize gates fn behind a token bucket, mirroring ThrottleDetect.
func ThrottleAnonymize(fn AnonymizeFunc, limiter *rate.Limiter) AnonymizeFunc {
	return func(ctx context.Context, text string, spans []Span, opts Options) (string, error) {
		if err := limiter.Wait(ctx); err != nil {
			return "", err
		}
		return fn(ctx, text, spans, opts)
	}
}
