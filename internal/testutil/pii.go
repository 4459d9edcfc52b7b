// Package testutil provides stub detection and anonymization collaborators
// for batch-layer tests, so no real PII engine is needed.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/CodeRunRepeat/presidio/batch"
)

// TermScore is the fixed confidence assigned by TermDetector matches.
const TermScore = 0.85

// TermDetector returns a batch.DetectFunc that flags every occurrence of
// the given literal terms, keyed by term with the entity type as value.
// Spans are returned ordered by start offset. Safe for concurrent use.
func TermDetector(terms map[string]string) batch.DetectFunc {
	return func(_ context.Context, text string, _ batch.Options) ([]batch.Span, error) {
		var spans []batch.Span
		for term, entity := range terms {
			for at := 0; ; {
				i := strings.Index(text[at:], term)
				if i < 0 {
					break
				}
				start := at + i
				spans = append(spans, batch.Span{
					Start:      start,
					End:        start + len(term),
					Score:      TermScore,
					EntityType: entity,
				})
				at = start + len(term)
			}
		}
		sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
		return spans, nil
	}
}

// PlaceholderAnonymizer returns a batch.AnonymizeFunc that replaces each
// span with "<ENTITY_TYPE>". Spans are applied right to left so earlier
// offsets stay valid. A span outside the text bounds is an error, matching
// the contract that the anonymizer (not the batch layer) validates offsets.
// With zero spans the text is returned unchanged.
func PlaceholderAnonymizer() batch.AnonymizeFunc {
	return func(_ context.Context, text string, spans []batch.Span, _ batch.Options) (string, error) {
		ordered := make([]batch.Span, len(spans))
		copy(ordered, spans)
		sort.Slice(ordered, func(i, j int) bool { return ordered[i].Start > ordered[j].Start })

		out := text
		for _, s := range ordered {
			if s.Start < 0 || s.Start >= s.End || s.End > len(text) {
				return "", fmt.Errorf("span [%d,%d) out of bounds for text of length %d", s.Start, s.End, len(text))
			}
			out = out[:s.Start] + "<" + s.EntityType + ">" + out[s.End:]
		}
		return out, nil
	}
}

// CountingDetect wraps fn and increments calls on every invocation.
func CountingDetect(fn batch.DetectFunc, calls *atomic.Int64) batch.DetectFunc {
	return func(ctx context.Context, text string, opts batch.Options) ([]batch.Span, error) {
		calls.Add(1)
		return fn(ctx, text, opts)
	}
}

// CountingAnonymize wraps fn and increments calls on every invocation.
func CountingAnonymize(fn batch.AnonymizeFunc, calls *atomic.Int64) batch.AnonymizeFunc {
	return func(ctx context.Context, text string, spans []batch.Span, opts batch.Options) (string, error) {
		calls.Add(1)
		return fn(ctx, text, spans, opts)
	}
}

// FailingDetect returns a batch.DetectFunc that always fails with err.
func FailingDetect(err error) batch.DetectFunc {
	return func(context.Context, string, batch.Options) ([]batch.Span, error) {
		return nil, err
	}
}

// FailingAnonymize returns a batch.AnonymizeFunc that always fails with err.
func FailingAnonymize(err error) batch.AnonymizeFunc {
	return func(context.Context, string, []batch.Span, batch.Options) (string, error) {
		return "", err
	}
}

// FlakyDetect wraps fn so the first failures calls return err, after which
// calls pass through. Useful for retry decorator tests.
func FlakyDetect(fn batch.DetectFunc, failures int64, err error) batch.DetectFunc {
	var calls atomic.Int64
	return func(ctx context.Context, text string, opts batch.Options) ([]batch.Span, error) {
		if calls.Add(1) <= failures {
			return nil, err
		}
		return fn(ctx, text, opts)
	}
}
