package batch

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

// BatchAnonymizer consumes a detection result stream and delegates each
// (text, spans) pair to the injected single-text anonymizer, reassembling
// an output record congruent with the original.
type BatchAnonymizer struct {
	anonymize AnonymizeFunc
	log       zerolog.Logger
}

// AnonymizerOption configures a BatchAnonymizer.
type AnonymizerOption func(*BatchAnonymizer)

// WithAnonymizerLogger sets the logger used for per-batch debug events.
// Defaults to a no-op logger.
func WithAnonymizerLogger(l zerolog.Logger) AnonymizerOption {
	return func(a *BatchAnonymizer) { a.log = l }
}

// NewBatchAnonymizer creates a batch anonymizer around the given
// single-text anonymization function.
func NewBatchAnonymizer(fn AnonymizeFunc, opts ...AnonymizerOption) *BatchAnonymizer {
	a := &BatchAnonymizer{
		anonymize: fn,
		log:       zerolog.Nop(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// AnonymizeRecord makes a single pass over the result stream and returns
// the anonymized record, keyed by field name: an anonymized string for text
// fields, an index-aligned []any for sequence fields, and the original
// value verbatim for opaque fields. The output is built eagerly since
// anonymization is the pipeline's terminal stage.
//
// Errors from the stream or from the anonymizer abort the call; no partial
// record is returned.
func (a *BatchAnonymizer) AnonymizeRecord(ctx context.Context, results ResultSource, opts Options) (map[string]any, error) {
	ctx, span := tracer.Start(ctx, "batch.anonymize_record")
	defer span.End()

	batchID := uuid.NewString()
	out := make(map[string]any)

	for results.Next() {
		fr := results.Result()
		switch fr.Value.Kind {
		case KindText:
			text, err := a.anonymize(ctx, fr.Value.Text, fr.Spans, opts)
			if err != nil {
				return nil, fmt.Errorf("anonymize field %q: %w", fr.Key, err)
			}
			out[fr.Key] = text
		case KindTextSeq:
			seq, err := a.AnonymizeSequence(ctx, fr.Value.Seq, fr.SeqSpans, opts)
			if err != nil {
				return nil, fmt.Errorf("anonymize field %q: %w", fr.Key, err)
			}
			out[fr.Key] = seq
		case KindOpaque:
			out[fr.Key] = fr.Value.Raw
		}
	}
	if err := results.Err(); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("batch.field_count", len(out)))
	a.log.Debug().
		Str("batch_id", batchID).
		Int("field_count", len(out)).
		Msg("anonymize_record_completed")
	return out, nil
}

// AnonymizeSequence anonymizes one sequence field. texts and detections
// are iterated zipped and must be equal length; a mismatch is a caller
// contract error reported as ErrMisalignedBatch with no partial output.
// String elements are anonymized with their paired spans; non-string
// elements are kept unchanged at their original index.
func (a *BatchAnonymizer) AnonymizeSequence(ctx context.Context, texts []any, detections [][]Span, opts Options) ([]any, error) {
	if len(texts) != len(detections) {
		a.log.Warn().
			Int("texts", len(texts)).
			Int("detection_lists", len(detections)).
			Msg("misaligned_batch")
		return nil, fmt.Errorf("%w: %d texts, %d detection lists", ErrMisalignedBatch, len(texts), len(detections))
	}

	out := make([]any, len(texts))
	for i, el := range texts {
		text, ok := el.(string)
		if !ok {
			out[i] = el
			continue
		}
		anonymized, err := a.anonymize(ctx, text, detections[i], opts)
		if err != nil {
			return nil, fmt.Errorf("anonymize element %d: %w", i, err)
		}
		out[i] = anonymized
	}
	return out, nil
}
