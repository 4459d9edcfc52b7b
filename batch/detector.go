package batch

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// BatchDetector walks a structured record and delegates each text leaf to
// the injected single-text detector. It composes with the detector through
// DetectFunc instead of embedding an engine, so either side can be swapped
// independently.
type BatchDetector struct {
	detect      DetectFunc
	concurrency int
	skipKeys    map[string]struct{}
	log         zerolog.Logger
}

// DetectorOption configures a BatchDetector.
type DetectorOption func(*BatchDetector)

// WithConcurrency bounds the number of concurrent detect calls used for the
// elements of a sequence field. n <= 1 keeps traversal fully sequential.
// When n > 1 the injected DetectFunc must be safe for concurrent use.
// Result order is unaffected: elements are re-joined at their original index.
func WithConcurrency(n int) DetectorOption {
	return func(d *BatchDetector) { d.concurrency = n }
}

// WithSkipKeys excludes the named fields from detection. A skipped field
// still appears in the result stream, shape intact, with empty detections.
func WithSkipKeys(keys ...string) DetectorOption {
	return func(d *BatchDetector) {
		for _, k := range keys {
			d.skipKeys[k] = struct{}{}
		}
	}
}

// WithDetectorLogger sets the logger used for per-batch debug events.
// Defaults to a no-op logger.
func WithDetectorLogger(l zerolog.Logger) DetectorOption {
	return func(d *BatchDetector) { d.log = l }
}

// NewBatchDetector creates a batch detector around the given single-text
// detection function.
func NewBatchDetector(fn DetectFunc, opts ...DetectorOption) *BatchDetector {
	d := &BatchDetector{
		detect:      fn,
		concurrency: 1,
		skipKeys:    make(map[string]struct{}),
		log:         zerolog.Nop(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// DetectRecord returns a lazy, single-pass stream of one FieldResult per
// field of record. Each result is computed only as the consumer advances,
// so stopping early skips the detect calls for fields never reached. The
// stream is not restartable: after exhaustion or an error, Next keeps
// returning false.
//
// Fields are visited in sorted key order. Go maps carry no iteration
// order, so sorting is the only way to make output stable across runs.
//
// A failing detect call surfaces from Err at the point the offending field
// is consumed. No partial result is synthesized for that field.
func (d *BatchDetector) DetectRecord(ctx context.Context, record map[string]any, opts Options) *RecordResults {
	keys := make([]string, 0, len(record))
	for k := range record {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	batchID := uuid.NewString()
	d.log.Debug().
		Str("batch_id", batchID).
		Int("field_count", len(keys)).
		Msg("detect_record_started")

	return &RecordResults{
		det:     d,
		ctx:     ctx,
		opts:    opts,
		record:  record,
		keys:    keys,
		batchID: batchID,
	}
}

// DetectSequence runs detection over the elements of one sequence field.
// String elements are detected; non-string elements are skipped without
// error and contribute an empty span list, keeping the output index-aligned
// with the input (output length always equals input length).
func (d *BatchDetector) DetectSequence(ctx context.Context, texts []any, opts Options) ([][]Span, error) {
	ctx, span := tracer.Start(ctx, "batch.detect_sequence")
	defer span.End()
	span.SetAttributes(attribute.Int("batch.element_count", len(texts)))

	out := make([][]Span, len(texts))

	if d.concurrency > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(d.concurrency)
		for i, el := range texts {
			text, ok := el.(string)
			if !ok {
				out[i] = []Span{}
				continue
			}
			g.Go(func() error {
				spans, err := d.detect(gctx, text, opts)
				if err != nil {
					return fmt.Errorf("detect element %d: %w", i, err)
				}
				out[i] = spans
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return out, nil
	}

	for i, el := range texts {
		text, ok := el.(string)
		if !ok {
			out[i] = []Span{}
			continue
		}
		spans, err := d.detect(ctx, text, opts)
		if err != nil {
			return nil, fmt.Errorf("detect element %d: %w", i, err)
		}
		out[i] = spans
	}
	return out, nil
}

// detectField produces the FieldResult for a single key. Empty values
// (empty string, empty sequence) and skipped keys yield empty detections
// without invoking the detector.
func (d *BatchDetector) detectField(ctx context.Context, key string, raw any, opts Options) (FieldResult, error) {
	ctx, span := tracer.Start(ctx, "batch.detect_field")
	defer span.End()

	fr := FieldResult{Key: key, Value: Classify(raw)}
	span.SetAttributes(attribute.String("batch.field", key))

	if _, skip := d.skipKeys[key]; skip {
		// Keep the detections shape-matched so the anonymization pass
		// still sees an aligned (if empty) batch for sequence fields.
		if fr.Value.Kind == KindTextSeq {
			fr.SeqSpans = make([][]Span, len(fr.Value.Seq))
		}
		return fr, nil
	}

	switch fr.Value.Kind {
	case KindText:
		if fr.Value.Text == "" {
			return fr, nil
		}
		spans, err := d.detect(ctx, fr.Value.Text, opts)
		if err != nil {
			return FieldResult{}, err
		}
		fr.Spans = spans
		span.SetAttributes(attribute.Int("batch.span_count", len(spans)))
	case KindTextSeq:
		if len(fr.Value.Seq) == 0 {
			return fr, nil
		}
		seqSpans, err := d.DetectSequence(ctx, fr.Value.Seq, opts)
		if err != nil {
			return FieldResult{}, err
		}
		fr.SeqSpans = seqSpans
	case KindOpaque:
		// Passthrough by policy, never an error.
	}
	return fr, nil
}

// RecordResults is the lazy result stream produced by DetectRecord.
// It satisfies ResultSource. Single-pass and non-restartable.
type RecordResults struct {
	det     *BatchDetector
	ctx     context.Context
	opts    Options
	record  map[string]any
	keys    []string
	batchID string

	pos  int
	cur  FieldResult
	err  error
	done bool
}

// Next computes the next FieldResult. It returns false once the record is
// exhausted or a detect call failed; the failure is available from Err.
func (r *RecordResults) Next() bool {
	if r.done || r.err != nil {
		return false
	}
	if r.pos >= len(r.keys) {
		r.done = true
		r.det.log.Debug().
			Str("batch_id", r.batchID).
			Int("field_count", len(r.keys)).
			Msg("detect_record_completed")
		return false
	}

	key := r.keys[r.pos]
	r.pos++

	fr, err := r.det.detectField(r.ctx, key, r.record[key], r.opts)
	if err != nil {
		r.err = fmt.Errorf("detect field %q: %w", key, err)
		r.done = true
		return false
	}
	r.cur = fr
	return true
}

// Result returns the FieldResult produced by the last successful Next.
func (r *RecordResults) Result() FieldResult { return r.cur }

// Err returns the first detection error encountered, or nil.
func (r *RecordResults) Err() error { return r.err }

// BatchID returns the correlation ID assigned to this detection run.
func (r *RecordResults) BatchID() string { return r.batchID }
