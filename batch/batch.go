package batch

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("github.com/CodeRunRepeat/presidio/batch")

// ErrMisalignedBatch is returned when a texts slice and its detection lists
// differ in length. This is a caller contract violation; no partial output
// is produced.
var ErrMisalignedBatch = errors.New("texts and detection lists differ in length")

// Options is an opaque configuration bag forwarded verbatim to the injected
// collaborators on every call. Recognized keys (language tag, entity
// allow/deny lists, ...) are collaborator-defined; the batch layer never
// inspects them.
type Options map[string]any

// DetectFunc is the single-text detection contract. It returns the spans
// detected in text, ordered by position. Failures (e.g. unsupported
// language) propagate to the caller of the batch operation unchanged; the
// batch layer applies no retry or suppression.
type DetectFunc func(ctx context.Context, text string, opts Options) ([]Span, error)

// AnonymizeFunc is the single-text anonymization contract. It applies the
// given spans to text and returns the transformed text. With zero spans it
// must return the text unchanged. Span bounds are validated by the
// collaborator, not by the batch layer, which only aligns and forwards.
type AnonymizeFunc func(ctx context.Context, text string, spans []Span, opts Options) (string, error)
