package batch

// Span is one detected entity occurrence within a single text.
// Offsets are byte positions into the text: Start inclusive, End exclusive,
// with 0 <= Start < End <= len(text). The bound is enforced by the
// collaborator that consumes the span, not here.
type Span struct {
	Start       int            `json:"start"`
	End         int            `json:"end"`
	Score       float64        `json:"score"`
	EntityType  string         `json:"entity_type"`
	Explanation map[string]any `json:"explanation,omitempty"`
}

// Kind classifies a field value into the closed set of shapes the batch
// layer distinguishes.
type Kind int

const (
	// KindText is a scalar string leaf.
	KindText Kind = iota
	// KindTextSeq is an ordered sequence whose string elements are leaves.
	// Non-string elements keep their index and pass through untouched.
	KindTextSeq
	// KindOpaque is anything else (numbers, booleans, nested records, nil).
	// Opaque values are never detected on and never modified.
	KindOpaque
)

// FieldValue is a tagged variant holding a field's original value. It is
// constructed once when a record is ingested so downstream logic switches
// on Kind instead of repeating runtime type checks.
type FieldValue struct {
	Kind Kind
	Text string // set when Kind == KindText
	Seq  []any  // set when Kind == KindTextSeq, original elements in order
	Raw  any    // set when Kind == KindOpaque
}

// Classify builds the tagged variant for a raw field value. A []string is
// widened to []any so sequence handling has a single shape.
func Classify(v any) FieldValue {
	switch t := v.(type) {
	case string:
		return FieldValue{Kind: KindText, Text: t}
	case []string:
		seq := make([]any, len(t))
		for i, s := range t {
			seq[i] = s
		}
		return FieldValue{Kind: KindTextSeq, Seq: seq}
	case []any:
		return FieldValue{Kind: KindTextSeq, Seq: t}
	default:
		return FieldValue{Kind: KindOpaque, Raw: v}
	}
}

// FieldResult binds one field to its detections. It is produced once by
// BatchDetector and consumed once by BatchAnonymizer; there is no shared
// state between the two passes.
//
// Detections are shape-matched to the value: Spans for a text field,
// SeqSpans index-aligned with Value.Seq for a sequence field, both empty
// for an opaque field.
type FieldResult struct {
	Key      string
	Value    FieldValue
	Spans    []Span
	SeqSpans [][]Span
}

// ResultSource is the anonymizer's view of a detection result stream.
// *RecordResults satisfies it; Results adapts a pre-materialized slice.
type ResultSource interface {
	// Next advances to the next FieldResult. It returns false when the
	// stream is exhausted or a detection error occurred; check Err after.
	Next() bool
	// Result returns the FieldResult produced by the last successful Next.
	Result() FieldResult
	// Err returns the first error encountered while producing results.
	Err() error
}

// Results wraps already-materialized field results in a ResultSource.
func Results(results ...FieldResult) ResultSource {
	return &sliceResults{items: results}
}

type sliceResults struct {
	items []FieldResult
	pos   int
	cur   FieldResult
}

func (s *sliceResults) Next() bool {
	if s.pos >= len(s.items) {
		return false
	}
	s.cur = s.items[s.pos]
	s.pos++
	return true
}

func (s *sliceResults) Result() FieldResult { return s.cur }

func (s *sliceResults) Err() error { return nil }
