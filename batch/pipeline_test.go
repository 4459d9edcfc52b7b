package batch_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodeRunRepeat/presidio/batch"
	"github.com/CodeRunRepeat/presidio/internal/testutil"
)

// runPipeline wires detector output straight into the anonymizer, the way
// a caller consumes the two components in sequence.
func runPipeline(t *testing.T, detect batch.DetectFunc, anonymize batch.AnonymizeFunc, record map[string]any) map[string]any {
	t.Helper()
	ctx := context.Background()
	detector := batch.NewBatchDetector(detect)
	anonymizer := batch.NewBatchAnonymizer(anonymize)

	out, err := anonymizer.AnonymizeRecord(ctx, detector.DetectRecord(ctx, record, nil), nil)
	require.NoError(t, err)
	return out
}

func TestPipelineScalarField(t *testing.T) {
	out := runPipeline(t,
		testutil.TermDetector(map[string]string{"Morris": "PERSON"}),
		testutil.PlaceholderAnonymizer(),
		map[string]any{"name": "Morris likes this", "count": 1},
	)

	assert.Equal(t, map[string]any{
		"name":  "<PERSON> likes this",
		"count": 1,
	}, out)
}

func TestPipelineSequenceField(t *testing.T) {
	out := runPipeline(t,
		testutil.TermDetector(map[string]string{"212-555-1234": "PHONE_NUMBER"}),
		testutil.PlaceholderAnonymizer(),
		map[string]any{"phones": []any{"call 212-555-1234", "no pii here"}},
	)

	assert.Equal(t, map[string]any{
		"phones": []any{"call <PHONE_NUMBER>", "no pii here"},
	}, out)
}

func TestPipelineStringSliceField(t *testing.T) {
	out := runPipeline(t,
		testutil.TermDetector(map[string]string{"212-555-1234": "PHONE_NUMBER"}),
		testutil.PlaceholderAnonymizer(),
		map[string]any{"phones": []string{"call 212-555-1234", "no pii here"}},
	)

	assert.Equal(t, map[string]any{
		"phones": []any{"call <PHONE_NUMBER>", "no pii here"},
	}, out)
}

func TestPipelineOpaqueOnlyRecord(t *testing.T) {
	var detectCalls, anonymizeCalls atomic.Int64
	detect := testutil.CountingDetect(testutil.TermDetector(nil), &detectCalls)
	anonymize := testutil.CountingAnonymize(testutil.PlaceholderAnonymizer(), &anonymizeCalls)

	out := runPipeline(t, detect, anonymize, map[string]any{"flag": true})

	assert.Equal(t, map[string]any{"flag": true}, out)
	assert.Equal(t, int64(0), detectCalls.Load())
	assert.Equal(t, int64(0), anonymizeCalls.Load())
}

func TestPipelineKeySetPreserved(t *testing.T) {
	record := map[string]any{
		"name":    "Morris likes this",
		"phones":  []any{"call 212-555-1234", 17, "no pii here"},
		"count":   1,
		"flag":    true,
		"empty":   "",
		"absent":  nil,
		"nothing": []any{},
	}

	out := runPipeline(t,
		testutil.TermDetector(map[string]string{
			"Morris":       "PERSON",
			"212-555-1234": "PHONE_NUMBER",
		}),
		testutil.PlaceholderAnonymizer(),
		record,
	)

	require.Len(t, out, len(record))
	for key := range record {
		assert.Contains(t, out, key)
	}

	// Sequence length and order survive, non-string elements byte-identical.
	phones, ok := out["phones"].([]any)
	require.True(t, ok)
	require.Len(t, phones, 3)
	assert.Equal(t, "call <PHONE_NUMBER>", phones[0])
	assert.Equal(t, 17, phones[1])
	assert.Equal(t, "no pii here", phones[2])
}

func TestPipelineRepeatable(t *testing.T) {
	// Both components are stateless: running the same record twice through
	// fresh detection streams yields identical output.
	detect := testutil.TermDetector(map[string]string{"Morris": "PERSON"})
	anonymize := testutil.PlaceholderAnonymizer()
	record := map[string]any{"name": "Morris", "n": 2}

	first := runPipeline(t, detect, anonymize, record)
	second := runPipeline(t, detect, anonymize, record)
	assert.Equal(t, first, second)
}
