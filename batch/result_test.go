package batch_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodeRunRepeat/presidio/batch"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want batch.Kind
	}{
		{"string", "hello", batch.KindText},
		{"empty string", "", batch.KindText},
		{"any slice", []any{"a", 1}, batch.KindTextSeq},
		{"string slice", []string{"a", "b"}, batch.KindTextSeq},
		{"int", 42, batch.KindOpaque},
		{"float", 2.5, batch.KindOpaque},
		{"bool", true, batch.KindOpaque},
		{"nil", nil, batch.KindOpaque},
		{"nested record", map[string]any{"k": "v"}, batch.KindOpaque},
		{"byte slice", []byte("raw"), batch.KindOpaque},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, batch.Classify(tt.in).Kind)
		})
	}
}

func TestClassifyWidensStringSlice(t *testing.T) {
	fv := batch.Classify([]string{"a", "b"})
	require.Equal(t, batch.KindTextSeq, fv.Kind)
	assert.Equal(t, []any{"a", "b"}, fv.Seq)
}

func TestResultsSource(t *testing.T) {
	src := batch.Results(
		batch.FieldResult{Key: "a", Value: batch.Classify("one")},
		batch.FieldResult{Key: "b", Value: batch.Classify(2)},
	)

	require.True(t, src.Next())
	assert.Equal(t, "a", src.Result().Key)
	require.True(t, src.Next())
	assert.Equal(t, "b", src.Result().Key)
	assert.False(t, src.Next())
	assert.NoError(t, src.Err())
}
