package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want NodeKind
	}{
		{"leaf with value key", map[string]any{"value": 100.0, "confidence": 0.9}, KindLeaf},
		{"leaf with null value", map[string]any{"value": nil}, KindLeaf},
		{"plain mapping", map[string]any{"Equity": map[string]any{}}, KindMapping},
		{"empty mapping", map[string]any{}, KindMapping},
		{"sequence", []any{1.0, 2.0}, KindSequence},
		{"string scalar", "hello", KindScalar},
		{"number scalar", 3.14, KindScalar},
		{"null scalar", nil, KindScalar},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.in).Kind)
		})
	}
}

func TestLeafValue(t *testing.T) {
	assert.Equal(t, 100.0, LeafValue(map[string]any{"value": 100.0, "confidence": 0.95}))
	assert.Nil(t, LeafValue(map[string]any{"value": nil}))
	assert.Nil(t, LeafValue(map[string]any{"confidence": 0.5}))
	assert.Equal(t, "bare", LeafValue("bare"))
	assert.Equal(t, 7.0, LeafValue(7.0))
}
