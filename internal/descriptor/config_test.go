package descriptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeOverwriteInnerWins(t *testing.T) {
	outer := Configuration{
		"window_size": 10,
		"nested": Configuration{
			"a": 1,
			"b": 2,
		},
	}
	inner := Configuration{
		"window_size": 20,
		"nested": Configuration{
			"b": 99,
		},
	}

	merged := inner.MergeOverwrite(outer)

	assert.Equal(t, 20, merged["window_size"])
	nested, ok := merged["nested"].(Configuration)
	require.True(t, ok)
	assert.Equal(t, 1, nested["a"])
	assert.Equal(t, 99, nested["b"])
}

func TestMergeOverwriteNilOuter(t *testing.T) {
	inner := Configuration{"a": 1}
	merged := inner.MergeOverwrite(nil)
	assert.Equal(t, Configuration{"a": 1}, merged)
}

func TestCloneIsDeep(t *testing.T) {
	original := Configuration{
		"nested": Configuration{"a": 1},
	}
	clone := original.Clone()
	clone["nested"].(Configuration)["a"] = 2

	nested := original["nested"].(Configuration)
	assert.Equal(t, 1, nested["a"])
}
