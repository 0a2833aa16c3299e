package descriptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuardCompileAndEvaluate(t *testing.T) {
	compiler, err := NewGuardCompiler()
	require.NoError(t, err)

	guard, err := compiler.Compile("output.value > 10.0")
	require.NoError(t, err)

	ok, err := guard.Evaluate(map[string]interface{}{"value": 15.0}, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = guard.Evaluate(map[string]interface{}{"value": 5.0}, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGuardCompilerCachesByExpression(t *testing.T) {
	compiler, err := NewGuardCompiler()
	require.NoError(t, err)

	_, err = compiler.Compile("output.value > 1.0")
	require.NoError(t, err)
	_, err = compiler.Compile("output.value > 1.0")
	require.NoError(t, err)

	assert.Equal(t, 1, compiler.CacheSize())
}

func TestGuardCompileInvalidExpression(t *testing.T) {
	compiler, err := NewGuardCompiler()
	require.NoError(t, err)

	_, err = compiler.Compile("output.value >>> bad syntax")
	assert.Error(t, err)
}

func TestGuardEvaluateNonBooleanResult(t *testing.T) {
	compiler, err := NewGuardCompiler()
	require.NoError(t, err)

	guard, err := compiler.Compile("output.value")
	require.NoError(t, err)

	_, err = guard.Evaluate(map[string]interface{}{"value": 5.0}, nil)
	assert.Error(t, err)
}

func TestGuardEvaluateUsesCtxVariable(t *testing.T) {
	compiler, err := NewGuardCompiler()
	require.NoError(t, err)

	guard, err := compiler.Compile("output.value > ctx.threshold")
	require.NoError(t, err)

	ok, err := guard.Evaluate(map[string]interface{}{"value": 15.0}, Configuration{"threshold": 10.0})
	require.NoError(t, err)
	assert.True(t, ok)
}
