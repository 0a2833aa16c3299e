package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenohflow/runtime/internal/descriptor"
)

func TestTokenReadyNotReady(t *testing.T) {
	r := Ready(42)
	assert.True(t, r.IsReady())
	data, ok := r.Data()
	require.True(t, ok)
	assert.Equal(t, 42, data)

	n := NotReady()
	assert.True(t, n.IsNotReady())
	_, ok = n.Data()
	assert.False(t, ok)
}

func TestTokenActionsClearOrPreserveReadiness(t *testing.T) {
	consumed := Ready(1).Consume()
	assert.Equal(t, Consume, consumed.GetAction())
	assert.True(t, consumed.IsNotReady())

	kept := Ready(2).KeepToken()
	assert.Equal(t, Keep, kept.GetAction())
	assert.True(t, kept.IsReady())

	keptRun := Ready(3).KeepRun()
	assert.Equal(t, KeepRun, keptRun.GetAction())
	assert.True(t, keptRun.IsReady())

	dropped := Ready(4).DropToken()
	assert.Equal(t, Drop, dropped.GetAction())
	assert.True(t, dropped.IsNotReady())

	waited := Ready(5).WaitToken()
	assert.Equal(t, Wait, waited.GetAction())
	assert.True(t, waited.IsNotReady())
}

func TestDefaultInputRuleRequiresAllReady(t *testing.T) {
	tokens := Tokens{
		"lhs": Ready(1),
		"rhs": NotReady(),
	}
	runnable, _, err := DefaultInputRule(tokens)
	require.NoError(t, err)
	assert.False(t, runnable)
}

func TestDefaultInputRuleConsumesAllWhenReady(t *testing.T) {
	tokens := Tokens{
		"lhs": Ready(1),
		"rhs": Ready(2),
	}
	runnable, next, err := DefaultInputRule(tokens)
	require.NoError(t, err)
	require.True(t, runnable)
	for port, tok := range next {
		assert.Equal(t, Consume, tok.GetAction(), "port %s", port)
		assert.True(t, tok.IsNotReady())
	}
}

func TestDefaultOutputRuleForwardsUnchanged(t *testing.T) {
	outputs := Outputs{descriptor.PortID("out"): 99}
	forwarded, err := DefaultOutputRule(outputs)
	require.NoError(t, err)
	assert.Equal(t, outputs, forwarded)
}
