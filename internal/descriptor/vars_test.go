package descriptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandMustacheSimple(t *testing.T) {
	body := "topic: {{topic_name}}\ncount: {{count}}"
	vars := Configuration{"topic_name": "sensors/temp", "count": 3}

	out, err := ExpandMustache(body, vars)
	require.NoError(t, err)
	assert.Equal(t, "topic: sensors/temp\ncount: 3", out)
}

func TestExpandMustacheNestedPath(t *testing.T) {
	body := "size: {{window.size}}"
	vars := Configuration{"window": Configuration{"size": 50}}

	out, err := ExpandMustache(body, vars)
	require.NoError(t, err)
	assert.Equal(t, "size: 50", out)
}

func TestExpandMustacheLeavesUnresolvedUntouched(t *testing.T) {
	body := "a: {{known}}\nb: {{unknown}}"
	vars := Configuration{"known": "value"}

	out, err := ExpandMustache(body, vars)
	require.NoError(t, err)
	assert.Equal(t, "a: value\nb: {{unknown}}", out)
}

func TestExpandMustacheNoVarsReturnsBodyUnchanged(t *testing.T) {
	body := "plain: yaml"
	out, err := ExpandMustache(body, nil)
	require.NoError(t, err)
	assert.Equal(t, body, out)
}
