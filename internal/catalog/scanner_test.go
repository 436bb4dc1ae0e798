package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindBlock(t *testing.T) {
	src := `
export class Slack implements INodeType {
	description: INodeTypeDescription = {
		displayName: 'Slack',
		name: 'slack',
	};
}`

	block, ok := findBlock(src, "description")
	require.True(t, ok)
	assert.Contains(t, block, "displayName: 'Slack'")
	assert.Contains(t, block, "name: 'slack'")

	_, ok = findBlock(src, "nonexistent")
	assert.False(t, ok)
}

func TestBalancedSpan(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected string
		complete bool
	}{
		{
			name:     "flat object",
			src:      `{a: 1, b: 2} trailing`,
			expected: `{a: 1, b: 2}`,
			complete: true,
		},
		{
			name:     "nested objects",
			src:      `{a: {b: {c: 3}}}`,
			expected: `{a: {b: {c: 3}}}`,
			complete: true,
		},
		{
			name:     "braces inside string literals are skipped",
			src:      `{a: 'has } inside', b: "also {"}`,
			expected: `{a: 'has } inside', b: "also {"}`,
			complete: true,
		},
		{
			name:     "braces inside line comments are skipped",
			src:      "{a: 1, // not a close }\nb: 2}",
			expected: "{a: 1, // not a close }\nb: 2}",
			complete: true,
		},
		{
			name:     "braces inside block comments are skipped",
			src:      `{a: 1, /* } */ b: 2}`,
			expected: `{a: 1, /* } */ b: 2}`,
			complete: true,
		},
		{
			name:     "truncated source returns what was scanned",
			src:      `{a: 1, b: {c: 2}`,
			expected: `{a: 1, b: {c: 2}`,
			complete: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			span, ok := balancedSpan(tt.src, '{', '}')
			assert.Equal(t, tt.expected, span)
			assert.Equal(t, tt.complete, ok)
		})
	}
}

func TestScanPairs(t *testing.T) {
	block := `
		displayName: 'HTTP Request',
		name: 'httpRequest',
		group: ['transform'],
		version: [1, 2, 3],
		defaults: {
			name: 'HTTP Request',
		},
		description: "Makes an HTTP request",
	`

	pairs := scanPairs(block)

	byKey := map[string]string{}
	for _, p := range pairs {
		byKey[p.key] = p.value
	}

	assert.Equal(t, `'HTTP Request'`, byKey["displayName"])
	assert.Equal(t, `'httpRequest'`, byKey["name"])
	assert.Equal(t, `['transform']`, byKey["group"])
	assert.Equal(t, `[1, 2, 3]`, byKey["version"])
	assert.Equal(t, `"Makes an HTTP request"`, byKey["description"])

	// The nested defaults object must not leak its inner name pair to the
	// top level.
	assert.Contains(t, byKey["defaults"], "HTTP Request")
	count := 0
	for _, p := range pairs {
		if p.key == "name" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestScanObjectArray(t *testing.T) {
	raw := `[
		{ name: 'slackApi', required: true },
		{ name: 'slackOAuth2Api' },
		'not an object',
	]`

	objects := scanObjectArray(raw)
	require.Len(t, objects, 2)

	first := map[string]string{}
	for _, p := range objects[0] {
		first[p.key] = p.value
	}
	assert.Equal(t, `'slackApi'`, first["name"])
	assert.Equal(t, `true`, first["required"])

	assert.Nil(t, scanObjectArray(`not an array`))
	assert.Empty(t, scanObjectArray(`[]`))
}

func TestStringList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, stringList(`['a', "b"]`))
	assert.Equal(t, []string{"single"}, stringList(`'single'`))
	assert.Nil(t, stringList(`42`))
	assert.Empty(t, stringList(`[]`))
}

func TestNumberList(t *testing.T) {
	assert.Equal(t, []float64{1, 1.1, 2}, numberList(`[1, 1.1, 2]`))
	assert.Empty(t, numberList(`[]`))
}

func TestUnquote(t *testing.T) {
	assert.Equal(t, "plain", unquote(`'plain'`))
	assert.Equal(t, "double", unquote(`"double"`))
	assert.Equal(t, "tick", unquote("`tick`"))
	assert.Equal(t, "it's", unquote(`'it\'s'`))
	assert.Equal(t, "bare", unquote("bare"))
}
