package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greetArgs struct {
	Name  string `json:"name"`
	Shout bool   `json:"shout,omitempty"`
}

func greetTool() Tool {
	return Define(
		"greet",
		"Greets someone by name.",
		ObjectSchema(map[string]any{
			"name":  map[string]any{"type": "string"},
			"shout": map[string]any{"type": "boolean"},
		}, "name"),
		func(ctx context.Context, args greetArgs) (string, error) {
			greeting := "hello " + args.Name
			if args.Shout {
				greeting += "!"
			}
			return greeting, nil
		},
	)
}

func TestTypedToolExecute(t *testing.T) {
	g := greetTool()

	result, err := g.Execute(context.Background(), `{"name": "Ada", "shout": true}`)
	require.NoError(t, err)
	assert.Equal(t, "hello Ada!", result)
}

func TestTypedToolValidatesArguments(t *testing.T) {
	g := greetTool()

	tests := []struct {
		name string
		args string
	}{
		{name: "missing required field", args: `{}`},
		{name: "wrong type", args: `{"name": 42}`},
		{name: "empty arguments with required field", args: ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.Execute(context.Background(), tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "schema validation")
		})
	}
}

func TestTypedToolRejectsMalformedJSON(t *testing.T) {
	g := greetTool()

	_, err := g.Execute(context.Background(), `{not json`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid tool arguments")
}

func TestTypedToolPropagatesExecutionErrors(t *testing.T) {
	failing := Define(
		"fail",
		"Always fails.",
		ObjectSchema(map[string]any{}),
		func(ctx context.Context, args struct{}) (string, error) {
			return "", errors.New("boom")
		},
	)

	_, err := failing.Execute(context.Background(), `{}`)
	require.EqualError(t, err, "boom")
}

func TestDefinePanicsOnInvalidSchema(t *testing.T) {
	assert.Panics(t, func() {
		Define(
			"bad",
			"Broken schema.",
			map[string]any{"type": 12345},
			func(ctx context.Context, args struct{}) (string, error) { return "", nil },
		)
	})
}

func TestToTypesTool(t *testing.T) {
	g := greetTool()
	converted := ToTypesTool(g)

	assert.Equal(t, "greet", converted.Name)
	assert.Equal(t, g.Description(), converted.Description)
	assert.Equal(t, g.Parameters(), converted.Parameters)
}

func TestObjectSchema(t *testing.T) {
	schema := ObjectSchema(map[string]any{
		"a": map[string]any{"type": "string"},
	}, "a")

	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []string{"a"}, schema["required"])

	noRequired := ObjectSchema(map[string]any{})
	_, hasRequired := noRequired["required"]
	assert.False(t, hasRequired)
}
