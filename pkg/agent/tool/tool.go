package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/flowsmith/flowsmith/pkg/agent/types"
)

// Tool is one callable capability exposed to the model. Implementations
// form a closed set of typed variants (see Define); the loop dispatches on
// the tool value itself, never on reflected schemas.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any
	Execute(ctx context.Context, argsJSON string) (string, error)
}

// TypedTool binds a name, a JSON schema and a strongly typed argument
// struct to one execution function. Arguments are validated against the
// schema before decoding, so the execute function never sees malformed
// input.
type TypedTool[A any] struct {
	name        string
	description string
	parameters  map[string]any
	schema      *jsonschema.Schema
	fn          func(ctx context.Context, args A) (string, error)
}

// Define builds a TypedTool. The schema must be a valid JSON schema
// document; Define panics otherwise, since tool schemas are static
// program data.
func Define[A any](name, description string, parameters map[string]any, fn func(ctx context.Context, args A) (string, error)) *TypedTool[A] {
	schemaJSON, err := json.Marshal(parameters)
	if err != nil {
		panic(fmt.Sprintf("tool %s: invalid parameter schema: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name+".json", strings.NewReader(string(schemaJSON))); err != nil {
		panic(fmt.Sprintf("tool %s: invalid parameter schema: %v", name, err))
	}

	schema, err := compiler.Compile(name + ".json")
	if err != nil {
		panic(fmt.Sprintf("tool %s: invalid parameter schema: %v", name, err))
	}

	return &TypedTool[A]{
		name:        name,
		description: description,
		parameters:  parameters,
		schema:      schema,
		fn:          fn,
	}
}

func (t *TypedTool[A]) Name() string               { return t.name }
func (t *TypedTool[A]) Description() string        { return t.description }
func (t *TypedTool[A]) Parameters() map[string]any { return t.parameters }

func (t *TypedTool[A]) Execute(ctx context.Context, argsJSON string) (string, error) {
	if argsJSON == "" {
		argsJSON = "{}"
	}

	var raw any
	if err := json.Unmarshal([]byte(argsJSON), &raw); err != nil {
		return "", fmt.Errorf("invalid tool arguments: %w", err)
	}

	if err := t.schema.Validate(raw); err != nil {
		return "", fmt.Errorf("tool arguments failed schema validation: %w", err)
	}

	var args A
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		return "", fmt.Errorf("failed to decode tool arguments: %w", err)
	}

	return t.fn(ctx, args)
}

// ToTypesTool converts a Tool to its model-facing description.
func ToTypesTool(t Tool) types.Tool {
	return types.Tool{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters:  t.Parameters(),
	}
}

// ObjectSchema is a helper for the common flat object schema shape.
func ObjectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}

	return schema
}
