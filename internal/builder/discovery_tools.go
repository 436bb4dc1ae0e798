package builder

import (
	"context"
	"errors"
	"fmt"

	"github.com/flowsmith/flowsmith/pkg/agent/tool"
	"github.com/flowsmith/flowsmith/pkg/domain"
)

type searchNodeTypesArgs struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

func (s *Session) searchNodeTypesTool() tool.Tool {
	return tool.Define(
		"search_node_types",
		"Search the catalogue of available node types by name, alias or description. Returns compact summaries ranked by relevance.",
		tool.ObjectSchema(map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "Search text, e.g. 'http', 'postgres', 'schedule'.",
			},
			"limit": map[string]any{
				"type":        "integer",
				"description": "Maximum number of results (default 20).",
			},
		}, "query"),
		func(ctx context.Context, args searchNodeTypesArgs) (string, error) {
			summaries := s.index.Search(args.Query, args.Limit)
			if len(summaries) == 0 {
				return fmt.Sprintf("No node types match %q. Try a shorter or more generic query.", args.Query), nil
			}

			return asJSON(summaries)
		},
	)
}

type getNodeDetailsArgs struct {
	Type string `json:"type"`
}

func (s *Session) getNodeDetailsTool() tool.Tool {
	return tool.Define(
		"get_node_details",
		"Fetch the full definition of one node type: parameters, credentials, resources and operations. Accepts a type identifier, name or alias.",
		tool.ObjectSchema(map[string]any{
			"type": map[string]any{
				"type":        "string",
				"description": "Type identifier, machine name, display name or alias.",
			},
		}, "type"),
		func(ctx context.Context, args getNodeDetailsArgs) (string, error) {
			entry, err := s.index.GetDetails(args.Type)
			if errors.Is(err, domain.ErrNodeTypeNotFound) {
				return fmt.Sprintf("Node type %q is unknown. Use search_node_types to find the correct type identifier.", args.Type), nil
			}
			if err != nil {
				return "", err
			}

			return asJSON(entry)
		},
	)
}

type getNodeParametersArgs struct {
	Type      string `json:"type"`
	Resource  string `json:"resource,omitempty"`
	Operation string `json:"operation,omitempty"`
}

func (s *Session) getNodeParametersTool() tool.Tool {
	return tool.Define(
		"get_node_parameters",
		"List the parameters of a node type visible for a given resource/operation selection. Omit resource and operation for the unconditional parameters.",
		tool.ObjectSchema(map[string]any{
			"type": map[string]any{
				"type":        "string",
				"description": "Type identifier, machine name, display name or alias.",
			},
			"resource": map[string]any{
				"type":        "string",
				"description": "Active resource value, when the node has a resource menu.",
			},
			"operation": map[string]any{
				"type":        "string",
				"description": "Active operation value under the resource.",
			},
		}, "type"),
		func(ctx context.Context, args getNodeParametersArgs) (string, error) {
			entry, err := s.index.GetDetails(args.Type)
			if errors.Is(err, domain.ErrNodeTypeNotFound) {
				return fmt.Sprintf("Node type %q is unknown. Use search_node_types to find the correct type identifier.", args.Type), nil
			}
			if err != nil {
				return "", err
			}

			params := entry.ParametersFor(args.Resource, args.Operation)
			if len(params) == 0 {
				return fmt.Sprintf("Node type %q declares no parameters for resource=%q operation=%q.", entry.TypeIdentifier, args.Resource, args.Operation), nil
			}

			return asJSON(params)
		},
	)
}

type getOperationSchemaArgs struct {
	Type      string `json:"type"`
	Resource  string `json:"resource,omitempty"`
	Operation string `json:"operation,omitempty"`
}

func (s *Session) getOperationSchemaTool() tool.Tool {
	return tool.Define(
		"get_operation_schema",
		"Fetch the captured output-shape snapshot of a node operation, when one exists. Most operations have no captured schema; that is not an error.",
		tool.ObjectSchema(map[string]any{
			"type": map[string]any{
				"type":        "string",
				"description": "Type identifier, machine name, display name or alias.",
			},
			"resource": map[string]any{
				"type":        "string",
				"description": "Resource value the operation belongs to.",
			},
			"operation": map[string]any{
				"type":        "string",
				"description": "Operation value to fetch the schema for.",
			},
		}, "type"),
		func(ctx context.Context, args getOperationSchemaArgs) (string, error) {
			schema, err := s.index.OperationSchema(args.Type, args.Resource, args.Operation)
			if errors.Is(err, domain.ErrNodeTypeNotFound) {
				return fmt.Sprintf("Node type %q is unknown. Use search_node_types to find the correct type identifier.", args.Type), nil
			}
			if errors.Is(err, domain.ErrSchemaNotFound) {
				return fmt.Sprintf("No output schema is captured for %s resource=%q operation=%q.", args.Type, args.Resource, args.Operation), nil
			}
			if err != nil {
				return "", err
			}

			return string(schema), nil
		},
	)
}

type listTriggerTypesArgs struct{}

func (s *Session) listTriggerTypesTool() tool.Tool {
	return tool.Define(
		"list_trigger_types",
		"List every node type that can start a workflow run. Every workflow needs at least one of these.",
		tool.ObjectSchema(map[string]any{}),
		func(ctx context.Context, args listTriggerTypesArgs) (string, error) {
			return asJSON(s.index.TriggerTypes())
		},
	)
}
