package builder

import (
	"context"
	"fmt"

	"github.com/flowsmith/flowsmith/pkg/agent/tool"
	"github.com/flowsmith/flowsmith/pkg/clients/runtime"
)

type manageVariableArgs struct {
	Action string `json:"action"`
	ID     string `json:"id,omitempty"`
	Key    string `json:"key,omitempty"`
	Value  string `json:"value,omitempty"`
}

func (s *Session) manageVariableTool() tool.Tool {
	return tool.Define(
		"manage_variable",
		"List, create, update or delete runtime variables. Variables are available to all workflows as $vars.<key>.",
		tool.ObjectSchema(map[string]any{
			"action": map[string]any{
				"type":        "string",
				"enum":        []string{"list", "create", "update", "delete"},
				"description": "What to do with the variable.",
			},
			"id": map[string]any{
				"type":        "string",
				"description": "Variable identifier. Required for update and delete.",
			},
			"key": map[string]any{
				"type":        "string",
				"description": "Variable key. Required for create.",
			},
			"value": map[string]any{
				"type":        "string",
				"description": "Variable value. Required for create and update.",
			},
		}, "action"),
		func(ctx context.Context, args manageVariableArgs) (string, error) {
			switch args.Action {
			case "list":
				variables, err := s.client.ListVariables(ctx)
				if err != nil {
					return "", err
				}
				return asJSON(variables)

			case "create":
				if args.Key == "" {
					return "A variable key is required to create a variable.", nil
				}
				variable, err := s.client.CreateVariable(ctx, &runtime.Variable{Key: args.Key, Value: args.Value})
				if err != nil {
					return "", err
				}
				return asJSON(variable)

			case "update":
				if args.ID == "" {
					return "A variable id is required to update a variable. Use the list action to find it.", nil
				}
				variable, err := s.client.UpdateVariable(ctx, args.ID, &runtime.Variable{Key: args.Key, Value: args.Value})
				if err != nil {
					return "", err
				}
				return asJSON(variable)

			case "delete":
				if args.ID == "" {
					return "A variable id is required to delete a variable.", nil
				}
				if err := s.client.DeleteVariable(ctx, args.ID); err != nil {
					return "", err
				}
				return fmt.Sprintf("Variable %s deleted.", args.ID), nil

			default:
				return fmt.Sprintf("Unknown action %q. Use list, create, update or delete.", args.Action), nil
			}
		},
	)
}
