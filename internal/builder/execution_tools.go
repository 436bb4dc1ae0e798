package builder

import (
	"context"

	"github.com/flowsmith/flowsmith/pkg/agent/tool"
	"github.com/flowsmith/flowsmith/pkg/clients/runtime"
)

type listExecutionsArgs struct {
	WorkflowID string `json:"workflow_id,omitempty"`
	Status     string `json:"status,omitempty"`
	Limit      int    `json:"limit,omitempty"`
}

func (s *Session) listExecutionsTool() tool.Tool {
	return tool.Define(
		"list_executions",
		"List workflow executions, optionally filtered by workflow and status.",
		tool.ObjectSchema(map[string]any{
			"workflow_id": map[string]any{
				"type":        "string",
				"description": "Only executions of this workflow.",
			},
			"status": map[string]any{
				"type":        "string",
				"description": "Only executions with this status, e.g. 'success', 'error', 'waiting'.",
			},
			"limit": map[string]any{
				"type":        "integer",
				"description": "Maximum number of executions to return.",
			},
		}),
		func(ctx context.Context, args listExecutionsArgs) (string, error) {
			executions, err := s.client.ListExecutions(ctx, runtime.ListExecutionsParams{
				WorkflowID: args.WorkflowID,
				Status:     args.Status,
				Limit:      args.Limit,
			})
			if err != nil {
				return "", err
			}

			return asJSON(executions)
		},
	)
}

type executionIDArgs struct {
	ID string `json:"id"`
}

func (s *Session) getExecutionTool() tool.Tool {
	return tool.Define(
		"get_execution",
		"Fetch one execution by identifier, including its result data.",
		tool.ObjectSchema(map[string]any{
			"id": map[string]any{
				"type":        "string",
				"description": "Execution identifier.",
			},
		}, "id"),
		func(ctx context.Context, args executionIDArgs) (string, error) {
			execution, err := s.client.GetExecution(ctx, args.ID)
			if err != nil {
				return "", err
			}

			return asJSON(execution)
		},
	)
}

func (s *Session) retryExecutionTool() tool.Tool {
	return tool.Define(
		"retry_execution",
		"Retry a failed execution and return the new execution.",
		tool.ObjectSchema(map[string]any{
			"id": map[string]any{
				"type":        "string",
				"description": "Identifier of the failed execution to retry.",
			},
		}, "id"),
		func(ctx context.Context, args executionIDArgs) (string, error) {
			execution, err := s.client.RetryExecution(ctx, args.ID)
			if err != nil {
				return "", err
			}

			return asJSON(execution)
		},
	)
}
