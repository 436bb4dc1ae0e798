package builder

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/xid"
	"github.com/rs/zerolog/log"

	"github.com/flowsmith/flowsmith/internal/graph"
	"github.com/flowsmith/flowsmith/pkg/agent/tool"
	"github.com/flowsmith/flowsmith/pkg/clients/runtime"
	"github.com/flowsmith/flowsmith/pkg/domain"
)

// connectionGrammar restates the edge rules for the model after a rejected
// submission.
const connectionGrammar = `Connection rules:
- connections is a map: source node name -> connection kind -> array of arrays of {"node", "type", "index"}.
- "main" carries the data pipeline. Every trigger needs at least one outgoing "main" connection, and every regular node must receive data (incoming connection or direct trigger target) and be reachable from a trigger.
- Specialized sub-nodes connect to their consumer with their own kind: embeddings via "ai_embedding", document loaders via "ai_document", text splitters via "ai_textSplitter", memory via "ai_memory", tools via "ai_tool".
- Every name used in connections must match a node in "nodes" exactly.`

// checkDraft validates the draft and, on defects, produces the structured
// rejection (or the terminal give-up message at the failure ceiling). The
// rejection is a tool result for the model, never a Go error.
func (s *Session) checkDraft(draft domain.WorkflowDraft) (string, bool) {
	defects := graph.Validate(draft, s.table)
	if len(defects) == 0 {
		return "", true
	}

	if s.recordValidationFailure() {
		return giveUpMessage, false
	}

	lines := make([]string, 0, len(defects)+2)
	lines = append(lines, fmt.Sprintf("The workflow is invalid and was not submitted. %d problem(s):", len(defects)))
	for _, defect := range defects {
		lines = append(lines, "- "+defect.String())
	}
	lines = append(lines, "", connectionGrammar)

	return strings.Join(lines, "\n"), false
}

var nodesSchema = map[string]any{
	"type":        "array",
	"description": "Workflow nodes. Each node needs a unique local name and a node type identifier.",
	"items": map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id":          map[string]any{"type": "string"},
			"name":        map[string]any{"type": "string"},
			"type":        map[string]any{"type": "string"},
			"typeVersion": map[string]any{"type": "number"},
			"position": map[string]any{
				"type":     "array",
				"items":    map[string]any{"type": "number"},
				"minItems": 2,
				"maxItems": 2,
			},
			"parameters":  map[string]any{"type": "object"},
			"credentials": map[string]any{"type": "object"},
		},
		"required": []string{"name", "type"},
	},
}

var connectionsSchema = map[string]any{
	"type":        "object",
	"description": "Map of source node name -> connection kind -> array of arrays of {node, type, index}.",
}

type listWorkflowsArgs struct {
	Active *bool `json:"active,omitempty"`
	Limit  int   `json:"limit,omitempty"`
}

func (s *Session) listWorkflowsTool() tool.Tool {
	return tool.Define(
		"list_workflows",
		"List workflows on the runtime, optionally filtered by active state.",
		tool.ObjectSchema(map[string]any{
			"active": map[string]any{
				"type":        "boolean",
				"description": "Only return workflows in this active state.",
			},
			"limit": map[string]any{
				"type":        "integer",
				"description": "Maximum number of workflows to return.",
			},
		}),
		func(ctx context.Context, args listWorkflowsArgs) (string, error) {
			workflows, err := s.client.ListWorkflows(ctx, runtime.ListWorkflowsParams{
				Active: args.Active,
				Limit:  args.Limit,
			})
			if err != nil {
				return "", err
			}

			return asJSON(workflows)
		},
	)
}

type workflowIDArgs struct {
	ID string `json:"id"`
}

func workflowIDSchema(description string) map[string]any {
	return tool.ObjectSchema(map[string]any{
		"id": map[string]any{
			"type":        "string",
			"description": description,
		},
	}, "id")
}

func (s *Session) getWorkflowTool() tool.Tool {
	return tool.Define(
		"get_workflow",
		"Fetch one workflow by its runtime identifier, including nodes and connections.",
		workflowIDSchema("Runtime identifier of the workflow."),
		func(ctx context.Context, args workflowIDArgs) (string, error) {
			workflow, err := s.client.GetWorkflow(ctx, args.ID)
			if err != nil {
				return "", err
			}

			return asJSON(workflow)
		},
	)
}

type createWorkflowArgs struct {
	Name        string                `json:"name"`
	Nodes       []domain.NodeInstance `json:"nodes"`
	Connections domain.ConnectionMap  `json:"connections"`
	Settings    map[string]any        `json:"settings,omitempty"`
}

func (s *Session) createWorkflowTool() tool.Tool {
	return tool.Define(
		"create_workflow",
		"Create a new workflow on the runtime. The graph is validated first; on defects the workflow is rejected with the full problem list and nothing is submitted.",
		tool.ObjectSchema(map[string]any{
			"name":        map[string]any{"type": "string", "description": "Human-readable workflow name."},
			"nodes":       nodesSchema,
			"connections": connectionsSchema,
			"settings":    map[string]any{"type": "object"},
		}, "name", "nodes", "connections"),
		func(ctx context.Context, args createWorkflowArgs) (string, error) {
			draft := domain.WorkflowDraft{
				Name:        args.Name,
				Nodes:       args.Nodes,
				Connections: args.Connections,
				Settings:    args.Settings,
			}

			if rejection, ok := s.checkDraft(draft); !ok {
				return rejection, nil
			}

			for i := range draft.Nodes {
				if draft.Nodes[i].ID == "" {
					draft.Nodes[i].ID = xid.New().String()
				}
			}

			created, err := s.client.CreateWorkflow(ctx, &runtime.Workflow{
				Name:        draft.Name,
				Nodes:       draft.Nodes,
				Connections: draft.Connections,
				Settings:    draft.Settings,
			})
			if err != nil {
				return "", err
			}

			s.recordValidationSuccess()
			log.Info().Str("workflow_id", created.ID).Str("name", created.Name).Msg("workflow created")

			return asJSON(created)
		},
	)
}

type updateWorkflowArgs struct {
	ID          string                `json:"id"`
	Name        string                `json:"name,omitempty"`
	Nodes       []domain.NodeInstance `json:"nodes"`
	Connections domain.ConnectionMap  `json:"connections"`
	Settings    map[string]any        `json:"settings,omitempty"`
}

func (s *Session) updateWorkflowTool() tool.Tool {
	return tool.Define(
		"update_workflow",
		"Update an existing workflow. Proposed nodes are merged into the current state by node name (existing identifiers and credentials are kept), then the merged graph is validated before submission.",
		tool.ObjectSchema(map[string]any{
			"id":          map[string]any{"type": "string", "description": "Runtime identifier of the workflow to update."},
			"name":        map[string]any{"type": "string", "description": "New workflow name. Omit to keep the current one."},
			"nodes":       nodesSchema,
			"connections": connectionsSchema,
			"settings":    map[string]any{"type": "object"},
		}, "id", "nodes", "connections"),
		func(ctx context.Context, args updateWorkflowArgs) (string, error) {
			existing, err := s.client.GetWorkflow(ctx, args.ID)
			if err != nil {
				return "", err
			}

			payload := MergeUpdate(existing, domain.WorkflowDraft{
				Name:        args.Name,
				Nodes:       args.Nodes,
				Connections: args.Connections,
				Settings:    args.Settings,
			})

			draft := domain.WorkflowDraft{
				Name:        payload.Name,
				Nodes:       payload.Nodes,
				Connections: payload.Connections,
				Settings:    payload.Settings,
			}
			if rejection, ok := s.checkDraft(draft); !ok {
				return rejection, nil
			}

			updated, err := s.client.UpdateWorkflow(ctx, args.ID, payload)
			if err != nil {
				return "", err
			}

			s.recordValidationSuccess()
			log.Info().Str("workflow_id", args.ID).Msg("workflow updated")

			return asJSON(updated)
		},
	)
}

func (s *Session) deleteWorkflowTool() tool.Tool {
	return tool.Define(
		"delete_workflow",
		"Delete a workflow from the runtime. This cannot be undone.",
		workflowIDSchema("Runtime identifier of the workflow to delete."),
		func(ctx context.Context, args workflowIDArgs) (string, error) {
			if err := s.client.DeleteWorkflow(ctx, args.ID); err != nil {
				return "", err
			}

			return fmt.Sprintf("Workflow %s deleted.", args.ID), nil
		},
	)
}

func (s *Session) activateWorkflowTool() tool.Tool {
	return tool.Define(
		"activate_workflow",
		"Activate a workflow so its triggers start firing.",
		workflowIDSchema("Runtime identifier of the workflow to activate."),
		func(ctx context.Context, args workflowIDArgs) (string, error) {
			workflow, err := s.client.ActivateWorkflow(ctx, args.ID)
			if err != nil {
				return "", err
			}

			return fmt.Sprintf("Workflow %s (%s) is now active.", workflow.Name, args.ID), nil
		},
	)
}

func (s *Session) deactivateWorkflowTool() tool.Tool {
	return tool.Define(
		"deactivate_workflow",
		"Deactivate a workflow so its triggers stop firing.",
		workflowIDSchema("Runtime identifier of the workflow to deactivate."),
		func(ctx context.Context, args workflowIDArgs) (string, error) {
			workflow, err := s.client.DeactivateWorkflow(ctx, args.ID)
			if err != nil {
				return "", err
			}

			return fmt.Sprintf("Workflow %s (%s) is now inactive.", workflow.Name, args.ID), nil
		},
	)
}

type executeWorkflowArgs struct {
	ID    string         `json:"id"`
	Input map[string]any `json:"input,omitempty"`
}

func (s *Session) executeWorkflowTool() tool.Tool {
	return tool.Define(
		"execute_workflow",
		"Run a workflow once with optional input data and return the resulting execution.",
		tool.ObjectSchema(map[string]any{
			"id": map[string]any{
				"type":        "string",
				"description": "Runtime identifier of the workflow to run.",
			},
			"input": map[string]any{
				"type":        "object",
				"description": "Input data passed to the run.",
			},
		}, "id"),
		func(ctx context.Context, args executeWorkflowArgs) (string, error) {
			execution, err := s.client.RunWorkflow(ctx, args.ID, args.Input)
			if err != nil {
				return "", err
			}

			return asJSON(execution)
		},
	)
}
