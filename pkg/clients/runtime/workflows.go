package runtime

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

func (c *Client) ListWorkflows(ctx context.Context, params ListWorkflowsParams) ([]Workflow, error) {
	query := url.Values{}
	if params.Active != nil {
		query.Set("active", strconv.FormatBool(*params.Active))
	}
	if params.Limit > 0 {
		query.Set("limit", strconv.Itoa(params.Limit))
	}

	path := "/workflows"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var envelope listEnvelope[Workflow]
	if err := c.do(ctx, "GET", path, nil, &envelope); err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	return envelope.Data, nil
}

func (c *Client) GetWorkflow(ctx context.Context, id string) (*Workflow, error) {
	var workflow Workflow
	if err := c.do(ctx, "GET", "/workflows/"+id, nil, &workflow); err != nil {
		return nil, fmt.Errorf("failed to get workflow %s: %w", id, err)
	}

	return &workflow, nil
}

func (c *Client) CreateWorkflow(ctx context.Context, workflow *Workflow) (*Workflow, error) {
	var created Workflow
	if err := c.do(ctx, "POST", "/workflows", workflow, &created); err != nil {
		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	return &created, nil
}

func (c *Client) UpdateWorkflow(ctx context.Context, id string, workflow *Workflow) (*Workflow, error) {
	var updated Workflow
	if err := c.do(ctx, "PUT", "/workflows/"+id, workflow, &updated); err != nil {
		return nil, fmt.Errorf("failed to update workflow %s: %w", id, err)
	}

	return &updated, nil
}

func (c *Client) DeleteWorkflow(ctx context.Context, id string) error {
	if err := c.do(ctx, "DELETE", "/workflows/"+id, nil, nil); err != nil {
		return fmt.Errorf("failed to delete workflow %s: %w", id, err)
	}

	return nil
}

func (c *Client) ActivateWorkflow(ctx context.Context, id string) (*Workflow, error) {
	var workflow Workflow
	if err := c.do(ctx, "POST", "/workflows/"+id+"/activate", nil, &workflow); err != nil {
		return nil, fmt.Errorf("failed to activate workflow %s: %w", id, err)
	}

	return &workflow, nil
}

func (c *Client) DeactivateWorkflow(ctx context.Context, id string) (*Workflow, error) {
	var workflow Workflow
	if err := c.do(ctx, "POST", "/workflows/"+id+"/deactivate", nil, &workflow); err != nil {
		return nil, fmt.Errorf("failed to deactivate workflow %s: %w", id, err)
	}

	return &workflow, nil
}

func (c *Client) RunWorkflow(ctx context.Context, id string, input map[string]any) (*Execution, error) {
	var execution Execution
	if err := c.do(ctx, "POST", "/workflows/"+id+"/run", input, &execution); err != nil {
		return nil, fmt.Errorf("failed to run workflow %s: %w", id, err)
	}

	return &execution, nil
}
