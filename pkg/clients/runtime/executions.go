package runtime

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

func (c *Client) ListExecutions(ctx context.Context, params ListExecutionsParams) ([]Execution, error) {
	query := url.Values{}
	if params.WorkflowID != "" {
		query.Set("workflowId", params.WorkflowID)
	}
	if params.Status != "" {
		query.Set("status", params.Status)
	}
	if params.Limit > 0 {
		query.Set("limit", strconv.Itoa(params.Limit))
	}

	path := "/executions"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var envelope listEnvelope[Execution]
	if err := c.do(ctx, "GET", path, nil, &envelope); err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}

	return envelope.Data, nil
}

func (c *Client) GetExecution(ctx context.Context, id string) (*Execution, error) {
	var execution Execution
	if err := c.do(ctx, "GET", "/executions/"+id, nil, &execution); err != nil {
		return nil, fmt.Errorf("failed to get execution %s: %w", id, err)
	}

	return &execution, nil
}

func (c *Client) RetryExecution(ctx context.Context, id string) (*Execution, error) {
	var execution Execution
	if err := c.do(ctx, "POST", "/executions/"+id+"/retry", nil, &execution); err != nil {
		return nil, fmt.Errorf("failed to retry execution %s: %w", id, err)
	}

	return &execution, nil
}

func (c *Client) CreateCredential(ctx context.Context, credential *Credential) (*Credential, error) {
	var created Credential
	if err := c.do(ctx, "POST", "/credentials", credential, &created); err != nil {
		return nil, fmt.Errorf("failed to create credential: %w", err)
	}

	return &created, nil
}
