package runtime

import (
	"context"
	"fmt"
)

func (c *Client) ListVariables(ctx context.Context) ([]Variable, error) {
	var envelope listEnvelope[Variable]
	if err := c.do(ctx, "GET", "/variables", nil, &envelope); err != nil {
		return nil, fmt.Errorf("failed to list variables: %w", err)
	}

	return envelope.Data, nil
}

func (c *Client) CreateVariable(ctx context.Context, variable *Variable) (*Variable, error) {
	var created Variable
	if err := c.do(ctx, "POST", "/variables", variable, &created); err != nil {
		return nil, fmt.Errorf("failed to create variable: %w", err)
	}

	return &created, nil
}

func (c *Client) UpdateVariable(ctx context.Context, id string, variable *Variable) (*Variable, error) {
	var updated Variable
	if err := c.do(ctx, "PUT", "/variables/"+id, variable, &updated); err != nil {
		return nil, fmt.Errorf("failed to update variable %s: %w", id, err)
	}

	return &updated, nil
}

func (c *Client) DeleteVariable(ctx context.Context, id string) error {
	if err := c.do(ctx, "DELETE", "/variables/"+id, nil, nil); err != nil {
		return fmt.Errorf("failed to delete variable %s: %w", id, err)
	}

	return nil
}
