// Package runtime is the HTTP client for the workflow runtime's REST API.
// The runtime performs no graph validation of its own and silently accepts
// broken workflows, so callers are expected to validate before submitting.
package runtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const apiPrefix = "/api/v1"

// API is the runtime surface the rest of the system consumes.
type API interface {
	ListWorkflows(ctx context.Context, params ListWorkflowsParams) ([]Workflow, error)
	GetWorkflow(ctx context.Context, id string) (*Workflow, error)
	CreateWorkflow(ctx context.Context, workflow *Workflow) (*Workflow, error)
	UpdateWorkflow(ctx context.Context, id string, workflow *Workflow) (*Workflow, error)
	DeleteWorkflow(ctx context.Context, id string) error
	ActivateWorkflow(ctx context.Context, id string) (*Workflow, error)
	DeactivateWorkflow(ctx context.Context, id string) (*Workflow, error)
	RunWorkflow(ctx context.Context, id string, input map[string]any) (*Execution, error)

	ListExecutions(ctx context.Context, params ListExecutionsParams) ([]Execution, error)
	GetExecution(ctx context.Context, id string) (*Execution, error)
	RetryExecution(ctx context.Context, id string) (*Execution, error)

	CreateCredential(ctx context.Context, credential *Credential) (*Credential, error)

	ListVariables(ctx context.Context) ([]Variable, error)
	CreateVariable(ctx context.Context, variable *Variable) (*Variable, error)
	UpdateVariable(ctx context.Context, id string, variable *Variable) (*Variable, error)
	DeleteVariable(ctx context.Context, id string) error
}

// Client talks to one runtime instance.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
}

// NewClient creates a runtime client with the given options.
func NewClient(options ...ClientOption) *Client {
	config := DefaultConfig()

	for _, option := range options {
		option(config)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
	}
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyBytes []byte
	var requestBody io.Reader

	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		requestBody = bytes.NewBuffer(bodyBytes)
	}

	url := c.config.BaseURL + apiPrefix + path

	var lastErr error
	for attempt := 0; attempt <= c.config.RetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.config.RetryDelay):
			}
			if bodyBytes != nil {
				requestBody = bytes.NewBuffer(bodyBytes)
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, url, requestBody)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-N8N-API-KEY", c.config.APIKey)
		if c.config.UserAgent != "" {
			req.Header.Set("User-Agent", c.config.UserAgent)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 500 {
			respBody, _ := io.ReadAll(resp.Body)
			resp.Body.Close()

			log.Error().
				Int("status_code", resp.StatusCode).
				Str("method", method).
				Str("path", path).
				Str("body", string(respBody)).
				Msg("runtime server error")

			lastErr = &Error{StatusCode: resp.StatusCode, Body: string(respBody)}
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("request failed after %d retries: %w", c.config.RetryAttempts, lastErr)
}

// do performs a request and decodes the response into out (when non-nil).
// Upstream failures surface the status and body unchanged.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// listEnvelope is the runtime's paged list response shape.
type listEnvelope[T any] struct {
	Data       []T    `json:"data"`
	NextCursor string `json:"nextCursor,omitempty"`
}
