package runtime

import (
	"fmt"
	"time"

	"github.com/flowsmith/flowsmith/pkg/domain"
)

// Error carries the upstream status and body so callers can log and react
// to runtime failures without losing context.
type Error struct {
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("runtime api error: status %d: %s", e.StatusCode, e.Body)
}

// Workflow is the runtime's workflow resource. Nodes and connections share
// the draft wire shape.
type Workflow struct {
	ID          string                `json:"id,omitempty"`
	Name        string                `json:"name"`
	Active      bool                  `json:"active,omitempty"`
	Nodes       []domain.NodeInstance `json:"nodes"`
	Connections domain.ConnectionMap  `json:"connections"`
	Settings    map[string]any        `json:"settings,omitempty"`
	Tags        []Tag                 `json:"tags,omitempty"`
	CreatedAt   *time.Time            `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time            `json:"updatedAt,omitempty"`
}

type Tag struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

type ListWorkflowsParams struct {
	Active *bool
	Limit  int
}

type Execution struct {
	ID         string         `json:"id"`
	WorkflowID string         `json:"workflowId"`
	Status     string         `json:"status"`
	Mode       string         `json:"mode,omitempty"`
	StartedAt  *time.Time     `json:"startedAt,omitempty"`
	StoppedAt  *time.Time     `json:"stoppedAt,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
}

type ListExecutionsParams struct {
	WorkflowID string
	Status     string
	Limit      int
}

type Credential struct {
	ID   string         `json:"id,omitempty"`
	Name string         `json:"name"`
	Type string         `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}

type Variable struct {
	ID    string `json:"id,omitempty"`
	Key   string `json:"key"`
	Value string `json:"value"`
}
