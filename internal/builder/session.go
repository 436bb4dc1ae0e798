// Package builder exposes the workflow-assembly tool catalogue the agent
// loop dispatches into. One Session lives for one logical chat request and
// carries the consecutive validation-failure counter for that attempt.
package builder

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/flowsmith/flowsmith/internal/catalog"
	"github.com/flowsmith/flowsmith/internal/graph"
	"github.com/flowsmith/flowsmith/pkg/agent/tool"
	"github.com/flowsmith/flowsmith/pkg/clients/runtime"
)

// maxConsecutiveFailures is the ceiling on back-to-back invalid workflow
// submissions before the create/update tools tell the model to stop
// retrying.
const maxConsecutiveFailures = 3

// giveUpMessage is returned by the create/update tools once the failure
// ceiling is reached. It is phrased as an instruction to the model.
const giveUpMessage = "The workflow has failed validation " +
	"3 times in a row. Stop retrying. Explain to the user which connections " +
	"could not be made valid and ask how they would like to proceed."

// Session binds the capability index, the runtime client and the
// classification table to one chat request.
type Session struct {
	ID     string
	index  *catalog.Index
	client runtime.API
	table  graph.ClassificationTable

	mu                  sync.Mutex
	consecutiveFailures int
}

func NewSession(index *catalog.Index, client runtime.API) *Session {
	triggerFn := func(typeIdentifier string) bool {
		entry, err := index.GetDetails(typeIdentifier)
		return err == nil && entry.IsTrigger
	}

	return &Session{
		ID:     uuid.NewString(),
		index:  index,
		client: client,
		table:  graph.DefaultTable(triggerFn),
	}
}

// Tools returns the session's full tool catalogue. The set is closed: every
// tool is a statically constructed typed variant, never built from runtime
// schema reflection.
func (s *Session) Tools() []tool.Tool {
	return []tool.Tool{
		s.searchNodeTypesTool(),
		s.getNodeDetailsTool(),
		s.getNodeParametersTool(),
		s.getOperationSchemaTool(),
		s.listTriggerTypesTool(),

		s.listWorkflowsTool(),
		s.getWorkflowTool(),
		s.createWorkflowTool(),
		s.updateWorkflowTool(),
		s.deleteWorkflowTool(),
		s.activateWorkflowTool(),
		s.deactivateWorkflowTool(),
		s.executeWorkflowTool(),

		s.listExecutionsTool(),
		s.getExecutionTool(),
		s.retryExecutionTool(),

		s.manageVariableTool(),
	}
}

// ConsecutiveFailures reports the current invalid-submission streak.
func (s *Session) ConsecutiveFailures() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.consecutiveFailures
}

// recordValidationFailure bumps the streak and reports whether the ceiling
// has been reached.
func (s *Session) recordValidationFailure() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.consecutiveFailures++

	return s.consecutiveFailures >= maxConsecutiveFailures
}

// recordValidationSuccess resets the streak.
func (s *Session) recordValidationSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.consecutiveFailures = 0
}

func asJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode tool result: %w", err)
	}

	return string(data), nil
}
