package builder

import (
	"github.com/google/uuid"
	"github.com/rs/xid"

	"github.com/flowsmith/flowsmith/pkg/clients/runtime"
	"github.com/flowsmith/flowsmith/pkg/domain"
)

// MergeUpdate folds a proposed draft into the current state of a workflow,
// producing the update payload for the runtime. Read-only fields never make
// it into the payload. Proposed nodes are matched to existing nodes by local
// name; matched nodes keep their stable identifier and credential bindings
// while adopting the caller's type, position and parameters (shallow-merged,
// caller's keys win). A matched node's identifier is regenerated when the
// existing one is malformed; unmatched nodes are new and get a fresh
// identifier when they lack a well-formed one.
func MergeUpdate(existing *runtime.Workflow, proposed domain.WorkflowDraft) *runtime.Workflow {
	byName := make(map[string]domain.NodeInstance, len(existing.Nodes))
	for _, node := range existing.Nodes {
		byName[node.Name] = node
	}

	merged := make([]domain.NodeInstance, 0, len(proposed.Nodes))
	for _, node := range proposed.Nodes {
		current, matched := byName[node.Name]
		if !matched {
			if !wellFormedID(node.ID) {
				node.ID = xid.New().String()
			}
			merged = append(merged, node)
			continue
		}

		node.ID = current.ID
		if !wellFormedID(node.ID) {
			node.ID = xid.New().String()
		}

		if len(node.Credentials) == 0 {
			node.Credentials = current.Credentials
		}
		if node.Type == "" {
			node.Type = current.Type
		}
		if node.TypeVersion == 0 {
			node.TypeVersion = current.TypeVersion
		}

		node.Parameters = mergeParameters(current.Parameters, node.Parameters)

		merged = append(merged, node)
	}

	name := proposed.Name
	if name == "" {
		name = existing.Name
	}

	settings := proposed.Settings
	if settings == nil {
		settings = existing.Settings
	}

	return &runtime.Workflow{
		Name:        name,
		Nodes:       merged,
		Connections: proposed.Connections,
		Settings:    settings,
	}
}

func mergeParameters(current, proposed map[string]any) map[string]any {
	if len(current) == 0 {
		return proposed
	}

	merged := make(map[string]any, len(current)+len(proposed))
	for key, value := range current {
		merged[key] = value
	}
	for key, value := range proposed {
		merged[key] = value
	}

	return merged
}

// wellFormedID accepts the two identifier shapes the runtime hands out.
func wellFormedID(id string) bool {
	if id == "" {
		return false
	}
	if _, err := xid.FromString(id); err == nil {
		return true
	}
	if _, err := uuid.Parse(id); err == nil {
		return true
	}

	return false
}
