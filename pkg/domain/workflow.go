package domain

import (
	"errors"
	"sort"
)

var (
	ErrWorkflowNotFound = errors.New("workflow not found")
)

// ConnectionKind tags an edge in a workflow graph. Main carries the default
// data pipeline; the ai_* kinds wire provider sub-nodes into their consumer.
type ConnectionKind string

const (
	ConnectionKind_Main         ConnectionKind = "main"
	ConnectionKind_Embedding    ConnectionKind = "ai_embedding"
	ConnectionKind_Document     ConnectionKind = "ai_document"
	ConnectionKind_TextSplitter ConnectionKind = "ai_textSplitter"
	ConnectionKind_Memory       ConnectionKind = "ai_memory"
	ConnectionKind_Tool         ConnectionKind = "ai_tool"
)

// SpecializedKinds lists every non-main connection kind.
func SpecializedKinds() []ConnectionKind {
	return []ConnectionKind{
		ConnectionKind_Embedding,
		ConnectionKind_Document,
		ConnectionKind_TextSplitter,
		ConnectionKind_Memory,
		ConnectionKind_Tool,
	}
}

// ConnectionTarget is the receiving end of one edge.
type ConnectionTarget struct {
	Node  string         `json:"node"`
	Kind  ConnectionKind `json:"type"`
	Index int            `json:"index"`
}

// ConnectionMap maps source node name -> connection kind -> output index ->
// targets. The nested slice layout mirrors the runtime's wire format.
type ConnectionMap map[string]map[ConnectionKind][][]ConnectionTarget

// NodeInstance is one node inside a workflow draft. Name is the local key
// the connection map refers to; ID and Credentials are only present when
// updating an existing workflow.
type NodeInstance struct {
	ID          string         `json:"id,omitempty"`
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	TypeVersion float64        `json:"typeVersion,omitempty"`
	Position    [2]float64     `json:"position"`
	Parameters  map[string]any `json:"parameters,omitempty"`
	Credentials map[string]any `json:"credentials,omitempty"`
}

// WorkflowDraft is the in-flight, not-yet-submitted description of a
// workflow being assembled by the agent.
type WorkflowDraft struct {
	Name        string         `json:"name"`
	Nodes       []NodeInstance `json:"nodes"`
	Connections ConnectionMap  `json:"connections"`
	Settings    map[string]any `json:"settings,omitempty"`
}

// Node returns the draft node with the given local name.
func (d WorkflowDraft) Node(name string) (NodeInstance, bool) {
	for _, n := range d.Nodes {
		if n.Name == name {
			return n, true
		}
	}

	return NodeInstance{}, false
}

// UndeclaredNames returns every local name the connection map references
// (as source or target) that has no matching node instance.
func (d WorkflowDraft) UndeclaredNames() []string {
	declared := make(map[string]bool, len(d.Nodes))
	for _, n := range d.Nodes {
		declared[n.Name] = true
	}

	seen := map[string]bool{}
	missing := []string{}

	record := func(name string) {
		if !declared[name] && !seen[name] {
			seen[name] = true
			missing = append(missing, name)
		}
	}

	// Map iteration order varies run to run; sort sources and kinds so the
	// defect list is stable for a given draft.
	sources := make([]string, 0, len(d.Connections))
	for source := range d.Connections {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	for _, source := range sources {
		record(source)

		byKind := d.Connections[source]
		kinds := make([]ConnectionKind, 0, len(byKind))
		for kind := range byKind {
			kinds = append(kinds, kind)
		}
		sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

		for _, kind := range kinds {
			for _, targets := range byKind[kind] {
				for _, target := range targets {
					record(target.Node)
				}
			}
		}
	}

	return missing
}
