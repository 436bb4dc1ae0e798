package graph

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowsmith/flowsmith/pkg/domain"
)

func node(name, nodeType string) domain.NodeInstance {
	return domain.NodeInstance{Name: name, Type: nodeType}
}

func edge(connections domain.ConnectionMap, source string, kind domain.ConnectionKind, target string) domain.ConnectionMap {
	if connections == nil {
		connections = domain.ConnectionMap{}
	}
	if connections[source] == nil {
		connections[source] = map[domain.ConnectionKind][][]domain.ConnectionTarget{}
	}
	connections[source][kind] = append(connections[source][kind], []domain.ConnectionTarget{
		{Node: target, Kind: kind, Index: 0},
	})

	return connections
}

func defectKey(d domain.ValidationDefect) string {
	return fmt.Sprintf("%s/%s/%s", d.Class, d.Node, d.Kind)
}

func TestValidate(t *testing.T) {
	const (
		triggerType   = "n8n-nodes-base.scheduleTrigger"
		regularType   = "n8n-nodes-base.httpRequest"
		embeddingType = "n8n-nodes-base.embeddingsOpenAi"
		memoryType    = "n8n-nodes-base.memoryBufferWindow"
	)

	tests := []struct {
		name     string
		draft    domain.WorkflowDraft
		expected []string
	}{
		{
			name: "single terminal chain is valid",
			draft: domain.WorkflowDraft{
				Nodes: []domain.NodeInstance{
					node("T", triggerType),
					node("A", regularType),
				},
				Connections: edge(nil, "T", domain.ConnectionKind_Main, "A"),
			},
			expected: []string{},
		},
		{
			name: "fully disconnected node",
			draft: domain.WorkflowDraft{
				Nodes: []domain.NodeInstance{
					node("T", triggerType),
					node("A", regularType),
					node("B", regularType),
				},
				Connections: edge(nil, "T", domain.ConnectionKind_Main, "A"),
			},
			expected: []string{"disconnected_node/B/"},
		},
		{
			name: "trigger without main outgoing edge",
			draft: domain.WorkflowDraft{
				Nodes: []domain.NodeInstance{
					node("T", triggerType),
				},
			},
			expected: []string{"missing_specialized_connection/T/main"},
		},
		{
			name: "regular node with outgoing but no incoming",
			draft: domain.WorkflowDraft{
				Nodes: []domain.NodeInstance{
					node("T", triggerType),
					node("A", regularType),
					node("C", regularType),
				},
				Connections: edge(
					edge(nil, "T", domain.ConnectionKind_Main, "A"),
					"C", domain.ConnectionKind_Main, "A",
				),
			},
			expected: []string{
				"missing_incoming_connection/C/",
				"unreachable_from_trigger/C/",
			},
		},
		{
			name: "specialized node without its required kind",
			draft: domain.WorkflowDraft{
				Nodes: []domain.NodeInstance{
					node("T", triggerType),
					node("A", regularType),
					node("Emb", embeddingType),
				},
				Connections: edge(
					edge(nil, "T", domain.ConnectionKind_Main, "A"),
					"Emb", domain.ConnectionKind_Main, "A",
				),
			},
			expected: []string{"missing_specialized_connection/Emb/ai_embedding"},
		},
		{
			name: "specialized node wired correctly",
			draft: domain.WorkflowDraft{
				Nodes: []domain.NodeInstance{
					node("T", triggerType),
					node("A", regularType),
					node("Mem", memoryType),
				},
				Connections: edge(
					edge(nil, "T", domain.ConnectionKind_Main, "A"),
					"Mem", domain.ConnectionKind_Memory, "A",
				),
			},
			expected: []string{},
		},
		{
			name: "connection references an undeclared node",
			draft: domain.WorkflowDraft{
				Nodes: []domain.NodeInstance{
					node("T", triggerType),
					node("A", regularType),
				},
				Connections: edge(
					edge(nil, "T", domain.ConnectionKind_Main, "A"),
					"A", domain.ConnectionKind_Main, "Ghost",
				),
			},
			expected: []string{"unknown_node_reference/Ghost/"},
		},
		{
			name: "island of regular nodes is unreachable",
			draft: domain.WorkflowDraft{
				Nodes: []domain.NodeInstance{
					node("T", triggerType),
					node("A", regularType),
					node("B", regularType),
					node("C", regularType),
				},
				Connections: edge(
					edge(nil, "T", domain.ConnectionKind_Main, "A"),
					"B", domain.ConnectionKind_Main, "C",
				),
			},
			expected: []string{
				"missing_incoming_connection/B/",
				"unreachable_from_trigger/B/",
				"unreachable_from_trigger/C/",
			},
		},
		{
			name: "chain through multiple hops is reachable",
			draft: domain.WorkflowDraft{
				Nodes: []domain.NodeInstance{
					node("T", triggerType),
					node("A", regularType),
					node("B", regularType),
				},
				Connections: edge(
					edge(nil, "T", domain.ConnectionKind_Main, "A"),
					"A", domain.ConnectionKind_Main, "B",
				),
			},
			expected: []string{},
		},
	}

	table := DefaultTable(nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defects := Validate(tt.draft, table)

			keys := make([]string, 0, len(defects))
			for _, d := range defects {
				keys = append(keys, defectKey(d))
			}

			assert.ElementsMatch(t, tt.expected, keys)
		})
	}
}

func TestUnknownReferenceOrderIsStable(t *testing.T) {
	// Several undeclared names reachable only through map iteration; the
	// resulting defects must come out in the same order on every run.
	connections := edge(nil, "Zeta", domain.ConnectionKind_Main, "GhostOne")
	connections = edge(connections, "Alpha", domain.ConnectionKind_Main, "GhostTwo")
	connections = edge(connections, "Mid", domain.ConnectionKind_Tool, "GhostThree")
	connections = edge(connections, "Mid", domain.ConnectionKind_Memory, "GhostFour")

	draft := domain.WorkflowDraft{
		Nodes: []domain.NodeInstance{
			node("Mid", "n8n-nodes-base.agent"),
		},
		Connections: connections,
	}

	table := DefaultTable(nil)

	unknowns := func() []string {
		names := []string{}
		for _, defect := range Validate(draft, table) {
			if defect.Class == domain.DefectClass_UnknownNodeReference {
				names = append(names, defect.Node)
			}
		}
		return names
	}

	first := unknowns()
	assert.Equal(t, []string{"Alpha", "GhostTwo", "GhostFour", "GhostThree", "Zeta", "GhostOne"}, first)

	for i := 0; i < 20; i++ {
		assert.Equal(t, first, unknowns())
	}
}

func TestValidateIsDeterministic(t *testing.T) {
	draft := domain.WorkflowDraft{
		Nodes: []domain.NodeInstance{
			node("T", "n8n-nodes-base.webhookTrigger"),
			node("A", "n8n-nodes-base.set"),
			node("B", "n8n-nodes-base.code"),
			node("C", "n8n-nodes-base.slack"),
		},
		Connections: edge(
			edge(nil, "T", domain.ConnectionKind_Main, "A"),
			"B", domain.ConnectionKind_Main, "C",
		),
	}

	table := DefaultTable(nil)

	first := Validate(draft, table)
	require.NotEmpty(t, first)

	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Validate(draft, table))
	}
}

func TestClassify(t *testing.T) {
	table := DefaultTable(func(id string) bool {
		return id == "n8n-nodes-base.imap"
	})

	tests := []struct {
		identifier string
		categories []string
		expected   NodeClass
	}{
		{"n8n-nodes-base.scheduleTrigger", nil, ClassTrigger},
		{"n8n-nodes-base.httpRequest", nil, ClassRegular},
		{"n8n-nodes-base.embeddingsOpenAi", nil, ClassEmbedding},
		{"n8n-nodes-base.documentLoaderJson", nil, ClassDocument},
		{"n8n-nodes-base.textSplitterRecursive", nil, ClassTextSplitter},
		{"n8n-nodes-base.memoryBufferWindow", nil, ClassMemory},
		{"n8n-nodes-base.toolHttp", nil, ClassTool},
		{"n8n-nodes-base.slack", []string{"Trigger"}, ClassTrigger},
		{"n8n-nodes-base.imap", nil, ClassTrigger},
		{"n8n-nodes-base.unknownThing", nil, ClassRegular},
	}

	for _, tt := range tests {
		t.Run(tt.identifier, func(t *testing.T) {
			assert.Equal(t, tt.expected, table.Classify(tt.identifier, tt.categories))
		})
	}
}

func TestRequiredKind(t *testing.T) {
	kind, ok := ClassEmbedding.RequiredKind()
	require.True(t, ok)
	assert.Equal(t, domain.ConnectionKind_Embedding, kind)

	_, ok = ClassRegular.RequiredKind()
	assert.False(t, ok)

	_, ok = ClassTrigger.RequiredKind()
	assert.False(t, ok)
}
