package graph

import (
	"strings"

	"github.com/flowsmith/flowsmith/pkg/domain"
)

// NodeClass partitions node types for validation purposes.
type NodeClass string

const (
	ClassTrigger NodeClass = "trigger"
	ClassRegular NodeClass = "regular"

	// Specialized sub-nodes feed exactly one consumer over one
	// connection kind and never carry main pipeline data.
	ClassEmbedding    NodeClass = "embedding_provider"
	ClassDocument     NodeClass = "document_loader"
	ClassTextSplitter NodeClass = "text_splitter"
	ClassMemory       NodeClass = "memory_provider"
	ClassTool         NodeClass = "tool_provider"
)

// RequiredKind returns the one connection kind a specialized class must use
// on its outgoing edge.
func (c NodeClass) RequiredKind() (domain.ConnectionKind, bool) {
	switch c {
	case ClassEmbedding:
		return domain.ConnectionKind_Embedding, true
	case ClassDocument:
		return domain.ConnectionKind_Document, true
	case ClassTextSplitter:
		return domain.ConnectionKind_TextSplitter, true
	case ClassMemory:
		return domain.ConnectionKind_Memory, true
	case ClassTool:
		return domain.ConnectionKind_Tool, true
	}
	return "", false
}

// ClassificationTable decides the class of a node type. The substring rules
// are heuristic, so the table is explicit and replaceable; anything it does
// not match is conservatively regular.
type ClassificationTable struct {
	// CategoryClasses matches lower-cased category tags.
	CategoryClasses map[string]NodeClass
	// IdentifierMarkers matches lower-cased substrings of the type
	// identifier, checked in order.
	IdentifierMarkers []IdentifierMarker

	// TriggerFn consults the capability index when available.
	TriggerFn func(typeIdentifier string) bool
}

type IdentifierMarker struct {
	Substring string
	Class     NodeClass
}

// DefaultTable returns the curated classification table.
func DefaultTable(triggerFn func(string) bool) ClassificationTable {
	return ClassificationTable{
		CategoryClasses: map[string]NodeClass{
			"trigger": ClassTrigger,
		},
		IdentifierMarkers: []IdentifierMarker{
			{Substring: "embedding", Class: ClassEmbedding},
			{Substring: "documentloader", Class: ClassDocument},
			{Substring: "document_loader", Class: ClassDocument},
			{Substring: "textsplitter", Class: ClassTextSplitter},
			{Substring: "memory", Class: ClassMemory},
			{Substring: "toolworkflow", Class: ClassTool},
			{Substring: "toolhttp", Class: ClassTool},
			{Substring: "toolcode", Class: ClassTool},
			{Substring: "toolcalculator", Class: ClassTool},
			{Substring: "trigger", Class: ClassTrigger},
		},
		TriggerFn: triggerFn,
	}
}

// Classify resolves the class of one node type identifier with optional
// category tags.
func (t ClassificationTable) Classify(typeIdentifier string, categories []string) NodeClass {
	for _, category := range categories {
		if class, ok := t.CategoryClasses[strings.ToLower(category)]; ok {
			return class
		}
	}

	lowered := strings.ToLower(typeIdentifier)
	for _, marker := range t.IdentifierMarkers {
		if strings.Contains(lowered, marker.Substring) {
			return marker.Class
		}
	}

	if t.TriggerFn != nil && t.TriggerFn(typeIdentifier) {
		return ClassTrigger
	}

	return ClassRegular
}
