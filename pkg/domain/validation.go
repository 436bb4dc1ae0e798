package domain

import "fmt"

type DefectClass string

const (
	DefectClass_Disconnected           DefectClass = "disconnected_node"
	DefectClass_MissingIncoming        DefectClass = "missing_incoming_connection"
	DefectClass_MissingSpecializedEdge DefectClass = "missing_specialized_connection"
	DefectClass_Unreachable            DefectClass = "unreachable_from_trigger"
	DefectClass_UnknownNodeReference   DefectClass = "unknown_node_reference"
)

// ValidationDefect is one specific, named reason a workflow draft is not yet
// submittable.
type ValidationDefect struct {
	Class DefectClass    `json:"class"`
	Node  string         `json:"node"`
	Kind  ConnectionKind `json:"kind,omitempty"`
}

func (d ValidationDefect) String() string {
	switch d.Class {
	case DefectClass_Disconnected:
		return fmt.Sprintf("node %q has no connections at all", d.Node)
	case DefectClass_MissingIncoming:
		return fmt.Sprintf("node %q has no incoming connection and is not a direct trigger target", d.Node)
	case DefectClass_MissingSpecializedEdge:
		if d.Kind == ConnectionKind_Main {
			return fmt.Sprintf("trigger %q has no outgoing %q connection", d.Node, d.Kind)
		}
		return fmt.Sprintf("node %q must have an outgoing %q connection to the node that consumes it", d.Node, d.Kind)
	case DefectClass_Unreachable:
		return fmt.Sprintf("node %q is not reachable from any trigger", d.Node)
	case DefectClass_UnknownNodeReference:
		return fmt.Sprintf("connections reference %q but no node with that name exists", d.Node)
	default:
		return fmt.Sprintf("node %q: %s", d.Node, d.Class)
	}
}
