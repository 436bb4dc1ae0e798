package graph

import (
	"sort"

	"github.com/flowsmith/flowsmith/pkg/domain"
)

// Validate checks that a draft forms a connected, reachable, correctly
// typed pipeline. It is a pure function: the full defect list is returned
// in one pass (deterministic for a given draft) so the caller can report
// every problem in a single round trip. An empty list means the draft is
// submittable.
func Validate(draft domain.WorkflowDraft, table ClassificationTable) []domain.ValidationDefect {
	defects := []domain.ValidationDefect{}

	for _, missing := range draft.UndeclaredNames() {
		defects = append(defects, domain.ValidationDefect{
			Class: domain.DefectClass_UnknownNodeReference,
			Node:  missing,
		})
	}

	classes := map[string]NodeClass{}
	for _, node := range draft.Nodes {
		classes[node.Name] = table.Classify(node.Type, nil)
	}

	outgoing := map[string]map[domain.ConnectionKind][]string{}
	incoming := map[string][]string{}
	for source, byKind := range draft.Connections {
		for kind, groups := range byKind {
			for _, targets := range groups {
				for _, target := range targets {
					if outgoing[source] == nil {
						outgoing[source] = map[domain.ConnectionKind][]string{}
					}
					outgoing[source][kind] = append(outgoing[source][kind], target.Node)
					incoming[target.Node] = append(incoming[target.Node], source)
				}
			}
		}
	}

	// Direct main-kind targets of triggers are exempt from the incoming
	// requirement when their trigger is their only upstream.
	triggerTargets := map[string]bool{}
	for _, node := range draft.Nodes {
		if classes[node.Name] != ClassTrigger {
			continue
		}
		for _, target := range outgoing[node.Name][domain.ConnectionKind_Main] {
			triggerTargets[target] = true
		}
	}

	for _, node := range draft.Nodes {
		name := node.Name
		hasOutgoing := len(outgoing[name]) > 0
		hasIncoming := len(incoming[name]) > 0

		switch class := classes[name]; class {
		case ClassTrigger:
			if len(outgoing[name][domain.ConnectionKind_Main]) == 0 {
				defects = append(defects, domain.ValidationDefect{
					Class: domain.DefectClass_MissingSpecializedEdge,
					Node:  name,
					Kind:  domain.ConnectionKind_Main,
				})
			}
		case ClassRegular:
			if !hasIncoming && !hasOutgoing {
				defects = append(defects, domain.ValidationDefect{
					Class: domain.DefectClass_Disconnected,
					Node:  name,
				})
				continue
			}
			if !hasIncoming && !triggerTargets[name] {
				defects = append(defects, domain.ValidationDefect{
					Class: domain.DefectClass_MissingIncoming,
					Node:  name,
				})
			}
		default:
			kind, ok := class.RequiredKind()
			if ok && len(outgoing[name][kind]) == 0 {
				defects = append(defects, domain.ValidationDefect{
					Class: domain.DefectClass_MissingSpecializedEdge,
					Node:  name,
					Kind:  kind,
				})
			}
		}
	}

	defects = append(defects, unreachable(draft, classes, outgoing)...)

	return defects
}

// unreachable breadth-first traverses outgoing edges of every kind from all
// triggers and reports each regular node the traversal never reaches.
func unreachable(draft domain.WorkflowDraft, classes map[string]NodeClass, outgoing map[string]map[domain.ConnectionKind][]string) []domain.ValidationDefect {
	queue := []string{}
	visited := map[string]bool{}

	for _, node := range draft.Nodes {
		if classes[node.Name] == ClassTrigger {
			queue = append(queue, node.Name)
			visited[node.Name] = true
		}
	}

	if len(queue) == 0 {
		return nil
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		kinds := make([]domain.ConnectionKind, 0, len(outgoing[current]))
		for kind := range outgoing[current] {
			kinds = append(kinds, kind)
		}
		sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

		for _, kind := range kinds {
			for _, target := range outgoing[current][kind] {
				if !visited[target] {
					visited[target] = true
					queue = append(queue, target)
				}
			}
		}
	}

	defects := []domain.ValidationDefect{}
	for _, node := range draft.Nodes {
		if classes[node.Name] == ClassRegular && !visited[node.Name] {
			defects = append(defects, domain.ValidationDefect{
				Class: domain.DefectClass_Unreachable,
				Node:  node.Name,
			})
		}
	}

	return defects
}
