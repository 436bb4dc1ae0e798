package domain

import (
	"errors"
	"strings"
)

var (
	ErrNodeTypeNotFound = errors.New("node type not found")
	ErrSchemaNotFound   = errors.New("operation schema not found")
)

type ParameterType string

const (
	ParameterType_String       ParameterType = "string"
	ParameterType_Number       ParameterType = "number"
	ParameterType_Boolean      ParameterType = "boolean"
	ParameterType_Options      ParameterType = "options"
	ParameterType_MultiOptions ParameterType = "multiOptions"
	ParameterType_Collection   ParameterType = "collection"
	ParameterType_JSON         ParameterType = "json"
	ParameterType_DateTime     ParameterType = "dateTime"
)

// Parameter describes one configurable property of a node type.
type Parameter struct {
	Name        string            `json:"name"`
	DisplayName string            `json:"display_name"`
	Type        ParameterType     `json:"type"`
	Required    bool              `json:"required"`
	Default     any               `json:"default,omitempty"`
	Description string            `json:"description,omitempty"`
	Options     []ParameterOption `json:"options,omitempty"`
	ShowIf      *DisplayCondition `json:"show_if,omitempty"`
}

type ParameterOption struct {
	Name        string `json:"name"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
}

// DisplayCondition gates a parameter on the active resource/operation
// selection of its node.
type DisplayCondition struct {
	Resources  []string `json:"resources,omitempty"`
	Operations []string `json:"operations,omitempty"`
}

// Matches reports whether the condition allows the parameter to show for the
// given resource/operation pair. Empty condition lists match anything.
func (c *DisplayCondition) Matches(resource, operation string) bool {
	if c == nil {
		return true
	}
	if len(c.Resources) > 0 && !containsFold(c.Resources, resource) {
		return false
	}
	if len(c.Operations) > 0 && !containsFold(c.Operations, operation) {
		return false
	}
	return true
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}

// Credential is a credential requirement declared by a node type.
type Credential struct {
	Name     string `json:"name"`
	Required bool   `json:"required"`
}

// Operation is one action offered under a resource.
type Operation struct {
	Name        string `json:"name"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
}

// Resource is a named sub-capability of a node type with its own operations.
type Resource struct {
	Name       string      `json:"name"`
	Value      string      `json:"value"`
	Operations []Operation `json:"operations,omitempty"`
}

// NodeTypeEntry is the full extracted record for one node type. The type
// identifier is the only stable cross-reference key and never changes once
// assigned.
type NodeTypeEntry struct {
	TypeIdentifier string       `json:"type_identifier"`
	DisplayName    string       `json:"display_name"`
	Name           string       `json:"name"`
	Description    string       `json:"description,omitempty"`
	Categories     []string     `json:"categories,omitempty"`
	Version        float64      `json:"version"`
	Credentials    []Credential `json:"credentials,omitempty"`
	Resources      []Resource   `json:"resources,omitempty"`
	Parameters     []Parameter  `json:"parameters,omitempty"`
	IsTrigger      bool         `json:"is_trigger"`
	SourcePath     string       `json:"source_path,omitempty"`
	HasSchemas     bool         `json:"has_schemas"`

	// Partial marks entries built from the best-effort live scan, before
	// the offline index build has run.
	Partial bool `json:"partial,omitempty"`
}

// NodeSummary is the compact search-result form of a NodeTypeEntry.
type NodeSummary struct {
	TypeIdentifier string   `json:"type_identifier"`
	DisplayName    string   `json:"display_name"`
	Description    string   `json:"description,omitempty"`
	Categories     []string `json:"categories,omitempty"`
	IsTrigger      bool     `json:"is_trigger"`
}

func (e NodeTypeEntry) Summary() NodeSummary {
	return NodeSummary{
		TypeIdentifier: e.TypeIdentifier,
		DisplayName:    e.DisplayName,
		Description:    e.Description,
		Categories:     e.Categories,
		IsTrigger:      e.IsTrigger,
	}
}

// ParametersFor filters the entry's parameters down to the ones visible for
// the given resource/operation selection.
func (e NodeTypeEntry) ParametersFor(resource, operation string) []Parameter {
	params := []Parameter{}

	for _, p := range e.Parameters {
		if p.ShowIf.Matches(resource, operation) {
			params = append(params, p)
		}
	}

	return params
}
