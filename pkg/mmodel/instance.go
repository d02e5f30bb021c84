package mmodel

import (
	"encoding/json"

	"github.com/agentlang-ai/agentstore/pkg/constant"
)

// Instance is the per-request representation of one entity value, carrying
// its attributes plus the optional query shape (operators, aggregates,
// ordering, paging). Instances are transient and never persisted as such.
//
// The resolver treats instances as immutable: attribute changes go through
// MergeAttributes, which returns a fresh value. That discipline makes it safe
// to pass an instance through permission checks and then through the query
// builder.
type Instance struct {
	Module     string         `json:"module"`
	Name       string         `json:"name"`
	Attributes map[string]any `json:"attributes"`

	queryOps  map[string]string
	queryVals map[string]any

	// Aggregates maps a result alias to an aggregate expression such as
	// "count(*)" or "sum(age)".
	Aggregates map[string]string `json:"aggregates,omitempty"`
	GroupBy    []string          `json:"groupBy,omitempty"`
	OrderBy    []string          `json:"orderBy,omitempty"`
	// OrderDirection is "ASC" or "DESC"; empty defaults to ASC.
	OrderDirection string `json:"orderDirection,omitempty"`
	Distinct       bool   `json:"distinct,omitempty"`
	Limit          int    `json:"limit,omitempty"`
	Offset         int    `json:"offset,omitempty"`

	// ParentPath is injected by the caller when creating a contained child;
	// the new path is allocated under it.
	ParentPath string `json:"parentPath,omitempty"`
}

// NewInstance builds an empty instance of the given entity.
func NewInstance(module, name string) *Instance {
	return &Instance{
		Module:     module,
		Name:       name,
		Attributes: map[string]any{},
	}
}

// GetFqName returns the instance's Module/Name.
func (i *Instance) GetFqName() string {
	return i.Module + "/" + i.Name
}

// SetAttribute records one attribute value.
func (i *Instance) SetAttribute(name string, value any) {
	if i.Attributes == nil {
		i.Attributes = map[string]any{}
	}

	i.Attributes[name] = value
}

// GetAttribute returns the attribute value, if set.
func (i *Instance) GetAttribute(name string) (any, bool) {
	v, ok := i.Attributes[name]

	return v, ok
}

// Path returns the canonical path attribute, empty when unset.
func (i *Instance) Path() string {
	if v, ok := i.Attributes[constant.PathAttributeName]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}

	return ""
}

// AddQuery records one where-clause predicate for the attribute.
func (i *Instance) AddQuery(attr, op string, val any) {
	if i.queryOps == nil {
		i.queryOps = map[string]string{}
		i.queryVals = map[string]any{}
	}

	i.queryOps[attr] = op
	i.queryVals[attr] = val
}

// QueryAttributesAsObject returns the attribute → operator map.
func (i *Instance) QueryAttributesAsObject() map[string]string {
	return i.queryOps
}

// QueryAttributeValuesAsObject returns the attribute → comparison value map.
func (i *Instance) QueryAttributeValuesAsObject() map[string]any {
	return i.queryVals
}

// HasQuery reports whether any predicate was recorded.
func (i *Instance) HasQuery() bool {
	return len(i.queryOps) > 0
}

// AttributesWithStringifiedObjects returns the attribute map with nested
// structured values serialized to JSON strings, which is how they are stored
// in SQL columns.
func (i *Instance) AttributesWithStringifiedObjects() map[string]any {
	out := make(map[string]any, len(i.Attributes))

	for k, v := range i.Attributes {
		switch v.(type) {
		case map[string]any, []any:
			b, err := json.Marshal(v)
			if err != nil {
				out[k] = v

				continue
			}

			out[k] = string(b)
		default:
			out[k] = v
		}
	}

	return out
}

// Clone returns a deep copy of the instance.
func (i *Instance) Clone() *Instance {
	cp := *i

	cp.Attributes = deepCopyMap(i.Attributes)

	if i.queryOps != nil {
		cp.queryOps = make(map[string]string, len(i.queryOps))
		for k, v := range i.queryOps {
			cp.queryOps[k] = v
		}

		cp.queryVals = deepCopyMap(i.queryVals)
	}

	if i.Aggregates != nil {
		cp.Aggregates = make(map[string]string, len(i.Aggregates))
		for k, v := range i.Aggregates {
			cp.Aggregates[k] = v
		}
	}

	cp.GroupBy = append([]string(nil), i.GroupBy...)
	cp.OrderBy = append([]string(nil), i.OrderBy...)

	return &cp
}

// MergeAttributes returns a fresh instance with newAttrs overlaid on the
// receiver's attributes. The receiver is not modified.
func (i *Instance) MergeAttributes(newAttrs map[string]any) *Instance {
	merged := i.Clone()

	for k, v := range newAttrs {
		merged.Attributes[k] = v
	}

	return merged
}

func deepCopyMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}

	dst := make(map[string]any, len(src))

	for k, v := range src {
		dst[k] = deepCopyValue(v)
	}

	return dst
}

func deepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopyMap(t)
	case []any:
		cp := make([]any, len(t))
		for i, e := range t {
			cp[i] = deepCopyValue(e)
		}

		return cp
	default:
		return v
	}
}
