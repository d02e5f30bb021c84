package mmodel

import "strings"

// RelKind tags the relationship variants. The query planner branches on the
// tag rather than on dynamic dispatch.
type RelKind string

const (
	// RelContains is a strictly hierarchical parent/child association; a
	// child row's path is prefixed by its parent's path.
	RelContains RelKind = "contains"
	// RelOneToOne is materialized as two pointer columns, one on each
	// endpoint table, holding the counterpart's path.
	RelOneToOne RelKind = "one-to-one"
	// RelBetween is a many-to-many association materialized as a join table
	// with one row per connection.
	RelBetween RelKind = "between"
)

// Default endpoint column names on a between table.
const (
	DefaultFromAlias = "a1"
	DefaultToAlias   = "a2"
)

// Relationship is a named association between two entity endpoints.
type Relationship struct {
	Module string  `json:"module"`
	Name   string  `json:"name"`
	Kind   RelKind `json:"kind"`
	// From and To are entity fully qualified names. For contains, From is
	// the parent and To the child.
	From string `json:"from"`
	To   string `json:"to"`
	// FromAlias and ToAlias name the endpoint path columns on a between
	// table. Empty values fall back to a1/a2.
	FromAlias string `json:"fromAlias,omitempty"`
	ToAlias   string `json:"toAlias,omitempty"`
}

// Fq returns the fully qualified Module/Name of the relationship.
func (r *Relationship) Fq() string {
	return r.Module + "/" + r.Name
}

// EndpointAliases returns the from/to endpoint column names, applying the
// a1/a2 defaults.
func (r *Relationship) EndpointAliases() (string, string) {
	from, to := r.FromAlias, r.ToAlias
	if from == "" {
		from = DefaultFromAlias
	}

	if to == "" {
		to = DefaultToAlias
	}

	return from, to
}

// Other returns the endpoint opposite to the given entity fq, and whether the
// given fq is the From side.
func (r *Relationship) Other(entityFq string) (string, bool) {
	if r.From == entityFq {
		return r.To, true
	}

	return r.From, false
}

// Involves reports whether the entity is one of the relationship endpoints.
func (r *Relationship) Involves(entityFq string) bool {
	return r.From == entityFq || r.To == entityFq
}

// PointerColumn is the column a one-to-one relationship materializes on each
// endpoint table. The column holds the counterpart's path.
func (r *Relationship) PointerColumn() string {
	return strings.ToLower(r.Name)
}
