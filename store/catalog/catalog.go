// Package catalog holds the declared modules, entities, relationships and
// RBAC specs, keyed by fully qualified names. The catalog is populated once
// during schema load and sealed; after that readers need no locking.
package catalog

import (
	"sync"

	"github.com/agentlang-ai/agentstore/pkg"
	"github.com/agentlang-ai/agentstore/pkg/constant"
	"github.com/agentlang-ai/agentstore/pkg/mmodel"
)

// Catalog is the schema registry consulted by the resolver and the query
// planner.
type Catalog struct {
	mu            sync.RWMutex
	sealed        bool
	entities      map[string]*mmodel.Entity
	relationships map[string]*mmodel.Relationship
	// byEntity indexes relationship fqs by endpoint entity fq.
	byEntity map[string][]string
	rbac     []mmodel.RbacSpec
	bindings []mmodel.RoleBinding
}

// New returns an empty, unsealed catalog.
func New() *Catalog {
	return &Catalog{
		entities:      map[string]*mmodel.Entity{},
		relationships: map[string]*mmodel.Relationship{},
		byEntity:      map[string][]string{},
	}
}

// AddEntity registers an entity. Registration fails once the catalog is
// sealed: entities are immutable after schema load.
func (c *Catalog) AddEntity(e *mmodel.Entity) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sealed {
		return pkg.ValidateBusinessError(constant.ErrCatalogSealed, "Catalog")
	}

	c.entities[e.Fq()] = e

	return nil
}

// AddRelationship registers a relationship between two declared entities.
func (c *Catalog) AddRelationship(r *mmodel.Relationship) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sealed {
		return pkg.ValidateBusinessError(constant.ErrCatalogSealed, "Catalog")
	}

	if _, ok := c.entities[r.From]; !ok {
		return pkg.ValidateBusinessError(constant.ErrUnknownEntity, "Relationship", r.From)
	}

	if _, ok := c.entities[r.To]; !ok {
		return pkg.ValidateBusinessError(constant.ErrUnknownEntity, "Relationship", r.To)
	}

	fq := r.Fq()
	c.relationships[fq] = r
	c.byEntity[r.From] = append(c.byEntity[r.From], fq)

	if r.To != r.From {
		c.byEntity[r.To] = append(c.byEntity[r.To], fq)
	}

	if r.Kind == mmodel.RelContains {
		c.entities[r.To].Contained = true
	}

	return nil
}

// AddRbacSpec registers a role grant.
func (c *Catalog) AddRbacSpec(spec mmodel.RbacSpec) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sealed {
		return pkg.ValidateBusinessError(constant.ErrCatalogSealed, "Catalog")
	}

	c.rbac = append(c.rbac, spec)

	return nil
}

// AddRoleBinding assigns a user to a role.
func (c *Catalog) AddRoleBinding(b mmodel.RoleBinding) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sealed {
		return pkg.ValidateBusinessError(constant.ErrCatalogSealed, "Catalog")
	}

	c.bindings = append(c.bindings, b)

	return nil
}

// Seal marks the end of schema load. After Seal the catalog is read-only.
func (c *Catalog) Seal() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sealed = true
}

// Sealed reports whether schema load has completed.
func (c *Catalog) Sealed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.sealed
}

// LookupEntity returns the entity declared under the fully qualified name.
func (c *Catalog) LookupEntity(fq string) (*mmodel.Entity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entities[fq]

	return e, ok
}

// LookupRelationship returns the relationship declared under the fully
// qualified name.
func (c *Catalog) LookupRelationship(fq string) (*mmodel.Relationship, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r, ok := c.relationships[fq]

	return r, ok
}

// Entities returns every declared entity.
func (c *Catalog) Entities() []*mmodel.Entity {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*mmodel.Entity, 0, len(c.entities))
	for _, e := range c.entities {
		out = append(out, e)
	}

	return out
}

// Relationships returns every declared relationship.
func (c *Catalog) Relationships() []*mmodel.Relationship {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*mmodel.Relationship, 0, len(c.relationships))
	for _, r := range c.relationships {
		out = append(out, r)
	}

	return out
}

// ListRelationships returns the relationships that involve the entity.
func (c *Catalog) ListRelationships(entityFq string) []*mmodel.Relationship {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []*mmodel.Relationship
	for _, fq := range c.byEntity[entityFq] {
		out = append(out, c.relationships[fq])
	}

	return out
}

// OneToOneRelationshipsFor returns the one-to-one relationships that involve
// the entity.
func (c *Catalog) OneToOneRelationshipsFor(entityFq string) []*mmodel.Relationship {
	var out []*mmodel.Relationship

	for _, r := range c.ListRelationships(entityFq) {
		if r.Kind == mmodel.RelOneToOne {
			out = append(out, r)
		}
	}

	return out
}

// ContainsParent returns the contains relationship on which the entity is
// the child side, if any.
func (c *Catalog) ContainsParent(entityFq string) (*mmodel.Relationship, bool) {
	for _, r := range c.ListRelationships(entityFq) {
		if r.Kind == mmodel.RelContains && r.To == entityFq {
			return r, true
		}
	}

	return nil, false
}

// IsBetween reports whether the fully qualified name addresses a between
// (many-to-many) relationship rather than an entity.
func (c *Catalog) IsBetween(fq string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r, ok := c.relationships[fq]

	return ok && r.Kind == mmodel.RelBetween
}

// RbacRulesFor returns the role grants whose resource covers the entity.
// A resource of "module/*" covers every entity of the module.
func (c *Catalog) RbacRulesFor(entityFq string) []mmodel.RbacSpec {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []mmodel.RbacSpec

	for _, spec := range c.rbac {
		if matchResource(spec.Resource, entityFq) {
			out = append(out, spec)
		}
	}

	return out
}

// RbacSpecs returns every role grant declared in the schema.
func (c *Catalog) RbacSpecs() []mmodel.RbacSpec {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return append([]mmodel.RbacSpec(nil), c.rbac...)
}

// RoleBindings returns every user-to-role assignment declared in the schema.
func (c *Catalog) RoleBindings() []mmodel.RoleBinding {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return append([]mmodel.RoleBinding(nil), c.bindings...)
}

func matchResource(resource, entityFq string) bool {
	if resource == entityFq || resource == "*" {
		return true
	}

	const wildcard = "/*"
	if len(resource) > len(wildcard) && resource[len(resource)-len(wildcard):] == wildcard {
		module := resource[:len(resource)-len(wildcard)]

		return len(entityFq) > len(module) && entityFq[:len(module)] == module && entityFq[len(module)] == '/'
	}

	return false
}
