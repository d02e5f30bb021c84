// Package mmodel holds the schema and instance models shared between the
// catalog, the query builder and the resolver.
package mmodel

// AttrType enumerates the storable attribute types.
type AttrType string

const (
	TypeString   AttrType = "String"
	TypeInt      AttrType = "Int"
	TypeFloat    AttrType = "Float"
	TypeBool     AttrType = "Boolean"
	TypeDateTime AttrType = "DateTime"
	TypeMap      AttrType = "Map"
	TypeAny      AttrType = "Any"
)

// Attribute describes one declared attribute of an entity.
type Attribute struct {
	Name      string   `json:"name"`
	Type      AttrType `json:"type"`
	Optional  bool     `json:"optional"`
	Identity  bool     `json:"identity"`
	Indexed   bool     `json:"indexed"`
	Unique    bool     `json:"unique"`
	FullText  bool     `json:"fullText"`
	WriteOnly bool     `json:"writeOnly"`
	Enum      []string `json:"enum,omitempty"`
	Default   any      `json:"default,omitempty"`
}

// EmbeddingSettings overrides the environment embedding defaults for one
// entity.
type EmbeddingSettings struct {
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	ChunkSize    int    `json:"chunkSize"`
	ChunkOverlap int    `json:"chunkOverlap"`
}

// Entity is a declared record type. Entities are created during schema load
// and immutable afterwards.
type Entity struct {
	Module     string      `json:"module"`
	Name       string      `json:"name"`
	Attributes []Attribute `json:"attributes"`
	// FtsAttributes lists the attributes eligible for semantic lookup.
	// The single element "*" means every string attribute that is not
	// write-only.
	FtsAttributes []string           `json:"ftsAttributes,omitempty"`
	Embedding     *EmbeddingSettings `json:"embedding,omitempty"`
	// Contained marks entities that are the child side of a contains
	// relationship; their tables carry the parent path column.
	Contained bool `json:"contained"`
}

// Fq returns the fully qualified Module/Name of the entity.
func (e *Entity) Fq() string {
	return e.Module + "/" + e.Name
}

// Attribute returns the declared attribute with the given name.
func (e *Entity) Attribute(name string) (Attribute, bool) {
	for _, a := range e.Attributes {
		if a.Name == name {
			return a, true
		}
	}

	return Attribute{}, false
}

// IdentityAttribute returns the attribute marked @id, if any.
func (e *Entity) IdentityAttribute() (Attribute, bool) {
	for _, a := range e.Attributes {
		if a.Identity {
			return a, true
		}
	}

	return Attribute{}, false
}

// WriteOnlyAttributes returns the names of attributes that are returned only
// on write, never on read.
func (e *Entity) WriteOnlyAttributes() []string {
	var names []string

	for _, a := range e.Attributes {
		if a.WriteOnly {
			names = append(names, a.Name)
		}
	}

	return names
}

// FullTextAttributes resolves the FtsAttributes list, expanding "*" to every
// string attribute that is not write-only.
func (e *Entity) FullTextAttributes() []string {
	if len(e.FtsAttributes) == 1 && e.FtsAttributes[0] == "*" {
		var names []string

		for _, a := range e.Attributes {
			if a.Type == TypeString && !a.WriteOnly {
				names = append(names, a.Name)
			}
		}

		return names
	}

	return e.FtsAttributes
}

// HasFullText reports whether the entity participates in semantic lookup.
func (e *Entity) HasFullText() bool {
	return len(e.FtsAttributes) > 0
}

// RbacSpec grants a role a set of operations on a resource. The resource is an
// entity fully qualified name; a trailing "*" grants the whole module.
type RbacSpec struct {
	Role     string   `json:"role"`
	Resource string   `json:"resource"`
	Actions  []string `json:"actions"`
}

// RoleBinding assigns a user to a role.
type RoleBinding struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}
