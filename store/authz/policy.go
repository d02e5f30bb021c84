package authz

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"

	"github.com/agentlang-ai/agentstore/store/catalog"
)

// modelData is the casbin model for the global role/permission tables.
// The subject is a user id, the object an entity fully qualified name (role
// grants may use "module/*" to cover a module), and the action one of
// create/read/update/delete.
var modelData = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, "admin") || (g(r.sub, p.sub) && keyMatch(r.obj, p.obj) && r.act == p.act)
`

// newEnforcer builds an in-memory enforcer from the RBAC specs and role
// bindings declared in the schema catalog. Policies live for the process;
// the catalog is sealed after load, so no re-sync is needed.
func newEnforcer(cat *catalog.Catalog) (*casbin.Enforcer, error) {
	m, err := casbinmodel.NewModelFromString(modelData)
	if err != nil {
		return nil, fmt.Errorf("authz: parse model: %w", err)
	}

	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("authz: new enforcer: %w", err)
	}

	for _, spec := range cat.RbacSpecs() {
		for _, action := range spec.Actions {
			if _, err := enforcer.AddPolicy(spec.Role, spec.Resource, action); err != nil {
				return nil, fmt.Errorf("authz: add policy: %w", err)
			}
		}
	}

	for _, binding := range cat.RoleBindings() {
		if _, err := enforcer.AddGroupingPolicy(binding.UserID, binding.Role); err != nil {
			return nil, fmt.Errorf("authz: add role binding: %w", err)
		}
	}

	return enforcer, nil
}
