package authz

import (
	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
)

// authzModel is an RBAC-with-domains model scoped to a project: a user (r.sub)
// may act (r.act) on a permission object (r.obj) within a project (r.dom) if
// they hold, directly or through a role grouping, a policy granting it.
// Roles and their permissions come from ProjectRole/ProjectMember reducers
// via SyncRole/SyncMember; this text is the only casbin configuration this
// package needs, so it is inlined rather than loaded from a .conf file.
const authzModelText = `
[request_definition]
r = sub, dom, obj, act

[policy_definition]
p = sub, dom, obj, act

[role_definition]
g = _, _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub, r.dom) && r.dom == p.dom && r.obj == p.obj && r.act == p.act
`

// NewCasbinEnforcer builds the casbin enforcer used by Authorizer and the
// Role/Membership syncers, backed by adapter for persistence.
func NewCasbinEnforcer(adapter *GormAdapter) (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(authzModelText)
	if err != nil {
		return nil, err
	}
	e, err := casbin.NewEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	if err := e.LoadPolicy(); err != nil {
		return nil, err
	}
	return e, nil
}
