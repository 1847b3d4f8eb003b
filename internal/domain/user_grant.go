package domain

import (
	"context"

	coredomain "github.com/nexusiam/iamcore/pkg/domain"
)

// UserGrantState is the lifecycle state of a user grant.
type UserGrantState string

const (
	UserGrantStateActive  UserGrantState = "active"
	UserGrantStateRemoved UserGrantState = "removed"
)

// UserGrant binds a user to a project with a set of role keys. Unlike
// ProjectMember (membership, which roles are addressable to), UserGrant is
// the authorization-facing binding: one grant per (user, project), carrying
// the effective role keys. Its read-model row is what authz.Authorizer's
// HasActiveGrant reads; it is not synced into the casbin enforcer.
type UserGrant struct {
	coredomain.Entity

	userID    string
	projectID string
	orgID     string
	roleKeys  []string
	state     UserGrantState
}

type UserGrantAdded struct {
	UserID    string   `json:"user_id"`
	ProjectID string   `json:"project_id"`
	OrgID     string   `json:"org_id"`
	RoleKeys  []string `json:"role_keys"`
}

type UserGrantRolesChanged struct {
	RoleKeys []string `json:"role_keys"`
}

type UserGrantDeactivated struct{}
type UserGrantReactivated struct{}
type UserGrantRemoved struct{}

// NewUserGrant grants userID access to projectID with the given roles.
func NewUserGrant(ctx context.Context, logger coredomain.Logger, id, userID, projectID, orgID string, roleKeys []string) (*UserGrant, error) {
	if userID == "" {
		return nil, coredomain.NewValidationError("user_id", "must not be empty", userID)
	}
	if projectID == "" {
		return nil, coredomain.NewValidationError("project_id", "must not be empty", projectID)
	}
	g := &UserGrant{Entity: coredomain.NewEntity(id)}
	added := UserGrantAdded{UserID: userID, ProjectID: projectID, OrgID: orgID, RoleKeys: roleKeys}
	emit(ctx, logger, g, "user.grant", "added", added)
	g.apply(added)
	return g, nil
}

// ChangeRoles replaces the grant's role set. No-op if unchanged.
func (g *UserGrant) ChangeRoles(ctx context.Context, logger coredomain.Logger, roleKeys []string) error {
	if sameRoleSlice(g.roleKeys, roleKeys) {
		return nil
	}
	emit(ctx, logger, g, "user.grant", "roles.changed", UserGrantRolesChanged{RoleKeys: roleKeys})
	g.roleKeys = roleKeys
	return nil
}

func (g *UserGrant) Deactivate(ctx context.Context, logger coredomain.Logger) error {
	if g.state != UserGrantStateActive {
		return coredomain.NewDomainError("PRECONDITION_FAILED", "grant is not active", nil)
	}
	emit(ctx, logger, g, "user.grant", "deactivated", UserGrantDeactivated{})
	g.state = UserGrantStateRemoved
	return nil
}

func (g *UserGrant) Remove(ctx context.Context, logger coredomain.Logger) error {
	if g.state == UserGrantStateRemoved {
		return coredomain.NewDomainError("PRECONDITION_FAILED", "grant is already removed", nil)
	}
	emit(ctx, logger, g, "user.grant", "removed", UserGrantRemoved{})
	g.state = UserGrantStateRemoved
	return nil
}

func (g *UserGrant) UserID() string      { return g.userID }
func (g *UserGrant) ProjectID() string   { return g.projectID }
func (g *UserGrant) OrgID() string       { return g.orgID }
func (g *UserGrant) RoleKeys() []string  { return g.roleKeys }
func (g *UserGrant) State() UserGrantState { return g.state }

func sameRoleSlice(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, k := range a {
		set[k] = struct{}{}
	}
	for _, k := range b {
		if _, ok := set[k]; !ok {
			return false
		}
	}
	return true
}

func (g *UserGrant) LoadFromHistory(events []coredomain.Event) {
	for _, event := range events {
		ee, ok := event.(*coredomain.EntityEvent)
		if !ok {
			continue
		}
		switch normalizeEventType("user.grant", ee.EventType()) {
		case "user.grant.added":
			var v UserGrantAdded
			DecodePayload(ee.Payload(), &v)
			g.apply(v)
		case "user.grant.roles.changed":
			var v UserGrantRolesChanged
			DecodePayload(ee.Payload(), &v)
			g.apply(v)
		case "user.grant.deactivated":
			g.apply(UserGrantDeactivated{})
		case "user.grant.removed":
			g.apply(UserGrantRemoved{})
		}
	}
	g.Entity.LoadFromHistory(events)
}

func (g *UserGrant) apply(payload interface{}) {
	switch v := payload.(type) {
	case UserGrantAdded:
		g.userID = v.UserID
		g.projectID = v.ProjectID
		g.orgID = v.OrgID
		g.roleKeys = v.RoleKeys
		g.state = UserGrantStateActive
	case UserGrantRolesChanged:
		g.roleKeys = v.RoleKeys
	case UserGrantDeactivated:
		g.state = UserGrantStateRemoved
	case UserGrantRemoved:
		g.state = UserGrantStateRemoved
	}
}

// UserGrantRepository loads and saves UserGrant aggregates.
type UserGrantRepository = coredomain.Repository[*UserGrant]

// NewBlankUserGrant returns an unpopulated UserGrant identified by id, ready for
// LoadFromHistory. Used by the event-sourced repository to reconstruct an
// aggregate from its event history.
func NewBlankUserGrant(id string) *UserGrant {
	return &UserGrant{Entity: coredomain.NewEntity(id)}
}
