package domain

import (
	"context"

	coredomain "github.com/nexusiam/iamcore/pkg/domain"
)

// ProjectMemberState is the lifecycle state of a project membership.
type ProjectMemberState string

const (
	ProjectMemberStateActive  ProjectMemberState = "active"
	ProjectMemberStateRemoved ProjectMemberState = "removed"
)

// ProjectMember grants a user one or more ProjectRoles within a project. Its
// id is a synthetic composite of (project_id, user_id): membership is
// one-per-user-per-project, roles are added to and removed from the set.
type ProjectMember struct {
	coredomain.Entity

	projectID string
	userID    string
	roleKeys  map[string]struct{}
	state     ProjectMemberState
}

type ProjectMemberAdded struct {
	ProjectID string   `json:"project_id"`
	UserID    string   `json:"user_id"`
	RoleKeys  []string `json:"role_keys"`
}

type ProjectMemberRolesChanged struct {
	RoleKeys []string `json:"role_keys"`
}

type ProjectMemberRemoved struct{}

// NewProjectMember adds a user as a member of projectID with the given roles.
func NewProjectMember(ctx context.Context, logger coredomain.Logger, id, projectID, userID string, roleKeys []string) (*ProjectMember, error) {
	if userID == "" {
		return nil, coredomain.NewValidationError("user_id", "must not be empty", userID)
	}
	m := &ProjectMember{Entity: coredomain.NewEntity(id)}
	added := ProjectMemberAdded{ProjectID: projectID, UserID: userID, RoleKeys: roleKeys}
	emit(ctx, logger, m, "project.member", "added", added)
	m.apply(added)
	return m, nil
}

// ChangeRoles replaces the member's role set. No-op if unchanged.
func (m *ProjectMember) ChangeRoles(ctx context.Context, logger coredomain.Logger, roleKeys []string) error {
	if sameRoleSet(m.roleKeys, roleKeys) {
		return nil
	}
	emit(ctx, logger, m, "project.member", "roles.changed", ProjectMemberRolesChanged{RoleKeys: roleKeys})
	m.setRoles(roleKeys)
	return nil
}

func (m *ProjectMember) Remove(ctx context.Context, logger coredomain.Logger) error {
	if m.state == ProjectMemberStateRemoved {
		return coredomain.NewDomainError("PRECONDITION_FAILED", "member is already removed", nil)
	}
	emit(ctx, logger, m, "project.member", "removed", ProjectMemberRemoved{})
	m.state = ProjectMemberStateRemoved
	return nil
}

// HasRole reports whether the member currently holds roleKey.
func (m *ProjectMember) HasRole(roleKey string) bool {
	_, ok := m.roleKeys[roleKey]
	return ok
}

func (m *ProjectMember) ProjectID() string { return m.projectID }
func (m *ProjectMember) UserID() string    { return m.userID }

func sameRoleSet(current map[string]struct{}, next []string) bool {
	if len(current) != len(next) {
		return false
	}
	for _, k := range next {
		if _, ok := current[k]; !ok {
			return false
		}
	}
	return true
}

func (m *ProjectMember) setRoles(roleKeys []string) {
	m.roleKeys = make(map[string]struct{}, len(roleKeys))
	for _, k := range roleKeys {
		m.roleKeys[k] = struct{}{}
	}
}

func (m *ProjectMember) LoadFromHistory(events []coredomain.Event) {
	for _, event := range events {
		ee, ok := event.(*coredomain.EntityEvent)
		if !ok {
			continue
		}
		switch normalizeEventType("project.member", ee.EventType()) {
		case "project.member.added":
			var v ProjectMemberAdded
			DecodePayload(ee.Payload(), &v)
			m.apply(v)
		case "project.member.roles.changed":
			var v ProjectMemberRolesChanged
			DecodePayload(ee.Payload(), &v)
			m.apply(v)
		case "project.member.removed":
			m.apply(ProjectMemberRemoved{})
		}
	}
	m.Entity.LoadFromHistory(events)
}

func (m *ProjectMember) apply(payload interface{}) {
	switch v := payload.(type) {
	case ProjectMemberAdded:
		m.projectID = v.ProjectID
		m.userID = v.UserID
		m.setRoles(v.RoleKeys)
		m.state = ProjectMemberStateActive
	case ProjectMemberRolesChanged:
		m.setRoles(v.RoleKeys)
	case ProjectMemberRemoved:
		m.state = ProjectMemberStateRemoved
	}
}

// ProjectMemberRepository loads and saves ProjectMember aggregates.
type ProjectMemberRepository = coredomain.Repository[*ProjectMember]

// NewBlankProjectMember returns an unpopulated ProjectMember identified by id, ready for
// LoadFromHistory. Used by the event-sourced repository to reconstruct an
// aggregate from its event history.
func NewBlankProjectMember(id string) *ProjectMember {
	return &ProjectMember{Entity: coredomain.NewEntity(id)}
}
