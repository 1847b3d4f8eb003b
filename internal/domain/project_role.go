package domain

import (
	"context"

	coredomain "github.com/nexusiam/iamcore/pkg/domain"
)

// ProjectRoleState is the lifecycle state of a project role.
type ProjectRoleState string

const (
	ProjectRoleStateActive  ProjectRoleState = "active"
	ProjectRoleStateRemoved ProjectRoleState = "removed"
)

// ProjectRole is a named, project-scoped permission bundle grantable to
// users via ProjectMember. It is a first-class aggregate (a supplemented
// feature: the distilled spec folds roles into UserGrant, but the full
// authorization model needs them addressable and independently lifecycled).
type ProjectRole struct {
	coredomain.Entity

	projectID   string
	key         string
	displayName string
	permissions []string
	state       ProjectRoleState
}

type ProjectRoleAdded struct {
	ProjectID   string   `json:"project_id"`
	Key         string   `json:"key"`
	DisplayName string   `json:"display_name"`
	Permissions []string `json:"permissions"`
}

type ProjectRoleChanged struct {
	DisplayName string   `json:"display_name"`
	Permissions []string `json:"permissions"`
}

type ProjectRoleRemoved struct{}

// NewProjectRole creates a role scoped to projectID.
func NewProjectRole(ctx context.Context, logger coredomain.Logger, id, projectID, key, displayName string, permissions []string) (*ProjectRole, error) {
	if key == "" {
		return nil, coredomain.NewValidationError("key", "must not be empty", key)
	}
	r := &ProjectRole{Entity: coredomain.NewEntity(id)}
	added := ProjectRoleAdded{ProjectID: projectID, Key: key, DisplayName: displayName, Permissions: permissions}
	emit(ctx, logger, r, "project.role", "added", added)
	r.apply(added)
	return r, nil
}

// Change updates display name and permission set.
func (r *ProjectRole) Change(ctx context.Context, logger coredomain.Logger, displayName string, permissions []string) error {
	emit(ctx, logger, r, "project.role", "changed", ProjectRoleChanged{DisplayName: displayName, Permissions: permissions})
	r.displayName = displayName
	r.permissions = permissions
	return nil
}

func (r *ProjectRole) Remove(ctx context.Context, logger coredomain.Logger) error {
	if r.state == ProjectRoleStateRemoved {
		return coredomain.NewDomainError("PRECONDITION_FAILED", "role is already removed", nil)
	}
	emit(ctx, logger, r, "project.role", "removed", ProjectRoleRemoved{})
	r.state = ProjectRoleStateRemoved
	return nil
}

func (r *ProjectRole) Key() string           { return r.key }
func (r *ProjectRole) ProjectID() string     { return r.projectID }
func (r *ProjectRole) Permissions() []string { return r.permissions }
func (r *ProjectRole) State() ProjectRoleState { return r.state }

func (r *ProjectRole) LoadFromHistory(events []coredomain.Event) {
	for _, event := range events {
		ee, ok := event.(*coredomain.EntityEvent)
		if !ok {
			continue
		}
		switch normalizeEventType("project.role", ee.EventType()) {
		case "project.role.added":
			var v ProjectRoleAdded
			DecodePayload(ee.Payload(), &v)
			r.apply(v)
		case "project.role.changed":
			var v ProjectRoleChanged
			DecodePayload(ee.Payload(), &v)
			r.apply(v)
		case "project.role.removed":
			r.apply(ProjectRoleRemoved{})
		}
	}
	r.Entity.LoadFromHistory(events)
}

func (r *ProjectRole) apply(payload interface{}) {
	switch v := payload.(type) {
	case ProjectRoleAdded:
		r.projectID = v.ProjectID
		r.key = v.Key
		r.displayName = v.DisplayName
		r.permissions = v.Permissions
		r.state = ProjectRoleStateActive
	case ProjectRoleChanged:
		r.displayName = v.DisplayName
		r.permissions = v.Permissions
	case ProjectRoleRemoved:
		r.state = ProjectRoleStateRemoved
	}
}

// ProjectRoleRepository loads and saves ProjectRole aggregates.
type ProjectRoleRepository = coredomain.Repository[*ProjectRole]

// NewBlankProjectRole returns an unpopulated ProjectRole identified by id, ready for
// LoadFromHistory. Used by the event-sourced repository to reconstruct an
// aggregate from its event history.
func NewBlankProjectRole(id string) *ProjectRole {
	return &ProjectRole{Entity: coredomain.NewEntity(id)}
}
