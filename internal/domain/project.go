package domain

import (
	"context"

	coredomain "github.com/nexusiam/iamcore/pkg/domain"
)

// ProjectState is the lifecycle state of a project.
type ProjectState string

const (
	ProjectStateActive   ProjectState = "active"
	ProjectStateInactive ProjectState = "inactive"
	ProjectStateRemoved  ProjectState = "removed"
)

// Project groups applications, roles, and members under an owning
// organization.
type Project struct {
	coredomain.Entity

	orgID string
	name  string
	state ProjectState
}

type ProjectAdded struct {
	OrgID string `json:"org_id"`
	Name  string `json:"name"`
}

type ProjectNameChanged struct {
	Name string `json:"name"`
}

type ProjectDeactivated struct{}
type ProjectReactivated struct{}
type ProjectRemoved struct{}

// NewProject creates a project owned by orgID and emits project.added.
func NewProject(ctx context.Context, logger coredomain.Logger, id, orgID, name string) (*Project, error) {
	if name == "" {
		return nil, coredomain.NewValidationError("name", "must not be empty", name)
	}
	p := &Project{Entity: coredomain.NewEntity(id)}
	added := ProjectAdded{OrgID: orgID, Name: name}
	emit(ctx, logger, p, "project", "added", added)
	p.apply(added)
	return p, nil
}

// ChangeName renames the project. No-op if unchanged.
func (p *Project) ChangeName(ctx context.Context, logger coredomain.Logger, name string) error {
	if name == "" {
		return coredomain.NewValidationError("name", "must not be empty", name)
	}
	if name == p.name {
		return nil
	}
	emit(ctx, logger, p, "project", "changed", ProjectNameChanged{Name: name})
	p.name = name
	return nil
}

func (p *Project) Deactivate(ctx context.Context, logger coredomain.Logger) error {
	if p.state != ProjectStateActive {
		return coredomain.NewDomainError("PRECONDITION_FAILED", "project is not active", nil)
	}
	emit(ctx, logger, p, "project", "deactivated", ProjectDeactivated{})
	p.state = ProjectStateInactive
	return nil
}

func (p *Project) Reactivate(ctx context.Context, logger coredomain.Logger) error {
	if p.state != ProjectStateInactive {
		return coredomain.NewDomainError("PRECONDITION_FAILED", "project is not inactive", nil)
	}
	emit(ctx, logger, p, "project", "reactivated", ProjectReactivated{})
	p.state = ProjectStateActive
	return nil
}

func (p *Project) Remove(ctx context.Context, logger coredomain.Logger) error {
	if p.state == ProjectStateRemoved {
		return coredomain.NewDomainError("PRECONDITION_FAILED", "project is already removed", nil)
	}
	emit(ctx, logger, p, "project", "removed", ProjectRemoved{})
	p.state = ProjectStateRemoved
	return nil
}

func (p *Project) State() ProjectState { return p.state }
func (p *Project) OrgID() string       { return p.orgID }
func (p *Project) Name() string        { return p.name }

func (p *Project) LoadFromHistory(events []coredomain.Event) {
	for _, event := range events {
		ee, ok := event.(*coredomain.EntityEvent)
		if !ok {
			continue
		}
		switch normalizeEventType("project", ee.EventType()) {
		case "project.added":
			var v ProjectAdded
			DecodePayload(ee.Payload(), &v)
			p.apply(v)
		case "project.changed":
			var v ProjectNameChanged
			DecodePayload(ee.Payload(), &v)
			p.apply(v)
		case "project.deactivated":
			p.apply(ProjectDeactivated{})
		case "project.reactivated":
			p.apply(ProjectReactivated{})
		case "project.removed":
			p.apply(ProjectRemoved{})
		}
	}
	p.Entity.LoadFromHistory(events)
}

func (p *Project) apply(payload interface{}) {
	switch v := payload.(type) {
	case ProjectAdded:
		p.orgID = v.OrgID
		p.name = v.Name
		p.state = ProjectStateActive
	case ProjectNameChanged:
		p.name = v.Name
	case ProjectDeactivated:
		p.state = ProjectStateInactive
	case ProjectReactivated:
		p.state = ProjectStateActive
	case ProjectRemoved:
		p.state = ProjectStateRemoved
	}
}

// ProjectRepository loads and saves Project aggregates.
type ProjectRepository = coredomain.Repository[*Project]

// NewBlankProject returns an unpopulated Project identified by id, ready for
// LoadFromHistory. Used by the event-sourced repository to reconstruct an
// aggregate from its event history.
func NewBlankProject(id string) *Project {
	return &Project{Entity: coredomain.NewEntity(id)}
}
