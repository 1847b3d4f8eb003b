package application

import (
	"context"
	"errors"

	iamdomain "github.com/nexusiam/iamcore/internal/domain"
	"github.com/nexusiam/iamcore/internal/idgen"
	coreapp "github.com/nexusiam/iamcore/pkg/application"
	coredomain "github.com/nexusiam/iamcore/pkg/domain"
	"github.com/nexusiam/iamcore/pkg/infrastructure"
)

// SetupOrgCommand provisions a new Org together with its first project and
// its first administrator in one call. Unlike every other command handler
// in this package, it does not go through loadModifySave/Repository.Save
// per aggregate: the new Org, the new admin User, the default Project and
// the admin's ProjectMember/UserGrant all land in a single UnitOfWork.Commit,
// so a partially-provisioned org (say, an Org row with no admin able to sign
// in) can never be observed by a reader — either the whole bundle persists
// or none of it does.
type SetupOrgCommand struct {
	InstanceID       string `json:"instance_id"`
	OrgName          string `json:"org_name"`
	DefaultProjectName string `json:"default_project_name"`
	AdminUsername    string `json:"admin_username"`
	AdminEmail       string `json:"admin_email"`
	AdminFirstName   string `json:"admin_first_name,omitempty"`
	AdminLastName    string `json:"admin_last_name,omitempty"`
	AdminRoleKeys    []string `json:"admin_role_keys"`
}

func (c SetupOrgCommand) CommandType() string { return "iam.org.setup" }
func (c SetupOrgCommand) Validate() error {
	if c.InstanceID == "" {
		return errors.New("instance_id is required")
	}
	if c.OrgName == "" {
		return errors.New("org_name is required")
	}
	if c.AdminUsername == "" {
		return errors.New("admin_username is required")
	}
	if len(c.AdminRoleKeys) == 0 {
		return errors.New("admin_role_keys must include at least one role")
	}
	return nil
}

// SetupOrgResult is returned in the command Response's Data field.
type SetupOrgResult struct {
	OrgID           string `json:"org_id"`
	ProjectID       string `json:"project_id"`
	AdminUserID     string `json:"admin_user_id"`
	ProjectMemberID string `json:"project_member_id"`
	UserGrantID     string `json:"user_grant_id"`
}

// CompositeCommandHandlers groups the command handlers whose invariants
// span more than one aggregate and therefore need an explicit UnitOfWork
// rather than the per-aggregate Repository.Save every other handler uses.
type CompositeCommandHandlers struct {
	unitOfWorkFor infrastructure.UnitOfWorkFactory
}

func NewCompositeCommandHandlers(unitOfWorkFor infrastructure.UnitOfWorkFactory) *CompositeCommandHandlers {
	return &CompositeCommandHandlers{unitOfWorkFor: unitOfWorkFor}
}

func (h *CompositeCommandHandlers) SetupOrg(ctx context.Context, log coredomain.Logger, p coreapp.Payload[SetupOrgCommand]) (coreapp.Response[any], error) {
	c := p.Data

	org, err := iamdomain.NewOrg(ctx, log, idgen.New(), c.InstanceID, c.OrgName)
	if err != nil {
		return errResponse(translateErr(err))
	}

	admin, err := iamdomain.NewUser(ctx, log, idgen.New(), org.ID(), iamdomain.UserKindHuman, c.AdminUsername, c.AdminEmail, "", c.AdminFirstName, c.AdminLastName)
	if err != nil {
		return errResponse(translateErr(err))
	}

	projectName := c.DefaultProjectName
	if projectName == "" {
		projectName = c.OrgName + " default"
	}
	project, err := iamdomain.NewProject(ctx, log, idgen.New(), org.ID(), projectName)
	if err != nil {
		return errResponse(translateErr(err))
	}

	member, err := iamdomain.NewProjectMember(ctx, log, idgen.New(), project.ID(), admin.ID(), c.AdminRoleKeys)
	if err != nil {
		return errResponse(translateErr(err))
	}

	grant, err := iamdomain.NewUserGrant(ctx, log, idgen.New(), admin.ID(), project.ID(), org.ID(), c.AdminRoleKeys)
	if err != nil {
		return errResponse(translateErr(err))
	}

	uow := h.unitOfWorkFor()
	uow.RegisterEvents(org.UncommittedEvents())
	uow.RegisterEvents(admin.UncommittedEvents())
	uow.RegisterEvents(project.UncommittedEvents())
	uow.RegisterEvents(member.UncommittedEvents())
	uow.RegisterEvents(grant.UncommittedEvents())

	if _, err := uow.Commit(ctx); err != nil {
		return errResponse(translateErr(err))
	}
	org.MarkEventsAsCommitted()
	admin.MarkEventsAsCommitted()
	project.MarkEventsAsCommitted()
	member.MarkEventsAsCommitted()
	grant.MarkEventsAsCommitted()

	return coreapp.Response[any]{
		Data: SetupOrgResult{
			OrgID:           org.ID(),
			ProjectID:       project.ID(),
			AdminUserID:     admin.ID(),
			ProjectMemberID: member.ID(),
			UserGrantID:     grant.ID(),
		},
		Metadata: map[string]any{"org_version": org.Version()},
	}, nil
}
