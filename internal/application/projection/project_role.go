package projection

import (
	"context"
	"errors"
	"strings"
	"time"

	iamdomain "github.com/nexusiam/iamcore/internal/domain"
	coredomain "github.com/nexusiam/iamcore/pkg/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// ProjectRoleRow is the read model for the ProjectRole aggregate. Permissions
// is stored as a comma-joined string rather than a JSON serializer column,
// matching the simple scalar-column style the rest of this read model set
// uses; role keys/permissions are short identifiers, never free text, so
// joining is a safe, grep-able representation.
type ProjectRoleRow struct {
	ID          string `gorm:"primaryKey;size:64"`
	ProjectID   string `gorm:"index;size:64"`
	Key         string `gorm:"index;size:128"`
	DisplayName string `gorm:"size:256"`
	Permissions string `gorm:"type:text"`
	State       string `gorm:"size:16"`
	Sequence    int64
	UpdatedAt   time.Time
}

func (ProjectRoleRow) TableName() string { return "project_role_projections" }

func (r ProjectRoleRow) PermissionKeys() []string {
	if r.Permissions == "" {
		return nil
	}
	return strings.Split(r.Permissions, ",")
}

// ProjectRoleProjection reduces every project.role.* event into
// ProjectRoleRow, and keeps the authz package's permission policies for the
// role in sync as its permission set changes.
type ProjectRoleProjection struct {
	db   *gorm.DB
	sync RoleSyncer
}

// RoleSyncer is satisfied by the authz package's enforcer adapter: it
// replaces a role's permission policies whenever the role is added,
// changed, or removed.
type RoleSyncer interface {
	SyncRole(projectID, roleKey string, permissions []string, active bool) error
}

// projectRoleProjectionParams makes Sync optional the same way
// project_member.go's params struct does: fx leaves it nil when the authz
// package isn't part of the graph.
type projectRoleProjectionParams struct {
	fx.In

	DB   *gorm.DB
	Sync RoleSyncer `optional:"true"`
}

func NewProjectRoleProjection(p projectRoleProjectionParams) *ProjectRoleProjection {
	return &ProjectRoleProjection{db: p.DB, sync: p.Sync}
}

func (p *ProjectRoleProjection) Name() string            { return "project_role" }
func (p *ProjectRoleProjection) AggregateTypes() []string { return []string{"project.role"} }
func (p *ProjectRoleProjection) BatchSize() int           { return 200 }
func (p *ProjectRoleProjection) Interval() time.Duration  { return time.Second }
func (p *ProjectRoleProjection) EventTypes() []string {
	return []string{"project.role.added", "project.role.changed", "project.role.removed"}
}

func (p *ProjectRoleProjection) Init(ctx context.Context) error {
	return p.db.WithContext(ctx).AutoMigrate(&ProjectRoleRow{})
}

func (p *ProjectRoleProjection) Reduce(ctx context.Context, envelope coredomain.Envelope) error {
	ee, ok := envelope.Event().(*coredomain.EntityEvent)
	if !ok {
		return nil
	}
	id := ee.AggregateID()

	var row ProjectRoleRow
	found := true
	if err := p.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		found = false
		row = ProjectRoleRow{ID: id}
	}
	if found && row.Sequence >= ee.SequenceNo() {
		return nil
	}

	switch NormalizeEventType("project.role", ee.EventType()) {
	case "project.role.added":
		var v iamdomain.ProjectRoleAdded
		iamdomain.DecodePayload(ee.Payload(), &v)
		row.ProjectID = v.ProjectID
		row.Key = v.Key
		row.DisplayName = v.DisplayName
		row.Permissions = strings.Join(v.Permissions, ",")
		row.State = string(iamdomain.ProjectRoleStateActive)
	case "project.role.changed":
		var v iamdomain.ProjectRoleChanged
		iamdomain.DecodePayload(ee.Payload(), &v)
		row.DisplayName = v.DisplayName
		row.Permissions = strings.Join(v.Permissions, ",")
	case "project.role.removed":
		row.State = string(iamdomain.ProjectRoleStateRemoved)
	default:
		return nil
	}

	row.Sequence = ee.SequenceNo()
	row.UpdatedAt = time.Now()
	if err := p.db.WithContext(ctx).Save(&row).Error; err != nil {
		return err
	}
	if p.sync != nil {
		return p.sync.SyncRole(row.ProjectID, row.Key, row.PermissionKeys(), row.State == string(iamdomain.ProjectRoleStateActive))
	}
	return nil
}
