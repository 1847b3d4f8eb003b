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

// ProjectMemberRow is the read model for the ProjectMember aggregate: a
// project-level administrative role binding, distinct from UserGrantRow's
// end-user application roles.
type ProjectMemberRow struct {
	ID        string `gorm:"primaryKey;size:64"`
	ProjectID string `gorm:"index;size:64"`
	UserID    string `gorm:"index;size:64"`
	RoleKeys  string `gorm:"type:text"`
	State     string `gorm:"size:16"`
	Sequence  int64
	UpdatedAt time.Time
}

func (ProjectMemberRow) TableName() string { return "project_member_projections" }

func (r ProjectMemberRow) Roles() []string {
	if r.RoleKeys == "" {
		return nil
	}
	return strings.Split(r.RoleKeys, ",")
}

// ProjectMemberProjection reduces every project.member.* event into
// ProjectMemberRow, and also keeps the authz package's membership enforcer
// in sync as each membership change lands.
type ProjectMemberProjection struct {
	db   *gorm.DB
	sync MembershipSyncer
}

// MembershipSyncer is satisfied by the authz package's enforcer adapter.
type MembershipSyncer interface {
	SyncMember(projectID, userID string, roleKeys []string, active bool) error
}

// projectMemberProjectionParams makes Sync optional: when the authz package
// isn't part of the fx graph (e.g. a test standing up only the projection
// engine), fx leaves it nil rather than failing to resolve the dependency.
type projectMemberProjectionParams struct {
	fx.In

	DB   *gorm.DB
	Sync MembershipSyncer `optional:"true"`
}

func NewProjectMemberProjection(p projectMemberProjectionParams) *ProjectMemberProjection {
	return &ProjectMemberProjection{db: p.DB, sync: p.Sync}
}

func (p *ProjectMemberProjection) Name() string            { return "project_member" }
func (p *ProjectMemberProjection) AggregateTypes() []string { return []string{"project.member"} }
func (p *ProjectMemberProjection) BatchSize() int           { return 200 }
func (p *ProjectMemberProjection) Interval() time.Duration  { return time.Second }
func (p *ProjectMemberProjection) EventTypes() []string {
	return []string{"project.member.added", "project.member.roles.changed", "project.member.removed"}
}

func (p *ProjectMemberProjection) Init(ctx context.Context) error {
	return p.db.WithContext(ctx).AutoMigrate(&ProjectMemberRow{})
}

func (p *ProjectMemberProjection) Reduce(ctx context.Context, envelope coredomain.Envelope) error {
	ee, ok := envelope.Event().(*coredomain.EntityEvent)
	if !ok {
		return nil
	}
	id := ee.AggregateID()

	var row ProjectMemberRow
	found := true
	if err := p.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		found = false
		row = ProjectMemberRow{ID: id}
	}
	if found && row.Sequence >= ee.SequenceNo() {
		return nil
	}

	switch NormalizeEventType("project.member", ee.EventType()) {
	case "project.member.added":
		var v iamdomain.ProjectMemberAdded
		iamdomain.DecodePayload(ee.Payload(), &v)
		row.ProjectID = v.ProjectID
		row.UserID = v.UserID
		row.RoleKeys = strings.Join(v.RoleKeys, ",")
		row.State = string(iamdomain.ProjectMemberStateActive)
	case "project.member.roles.changed":
		var v iamdomain.ProjectMemberRolesChanged
		iamdomain.DecodePayload(ee.Payload(), &v)
		row.RoleKeys = strings.Join(v.RoleKeys, ",")
	case "project.member.removed":
		row.State = string(iamdomain.ProjectMemberStateRemoved)
	default:
		return nil
	}

	row.Sequence = ee.SequenceNo()
	row.UpdatedAt = time.Now()
	if err := p.db.WithContext(ctx).Save(&row).Error; err != nil {
		return err
	}
	if p.sync != nil {
		return p.sync.SyncMember(row.ProjectID, row.UserID, row.Roles(), row.State == string(iamdomain.ProjectMemberStateActive))
	}
	return nil
}
