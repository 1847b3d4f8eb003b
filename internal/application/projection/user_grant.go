package projection

import (
	"context"
	"errors"
	"strings"
	"time"

	iamdomain "github.com/nexusiam/iamcore/internal/domain"
	coredomain "github.com/nexusiam/iamcore/pkg/domain"
	"gorm.io/gorm"
)

// UserGrantRow is the read model for the UserGrant aggregate: one row per
// (user, project), the authorization-facing binding the command layer
// checks before issuing a SAML assertion or OIDC token.
type UserGrantRow struct {
	ID        string `gorm:"primaryKey;size:64"`
	UserID    string `gorm:"index;size:64"`
	ProjectID string `gorm:"index;size:64"`
	OrgID     string `gorm:"index;size:64"`
	RoleKeys  string `gorm:"type:text"`
	State     string `gorm:"size:16"`
	Sequence  int64
	UpdatedAt time.Time
}

func (UserGrantRow) TableName() string { return "user_grant_projections" }

func (r UserGrantRow) Roles() []string {
	if r.RoleKeys == "" {
		return nil
	}
	return strings.Split(r.RoleKeys, ",")
}

func (r UserGrantRow) Active() bool { return r.State == string(iamdomain.UserGrantStateActive) }

// UserGrantProjection reduces every user.grant.* event into UserGrantRow and
// is the data source the command layer's Authorizer.HasActiveGrant consults.
type UserGrantProjection struct {
	db *gorm.DB
}

func NewUserGrantProjection(db *gorm.DB) *UserGrantProjection { return &UserGrantProjection{db: db} }

func (p *UserGrantProjection) Name() string            { return "user_grant" }
func (p *UserGrantProjection) AggregateTypes() []string { return []string{"user.grant"} }
func (p *UserGrantProjection) BatchSize() int           { return 200 }
func (p *UserGrantProjection) Interval() time.Duration  { return time.Second }
func (p *UserGrantProjection) EventTypes() []string {
	return []string{
		"user.grant.added", "user.grant.roles.changed",
		"user.grant.deactivated", "user.grant.removed",
	}
}

func (p *UserGrantProjection) Init(ctx context.Context) error {
	return p.db.WithContext(ctx).AutoMigrate(&UserGrantRow{})
}

func (p *UserGrantProjection) Reduce(ctx context.Context, envelope coredomain.Envelope) error {
	ee, ok := envelope.Event().(*coredomain.EntityEvent)
	if !ok {
		return nil
	}
	id := ee.AggregateID()

	var row UserGrantRow
	found := true
	if err := p.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		found = false
		row = UserGrantRow{ID: id}
	}
	if found && row.Sequence >= ee.SequenceNo() {
		return nil
	}

	switch NormalizeEventType("user.grant", ee.EventType()) {
	case "user.grant.added":
		var v iamdomain.UserGrantAdded
		iamdomain.DecodePayload(ee.Payload(), &v)
		row.UserID = v.UserID
		row.ProjectID = v.ProjectID
		row.OrgID = v.OrgID
		row.RoleKeys = strings.Join(v.RoleKeys, ",")
		row.State = string(iamdomain.UserGrantStateActive)
	case "user.grant.roles.changed":
		var v iamdomain.UserGrantRolesChanged
		iamdomain.DecodePayload(ee.Payload(), &v)
		row.RoleKeys = strings.Join(v.RoleKeys, ",")
	case "user.grant.deactivated":
		row.State = string(iamdomain.UserGrantStateRemoved)
	case "user.grant.removed":
		row.State = string(iamdomain.UserGrantStateRemoved)
	default:
		return nil
	}

	row.Sequence = ee.SequenceNo()
	row.UpdatedAt = time.Now()
	return p.db.WithContext(ctx).Save(&row).Error
}
