package projection

import (
	"context"
	"time"

	iamdomain "github.com/nexusiam/iamcore/internal/domain"
	coredomain "github.com/nexusiam/iamcore/pkg/domain"
	"gorm.io/gorm"
)

// CascadeProjection reacts to org.removed by marking every read-model row
// scoped to that org as removed/terminated, the same way the thirteen
// per-aggregate reducers each own one table. It is registered on the engine
// like any other Projection rather than wired as a special-cased side
// effect of OrgProjection.Reduce, so a cascade rebuild can be rerun on its
// own cursor independently of the org projection itself.
//
// SAML requests are deliberately left untouched: the row has no org or
// project column, only ApplicationID, and as a short-lived flow record it
// is already inert (succeeded/failed) well before an org removal
// would ever reach it.
type CascadeProjection struct {
	db *gorm.DB
}

func NewCascadeProjection(db *gorm.DB) *CascadeProjection { return &CascadeProjection{db: db} }

func (p *CascadeProjection) Name() string             { return "cascade" }
func (p *CascadeProjection) AggregateTypes() []string { return []string{"org"} }
func (p *CascadeProjection) EventTypes() []string     { return []string{"org.removed"} }
func (p *CascadeProjection) BatchSize() int           { return 50 }
func (p *CascadeProjection) Interval() time.Duration  { return 2 * time.Second }

func (p *CascadeProjection) Init(ctx context.Context) error { return nil }

func (p *CascadeProjection) Reduce(ctx context.Context, envelope coredomain.Envelope) error {
	ee, ok := envelope.Event().(*coredomain.EntityEvent)
	if !ok {
		return nil
	}
	if NormalizeEventType("org", ee.EventType()) != "org.removed" {
		return nil
	}
	orgID := ee.AggregateID()
	db := p.db.WithContext(ctx)

	projectIDs := db.Model(&ProjectRow{}).Select("id").Where("org_id = ?", orgID)

	directByOrg := []struct {
		table string
		state string
	}{
		{"project_projections", string(iamdomain.ProjectStateRemoved)},
		{"idp_config_projections", string(iamdomain.IDPConfigStateRemoved)},
		{"user_grant_projections", string(iamdomain.UserGrantStateRemoved)},
	}
	for _, t := range directByOrg {
		if err := db.Table(t.table).Where("org_id = ?", orgID).Update("state", t.state).Error; err != nil {
			return err
		}
	}
	if err := db.Table("user_projections").Where("org_id = ? AND state <> ?", orgID, string(iamdomain.UserStateDeleted)).
		Update("state", string(iamdomain.UserStateDeleted)).Error; err != nil {
		return err
	}
	if err := db.Table("session_projections").Where("org_id = ?", orgID).
		Update("state", string(iamdomain.SessionStateTerminated)).Error; err != nil {
		return err
	}
	if err := db.Table("idp_intent_projections").Where("org_id = ? AND status = ?", orgID, string(iamdomain.IDPIntentStateStarted)).
		Update("status", string(iamdomain.IDPIntentStateFailed)).Error; err != nil {
		return err
	}

	projectScoped := []struct {
		table string
		col   string
		value interface{}
	}{
		{"project_role_projections", "state", string(iamdomain.ProjectRoleStateRemoved)},
		{"project_member_projections", "state", string(iamdomain.ProjectMemberStateRemoved)},
		{"application_projections", "state", string(iamdomain.AppStateRemoved)},
		{"target_projections", "state", string(iamdomain.TargetStateRemoved)},
		{"execution_projections", "removed", true},
	}
	for _, t := range projectScoped {
		if err := db.Table(t.table).Where("project_id IN (?)", projectIDs).Update(t.col, t.value).Error; err != nil {
			return err
		}
	}

	return nil
}
