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

// ApplicationRow is the read model for the Application aggregate, covering
// all three variants (OIDC/SAML/API) in one table, same as the aggregate
// itself.
type ApplicationRow struct {
	ID           string `gorm:"primaryKey;size:64"`
	ProjectID    string `gorm:"index;size:64"`
	Type         string `gorm:"size:16"`
	Name         string `gorm:"size:256"`
	RedirectURIs string `gorm:"type:text"`
	EntityID     string `gorm:"size:256"`
	ACSURL       string `gorm:"size:512"`
	State        string `gorm:"size:16"`
	Sequence     int64
	UpdatedAt    time.Time
}

func (ApplicationRow) TableName() string { return "application_projections" }

func (r ApplicationRow) Redirects() []string {
	if r.RedirectURIs == "" {
		return nil
	}
	return strings.Split(r.RedirectURIs, ",")
}

// ApplicationProjection reduces every application.* event into ApplicationRow.
type ApplicationProjection struct {
	db *gorm.DB
}

func NewApplicationProjection(db *gorm.DB) *ApplicationProjection {
	return &ApplicationProjection{db: db}
}

func (p *ApplicationProjection) Name() string            { return "application" }
func (p *ApplicationProjection) AggregateTypes() []string { return []string{"application"} }
func (p *ApplicationProjection) BatchSize() int           { return 200 }
func (p *ApplicationProjection) Interval() time.Duration  { return time.Second }
func (p *ApplicationProjection) EventTypes() []string {
	return []string{
		"application.oidc.added", "application.saml.added", "application.api.added",
		"application.oidc.secret.changed", "application.saml.secret.changed", "application.api.secret.changed",
		"application.changed", "application.deactivated", "application.reactivated", "application.removed",
	}
}

func (p *ApplicationProjection) Init(ctx context.Context) error {
	return p.db.WithContext(ctx).AutoMigrate(&ApplicationRow{})
}

func (p *ApplicationProjection) Reduce(ctx context.Context, envelope coredomain.Envelope) error {
	ee, ok := envelope.Event().(*coredomain.EntityEvent)
	if !ok {
		return nil
	}
	id := ee.AggregateID()

	var row ApplicationRow
	found := true
	if err := p.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		found = false
		row = ApplicationRow{ID: id}
	}
	if found && row.Sequence >= ee.SequenceNo() {
		return nil
	}

	eventType := NormalizeEventType("application", ee.EventType())
	switch {
	case eventType == "application.oidc.added":
		var v iamdomain.ApplicationOIDCAdded
		iamdomain.DecodePayload(ee.Payload(), &v)
		row.ProjectID = v.ProjectID
		row.Type = string(iamdomain.AppTypeOIDC)
		row.Name = v.Name
		row.RedirectURIs = strings.Join(v.RedirectURIs, ",")
		row.State = string(iamdomain.AppStateActive)
	case eventType == "application.saml.added":
		var v iamdomain.ApplicationSAMLAdded
		iamdomain.DecodePayload(ee.Payload(), &v)
		row.ProjectID = v.ProjectID
		row.Type = string(iamdomain.AppTypeSAML)
		row.Name = v.Name
		row.EntityID = v.EntityID
		row.ACSURL = v.ACSURL
		row.State = string(iamdomain.AppStateActive)
	case eventType == "application.api.added":
		var v iamdomain.ApplicationAPIAdded
		iamdomain.DecodePayload(ee.Payload(), &v)
		row.ProjectID = v.ProjectID
		row.Type = string(iamdomain.AppTypeAPI)
		row.Name = v.Name
		row.State = string(iamdomain.AppStateActive)
	case strings.HasSuffix(eventType, ".secret.changed"):
		// Client secret hash is never projected into the read model.
	case eventType == "application.changed":
		var v iamdomain.ApplicationChanged
		iamdomain.DecodePayload(ee.Payload(), &v)
		if v.Name != "" {
			row.Name = v.Name
		}
		if v.RedirectURIs != nil {
			row.RedirectURIs = strings.Join(v.RedirectURIs, ",")
		}
		if v.EntityID != "" {
			row.EntityID = v.EntityID
		}
		if v.ACSURL != "" {
			row.ACSURL = v.ACSURL
		}
	case eventType == "application.deactivated":
		row.State = string(iamdomain.AppStateInactive)
	case eventType == "application.reactivated":
		row.State = string(iamdomain.AppStateActive)
	case eventType == "application.removed":
		row.State = string(iamdomain.AppStateRemoved)
	default:
		return nil
	}

	row.Sequence = ee.SequenceNo()
	row.UpdatedAt = time.Now()
	return p.db.WithContext(ctx).Save(&row).Error
}
