package projection

import (
	"context"
	"errors"
	"time"

	iamdomain "github.com/nexusiam/iamcore/internal/domain"
	coredomain "github.com/nexusiam/iamcore/pkg/domain"
	"gorm.io/gorm"
)

// UserRow is the read model for the User aggregate.
type UserRow struct {
	ID            string `gorm:"primaryKey;size:64"`
	OrgID         string `gorm:"index;size:64"`
	Kind          string `gorm:"size:16"`
	Username      string `gorm:"index;size:128"`
	Email         string `gorm:"index;size:256"`
	EmailVerified bool
	Phone         string `gorm:"size:32"`
	PhoneVerified bool
	FirstName     string `gorm:"size:128"`
	LastName      string `gorm:"size:128"`
	State         string `gorm:"size:16"`
	Sequence      int64
	UpdatedAt     time.Time
}

func (UserRow) TableName() string { return "user_projections" }

// UserProjection reduces every user.* event into UserRow.
type UserProjection struct {
	db *gorm.DB
}

func NewUserProjection(db *gorm.DB) *UserProjection { return &UserProjection{db: db} }

func (p *UserProjection) Name() string             { return "user" }
func (p *UserProjection) AggregateTypes() []string  { return []string{"user"} }
func (p *UserProjection) BatchSize() int            { return 200 }
func (p *UserProjection) Interval() time.Duration   { return time.Second }
func (p *UserProjection) EventTypes() []string {
	return []string{
		"user.added", "user.idp.provisioned", "user.idp.link.added",
		"user.username.changed", "user.email.changed", "user.email.verified",
		"user.phone.changed", "user.phone.verified", "user.password.changed",
		"user.deactivated", "user.reactivated", "user.locked", "user.unlocked",
		"user.removed",
	}
}

func (p *UserProjection) Init(ctx context.Context) error {
	return p.db.WithContext(ctx).AutoMigrate(&UserRow{})
}

func (p *UserProjection) Reduce(ctx context.Context, envelope coredomain.Envelope) error {
	ee, ok := envelope.Event().(*coredomain.EntityEvent)
	if !ok {
		return nil
	}
	id := ee.AggregateID()

	var row UserRow
	found := true
	if err := p.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		found = false
		row = UserRow{ID: id}
	}
	if found && row.Sequence >= ee.SequenceNo() {
		return nil
	}

	switch NormalizeEventType("user", ee.EventType()) {
	case "user.added":
		var v iamdomain.UserAdded
		iamdomain.DecodePayload(ee.Payload(), &v)
		row.OrgID = v.OrgID
		row.Kind = string(v.Kind)
		row.Username = v.Username
		row.Email = v.Email
		row.Phone = v.Phone
		row.FirstName = v.FirstName
		row.LastName = v.LastName
		row.State = string(iamdomain.UserStateActive)
	case "user.idp.provisioned":
		var v iamdomain.UserIDPProvisioned
		iamdomain.DecodePayload(ee.Payload(), &v)
		row.Email = v.Email
	case "user.idp.link.added":
		// No read-model field carries link state today; presence is
		// observable via internal/domain.User.IDPLinks() on replay.
	case "user.username.changed":
		var v iamdomain.UserUsernameChanged
		iamdomain.DecodePayload(ee.Payload(), &v)
		row.Username = v.Username
	case "user.email.changed":
		var v iamdomain.UserEmailChanged
		iamdomain.DecodePayload(ee.Payload(), &v)
		row.Email = v.Email
		row.EmailVerified = false
	case "user.email.verified":
		row.EmailVerified = true
	case "user.phone.changed":
		var v iamdomain.UserPhoneChanged
		iamdomain.DecodePayload(ee.Payload(), &v)
		row.Phone = v.Phone
		row.PhoneVerified = false
	case "user.phone.verified":
		row.PhoneVerified = true
	case "user.password.changed":
		// Password hash is not projected into the read model.
	case "user.deactivated":
		row.State = string(iamdomain.UserStateInactive)
	case "user.reactivated":
		row.State = string(iamdomain.UserStateActive)
	case "user.locked":
		row.State = string(iamdomain.UserStateLocked)
	case "user.unlocked":
		row.State = string(iamdomain.UserStateActive)
	case "user.removed":
		row.State = string(iamdomain.UserStateDeleted)
	default:
		return nil
	}

	row.Sequence = ee.SequenceNo()
	row.UpdatedAt = time.Now()
	return p.db.WithContext(ctx).Save(&row).Error
}
