package authz

import (
	"context"
	"errors"

	"github.com/casbin/casbin/v3"
	"github.com/nexusiam/iamcore/internal/application/projection"
	"gorm.io/gorm"
)

// Authorizer is the command layer's single authorization collaborator: it
// answers the coarse-grained "does this user hold any active grant on this
// project" question the SAML/OIDC request flows gate on, and the
// finer-grained "may this user perform this action" question against the
// casbin policies SyncRole/SyncMember keep current.
type Authorizer struct {
	db       *gorm.DB
	enforcer *casbin.Enforcer
}

func NewAuthorizer(db *gorm.DB, enforcer *casbin.Enforcer) *Authorizer {
	return &Authorizer{db: db, enforcer: enforcer}
}

// HasActiveGrant reports whether userID holds an active UserGrant on
// projectID, read directly off the UserGrant projection rather than
// replaying the aggregate — the command layer calls this before issuing
// saml.request.link or an OIDC token.
func (a *Authorizer) HasActiveGrant(ctx context.Context, userID, projectID string) (bool, error) {
	var row projection.UserGrantRow
	err := a.db.WithContext(ctx).
		Where("user_id = ? AND project_id = ?", userID, projectID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return row.Active(), nil
}

// HasPermission reports whether userID may perform action on object within
// projectID, per the role policies SyncRole/SyncMember maintain.
func (a *Authorizer) HasPermission(ctx context.Context, userID, projectID, object, action string) (bool, error) {
	return a.enforcer.Enforce(userID, projectID, object, action)
}

// HasActiveGrantForApplication resolves applicationID to its owning
// project and delegates to HasActiveGrant — the shape the SAML request
// command layer needs, since a SAMLRequest only knows the application it
// was started against, not the project directly.
func (a *Authorizer) HasActiveGrantForApplication(ctx context.Context, userID, applicationID string) (bool, error) {
	var app projection.ApplicationRow
	if err := a.db.WithContext(ctx).Where("id = ?", applicationID).First(&app).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return a.HasActiveGrant(ctx, userID, app.ProjectID)
}
