package domain

import (
	"context"
	"time"

	coredomain "github.com/nexusiam/iamcore/pkg/domain"
)

// UserState is the lifecycle state of a user.
type UserState string

const (
	UserStateActive   UserState = "active"
	UserStateInactive UserState = "inactive"
	UserStateLocked   UserState = "locked"
	UserStateDeleted  UserState = "deleted"
)

// UserKind distinguishes human accounts from service/machine accounts.
type UserKind string

const (
	UserKindHuman   UserKind = "human"
	UserKindMachine UserKind = "machine"
)

// User is the identity aggregate: a human or machine account scoped to an
// organization within an instance.
type User struct {
	coredomain.Entity

	orgID             string
	kind              UserKind
	username          string
	email             string
	emailVerified     bool
	phone             string
	phoneVerified     bool
	firstName         string
	lastName          string
	passwordHash      string
	passwordChangedAt time.Time
	state             UserState

	idpLinks []UserIDPLink
}

// UserIDPLink records one external identity linked to this user.
type UserIDPLink struct {
	IDPID      string `json:"idp_id"`
	ExternalID string `json:"external_id"`
}

// UserAdded is emitted for user.added (and legacy user.human.added /
// user.machine.added / user.created).
type UserAdded struct {
	OrgID     string   `json:"org_id"`
	Kind      UserKind `json:"kind"`
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone,omitempty"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
}

// UserProfileChanged is emitted for user.profile.changed.
type UserProfileChanged struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// UserUsernameChanged is emitted for user.username.changed.
type UserUsernameChanged struct {
	Username string `json:"username"`
}

// UserEmailChanged is emitted for user.email.changed. Changing the email
// always resets verification, per the projection contract.
type UserEmailChanged struct {
	Email string `json:"email"`
}

// UserEmailVerified is emitted for user.email.verified.
type UserEmailVerified struct {
	VerifiedAt time.Time `json:"verified_at"`
}

// UserPhoneChanged is emitted for user.phone.changed.
type UserPhoneChanged struct {
	Phone string `json:"phone"`
}

// UserPhoneVerified is emitted for user.phone.verified.
type UserPhoneVerified struct {
	VerifiedAt time.Time `json:"verified_at"`
}

// UserPasswordChanged is emitted for user.password.changed. The hash is
// opaque to the core; hashing itself is an external collaborator concern.
type UserPasswordChanged struct {
	PasswordHash string    `json:"password_hash"`
	ChangedAt    time.Time `json:"changed_at"`
}

// UserDeactivated, UserReactivated, UserLocked, UserUnlocked carry no data
// beyond the state transition itself.
type UserDeactivated struct{}
type UserReactivated struct{}
type UserLocked struct{}
type UserUnlocked struct{}

// UserRemoved marks the user.removed soft-delete.
type UserRemoved struct{}

// UserIDPProvisioned is emitted by NewUserFromIDP when a successful IDP
// login matched no existing user and a new one was provisioned inline.
type UserIDPProvisioned struct {
	IDPID      string `json:"idp_id"`
	ExternalID string `json:"external_id"`
	Email      string `json:"email"`
}

// UserIDPLinkAdded is emitted when an external identity is linked to an
// existing user instead of provisioning a new one.
type UserIDPLinkAdded struct {
	IDPID      string `json:"idp_id"`
	ExternalID string `json:"external_id"`
}

// NewUser creates a new human or machine user and emits user.added.
func NewUser(ctx context.Context, logger coredomain.Logger, id, orgID string, kind UserKind, username, email, phone, firstName, lastName string) (*User, error) {
	if username == "" {
		return nil, coredomain.NewValidationError("username", "must not be empty", username)
	}
	if email == "" {
		return nil, coredomain.NewValidationError("email", "must not be empty", email)
	}

	u := &User{
		Entity: coredomain.NewEntity(id),
		state:  UserStateActive,
	}

	added := UserAdded{
		OrgID: orgID, Kind: kind, Username: username, Email: email,
		Phone: phone, FirstName: firstName, LastName: lastName,
	}
	emit(ctx, logger, u, "user", "added", added)
	u.apply(added)
	return u, nil
}

// NewUserFromIDP provisions a new user for an external identity that
// matched no existing account. It emits user.added followed immediately by
// user.idp.provisioned, so the link is visible from the first event the
// user ever produced rather than requiring a separate command.
func NewUserFromIDP(ctx context.Context, logger coredomain.Logger, id, orgID string, kind UserKind, username, email, firstName, lastName, idpID, externalID string) (*User, error) {
	u, err := NewUser(ctx, logger, id, orgID, kind, username, email, "", firstName, lastName)
	if err != nil {
		return nil, err
	}
	provisioned := UserIDPProvisioned{IDPID: idpID, ExternalID: externalID, Email: email}
	emit(ctx, logger, u, "user", "idp.provisioned", provisioned)
	u.apply(provisioned)
	return u, nil
}

// LinkIDPIdentity links an external identity to an already-existing user,
// used when an IDP login matches by email rather than by a stored external
// id. No-op if the identity is already linked.
func (u *User) LinkIDPIdentity(ctx context.Context, logger coredomain.Logger, idpID, externalID string) error {
	for _, l := range u.idpLinks {
		if l.IDPID == idpID && l.ExternalID == externalID {
			return nil
		}
	}
	linked := UserIDPLinkAdded{IDPID: idpID, ExternalID: externalID}
	emit(ctx, logger, u, "user", "idp.link.added", linked)
	u.apply(linked)
	return nil
}

// IDPLinks returns the external identities currently linked to this user.
func (u *User) IDPLinks() []UserIDPLink { return u.idpLinks }

// ChangeUsername renames the user. No-op (no event) if the value is unchanged.
func (u *User) ChangeUsername(ctx context.Context, logger coredomain.Logger, username string) error {
	if username == "" {
		return coredomain.NewValidationError("username", "must not be empty", username)
	}
	if username == u.username {
		return nil
	}
	emit(ctx, logger, u, "user", "username.changed", UserUsernameChanged{Username: username})
	u.username = username
	return nil
}

// ChangeEmail updates the email and resets verification.
func (u *User) ChangeEmail(ctx context.Context, logger coredomain.Logger, email string) error {
	if email == "" {
		return coredomain.NewValidationError("email", "must not be empty", email)
	}
	if email == u.email {
		return nil
	}
	emit(ctx, logger, u, "user", "email.changed", UserEmailChanged{Email: email})
	u.email = email
	u.emailVerified = false
	return nil
}

// ChangePassword records a new password hash. Hashing itself happens
// outside the aggregate; the core only ever sees and stores the digest.
func (u *User) ChangePassword(ctx context.Context, logger coredomain.Logger, passwordHash string, at time.Time) error {
	if passwordHash == "" {
		return coredomain.NewValidationError("password_hash", "must not be empty", passwordHash)
	}
	emit(ctx, logger, u, "user", "password.changed", UserPasswordChanged{PasswordHash: passwordHash, ChangedAt: at})
	u.passwordHash = passwordHash
	u.passwordChangedAt = at
	return nil
}

// VerifyEmail marks the current email as verified.
func (u *User) VerifyEmail(ctx context.Context, logger coredomain.Logger, at time.Time) error {
	if u.emailVerified {
		return nil
	}
	emit(ctx, logger, u, "user", "email.verified", UserEmailVerified{VerifiedAt: at})
	u.emailVerified = true
	return nil
}

// Deactivate transitions an active user to inactive. Idempotent-by-target-
// state: deactivating an already-inactive user is a Precondition failure,
// per the idempotence contract for explicit state-transition commands.
func (u *User) Deactivate(ctx context.Context, logger coredomain.Logger) error {
	if u.state != UserStateActive {
		return coredomain.NewDomainError("PRECONDITION_FAILED", "user is not active", nil)
	}
	emit(ctx, logger, u, "user", "deactivated", UserDeactivated{})
	u.state = UserStateInactive
	return nil
}

// Reactivate transitions an inactive user back to active.
func (u *User) Reactivate(ctx context.Context, logger coredomain.Logger) error {
	if u.state != UserStateInactive {
		return coredomain.NewDomainError("PRECONDITION_FAILED", "user is not inactive", nil)
	}
	emit(ctx, logger, u, "user", "reactivated", UserReactivated{})
	u.state = UserStateActive
	return nil
}

// Lock transitions the user to locked, from any non-deleted state.
func (u *User) Lock(ctx context.Context, logger coredomain.Logger) error {
	if u.state == UserStateLocked {
		return coredomain.NewDomainError("PRECONDITION_FAILED", "user is already locked", nil)
	}
	if u.state == UserStateDeleted {
		return coredomain.NewDomainError("PRECONDITION_FAILED", "user is removed", nil)
	}
	emit(ctx, logger, u, "user", "locked", UserLocked{})
	u.state = UserStateLocked
	return nil
}

// Unlock transitions a locked user back to active.
func (u *User) Unlock(ctx context.Context, logger coredomain.Logger) error {
	if u.state != UserStateLocked {
		return coredomain.NewDomainError("PRECONDITION_FAILED", "user is not locked", nil)
	}
	emit(ctx, logger, u, "user", "unlocked", UserUnlocked{})
	u.state = UserStateActive
	return nil
}

// Remove soft-deletes the user.
func (u *User) Remove(ctx context.Context, logger coredomain.Logger) error {
	if u.state == UserStateDeleted {
		return coredomain.NewDomainError("PRECONDITION_FAILED", "user is already removed", nil)
	}
	emit(ctx, logger, u, "user", "removed", UserRemoved{})
	u.state = UserStateDeleted
	return nil
}

func (u *User) State() UserState { return u.state }
func (u *User) OrgID() string    { return u.orgID }
func (u *User) Email() string    { return u.email }
func (u *User) Username() string { return u.username }

// LoadFromHistory replays events to rebuild state, accepting both legacy and
// versioned event names via normalizeEventType.
func (u *User) LoadFromHistory(events []coredomain.Event) {
	for _, event := range events {
		ee, ok := event.(*coredomain.EntityEvent)
		if !ok {
			continue
		}
		var payload interface{}
		switch normalizeEventType("user", ee.EventType()) {
		case "user.added", "user.human.added", "user.machine.added", "user.created":
			var p UserAdded
			DecodePayload(ee.Payload(), &p)
			payload = p
		case "user.profile.changed":
			var p UserProfileChanged
			DecodePayload(ee.Payload(), &p)
			payload = p
		case "user.username.changed":
			var p UserUsernameChanged
			DecodePayload(ee.Payload(), &p)
			payload = p
		case "user.email.changed":
			var p UserEmailChanged
			DecodePayload(ee.Payload(), &p)
			payload = p
		case "user.email.verified":
			payload = UserEmailVerified{}
		case "user.phone.changed":
			var p UserPhoneChanged
			DecodePayload(ee.Payload(), &p)
			payload = p
		case "user.phone.verified":
			payload = UserPhoneVerified{}
		case "user.password.changed":
			var p UserPasswordChanged
			DecodePayload(ee.Payload(), &p)
			payload = p
		case "user.deactivated":
			payload = UserDeactivated{}
		case "user.reactivated":
			payload = UserReactivated{}
		case "user.locked":
			payload = UserLocked{}
		case "user.unlocked":
			payload = UserUnlocked{}
		case "user.removed":
			payload = UserRemoved{}
		case "user.idp.provisioned":
			var p UserIDPProvisioned
			DecodePayload(ee.Payload(), &p)
			payload = p
		case "user.idp.link.added":
			var p UserIDPLinkAdded
			DecodePayload(ee.Payload(), &p)
			payload = p
		default:
			continue
		}
		u.apply(payload)
	}
	u.Entity.LoadFromHistory(events)
}

func (u *User) apply(payload interface{}) {
	switch p := payload.(type) {
	case UserAdded:
		u.orgID = p.OrgID
		u.kind = p.Kind
		u.username = p.Username
		u.email = p.Email
		u.phone = p.Phone
		u.firstName = p.FirstName
		u.lastName = p.LastName
		u.state = UserStateActive
	case UserProfileChanged:
		u.firstName = p.FirstName
		u.lastName = p.LastName
	case UserUsernameChanged:
		u.username = p.Username
	case UserEmailChanged:
		u.email = p.Email
		u.emailVerified = false
	case UserEmailVerified:
		u.emailVerified = true
	case UserPhoneChanged:
		u.phone = p.Phone
		u.phoneVerified = false
	case UserPhoneVerified:
		u.phoneVerified = true
	case UserPasswordChanged:
		u.passwordHash = p.PasswordHash
		u.passwordChangedAt = p.ChangedAt
	case UserDeactivated:
		u.state = UserStateInactive
	case UserReactivated:
		u.state = UserStateActive
	case UserLocked:
		u.state = UserStateLocked
	case UserUnlocked:
		u.state = UserStateActive
	case UserRemoved:
		u.state = UserStateDeleted
	case UserIDPProvisioned:
		u.idpLinks = append(u.idpLinks, UserIDPLink{IDPID: p.IDPID, ExternalID: p.ExternalID})
	case UserIDPLinkAdded:
		u.idpLinks = append(u.idpLinks, UserIDPLink{IDPID: p.IDPID, ExternalID: p.ExternalID})
	}
}

// UserRepository loads and saves User aggregates.
type UserRepository = coredomain.Repository[*User]

// NewBlankUser returns an unpopulated User identified by id, ready for
// LoadFromHistory. Used by the event-sourced repository to reconstruct an
// aggregate from its event history.
func NewBlankUser(id string) *User {
	return &User{Entity: coredomain.NewEntity(id)}
}
