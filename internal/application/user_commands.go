package application

import (
	"context"
	"errors"
	"time"

	iamdomain "github.com/nexusiam/iamcore/internal/domain"
	"github.com/nexusiam/iamcore/internal/idgen"
	coreapp "github.com/nexusiam/iamcore/pkg/application"
	coredomain "github.com/nexusiam/iamcore/pkg/domain"
)

// CreateUserCommand provisions a new human or machine user within an org.
type CreateUserCommand struct {
	OrgID     string           `json:"org_id"`
	Kind      iamdomain.UserKind `json:"kind"`
	Username  string           `json:"username"`
	Email     string           `json:"email"`
	Phone     string           `json:"phone,omitempty"`
	FirstName string           `json:"first_name"`
	LastName  string           `json:"last_name"`
}

func (c CreateUserCommand) CommandType() string { return "iam.user.create" }

func (c CreateUserCommand) Validate() error {
	if c.Username == "" {
		return errors.New("username is required")
	}
	if c.Email == "" {
		return errors.New("email is required")
	}
	return nil
}

// ChangeUserUsernameCommand, ChangeUserEmailCommand, ... target an existing
// user by ID; each wraps the one field the corresponding domain method
// changes.
type ChangeUserUsernameCommand struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

func (c ChangeUserUsernameCommand) CommandType() string { return "iam.user.change_username" }
func (c ChangeUserUsernameCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("user_id is required")
	}
	return nil
}

type ChangeUserEmailCommand struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

func (c ChangeUserEmailCommand) CommandType() string { return "iam.user.change_email" }
func (c ChangeUserEmailCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("user_id is required")
	}
	return nil
}

type ChangeUserPasswordCommand struct {
	UserID       string `json:"user_id"`
	PasswordHash string `json:"password_hash"`
}

func (c ChangeUserPasswordCommand) CommandType() string { return "iam.user.change_password" }
func (c ChangeUserPasswordCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("user_id is required")
	}
	return nil
}

type VerifyUserEmailCommand struct {
	UserID string `json:"user_id"`
}

func (c VerifyUserEmailCommand) CommandType() string { return "iam.user.verify_email" }

type DeactivateUserCommand struct{ UserID string `json:"user_id"` }

func (c DeactivateUserCommand) CommandType() string { return "iam.user.deactivate" }

type ReactivateUserCommand struct{ UserID string `json:"user_id"` }

func (c ReactivateUserCommand) CommandType() string { return "iam.user.reactivate" }

type LockUserCommand struct{ UserID string `json:"user_id"` }

func (c LockUserCommand) CommandType() string { return "iam.user.lock" }

type UnlockUserCommand struct{ UserID string `json:"user_id"` }

func (c UnlockUserCommand) CommandType() string { return "iam.user.unlock" }

type RemoveUserCommand struct{ UserID string `json:"user_id"` }

func (c RemoveUserCommand) CommandType() string { return "iam.user.remove" }

// UserCommandHandlers groups every user command handler behind the single
// repository dependency they all share.
type UserCommandHandlers struct {
	repo iamdomain.UserRepository
}

func NewUserCommandHandlers(repo iamdomain.UserRepository) *UserCommandHandlers {
	return &UserCommandHandlers{repo: repo}
}

func (h *UserCommandHandlers) Create(ctx context.Context, log coredomain.Logger, p coreapp.Payload[CreateUserCommand]) (coreapp.Response[any], error) {
	c := p.Data
	user, err := iamdomain.NewUser(ctx, log, idgen.New(), c.OrgID, c.Kind, c.Username, c.Email, c.Phone, c.FirstName, c.LastName)
	if err != nil {
		return errResponse(translateErr(err))
	}
	if err := h.repo.Save(ctx, user); err != nil {
		return errResponse(translateErr(err))
	}
	return coreapp.Response[any]{Data: user.ID(), Metadata: map[string]any{"version": user.Version()}}, nil
}

func (h *UserCommandHandlers) ChangeUsername(ctx context.Context, log coredomain.Logger, p coreapp.Payload[ChangeUserUsernameCommand]) (coreapp.Response[any], error) {
	c := p.Data
	user, err := loadModifySave(ctx, h.repo, c.UserID, func(u *iamdomain.User) error {
		return u.ChangeUsername(ctx, log, c.Username)
	})
	if err != nil {
		return errResponse(err)
	}
	return okResponse(user.Version()), nil
}

func (h *UserCommandHandlers) ChangeEmail(ctx context.Context, log coredomain.Logger, p coreapp.Payload[ChangeUserEmailCommand]) (coreapp.Response[any], error) {
	c := p.Data
	user, err := loadModifySave(ctx, h.repo, c.UserID, func(u *iamdomain.User) error {
		return u.ChangeEmail(ctx, log, c.Email)
	})
	if err != nil {
		return errResponse(err)
	}
	return okResponse(user.Version()), nil
}

func (h *UserCommandHandlers) ChangePassword(ctx context.Context, log coredomain.Logger, p coreapp.Payload[ChangeUserPasswordCommand]) (coreapp.Response[any], error) {
	c := p.Data
	user, err := loadModifySave(ctx, h.repo, c.UserID, func(u *iamdomain.User) error {
		return u.ChangePassword(ctx, log, c.PasswordHash, time.Now())
	})
	if err != nil {
		return errResponse(err)
	}
	return okResponse(user.Version()), nil
}

func (h *UserCommandHandlers) VerifyEmail(ctx context.Context, log coredomain.Logger, p coreapp.Payload[VerifyUserEmailCommand]) (coreapp.Response[any], error) {
	c := p.Data
	user, err := loadModifySave(ctx, h.repo, c.UserID, func(u *iamdomain.User) error {
		return u.VerifyEmail(ctx, log, time.Now())
	})
	if err != nil {
		return errResponse(err)
	}
	return okResponse(user.Version()), nil
}

func (h *UserCommandHandlers) Deactivate(ctx context.Context, log coredomain.Logger, p coreapp.Payload[DeactivateUserCommand]) (coreapp.Response[any], error) {
	user, err := loadModifySave(ctx, h.repo, p.Data.UserID, func(u *iamdomain.User) error { return u.Deactivate(ctx, log) })
	if err != nil {
		return errResponse(err)
	}
	return okResponse(user.Version()), nil
}

func (h *UserCommandHandlers) Reactivate(ctx context.Context, log coredomain.Logger, p coreapp.Payload[ReactivateUserCommand]) (coreapp.Response[any], error) {
	user, err := loadModifySave(ctx, h.repo, p.Data.UserID, func(u *iamdomain.User) error { return u.Reactivate(ctx, log) })
	if err != nil {
		return errResponse(err)
	}
	return okResponse(user.Version()), nil
}

func (h *UserCommandHandlers) Lock(ctx context.Context, log coredomain.Logger, p coreapp.Payload[LockUserCommand]) (coreapp.Response[any], error) {
	user, err := loadModifySave(ctx, h.repo, p.Data.UserID, func(u *iamdomain.User) error { return u.Lock(ctx, log) })
	if err != nil {
		return errResponse(err)
	}
	return okResponse(user.Version()), nil
}

func (h *UserCommandHandlers) Unlock(ctx context.Context, log coredomain.Logger, p coreapp.Payload[UnlockUserCommand]) (coreapp.Response[any], error) {
	user, err := loadModifySave(ctx, h.repo, p.Data.UserID, func(u *iamdomain.User) error { return u.Unlock(ctx, log) })
	if err != nil {
		return errResponse(err)
	}
	return okResponse(user.Version()), nil
}

func (h *UserCommandHandlers) Remove(ctx context.Context, log coredomain.Logger, p coreapp.Payload[RemoveUserCommand]) (coreapp.Response[any], error) {
	user, err := loadModifySave(ctx, h.repo, p.Data.UserID, func(u *iamdomain.User) error { return u.Remove(ctx, log) })
	if err != nil {
		return errResponse(err)
	}
	return okResponse(user.Version()), nil
}
