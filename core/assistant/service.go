package assistant

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/topphysics/core"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound             = errors.New("assistant not found")
	ErrUsernameExists       = errors.New("an assistant with this username already exists")
	ErrAuthenticationFailed = errors.New("invalid username or password")
	ErrAccountDeactivated   = errors.New("account deactivated")
	ErrForbidden            = errors.New("permission denied")
)

type (
	Repository interface {
		// CreateAssistant assigns the ID; it fails with ErrUsernameExists when the username is taken.
		CreateAssistant(ctx context.Context, a Assistant) (Assistant, error)
		QueryAllAssistants(ctx context.Context) ([]Assistant, error)
		GetAssistantByID(ctx context.Context, id int) (Assistant, error)
		GetAssistantByUsername(ctx context.Context, username string) (Assistant, error)
		// UpdateAssistant saves every field of a; it fails with ErrUsernameExists when the username is taken.
		UpdateAssistant(ctx context.Context, a Assistant) (Assistant, error)
		DeleteAssistant(ctx context.Context, id int) error
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

func (svc *Service) requireAdmin(ctx context.Context) error {
	actor, err := core.RequireActor(ctx)
	if err != nil {
		return err
	}
	if !actor.IsAdmin {
		return ErrForbidden
	}
	return nil
}

// Authenticate checks the credentials of an active assistant and records the login.
func (svc *Service) Authenticate(ctx context.Context, username, pwd string) (Assistant, error) {
	a, err := svc.repo.GetAssistantByUsername(ctx, core.CleanString(username, true /* lower */))
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Assistant{}, ErrAuthenticationFailed
		}
		return Assistant{}, errors.Wrap(err, "finding assistant by username")
	}
	if err = a.CheckPassword(pwd); err != nil {
		return Assistant{}, ErrAuthenticationFailed
	}
	if !a.IsActive {
		return Assistant{}, ErrAccountDeactivated
	}
	return svc.SetLastLogin(ctx, a)
}

// SetLastLogin stamps the current time as a's last login.
func (svc *Service) SetLastLogin(ctx context.Context, a Assistant) (Assistant, error) {
	a.LastLogin = NowFunc().UTC()
	return svc.repo.UpdateAssistant(ctx, a)
}

func (svc *Service) Create(ctx context.Context, na NewAssistant) (Assistant, error) {
	if err := svc.requireAdmin(ctx); err != nil {
		return Assistant{}, err
	}
	return svc.create(ctx, na)
}

// Bootstrap creates an assistant without a caller; reserved to the admin CLI.
func (svc *Service) Bootstrap(ctx context.Context, na NewAssistant) (Assistant, error) {
	return svc.create(ctx, na)
}

func (svc *Service) create(ctx context.Context, na NewAssistant) (Assistant, error) {
	na.Clean()
	if err := svc.validate.Struct(na); err != nil {
		return Assistant{}, err
	}

	now := NowFunc().UTC()
	a := Assistant{
		Name:      na.Name,
		Username:  na.Username,
		Phone:     na.Phone,
		Role:      na.Role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.SetPassword(na.Password); err != nil {
		return Assistant{}, err
	}
	return svc.repo.CreateAssistant(ctx, a)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Assistant, error) {
	if err := svc.requireAdmin(ctx); err != nil {
		return nil, err
	}
	return svc.repo.QueryAllAssistants(ctx)
}

// GetByID returns the assistant with id; only admins may read someone else.
func (svc *Service) GetByID(ctx context.Context, id int) (Assistant, error) {
	actor, err := core.RequireActor(ctx)
	if err != nil {
		return Assistant{}, err
	}
	if actor.ID != id && !actor.IsAdmin {
		return Assistant{}, ErrForbidden
	}
	return svc.repo.GetAssistantByID(ctx, id)
}

// GetByUsername is used by the admin CLI, which runs without a caller.
func (svc *Service) GetByUsername(ctx context.Context, username string) (Assistant, error) {
	return svc.repo.GetAssistantByUsername(ctx, core.CleanString(username, true /* lower */))
}

// Update modifies an assistant. Non-admins may only change their own name, phone and password.
func (svc *Service) Update(ctx context.Context, id int, ua UpdateAssistant) (Assistant, error) {
	actor, err := core.RequireActor(ctx)
	if err != nil {
		return Assistant{}, err
	}
	if !actor.IsAdmin && (actor.ID != id || ua.Role != "" || ua.IsActive != nil || ua.Username != "") {
		return Assistant{}, ErrForbidden
	}

	a, err := svc.repo.GetAssistantByID(ctx, id)
	if err != nil {
		return Assistant{}, err
	}
	ua.Clean(a)
	if err = svc.validate.Struct(ua); err != nil {
		return Assistant{}, err
	}

	a.Name = ua.Name
	a.Username = ua.Username
	a.Phone = ua.Phone
	a.Role = ua.Role
	if ua.IsActive != nil {
		a.IsActive = *ua.IsActive
	}
	if ua.Password != "" {
		if err = a.SetPassword(ua.Password); err != nil {
			return Assistant{}, err
		}
	}
	a.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateAssistant(ctx, a)
}

// ResetPassword sets a new password without a caller; reserved to the admin CLI.
func (svc *Service) ResetPassword(ctx context.Context, username, pwd string) error {
	a, err := svc.repo.GetAssistantByUsername(ctx, core.CleanString(username, true /* lower */))
	if err != nil {
		return err
	}
	if err = a.SetPassword(pwd); err != nil {
		return err
	}
	a.UpdatedAt = NowFunc().UTC()
	_, err = svc.repo.UpdateAssistant(ctx, a)
	return err
}

// Delete removes an assistant. Admins cannot delete themselves.
func (svc *Service) Delete(ctx context.Context, id int) error {
	if err := svc.requireAdmin(ctx); err != nil {
		return err
	}
	if actor, _ := core.ActorFromContext(ctx); actor.ID == id {
		return ErrForbidden
	}
	return svc.repo.DeleteAssistant(ctx, id)
}
