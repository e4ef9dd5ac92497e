package user

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/speakhq/speakadmin/core"
)

type (
	Repository interface {
		FindByID(ctx context.Context, uid string) (User, error)
		FindByEmail(ctx context.Context, email string) (User, error)
		FindByRole(ctx context.Context, role string) ([]User, error)
		// Query orders results by CreatedAt descending.
		Query(ctx context.Context, filter QueryFilter) ([]User, error)
		// Create assigns a UID when empty and fails with core.ErrDuplicate if the email is taken.
		Create(ctx context.Context, usr User) (User, error)
		// Upsert merges usr into the document stored under usr.UID, creating it if needed.
		Upsert(ctx context.Context, usr User) error
		// Replace stores usr under usr.UID and removes the document under oldUID in the same write.
		Replace(ctx context.Context, oldUID string, usr User) error
		Update(ctx context.Context, usr User) error
		SetDisabled(ctx context.Context, uid string, disabled bool, updatedAt time.Time) error
		Delete(ctx context.Context, uid string) error
	}

	Service struct {
		repo        Repository
		conf        *core.Config
		invalidator core.Invalidator
		logger      core.Logger
	}
)

func NewService(repo Repository, conf *core.Config, invalidator core.Invalidator, logger core.Logger) *Service {
	return &Service{repo: repo, conf: conf, invalidator: invalidator, logger: logger}
}

func notFound(uid string) error {
	return core.NewNotFound("User %q not found in collection %q.", uid, core.CollectionUsers)
}

func (svc *Service) List(ctx context.Context, filter QueryFilter) ([]User, error) {
	filter.Clean()
	users, err := svc.repo.Query(ctx, filter)
	if err != nil {
		return nil, core.NewStoreError(err, "Failed to fetch users")
	}
	return users, nil
}

func (svc *Service) Get(ctx context.Context, uid string) (User, error) {
	uid = core.CleanString(uid)
	if uid == "" {
		return User{}, core.NewInvalidArgument("User id is required.")
	}
	usr, err := svc.repo.FindByID(ctx, uid)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return User{}, notFound(uid)
		}
		return User{}, core.NewStoreError(err, "Failed to load user")
	}
	return usr, nil
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	email = core.CleanString(email, true /* lower */)
	usr, err := svc.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return User{}, core.NewNotFound("No user with email %s.", email)
		}
		return User{}, core.NewStoreError(err, "Failed to load user")
	}
	return usr, nil
}

// checkTarget refuses actions on the caller's own account, on the protected
// superadmin and on accounts ranked above the caller.
func (svc *Service) checkTarget(session core.Session, target User, verb string) error {
	if target.UID == session.UserID {
		return core.NewForbidden("You cannot %s your own account.", verb)
	}
	if target.Role == core.RoleSuperadmin || svc.conf.IsSuperadminEmail(target.Email) {
		return core.NewForbidden("You cannot %s the superadmin account.", verb)
	}
	if RolePriority(target.Role) > RolePriority(session.Role) {
		return core.NewForbidden("You cannot %s an account with a higher role than yours.", verb)
	}
	return nil
}

// Delete removes the store record only; the identity is left untouched.
func (svc *Service) Delete(ctx context.Context, session core.Session, uid string) error {
	target, err := svc.Get(ctx, uid)
	if err != nil {
		return err
	}
	if err := svc.checkTarget(session, target, "delete"); err != nil {
		return err
	}
	if err := svc.repo.Delete(ctx, target.UID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return notFound(target.UID)
		}
		return core.NewStoreError(err, "Failed to delete user")
	}
	svc.logger.Info("user deleted", map[string]interface{}{"uid": target.UID, "email": target.Email}, session)
	svc.invalidate(ctx)
	return nil
}

func (svc *Service) SetDisabled(ctx context.Context, session core.Session, uid string, disabled bool) (User, error) {
	target, err := svc.Get(ctx, uid)
	if err != nil {
		return User{}, err
	}
	verb := "enable"
	if disabled {
		verb = "disable"
	}
	if err := svc.checkTarget(session, target, verb); err != nil {
		return User{}, err
	}
	target.Disabled = disabled
	target.UpdatedAt = core.NowFunc()
	if err := svc.repo.SetDisabled(ctx, target.UID, disabled, target.UpdatedAt); err != nil {
		return User{}, core.NewStoreError(err, "Failed to update user")
	}
	svc.invalidate(ctx)
	return target, nil
}

func (svc *Service) Update(ctx context.Context, session core.Session, uid string, uu UpdateUser) (User, error) {
	uu.Clean()
	target, err := svc.Get(ctx, uid)
	if err != nil {
		return User{}, err
	}
	if uu.Role != "" && uu.Role != target.Role {
		if err := svc.checkTarget(session, target, "update"); err != nil {
			return User{}, err
		}
		if !IsMemberRole(uu.Role) {
			return User{}, core.NewInvalidArgument("Invalid role %q.", uu.Role)
		}
		if RolePriority(uu.Role) > RolePriority(session.Role) {
			return User{}, core.NewForbidden("You cannot grant a role higher than yours.")
		}
		target.Role = uu.Role
	}
	if uu.Name != "" {
		target.Name = uu.Name
	}
	target.UpdatedAt = core.NowFunc()
	if err := svc.repo.Update(ctx, target); err != nil {
		return User{}, core.NewStoreError(err, "Failed to update user")
	}
	svc.invalidate(ctx)
	return target, nil
}

// BootstrapSuperadmin grants the superadmin role to uid when email is the
// configured superadmin email and no other account already holds the role.
func (svc *Service) BootstrapSuperadmin(ctx context.Context, uid, email string) (core.Result, error) {
	uid = core.CleanString(uid)
	email = core.CleanString(email, true /* lower */)
	if uid == "" || email == "" {
		return core.Result{}, core.NewInvalidArgument("User id and email are required.")
	}
	if !svc.conf.IsSuperadminEmail(email) {
		return core.Result{}, core.NewForbidden("Unauthorized: Email does not match designated superadmin email.")
	}

	holders, err := svc.repo.FindByRole(ctx, core.RoleSuperadmin)
	if err != nil {
		return core.Result{}, core.NewStoreError(err, "Failed to configure superadmin role in database")
	}
	for _, h := range holders {
		if h.UID != uid {
			return core.Result{}, core.NewAlreadyExists("A superadmin account already exists for a different user.")
		}
	}

	now := core.NowFunc()
	usr := User{UID: uid, Email: email, Role: core.RoleSuperadmin, CreatedAt: now, UpdatedAt: now}
	if existing, err := svc.repo.FindByID(ctx, uid); err == nil {
		usr.Name = existing.Name
		usr.CreatedAt = existing.CreatedAt
	}
	if err := svc.repo.Upsert(ctx, usr); err != nil {
		if errors.Is(err, core.ErrDuplicate) {
			return core.Result{}, core.NewAlreadyExists("A user with email %s already exists.", email)
		}
		return core.Result{}, core.NewStoreError(err, "Failed to configure superadmin role in database")
	}
	svc.invalidate(ctx)
	return core.Result{Success: true, Message: "Superadmin role configured successfully."}, nil
}

// Activate rekeys an invited user record to the identity id created for it.
func (svc *Service) Activate(ctx context.Context, email, uid string) (User, error) {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}
	if usr.UID == uid {
		return usr, nil
	}
	oldUID := usr.UID
	usr.UID = uid
	usr.UpdatedAt = core.NowFunc()
	if err := svc.repo.Replace(ctx, oldUID, usr); err != nil {
		return User{}, core.NewStoreError(err, "Failed to activate user")
	}
	svc.invalidate(ctx)
	return usr, nil
}

func (svc *Service) invalidate(ctx context.Context) {
	if svc.invalidator == nil {
		return
	}
	if err := svc.invalidator.Invalidate(ctx, core.ViewUsers, core.ViewDashboard); err != nil {
		svc.logger.Warn("invalidating views", err)
	}
}
