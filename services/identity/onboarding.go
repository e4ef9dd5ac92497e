package identity

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/speakhq/speakadmin/core"
	"github.com/speakhq/speakadmin/core/counsellor"
	"github.com/speakhq/speakadmin/core/invite"
	"github.com/speakhq/speakadmin/core/user"
)

type (
	// InitialPassword is what the set-initial-password link submits.
	InitialPassword struct {
		Email    string `json:"email" validate:"required,email"`
		TempPass string `json:"tempPass"`
		Type     string `json:"type" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	// Directory resolves identities against console users and counsellors.
	Directory struct {
		conf        *core.Config
		users       user.Repository
		counsellors counsellor.Repository
	}

	Onboarding struct {
		provider  Provider
		repo      Repository
		directory *Directory
		userSvc   *user.Service
		validate  *validator.Validate
		logger    core.Logger
	}
)

func (in *InitialPassword) Clean() {
	in.Email = core.CleanString(in.Email, true /* lower */)
	in.TempPass = core.CleanString(in.TempPass)
	in.Type = core.CleanString(in.Type, true /* lower */)
}

func NewDirectory(conf *core.Config, users user.Repository, counsellors counsellor.Repository) *Directory {
	return &Directory{conf: conf, users: users, counsellors: counsellors}
}

var _ RoleResolver = (*Directory)(nil)

// ResolveRole maps an identity to a session. Console users carry their stored
// role, counsellors get RoleCounsellor and the configured superadmin email signs
// in without a role until it has been bootstrapped.
func (d *Directory) ResolveRole(ctx context.Context, id Identity) (core.Session, error) {
	session := core.Session{UserID: id.ID, Email: id.Email}

	usr, err := d.users.FindByID(ctx, id.ID)
	switch {
	case err == nil:
		if usr.Disabled {
			return core.Session{}, ErrAccountDisabled
		}
		return usr.Session(), nil
	case !errors.Is(err, core.ErrNotFound):
		return core.Session{}, errors.Wrap(err, "resolving user role")
	}

	if _, err := d.counsellors.FindByEmail(ctx, id.Email); err == nil {
		session.Role = core.RoleCounsellor
		return session, nil
	} else if !errors.Is(err, core.ErrNotFound) {
		return core.Session{}, errors.Wrap(err, "resolving counsellor role")
	}

	if d.conf.IsSuperadminEmail(id.Email) {
		return session, nil
	}
	return core.Session{}, ErrAuthenticationFailed
}

func NewOnboarding(provider Provider, repo Repository, directory *Directory, userSvc *user.Service, validate *validator.Validate, logger core.Logger) *Onboarding {
	return &Onboarding{
		provider:  provider,
		repo:      repo,
		directory: directory,
		userSvc:   userSvc,
		validate:  validate,
		logger:    logger,
	}
}

// SetInitialPassword creates the credentials for an invited account. The email
// must match a pending invitation of the given type and must not already have
// credentials. The temporary password is carried in the link only.
func (o *Onboarding) SetInitialPassword(ctx context.Context, in InitialPassword) (core.Session, error) {
	in.Clean()
	if err := o.validate.Struct(in); err != nil {
		return core.Session{}, core.NewInvalidArgument("Email, type and password are required.")
	}
	kind, err := invite.ParseKind(in.Type)
	if err != nil {
		return core.Session{}, err
	}

	var name string
	switch kind {
	case invite.KindCounselor:
		c, err := o.directory.counsellors.FindByEmail(ctx, in.Email)
		if err != nil {
			return core.Session{}, o.noInvitation(err, in.Email)
		}
		if c.Status != counsellor.StatusInvited {
			return core.Session{}, core.NewConflict("The invitation for %s has already been used.", in.Email)
		}
		name = c.PersonalInfo.FullName
	default:
		usr, err := o.directory.users.FindByEmail(ctx, in.Email)
		if err != nil {
			return core.Session{}, o.noInvitation(err, in.Email)
		}
		name = usr.Name
	}

	if _, err := o.repo.FindByEmail(ctx, in.Email); err == nil {
		return core.Session{}, core.NewConflict("The invitation for %s has already been used.", in.Email)
	} else if !errors.Is(err, core.ErrNotFound) {
		return core.Session{}, core.NewStoreError(err, "Failed to look up account")
	}

	if tag := core.PasswordViolation(in.Password, in.Email, name); tag != "" {
		return core.Session{}, core.NewValidationError(nil, core.FieldError{Field: "password", Error: core.PasswordViolationText(tag)})
	}

	session, err := o.provider.CreateAccount(ctx, in.Email, in.Password)
	if err != nil {
		return core.Session{}, err
	}

	if kind == invite.KindCounselor {
		session.Name = name
		session.Role = core.RoleCounsellor
		return session, nil
	}
	usr, err := o.userSvc.Activate(ctx, in.Email, session.UserID)
	if err != nil {
		o.logger.Error("activating invited user", err, map[string]interface{}{"email": in.Email})
		return core.Session{}, err
	}
	return usr.Session(), nil
}

func (o *Onboarding) noInvitation(err error, email string) error {
	if errors.Is(err, core.ErrNotFound) {
		return core.NewNotFound("No pending invitation for %s.", email)
	}
	return core.NewStoreError(err, "Failed to look up invitation")
}
