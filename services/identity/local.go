package identity

import (
	"context"

	"github.com/pkg/errors"

	"github.com/speakhq/speakadmin/core"
)

// Local keeps credentials in the document store.
type Local struct {
	repo     Repository
	resolver RoleResolver
}

var _ Provider = (*Local)(nil)

func NewLocal(repo Repository, resolver RoleResolver) *Local {
	return &Local{repo: repo, resolver: resolver}
}

func (p *Local) SignIn(ctx context.Context, email, password string) (core.Session, error) {
	email = core.CleanString(email, true /* lower */)
	id, err := p.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Session{}, ErrAuthenticationFailed
		}
		return core.Session{}, errors.Wrap(err, "finding identity by email")
	}
	if err := id.CheckPassword(password); err != nil {
		return core.Session{}, ErrAuthenticationFailed
	}
	session, err := p.resolver.ResolveRole(ctx, id)
	if err != nil {
		return core.Session{}, err
	}
	if err := p.repo.SetLastLogin(ctx, id.ID, core.NowFunc()); err != nil {
		return core.Session{}, errors.Wrap(err, "setting lastLogin")
	}
	return session, nil
}

// CreateAccount registers new credentials. It fails with AlreadyExists when the email is taken.
func (p *Local) CreateAccount(ctx context.Context, email, password string) (core.Session, error) {
	email = core.CleanString(email, true /* lower */)
	now := core.NowFunc()
	id := Identity{Email: email, CreatedAt: now, UpdatedAt: now}
	if err := id.SetPassword(password); err != nil {
		return core.Session{}, errors.Wrap(err, "hashing password")
	}
	created, err := p.repo.Create(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrDuplicate) {
			return core.Session{}, core.NewAlreadyExists("An account with email %s already exists.", email)
		}
		return core.Session{}, core.NewStoreError(err, "Failed to create account")
	}
	return core.Session{UserID: created.ID, Email: created.Email}, nil
}

func (p *Local) SetPassword(ctx context.Context, email, password string) error {
	email = core.CleanString(email, true /* lower */)
	id, err := p.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.NewNotFound("No account with email %s.", email)
		}
		return core.NewStoreError(err, "Failed to load account")
	}
	if err := id.SetPassword(password); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	if err := p.repo.UpdatePassword(ctx, id.ID, id.PasswordHash, core.NowFunc()); err != nil {
		return core.NewStoreError(err, "Failed to update password")
	}
	return nil
}
