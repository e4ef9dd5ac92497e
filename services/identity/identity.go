// Package identity stands in for the hosted identity provider: it owns
// credentials and turns them into sessions. Nothing outside it sees a hash.
package identity

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/speakhq/speakadmin/core"
)

var (
	ErrAuthenticationFailed = errors.New("invalid email or password")
	ErrAccountDisabled      = errors.New("account disabled")
)

type (
	Identity struct {
		ID           string    `bson:"_id"`
		Email        string    `bson:"email"`
		PasswordHash []byte    `bson:"passwordHash"`
		CreatedAt    time.Time `bson:"createdAt"` // UTC
		UpdatedAt    time.Time `bson:"updatedAt"` // UTC
		LastLogin    time.Time `bson:"lastLogin,omitempty"`
	}

	Repository interface {
		FindByEmail(ctx context.Context, email string) (Identity, error)
		// Create assigns the ID and fails with core.ErrDuplicate if the email is taken.
		Create(ctx context.Context, id Identity) (Identity, error)
		UpdatePassword(ctx context.Context, id string, hash []byte, updatedAt time.Time) error
		SetLastLogin(ctx context.Context, id string, at time.Time) error
	}

	// RoleResolver tells which console role, if any, an identity holds.
	RoleResolver interface {
		ResolveRole(ctx context.Context, id Identity) (core.Session, error)
	}

	// Provider is the session provider the API authenticates against.
	Provider interface {
		SignIn(ctx context.Context, email, password string) (core.Session, error)
		CreateAccount(ctx context.Context, email, password string) (core.Session, error)
		SetPassword(ctx context.Context, email, password string) error
	}
)

func (i *Identity) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	i.PasswordHash = hash
	return nil
}

func (i *Identity) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(i.PasswordHash, []byte(pwd))
}
