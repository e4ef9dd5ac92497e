package mongodb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/speakhq/speakadmin/core"
	"github.com/speakhq/speakadmin/services/identity"
)

type identityRepository struct {
	*Store
}

var _ identity.Repository = (*identityRepository)(nil) // interface compliance check

func NewIdentityRepository(s *Store) identity.Repository {
	return &identityRepository{Store: s}
}

func (repo *identityRepository) FindByEmail(ctx context.Context, email string) (identity.Identity, error) {
	return findOne[identity.Identity](ctx, repo.col(core.CollectionIdentities), bson.D{{Key: "email", Value: email}})
}

func (repo *identityRepository) Create(ctx context.Context, id identity.Identity) (identity.Identity, error) {
	if id.ID == "" {
		id.ID = uuid.NewString()
	}
	if err := insertOne(ctx, repo.col(core.CollectionIdentities), id); err != nil {
		return identity.Identity{}, err
	}
	return id, nil
}

func (repo *identityRepository) UpdatePassword(ctx context.Context, uid string, hash []byte, updatedAt time.Time) error {
	return updateFields(ctx, repo.col(core.CollectionIdentities), uid, bson.D{
		{Key: "passwordHash", Value: hash},
		{Key: "updatedAt", Value: updatedAt},
	})
}

func (repo *identityRepository) SetLastLogin(ctx context.Context, uid string, at time.Time) error {
	return updateFields(ctx, repo.col(core.CollectionIdentities), uid, bson.D{{Key: "lastLogin", Value: at}})
}
