package mongodb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/speakhq/speakadmin/core"
	"github.com/speakhq/speakadmin/core/user"
)

type userRepository struct {
	*Store
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(s *Store) user.Repository {
	return &userRepository{Store: s}
}

func newestFirst() *options.FindOptionsBuilder {
	return options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
}

func (repo *userRepository) FindByID(ctx context.Context, uid string) (user.User, error) {
	return findOne[user.User](ctx, repo.col(core.CollectionUsers), byID(uid))
}

func (repo *userRepository) FindByEmail(ctx context.Context, email string) (user.User, error) {
	return findOne[user.User](ctx, repo.col(core.CollectionUsers), bson.D{{Key: "email", Value: email}})
}

func (repo *userRepository) FindByRole(ctx context.Context, role string) ([]user.User, error) {
	return findMany[user.User](ctx, repo.col(core.CollectionUsers), bson.D{{Key: "role", Value: role}}, newestFirst())
}

func (repo *userRepository) Query(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	q := bson.D{}
	if filter.Role != "" {
		q = append(q, bson.E{Key: "role", Value: filter.Role})
	}
	if filter.Disabled != nil {
		if *filter.Disabled {
			q = append(q, bson.E{Key: "disabled", Value: true})
		} else {
			q = append(q, bson.E{Key: "disabled", Value: bson.D{{Key: "$ne", Value: true}}})
		}
	}
	if filter.Search != "" {
		rx := containsFold(filter.Search)
		q = append(q, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "name", Value: rx}},
			bson.D{{Key: "email", Value: rx}},
		}})
	}
	return findMany[user.User](ctx, repo.col(core.CollectionUsers), q, newestFirst())
}

func (repo *userRepository) Create(ctx context.Context, usr user.User) (user.User, error) {
	if usr.UID == "" {
		usr.UID = uuid.NewString()
	}
	if err := insertOne(ctx, repo.col(core.CollectionUsers), usr); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) Upsert(ctx context.Context, usr user.User) error {
	set := bson.D{
		{Key: "email", Value: usr.Email},
		{Key: "role", Value: usr.Role},
		{Key: "updatedAt", Value: usr.UpdatedAt},
	}
	if usr.Name != "" {
		set = append(set, bson.E{Key: "name", Value: usr.Name})
	}
	update := bson.D{
		{Key: "$set", Value: set},
		{Key: "$setOnInsert", Value: bson.D{
			{Key: "createdAt", Value: usr.CreatedAt},
			{Key: "disabled", Value: false},
		}},
	}
	_, err := repo.col(core.CollectionUsers).UpdateOne(ctx, bson.D{{Key: "_id", Value: usr.UID}}, update, options.UpdateOne().SetUpsert(true))
	return wrapError(err)
}

func (repo *userRepository) Replace(ctx context.Context, oldUID string, usr user.User) error {
	return repo.rekey(ctx, repo.col(core.CollectionUsers), oldUID, usr.UID, usr)
}

func (repo *userRepository) Update(ctx context.Context, usr user.User) error {
	return updateFields(ctx, repo.col(core.CollectionUsers), usr.UID, bson.D{
		{Key: "email", Value: usr.Email},
		{Key: "name", Value: usr.Name},
		{Key: "role", Value: usr.Role},
		{Key: "disabled", Value: usr.Disabled},
		{Key: "updatedAt", Value: usr.UpdatedAt},
	})
}

func (repo *userRepository) SetDisabled(ctx context.Context, uid string, disabled bool, updatedAt time.Time) error {
	return updateFields(ctx, repo.col(core.CollectionUsers), uid, bson.D{
		{Key: "disabled", Value: disabled},
		{Key: "updatedAt", Value: updatedAt},
	})
}

func (repo *userRepository) Delete(ctx context.Context, uid string) error {
	return deleteByID(ctx, repo.col(core.CollectionUsers), uid)
}
