package mongodb

import (
	"context"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/speakhq/speakadmin/core"
	"github.com/speakhq/speakadmin/core/category"
)

type categoryRepository struct {
	*Store
}

var _ category.Repository = (*categoryRepository)(nil) // interface compliance check

func NewCategoryRepository(s *Store) category.Repository {
	return &categoryRepository{Store: s}
}

func (repo *categoryRepository) List(ctx context.Context) ([]category.Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "name", Value: 1}})
	return findMany[category.Category](ctx, repo.col(core.CollectionCategories), bson.D{}, opts)
}

func (repo *categoryRepository) Create(ctx context.Context, c category.Category) (category.Category, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if err := insertOne(ctx, repo.col(core.CollectionCategories), c); err != nil {
		return category.Category{}, err
	}
	return c, nil
}

func (repo *categoryRepository) Update(ctx context.Context, c category.Category) error {
	res, err := repo.col(core.CollectionCategories).ReplaceOne(ctx, byID(c.ID), c)
	if err != nil {
		return wrapError(err)
	}
	if res.MatchedCount == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (repo *categoryRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, repo.col(core.CollectionCategories), id)
}
