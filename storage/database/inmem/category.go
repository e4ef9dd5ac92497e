package inmemdb

import (
	"context"
	"sort"

	"github.com/speakhq/speakadmin/core"
	"github.com/speakhq/speakadmin/core/category"
)

type categoryRepository struct {
	db *categoryTable
}

var _ category.Repository = (*categoryRepository)(nil) // interface compliance check

func NewCategoryRepository(db *DB) category.Repository {
	return &categoryRepository{db: db.category}
}

func (repo *categoryRepository) List(_ context.Context) ([]category.Category, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	list := make([]category.Category, 0, len(repo.db.table))
	for _, c := range repo.db.table {
		list = append(list, *c)
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Order != list[j].Order {
			return list[i].Order < list[j].Order
		}
		return list[i].Name < list[j].Name
	})
	return list, nil
}

func (repo *categoryRepository) Create(_ context.Context, c category.Category) (category.Category, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if c.ID == "" {
		c.ID = newID()
	}
	if _, ok := repo.db.table[c.ID]; ok {
		return category.Category{}, core.ErrDuplicate
	}
	repo.db.table[c.ID] = &c
	return c, nil
}

func (repo *categoryRepository) Update(_ context.Context, c category.Category) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[c.ID]; !ok {
		return core.ErrNotFound
	}
	repo.db.table[c.ID] = &c
	return nil
}

func (repo *categoryRepository) Delete(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return core.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}
