package inmemdb

import (
	"context"
	"time"

	"github.com/speakhq/speakadmin/core"
	"github.com/speakhq/speakadmin/services/identity"
)

type identityRepository struct {
	db *identityTable
}

var _ identity.Repository = (*identityRepository)(nil) // interface compliance check

func NewIdentityRepository(db *DB) identity.Repository {
	return &identityRepository{db: db.identity}
}

func (repo *identityRepository) FindByEmail(_ context.Context, email string) (identity.Identity, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, id := range repo.db.table {
		if id.Email == email {
			return *id, nil
		}
	}
	return identity.Identity{}, core.ErrNotFound
}

func (repo *identityRepository) Create(_ context.Context, id identity.Identity) (identity.Identity, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.table {
		if existing.Email == id.Email {
			return identity.Identity{}, core.ErrDuplicate
		}
	}
	if id.ID == "" {
		id.ID = newID()
	}
	repo.db.table[id.ID] = &id
	return id, nil
}

func (repo *identityRepository) UpdatePassword(_ context.Context, uid string, hash []byte, updatedAt time.Time) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	id, ok := repo.db.table[uid]
	if !ok {
		return core.ErrNotFound
	}
	id.PasswordHash = hash
	id.UpdatedAt = updatedAt
	return nil
}

func (repo *identityRepository) SetLastLogin(_ context.Context, uid string, at time.Time) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	id, ok := repo.db.table[uid]
	if !ok {
		return core.ErrNotFound
	}
	id.LastLogin = at
	return nil
}
