package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/speakhq/speakadmin/core"
	"github.com/speakhq/speakadmin/core/counsellor"
)

type counsellorRepository struct {
	db *counsellorTable
}

var _ counsellor.Repository = (*counsellorRepository)(nil) // interface compliance check

func NewCounsellorRepository(db *DB) counsellor.Repository {
	return &counsellorRepository{db: db.counsellor}
}

// query returns normalized copies, newest first. Callers hold the lock.
func (repo *counsellorRepository) query() []counsellor.Counsellor {
	list := make([]counsellor.Counsellor, 0, len(repo.db.table))
	for _, c := range repo.db.table {
		cp := *c
		cp.Normalize()
		list = append(list, cp)
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list
}

func (repo *counsellorRepository) emailTaken(email string, ids ...string) bool {
	for id, c := range repo.db.table {
		if c.PersonalInfo.Email != email {
			continue
		}
		excluded := false
		for _, exID := range ids {
			if id == exID {
				excluded = true
			}
		}
		if !excluded {
			return true
		}
	}
	return false
}

func (repo *counsellorRepository) FindByID(_ context.Context, id string) (counsellor.Counsellor, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	c, ok := repo.db.table[id]
	if !ok {
		return counsellor.Counsellor{}, core.ErrNotFound
	}
	cp := *c
	cp.Normalize()
	return cp, nil
}

func (repo *counsellorRepository) FindByEmail(_ context.Context, email string) (counsellor.Counsellor, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, c := range repo.query() {
		if c.PersonalInfo.Email == email {
			return c, nil
		}
	}
	return counsellor.Counsellor{}, core.ErrNotFound
}

func (repo *counsellorRepository) Query(_ context.Context, filter counsellor.Filter) ([]counsellor.Counsellor, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	all := repo.query()
	list := make([]counsellor.Counsellor, 0, len(all))
	for _, c := range all {
		if filter.Match(c) {
			list = append(list, c)
		}
	}
	return list, nil
}

func (repo *counsellorRepository) Create(_ context.Context, c counsellor.Counsellor) (counsellor.Counsellor, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if c.ID == "" {
		c.ID = newID()
	}
	if _, ok := repo.db.table[c.ID]; ok || repo.emailTaken(c.PersonalInfo.Email) {
		return counsellor.Counsellor{}, core.ErrDuplicate
	}
	repo.db.table[c.ID] = &c
	return c, nil
}

func (repo *counsellorRepository) Replace(_ context.Context, oldID string, c counsellor.Counsellor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.emailTaken(c.PersonalInfo.Email, c.ID, oldID) {
		return core.ErrDuplicate
	}
	if oldID != "" && oldID != c.ID {
		delete(repo.db.table, oldID)
	}
	repo.db.table[c.ID] = &c
	return nil
}

func (repo *counsellorRepository) UpdateStatus(_ context.Context, id string, status counsellor.Status, isVerified bool, updatedAt time.Time) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	c, ok := repo.db.table[id]
	if !ok {
		return core.ErrNotFound
	}
	c.Status = status
	c.IsVerified = isVerified
	c.UpdatedAt = updatedAt
	return nil
}

func (repo *counsellorRepository) Delete(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return core.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}

// PutCounsellor stores c as-is, bypassing normalization. Used to seed records
// written by other clients.
func (db *DB) PutCounsellor(c counsellor.Counsellor) {
	db.counsellor.Lock()
	defer db.counsellor.Unlock()
	if c.ID == "" {
		c.ID = newID()
	}
	db.counsellor.table[c.ID] = &c
}
