package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/speakhq/speakadmin/core"
	"github.com/speakhq/speakadmin/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user}
}

// query returns every user, newest first. Callers hold the lock.
func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.table))
	for _, u := range repo.db.table {
		users = append(users, *u)
	}
	sort.SliceStable(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return users
}

// emailTaken reports whether email belongs to a user other than uid. Callers hold the lock.
func (repo *userRepository) emailTaken(email string, uids ...string) bool {
	for _, u := range repo.db.table {
		if u.Email != email {
			continue
		}
		excluded := false
		for _, uid := range uids {
			if u.UID == uid {
				excluded = true
			}
		}
		if !excluded {
			return true
		}
	}
	return false
}

func (repo *userRepository) FindByID(_ context.Context, uid string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if usr, ok := repo.db.table[uid]; ok {
		return *usr, nil
	}
	return user.User{}, core.ErrNotFound
}

func (repo *userRepository) FindByEmail(_ context.Context, email string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.query() {
		if usr.Email == email {
			return usr, nil
		}
	}
	return user.User{}, core.ErrNotFound
}

func (repo *userRepository) FindByRole(_ context.Context, role string) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	users := make([]user.User, 0, 1)
	for _, usr := range repo.query() {
		if usr.Role == role {
			users = append(users, usr)
		}
	}
	return users, nil
}

func (repo *userRepository) Query(_ context.Context, filter user.QueryFilter) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	all := repo.query()
	if filter.IsEmpty() {
		return all, nil
	}
	users := make([]user.User, 0, len(all))
	for _, usr := range all {
		if filter.Match(usr) {
			users = append(users, usr)
		}
	}
	return users, nil
}

func (repo *userRepository) Create(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if usr.UID == "" {
		usr.UID = newID()
	}
	if _, ok := repo.db.table[usr.UID]; ok || repo.emailTaken(usr.Email) {
		return user.User{}, core.ErrDuplicate
	}
	repo.db.table[usr.UID] = &usr
	return usr, nil
}

func (repo *userRepository) Upsert(_ context.Context, usr user.User) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.emailTaken(usr.Email, usr.UID) {
		return core.ErrDuplicate
	}
	orig, ok := repo.db.table[usr.UID]
	if !ok {
		repo.db.table[usr.UID] = &usr
		return nil
	}
	// only merge set fields
	if usr.Email != "" {
		orig.Email = usr.Email
	}
	if usr.Name != "" {
		orig.Name = usr.Name
	}
	if usr.Role != "" {
		orig.Role = usr.Role
	}
	if !usr.CreatedAt.IsZero() && orig.CreatedAt.IsZero() {
		orig.CreatedAt = usr.CreatedAt
	}
	orig.UpdatedAt = usr.UpdatedAt
	return nil
}

func (repo *userRepository) Replace(_ context.Context, oldUID string, usr user.User) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.emailTaken(usr.Email, usr.UID, oldUID) {
		return core.ErrDuplicate
	}
	if oldUID != "" && oldUID != usr.UID {
		delete(repo.db.table, oldUID)
	}
	repo.db.table[usr.UID] = &usr
	return nil
}

func (repo *userRepository) Update(_ context.Context, usr user.User) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[usr.UID]; !ok {
		return core.ErrNotFound
	}
	if repo.emailTaken(usr.Email, usr.UID) {
		return core.ErrDuplicate
	}
	repo.db.table[usr.UID] = &usr
	return nil
}

func (repo *userRepository) SetDisabled(_ context.Context, uid string, disabled bool, updatedAt time.Time) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	usr, ok := repo.db.table[uid]
	if !ok {
		return core.ErrNotFound
	}
	usr.Disabled = disabled
	usr.UpdatedAt = updatedAt
	return nil
}

func (repo *userRepository) Delete(_ context.Context, uid string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[uid]; !ok {
		return core.ErrNotFound
	}
	delete(repo.db.table, uid)
	return nil
}
