package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/pfebridge/pfebridge/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.table))
	for _, u := range repo.db.table {
		users = append(users, *u)
	}
	return users
}

func (repo *userRepository) CheckUsernameUniqueness(_ context.Context, username, email string, excludedUsers ...user.User) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	exclLen := len(excludedUsers)
	if exclLen > 1 {
		sort.Slice(excludedUsers, func(i, j int) bool { return excludedUsers[i].ID < excludedUsers[j].ID })
	}

	for _, usr := range repo.query() {
		if isExcluded(usr, excludedUsers, exclLen) {
			continue
		}
		if usr.Username == username {
			return user.ErrUsernameExists
		}
		if usr.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	usr.ID = uuid.New().String()
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) QueryAllUsers(_ context.Context) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(), nil
}

func (repo *userRepository) GetUserByID(_ context.Context, id string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if usr, ok := repo.db.table[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByUsername(_ context.Context, username string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.query() {
		if usr.Username == username {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.query() {
		if usr.Email == email {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByUsernameOrEmail(_ context.Context, username string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.query() {
		if (usr.Username == username) || (usr.Email == username) {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) FilterUsers(_ context.Context, filter user.QueryFilter) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	users := repo.query()

	if filter.Search != "" {
		var filtered []user.User
		search := strings.ToLower(filter.Search)
		for _, u := range users {
			if strings.Contains(strings.ToLower(u.Username), search) ||
				strings.Contains(strings.ToLower(u.Email), search) ||
				strings.Contains(strings.ToLower(u.Name), search) {
				filtered = append(filtered, u)
			}
		}
		users = filtered
	}
	if users != nil && len(filter.Roles) > 0 {
		var filtered []user.User
		for _, u := range users {
			for _, r := range filter.Roles {
				if u.RoleStartsWith(r) {
					filtered = append(filtered, u)
					break
				}
			}
		}
		users = filtered
	}
	if users != nil && filter.IsActive != nil {
		var filtered []user.User
		for _, u := range users {
			if u.IsActive == *filter.IsActive {
				filtered = append(filtered, u)
			}
		}
		users = filtered
	}
	if users != nil && !filter.CreatedFrom.IsZero() {
		var filtered []user.User
		from := filter.CreatedFrom.UTC()
		for _, u := range users {
			if !u.CreatedAt.Before(from) {
				filtered = append(filtered, u)
			}
		}
		users = filtered
	}
	if users != nil && !filter.CreatedTo.IsZero() {
		var filtered []user.User
		to := filter.CreatedTo.UTC()
		for _, u := range users {
			if !u.CreatedAt.After(to) {
				filtered = append(filtered, u)
			}
		}
		users = filtered
	}

	return users, nil
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User, isActive *bool) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	// only save set fields
	origUsr, ok := repo.db.table[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	if usr.Roles != nil {
		origUsr.Roles = usr.Roles
	}
	if usr.PasswordHash != nil {
		origUsr.PasswordHash = usr.PasswordHash
	}
	if isActive != nil {
		origUsr.IsActive = *isActive
	}
	if usr.Name != "" {
		origUsr.Name = usr.Name
	}
	if usr.Username != "" {
		origUsr.Username = usr.Username
	}
	if usr.Email != "" {
		origUsr.Email = usr.Email
	}
	if !usr.LastLogin.IsZero() {
		origUsr.LastLogin = usr.LastLogin
	}
	if !usr.UpdatedAt.IsZero() {
		origUsr.UpdatedAt = usr.UpdatedAt
	}

	return *origUsr, nil
}

func (repo *userRepository) DeleteUsersByID(_ context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}

func isExcluded(usr user.User, excludedUsers []user.User, n int) bool {
	if n <= 0 {
		return false
	}
	idx := sort.Search(n, func(i int) bool { return excludedUsers[i].ID >= usr.ID })
	return idx < n && excludedUsers[idx].ID == usr.ID
}
