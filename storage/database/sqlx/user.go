package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/pfebridge/pfebridge/core/user"
)

const userColumns = `id, name, username, email, is_active, roles, password_hash, created_at, updated_at, last_login`

type userRow struct {
	ID           string         `db:"id"`
	Name         null.String    `db:"name"`
	Username     null.String    `db:"username"`
	Email        null.String    `db:"email"`
	IsActive     bool           `db:"is_active"`
	Roles        pq.StringArray `db:"roles"`
	PasswordHash []byte         `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	LastLogin    null.Time      `db:"last_login"`
}

func (r userRow) unpack() user.User {
	return user.User{
		ID:           r.ID,
		Name:         r.Name.String,
		Username:     r.Username.String,
		Email:        r.Email.String,
		IsActive:     r.IsActive,
		Roles:        r.Roles,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		LastLogin:    r.LastLogin.Time,
	}
}

func unpackUserRows(rows []userRow) []user.User {
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.unpack())
	}
	return users
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo *userRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	query := `SELECT username, email FROM "user" WHERE (username = ? OR email = ?)`
	args := []interface{}{username, email}

	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		query += ` AND id NOT IN (?)`
		var err error
		if query, args, err = sqlx.In(query, username, email, ids); err != nil {
			return errors.Wrap(err, "checking user uniqueness")
		}
	}

	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	for _, r := range rows {
		if r.Username.String == username {
			return user.ErrUsernameExists
		}
		if r.Email.String == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()

	query := `
INSERT INTO "user" (id, name, username, email, is_active, roles, password_hash, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := repo.db.ExecContext(
		ctx, query,
		usr.ID,
		null.NewString(usr.Name, usr.Name != ""),
		null.NewString(usr.Username, usr.Username != ""),
		null.NewString(usr.Email, usr.Email != ""),
		usr.IsActive,
		pq.StringArray(usr.Roles),
		usr.PasswordHash,
		usr.CreatedAt.UTC(),
		usr.UpdatedAt.UTC(),
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	var rows []userRow
	query := fmt.Sprintf(`SELECT %s FROM "user"`, userColumns)
	if err := repo.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return unpackUserRows(rows), nil
}

func (repo *userRepository) getUser(ctx context.Context, where string, msg string, args ...interface{}) (user.User, error) {
	var row userRow
	query := fmt.Sprintf(`SELECT %s FROM "user" WHERE %s`, userColumns, where)
	if err := repo.db.GetContext(ctx, &row, query, args...); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, msg)
	}
	return row.unpack(), nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return user.User{}, user.ErrNotFound
	}
	return repo.getUser(ctx, `id = $1`, "finding user by ID", id)
}

func (repo *userRepository) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	return repo.getUser(ctx, `username = $1`, "finding user by username", username)
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getUser(ctx, `email = $1`, "finding user by email", email)
}

func (repo *userRepository) GetUserByUsernameOrEmail(ctx context.Context, username string) (user.User, error) {
	return repo.getUser(ctx, `username = $1 OR email = $1`, "finding user", username)
}

func (repo *userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	var conds []string
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Search != "" {
		val := "%" + filter.Search + "%"
		p := arg(val)
		conds = append(conds, fmt.Sprintf("(name ILIKE %s OR username ILIKE %s OR email ILIKE %s)", p, p, p))
	}
	// users with any role that starts with any of the provided roles
	if len(filter.Roles) > 0 {
		roleConds := make([]string, 0, len(filter.Roles))
		for _, role := range filter.Roles {
			roleConds = append(roleConds, fmt.Sprintf(
				"EXISTS (SELECT 1 FROM UNNEST(roles) user_role WHERE user_role ILIKE %s)", arg(role+"%")))
		}
		conds = append(conds, "("+strings.Join(roleConds, " OR ")+")")
	}
	if filter.IsActive != nil {
		conds = append(conds, fmt.Sprintf("is_active = %s", arg(*filter.IsActive)))
	}
	if !filter.CreatedFrom.IsZero() {
		conds = append(conds, fmt.Sprintf("created_at >= %s", arg(filter.CreatedFrom.UTC())))
	}
	if !filter.CreatedTo.IsZero() {
		conds = append(conds, fmt.Sprintf("created_at <= %s", arg(filter.CreatedTo.UTC())))
	}

	query := fmt.Sprintf(`SELECT %s FROM "user"`, userColumns)
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering users")
	}
	return unpackUserRows(rows), nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	var sets []string
	var args []interface{}

	set := func(col string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	// only save set fields
	if usr.Name != "" {
		set("name", usr.Name)
	}
	if usr.Username != "" {
		set("username", usr.Username)
	}
	if usr.Email != "" {
		set("email", usr.Email)
	}
	if usr.Roles != nil {
		set("roles", pq.StringArray(usr.Roles))
	}
	if usr.PasswordHash != nil {
		set("password_hash", usr.PasswordHash)
	}
	if isActive != nil {
		set("is_active", *isActive)
	}
	if !usr.LastLogin.IsZero() {
		set("last_login", usr.LastLogin.UTC())
	}
	if !usr.UpdatedAt.IsZero() {
		set("updated_at", usr.UpdatedAt.UTC())
	}
	if len(sets) == 0 {
		return repo.GetUserByID(ctx, usr.ID)
	}

	args = append(args, usr.ID)
	query := fmt.Sprintf(
		`UPDATE "user" SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), userColumns,
	)

	var row userRow
	if err := repo.db.GetContext(ctx, &row, query, args...); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "updating user")
	}
	return row.unpack(), nil
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	query, args, err := sqlx.In(`DELETE FROM "user" WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "deleting users")
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}
