package database

import (
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	"github.com/pfebridge/pfebridge/core"
	appfs "github.com/pfebridge/pfebridge/fs"
)

const pingAttempts = 30

func connURL(dbName string, admin bool, conf *core.Config) string {
	usr := url.UserPassword(conf.Database.User, conf.Database.Password)
	if admin && conf.Database.AdminUser != "" {
		usr = url.UserPassword(conf.Database.AdminUser, conf.Database.AdminPassword)
	}

	q := make(url.Values)
	q.Set("timezone", "utc")
	if conf.Database.DisableTLS {
		q.Set("sslmode", "disable")
	} else {
		q.Set("sslmode", "require")
	}

	u := url.URL{
		Scheme:   conf.Database.Engine,
		User:     usr,
		Host:     conf.Database.Address(),
		Path:     dbName,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// Open connects to the application database as the app user.
func Open(conf *core.Config) (*sql.DB, error) {
	return sql.Open(conf.Database.Engine, connURL(conf.Database.Name, false, conf))
}

// ping blocks until the database accepts connections, sleeping 100ms more
// after each failed attempt.
func ping(db *sql.DB) error {
	var err error
	for attempt := 1; attempt <= pingAttempts; attempt++ {
		if err = db.Ping(); err == nil {
			return nil
		}
		time.Sleep(time.Duration(attempt) * 100 * time.Millisecond)
	}
	return errors.Wrap(err, "DB ping timeout")
}

// exists runs a single-column boolean query (pg_roles/pg_database lookups).
func exists(db *sql.DB, query string) (bool, error) {
	var found bool
	rows, err := db.Query(query)
	if err != nil {
		return false, err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		if err = rows.Scan(&found); err != nil {
			return false, err
		}
	}
	return found, rows.Err()
}

// CreateIfNotExist provisions the app role and database on a fresh cluster.
// Needs admin credentials when the app user does not exist yet.
func CreateIfNotExist(conf *core.Config) error {
	admin, err := sql.Open(conf.Database.Engine, connURL("postgres", true, conf))
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = admin.Close() }()

	if err = ping(admin); err != nil {
		return errors.Wrap(err, "pinging database")
	}

	if conf.Database.User != "" {
		found, err := exists(admin, fmt.Sprintf("SELECT true FROM pg_roles WHERE rolname='%s'", conf.Database.User))
		if err != nil {
			return errors.Wrap(err, "checking app user")
		}
		if !found {
			q := fmt.Sprintf("CREATE USER %s CREATEDB ENCRYPTED PASSWORD '%s'", conf.Database.User, conf.Database.Password)
			if _, err = admin.Exec(q); err != nil {
				return errors.Wrap(err, "creating app user")
			}
		}
	}

	// create the DB as the app user so it owns it
	db, err := sql.Open(conf.Database.Engine, connURL("postgres", false, conf))
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = db.Close() }()

	found, err := exists(db, fmt.Sprintf("SELECT true FROM pg_database WHERE datname='%s'", conf.Database.Name))
	if err != nil {
		return errors.Wrap(err, "checking DB")
	}
	if !found {
		if _, err = db.Exec(fmt.Sprintf("CREATE DATABASE %s", conf.Database.Name)); err != nil {
			return errors.Wrap(err, "creating database")
		}
	}
	return nil
}

// Migrate applies the embedded goose migrations.
func Migrate(db *sql.DB) error {
	goose.SetBaseFS(appfs.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "setting dialect")
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}
