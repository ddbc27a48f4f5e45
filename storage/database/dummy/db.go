// Package dummydb provides in-memory repositories backing the domain
// interfaces. Tests run against it; so does DEV mode without postgres.
package dummydb

import (
	"sync"

	"github.com/pfebridge/pfebridge/core/defense"
	"github.com/pfebridge/pfebridge/core/professor"
	"github.com/pfebridge/pfebridge/core/subject"
	"github.com/pfebridge/pfebridge/core/user"
)

type (
	DB struct {
		user      *userTable
		professor *professorTable
		subject   *subjectTable
		defense   *defenseTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	professorTable struct {
		sync.RWMutex
		table map[string]*professor.Professor
	}

	subjectTable struct {
		sync.RWMutex
		table map[string]*subject.Subject
	}

	defenseTable struct {
		sync.RWMutex
		table map[string]*defense.Defense
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:      &userTable{table: make(map[string]*user.User)},
		professor: &professorTable{table: make(map[string]*professor.Professor)},
		subject:   &subjectTable{table: make(map[string]*subject.Subject)},
		defense:   &defenseTable{table: make(map[string]*defense.Defense)},
	}
	return db, nil
}
