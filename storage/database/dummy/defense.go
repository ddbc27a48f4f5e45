package dummydb

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pfebridge/pfebridge/core/defense"
)

type defenseRepository struct {
	db *defenseTable
}

var _ defense.Repository = (*defenseRepository)(nil) // interface compliance check

func NewDefenseRepository(db *DB) defense.Repository {
	return &defenseRepository{db: db.defense}
}

func (repo *defenseRepository) CreateDefense(_ context.Context, def defense.Defense) (defense.Defense, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	def.ID = uuid.New().String()
	repo.db.table[def.ID] = &def
	return def, nil
}

func (repo *defenseRepository) GetDefenseByID(_ context.Context, id string) (defense.Defense, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if def, ok := repo.db.table[id]; ok {
		return *def, nil
	}
	return defense.Defense{}, defense.ErrNotFound
}

func (repo *defenseRepository) FilterDefenses(_ context.Context, filter defense.QueryFilter) ([]defense.Defense, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var defs []defense.Defense
	for _, d := range repo.db.table {
		if filter.Status != "" && d.Status != filter.Status {
			continue
		}
		if filter.StudentID != "" && d.StudentID != filter.StudentID {
			continue
		}
		if filter.SubjectID != "" && d.SubjectID != filter.SubjectID {
			continue
		}
		if filter.ProfessorID != "" && !d.OnJury(filter.ProfessorID) {
			continue
		}
		defs = append(defs, *d)
	}
	return defs, nil
}

func (repo *defenseRepository) UpdateDefense(_ context.Context, def defense.Defense) (defense.Defense, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[def.ID]; !ok {
		return defense.Defense{}, defense.ErrNotFound
	}
	repo.db.table[def.ID] = &def
	return def, nil
}

func (repo *defenseRepository) CountScheduledAt(_ context.Context, professorID string, at time.Time, excludeID string) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.countScheduledAt(professorID, at, excludeID), nil
}

func (repo *defenseRepository) CountActiveDefenses(_ context.Context, professorID string) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var cnt int
	for _, d := range repo.db.table {
		if d.Status == defense.StatusScheduled && d.OnJury(professorID) {
			cnt++
		}
	}
	return cnt, nil
}

// ScheduleDefense re-checks every jury member's slot load under the table
// lock before mutating anything, so two concurrent commits cannot both
// squeeze past a professor's capacity.
func (repo *defenseRepository) ScheduleDefense(
	_ context.Context, id string, at time.Time, jury []string, caps map[string]int,
) (defense.Defense, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	def, ok := repo.db.table[id]
	if !ok {
		return defense.Defense{}, defense.ErrNotFound
	}

	for _, pid := range jury {
		if repo.countScheduledAt(pid, at, id) >= caps[pid] {
			return defense.Defense{}, &defense.CapacityError{ProfessorID: pid}
		}
	}

	def.Date.SetValid(at)
	def.Jury = append([]string(nil), jury...)
	def.Status = defense.StatusScheduled
	def.UpdatedAt = time.Now().UTC()
	return *def, nil
}

// countScheduledAt assumes the caller holds at least a read lock.
func (repo *defenseRepository) countScheduledAt(professorID string, at time.Time, excludeID string) int {
	var cnt int
	for _, d := range repo.db.table {
		if d.ID == excludeID {
			continue
		}
		if d.Status == defense.StatusScheduled && d.Date.Valid && d.Date.Time.Equal(at) && d.OnJury(professorID) {
			cnt++
		}
	}
	return cnt
}
