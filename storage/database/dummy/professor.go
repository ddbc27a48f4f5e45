package dummydb

import (
	"context"

	"github.com/google/uuid"

	"github.com/pfebridge/pfebridge/core/professor"
)

type professorRepository struct {
	db *professorTable
}

var _ professor.Repository = (*professorRepository)(nil) // interface compliance check

func NewProfessorRepository(db *DB) professor.Repository {
	return &professorRepository{db: db.professor}
}

func (repo *professorRepository) CreateProfessor(_ context.Context, prof professor.Professor) (professor.Professor, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	prof.ID = uuid.New().String()
	repo.db.table[prof.ID] = &prof
	return prof, nil
}

func (repo *professorRepository) GetProfessorByID(_ context.Context, id string) (professor.Professor, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if prof, ok := repo.db.table[id]; ok {
		return *prof, nil
	}
	return professor.Professor{}, professor.ErrNotFound
}

func (repo *professorRepository) QueryAllProfessors(_ context.Context) ([]professor.Professor, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	profs := make([]professor.Professor, 0, len(repo.db.table))
	for _, p := range repo.db.table {
		profs = append(profs, *p)
	}
	return profs, nil
}

func (repo *professorRepository) UpdateProfessor(_ context.Context, prof professor.Professor) (professor.Professor, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[prof.ID]; !ok {
		return professor.Professor{}, professor.ErrNotFound
	}
	repo.db.table[prof.ID] = &prof
	return prof, nil
}

func (repo *professorRepository) DeleteProfessorsByID(_ context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
