package dummydb

import (
	"context"

	"github.com/google/uuid"

	"github.com/pfebridge/pfebridge/core/subject"
)

type subjectRepository struct {
	db *subjectTable
}

var _ subject.Repository = (*subjectRepository)(nil) // interface compliance check

func NewSubjectRepository(db *DB) subject.Repository {
	return &subjectRepository{db: db.subject}
}

func (repo *subjectRepository) CreateSubject(_ context.Context, subj subject.Subject) (subject.Subject, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	subj.ID = uuid.New().String()
	repo.db.table[subj.ID] = &subj
	return subj, nil
}

func (repo *subjectRepository) GetSubjectByID(_ context.Context, id string) (subject.Subject, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if subj, ok := repo.db.table[id]; ok {
		return *subj, nil
	}
	return subject.Subject{}, subject.ErrNotFound
}

func (repo *subjectRepository) FilterSubjects(_ context.Context, filter subject.QueryFilter) ([]subject.Subject, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var subjects []subject.Subject
	for _, s := range repo.db.table {
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		if filter.ProposerID != "" && s.ProposerID != filter.ProposerID {
			continue
		}
		if filter.StudentID != "" && s.StudentID != filter.StudentID {
			continue
		}
		subjects = append(subjects, *s)
	}
	return subjects, nil
}

func (repo *subjectRepository) UpdateSubject(_ context.Context, subj subject.Subject) (subject.Subject, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[subj.ID]; !ok {
		return subject.Subject{}, subject.ErrNotFound
	}
	repo.db.table[subj.ID] = &subj
	return subj, nil
}
