package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/pfebridge/pfebridge/core/subject"
)

const subjectColumns = `id, title, description, proposer_id, student_id, status, reject_reason, created_at, updated_at`

type subjectRow struct {
	ID           string      `db:"id"`
	Title        string      `db:"title"`
	Description  null.String `db:"description"`
	ProposerID   string      `db:"proposer_id"`
	StudentID    null.String `db:"student_id"`
	Status       string      `db:"status"`
	RejectReason null.String `db:"reject_reason"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

func (r subjectRow) unpack() subject.Subject {
	return subject.Subject{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description.String,
		ProposerID:   r.ProposerID,
		StudentID:    r.StudentID.String,
		Status:       subject.Status(r.Status),
		RejectReason: r.RejectReason.String,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type subjectRepository struct {
	db *sqlx.DB
}

var _ subject.Repository = (*subjectRepository)(nil) // interface compliance check

func NewSubjectRepository(db *sqlx.DB) *subjectRepository {
	return &subjectRepository{db: db}
}

func (repo *subjectRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return subject.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo *subjectRepository) CreateSubject(ctx context.Context, subj subject.Subject) (subject.Subject, error) {
	subj.ID = uuid.New().String()

	query := `
INSERT INTO subject (id, title, description, proposer_id, student_id, status, reject_reason, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := repo.db.ExecContext(
		ctx, query,
		subj.ID,
		subj.Title,
		null.NewString(subj.Description, subj.Description != ""),
		subj.ProposerID,
		null.NewString(subj.StudentID, subj.StudentID != ""),
		string(subj.Status),
		null.NewString(subj.RejectReason, subj.RejectReason != ""),
		subj.CreatedAt.UTC(),
		subj.UpdatedAt.UTC(),
	)
	if err != nil {
		return subject.Subject{}, errors.Wrap(err, "inserting subject")
	}
	return subj, nil
}

func (repo *subjectRepository) GetSubjectByID(ctx context.Context, id string) (subject.Subject, error) {
	if _, err := uuid.Parse(id); err != nil {
		return subject.Subject{}, subject.ErrNotFound
	}

	var row subjectRow
	query := fmt.Sprintf(`SELECT %s FROM subject WHERE id = $1`, subjectColumns)
	if err := repo.db.GetContext(ctx, &row, query, id); err != nil {
		return subject.Subject{}, repo.trapNoRowsErr(err, "finding subject by ID")
	}
	return row.unpack(), nil
}

func (repo *subjectRepository) FilterSubjects(ctx context.Context, filter subject.QueryFilter) ([]subject.Subject, error) {
	var conds []string
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Status != "" {
		conds = append(conds, fmt.Sprintf("status = %s", arg(string(filter.Status))))
	}
	if filter.ProposerID != "" {
		conds = append(conds, fmt.Sprintf("proposer_id = %s", arg(filter.ProposerID)))
	}
	if filter.StudentID != "" {
		conds = append(conds, fmt.Sprintf("student_id = %s", arg(filter.StudentID)))
	}

	query := fmt.Sprintf(`SELECT %s FROM subject`, subjectColumns)
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at"

	var rows []subjectRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering subjects")
	}

	subjs := make([]subject.Subject, 0, len(rows))
	for _, r := range rows {
		subjs = append(subjs, r.unpack())
	}
	return subjs, nil
}

func (repo *subjectRepository) UpdateSubject(ctx context.Context, subj subject.Subject) (subject.Subject, error) {
	query := `
UPDATE subject
SET title = $2, description = $3, student_id = $4, status = $5, reject_reason = $6, updated_at = $7
WHERE id = $1`
	res, err := repo.db.ExecContext(
		ctx, query,
		subj.ID,
		subj.Title,
		null.NewString(subj.Description, subj.Description != ""),
		null.NewString(subj.StudentID, subj.StudentID != ""),
		string(subj.Status),
		null.NewString(subj.RejectReason, subj.RejectReason != ""),
		subj.UpdatedAt.UTC(),
	)
	if err != nil {
		return subject.Subject{}, errors.Wrap(err, "updating subject")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return subject.Subject{}, subject.ErrNotFound
	}
	return subj, nil
}
