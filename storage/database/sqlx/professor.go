package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/pfebridge/pfebridge/core/professor"
)

const professorColumns = `id, user_id, name, email, department, max_defenses, availability, created_at, updated_at`

type professorRow struct {
	ID           string      `db:"id"`
	UserID       null.String `db:"user_id"`
	Name         string      `db:"name"`
	Email        string      `db:"email"`
	Department   null.String `db:"department"`
	MaxDefenses  int         `db:"max_defenses"`
	Availability []byte      `db:"availability"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

func (r professorRow) unpack() (professor.Professor, error) {
	var windows []professor.Window
	if len(r.Availability) > 0 {
		if err := json.Unmarshal(r.Availability, &windows); err != nil {
			return professor.Professor{}, errors.Wrap(err, "decoding availability")
		}
	}
	return professor.Professor{
		ID:           r.ID,
		UserID:       r.UserID.String,
		Name:         r.Name,
		Email:        r.Email,
		Department:   r.Department.String,
		MaxDefenses:  r.MaxDefenses,
		Availability: windows,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}, nil
}

func unpackProfessorRows(rows []professorRow) ([]professor.Professor, error) {
	profs := make([]professor.Professor, 0, len(rows))
	for _, r := range rows {
		prof, err := r.unpack()
		if err != nil {
			return nil, err
		}
		profs = append(profs, prof)
	}
	return profs, nil
}

type professorRepository struct {
	db *sqlx.DB
}

var _ professor.Repository = (*professorRepository)(nil) // interface compliance check

func NewProfessorRepository(db *sqlx.DB) *professorRepository {
	return &professorRepository{db: db}
}

func (repo *professorRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return professor.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo *professorRepository) CreateProfessor(ctx context.Context, prof professor.Professor) (professor.Professor, error) {
	prof.ID = uuid.New().String()

	availability, err := json.Marshal(prof.Availability)
	if err != nil {
		return professor.Professor{}, errors.Wrap(err, "encoding availability")
	}

	query := `
INSERT INTO professor (id, user_id, name, email, department, max_defenses, availability, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = repo.db.ExecContext(
		ctx, query,
		prof.ID,
		null.NewString(prof.UserID, prof.UserID != ""),
		prof.Name,
		prof.Email,
		null.NewString(prof.Department, prof.Department != ""),
		prof.MaxDefenses,
		availability,
		prof.CreatedAt.UTC(),
		prof.UpdatedAt.UTC(),
	)
	if err != nil {
		return professor.Professor{}, errors.Wrap(err, "inserting professor")
	}
	return prof, nil
}

func (repo *professorRepository) GetProfessorByID(ctx context.Context, id string) (professor.Professor, error) {
	if _, err := uuid.Parse(id); err != nil {
		return professor.Professor{}, professor.ErrNotFound
	}

	var row professorRow
	query := fmt.Sprintf(`SELECT %s FROM professor WHERE id = $1`, professorColumns)
	if err := repo.db.GetContext(ctx, &row, query, id); err != nil {
		return professor.Professor{}, repo.trapNoRowsErr(err, "finding professor by ID")
	}
	return row.unpack()
}

func (repo *professorRepository) QueryAllProfessors(ctx context.Context) ([]professor.Professor, error) {
	var rows []professorRow
	query := fmt.Sprintf(`SELECT %s FROM professor ORDER BY name`, professorColumns)
	if err := repo.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.Wrap(err, "querying professors")
	}
	return unpackProfessorRows(rows)
}

func (repo *professorRepository) UpdateProfessor(ctx context.Context, prof professor.Professor) (professor.Professor, error) {
	availability, err := json.Marshal(prof.Availability)
	if err != nil {
		return professor.Professor{}, errors.Wrap(err, "encoding availability")
	}

	query := `
UPDATE professor
SET user_id = $2, name = $3, email = $4, department = $5, max_defenses = $6, availability = $7, updated_at = $8
WHERE id = $1`
	res, err := repo.db.ExecContext(
		ctx, query,
		prof.ID,
		null.NewString(prof.UserID, prof.UserID != ""),
		prof.Name,
		prof.Email,
		null.NewString(prof.Department, prof.Department != ""),
		prof.MaxDefenses,
		availability,
		prof.UpdatedAt.UTC(),
	)
	if err != nil {
		return professor.Professor{}, errors.Wrap(err, "updating professor")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return professor.Professor{}, professor.ErrNotFound
	}
	return prof, nil
}

func (repo *professorRepository) DeleteProfessorsByID(ctx context.Context, ids ...string) error {
	query, args, err := sqlx.In(`DELETE FROM professor WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "deleting professors")
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting professors")
	}
	return nil
}
