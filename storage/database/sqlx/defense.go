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

	"github.com/pfebridge/pfebridge/core/defense"
)

const defenseColumns = `id, student_id, subject_id, date, status, accepted_by, rejected_by, reject_reason, notes, created_at, updated_at`

type defenseRow struct {
	ID           string      `db:"id"`
	StudentID    string      `db:"student_id"`
	SubjectID    string      `db:"subject_id"`
	Date         null.Time   `db:"date"`
	Status       string      `db:"status"`
	AcceptedBy   null.String `db:"accepted_by"`
	RejectedBy   null.String `db:"rejected_by"`
	RejectReason null.String `db:"reject_reason"`
	Notes        null.String `db:"notes"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

func (r defenseRow) unpack(jury []string) defense.Defense {
	return defense.Defense{
		ID:           r.ID,
		StudentID:    r.StudentID,
		SubjectID:    r.SubjectID,
		Date:         r.Date,
		Status:       defense.Status(r.Status),
		Jury:         jury,
		AcceptedBy:   r.AcceptedBy,
		RejectedBy:   r.RejectedBy,
		RejectReason: r.RejectReason.String,
		Notes:        r.Notes.String,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type defenseRepository struct {
	db *sqlx.DB
}

var _ defense.Repository = (*defenseRepository)(nil) // interface compliance check

func NewDefenseRepository(db *sqlx.DB) *defenseRepository {
	return &defenseRepository{db: db}
}

func (repo *defenseRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return defense.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo *defenseRepository) CreateDefense(ctx context.Context, def defense.Defense) (defense.Defense, error) {
	def.ID = uuid.New().String()

	query := `
INSERT INTO defense (id, student_id, subject_id, date, status, accepted_by, rejected_by, reject_reason, notes, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := repo.db.ExecContext(
		ctx, query,
		def.ID,
		def.StudentID,
		def.SubjectID,
		def.Date,
		string(def.Status),
		def.AcceptedBy,
		def.RejectedBy,
		null.NewString(def.RejectReason, def.RejectReason != ""),
		null.NewString(def.Notes, def.Notes != ""),
		def.CreatedAt.UTC(),
		def.UpdatedAt.UTC(),
	)
	if err != nil {
		return defense.Defense{}, errors.Wrap(err, "inserting defense")
	}
	return def, nil
}

func (repo *defenseRepository) GetDefenseByID(ctx context.Context, id string) (defense.Defense, error) {
	if _, err := uuid.Parse(id); err != nil {
		return defense.Defense{}, defense.ErrNotFound
	}

	var row defenseRow
	query := fmt.Sprintf(`SELECT %s FROM defense WHERE id = $1`, defenseColumns)
	if err := repo.db.GetContext(ctx, &row, query, id); err != nil {
		return defense.Defense{}, repo.trapNoRowsErr(err, "finding defense by ID")
	}

	var jury []string
	err := repo.db.SelectContext(ctx, &jury, `SELECT professor_id FROM defense_jury WHERE defense_id = $1`, id)
	if err != nil {
		return defense.Defense{}, errors.Wrap(err, "loading jury")
	}
	return row.unpack(jury), nil
}

func (repo *defenseRepository) FilterDefenses(ctx context.Context, filter defense.QueryFilter) ([]defense.Defense, error) {
	var conds []string
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Status != "" {
		conds = append(conds, fmt.Sprintf("status = %s", arg(string(filter.Status))))
	}
	if filter.StudentID != "" {
		conds = append(conds, fmt.Sprintf("student_id = %s", arg(filter.StudentID)))
	}
	if filter.SubjectID != "" {
		conds = append(conds, fmt.Sprintf("subject_id = %s", arg(filter.SubjectID)))
	}
	if filter.ProfessorID != "" {
		conds = append(conds, fmt.Sprintf(
			"id IN (SELECT defense_id FROM defense_jury WHERE professor_id = %s)", arg(filter.ProfessorID)))
	}

	query := fmt.Sprintf(`SELECT %s FROM defense`, defenseColumns)
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at"

	var rows []defenseRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering defenses")
	}
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	juries, err := repo.loadJuries(ctx, repo.db, ids)
	if err != nil {
		return nil, err
	}

	defs := make([]defense.Defense, 0, len(rows))
	for _, r := range rows {
		defs = append(defs, r.unpack(juries[r.ID]))
	}
	return defs, nil
}

func (repo *defenseRepository) loadJuries(ctx context.Context, q sqlx.QueryerContext, defenseIDs []string) (map[string][]string, error) {
	query, args, err := sqlx.In(`SELECT defense_id, professor_id FROM defense_jury WHERE defense_id IN (?)`, defenseIDs)
	if err != nil {
		return nil, errors.Wrap(err, "loading juries")
	}

	rows, err := q.QueryxContext(ctx, repo.db.Rebind(query), args...)
	if err != nil {
		return nil, errors.Wrap(err, "loading juries")
	}
	defer func() { _ = rows.Close() }()

	juries := make(map[string][]string, len(defenseIDs))
	for rows.Next() {
		var defID, profID string
		if err = rows.Scan(&defID, &profID); err != nil {
			return nil, errors.Wrap(err, "loading juries")
		}
		juries[defID] = append(juries[defID], profID)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "loading juries")
	}
	return juries, nil
}

func (repo *defenseRepository) UpdateDefense(ctx context.Context, def defense.Defense) (defense.Defense, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return defense.Defense{}, errors.Wrap(err, "starting transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if err = repo.updateDefense(ctx, tx, def); err != nil {
		return defense.Defense{}, err
	}
	if err = repo.replaceJury(ctx, tx, def.ID, def.Jury); err != nil {
		return defense.Defense{}, err
	}

	if err = tx.Commit(); err != nil {
		return defense.Defense{}, errors.Wrap(err, "committing transaction")
	}
	return def, nil
}

func (repo *defenseRepository) updateDefense(ctx context.Context, tx *sqlx.Tx, def defense.Defense) error {
	query := `
UPDATE defense
SET date = $2, status = $3, accepted_by = $4, rejected_by = $5, reject_reason = $6, notes = $7, updated_at = $8
WHERE id = $1`
	res, err := tx.ExecContext(
		ctx, query,
		def.ID,
		def.Date,
		string(def.Status),
		def.AcceptedBy,
		def.RejectedBy,
		null.NewString(def.RejectReason, def.RejectReason != ""),
		null.NewString(def.Notes, def.Notes != ""),
		def.UpdatedAt.UTC(),
	)
	if err != nil {
		return errors.Wrap(err, "updating defense")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return defense.ErrNotFound
	}
	return nil
}

func (repo *defenseRepository) replaceJury(ctx context.Context, tx *sqlx.Tx, defenseID string, jury []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM defense_jury WHERE defense_id = $1`, defenseID); err != nil {
		return errors.Wrap(err, "clearing jury")
	}
	for _, profID := range jury {
		_, err := tx.ExecContext(
			ctx, `INSERT INTO defense_jury (defense_id, professor_id) VALUES ($1, $2)`, defenseID, profID)
		if err != nil {
			return errors.Wrap(err, "assigning jury")
		}
	}
	return nil
}

const countScheduledAtQuery = `
SELECT COUNT(*)
FROM defense d
JOIN defense_jury j ON j.defense_id = d.id
WHERE j.professor_id = $1 AND d.status = 'scheduled' AND d.date = $2 AND d.id <> $3`

func (repo *defenseRepository) CountScheduledAt(ctx context.Context, professorID string, at time.Time, excludeID string) (int, error) {
	var cnt int
	if err := repo.db.GetContext(ctx, &cnt, countScheduledAtQuery, professorID, at.UTC(), excludeID); err != nil {
		return 0, errors.Wrap(err, "counting scheduled defenses")
	}
	return cnt, nil
}

func (repo *defenseRepository) CountActiveDefenses(ctx context.Context, professorID string) (int, error) {
	query := `
SELECT COUNT(*)
FROM defense d
JOIN defense_jury j ON j.defense_id = d.id
WHERE j.professor_id = $1 AND d.status = 'scheduled'`
	var cnt int
	if err := repo.db.GetContext(ctx, &cnt, query, professorID); err != nil {
		return 0, errors.Wrap(err, "counting active defenses")
	}
	return cnt, nil
}

// ScheduleDefense locks the jury's professor rows and re-checks their slot
// load inside the transaction, so two concurrent commits cannot both squeeze
// past a professor's capacity.
func (repo *defenseRepository) ScheduleDefense(
	ctx context.Context, id string, at time.Time, jury []string, caps map[string]int,
) (defense.Defense, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return defense.Defense{}, errors.Wrap(err, "starting transaction")
	}
	defer func() { _ = tx.Rollback() }()

	// lock professor rows in a stable order to avoid deadlocks between
	// concurrent schedules sharing jury members
	lockQuery, lockArgs, err := sqlx.In(`SELECT id FROM professor WHERE id IN (?) ORDER BY id FOR UPDATE`, jury)
	if err != nil {
		return defense.Defense{}, errors.Wrap(err, "locking professors")
	}
	if _, err = tx.ExecContext(ctx, repo.db.Rebind(lockQuery), lockArgs...); err != nil {
		return defense.Defense{}, errors.Wrap(err, "locking professors")
	}

	for _, profID := range jury {
		var cnt int
		if err = tx.GetContext(ctx, &cnt, countScheduledAtQuery, profID, at.UTC(), id); err != nil {
			return defense.Defense{}, errors.Wrap(err, "counting scheduled defenses")
		}
		if cnt >= caps[profID] {
			return defense.Defense{}, &defense.CapacityError{ProfessorID: profID}
		}
	}

	var row defenseRow
	query := fmt.Sprintf(`
UPDATE defense SET date = $2, status = 'scheduled', updated_at = $3 WHERE id = $1
RETURNING %s`, defenseColumns)
	if err = tx.GetContext(ctx, &row, query, id, at.UTC(), time.Now().UTC()); err != nil {
		return defense.Defense{}, repo.trapNoRowsErr(err, "scheduling defense")
	}
	if err = repo.replaceJury(ctx, tx, id, jury); err != nil {
		return defense.Defense{}, err
	}

	if err = tx.Commit(); err != nil {
		return defense.Defense{}, errors.Wrap(err, "committing transaction")
	}
	return row.unpack(jury), nil
}
