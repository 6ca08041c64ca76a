package sqlxrepos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/leave"
)

const leaveColumns = `id, student_id, lecturer_id, session_id, type, status,
	reason, evidence, note, created_at`

type leaveRepository struct {
	db *sqlx.DB
}

func NewLeaveRepository(db *sqlx.DB) leave.Repository {
	return &leaveRepository{db: db}
}

func (repo *leaveRepository) NextRequestID(width int) (string, error) {
	return nextID(repo.db, leave.RequestIDPrefix, width)
}

func (repo *leaveRepository) CreateRequest(req leave.Request) (leave.Request, error) {
	_, err := repo.db.NamedExec(
		`INSERT INTO leave_request (`+leaveColumns+`)
		 VALUES (:id, :student_id, :lecturer_id, :session_id, :type, :status,
			:reason, :evidence, :note, :created_at)`,
		req,
	)
	if err != nil {
		return leave.Request{}, errors.Wrap(err, "creating request")
	}
	return req, nil
}

func (repo *leaveRepository) GetRequestByID(id string) (leave.Request, error) {
	var req leave.Request
	err := repo.db.Get(&req, `SELECT `+leaveColumns+` FROM leave_request WHERE id = $1`, id)
	switch err {
	case nil:
		return req, nil
	case sql.ErrNoRows:
		return leave.Request{}, leave.ErrNotFound
	default:
		return leave.Request{}, errors.Wrap(err, "getting request")
	}
}

func (repo *leaveRepository) QueryRequestsByStudent(studentID string) ([]leave.Request, error) {
	reqs := make([]leave.Request, 0)
	err := repo.db.Select(&reqs,
		`SELECT `+leaveColumns+` FROM leave_request WHERE student_id = $1 ORDER BY created_at DESC`,
		studentID,
	)
	return reqs, errors.Wrap(err, "querying requests")
}

func (repo *leaveRepository) QueryRequestsByLecturer(lecturerID string, pendingOnly bool) ([]leave.Request, error) {
	reqs := make([]leave.Request, 0)
	err := repo.db.Select(&reqs,
		`SELECT `+leaveColumns+` FROM leave_request
		 WHERE lecturer_id = $1 AND (NOT $2 OR status = $3)
		 ORDER BY created_at DESC`,
		lecturerID, pendingOnly, leave.StatusPending,
	)
	return reqs, errors.Wrap(err, "querying requests")
}

func (repo *leaveRepository) CountPendingByStudent(studentID string) (int, error) {
	var count int
	err := repo.db.Get(&count,
		`SELECT COUNT(*) FROM leave_request WHERE student_id = $1 AND status = $2`,
		studentID, leave.StatusPending,
	)
	return count, errors.Wrap(err, "counting pending requests")
}

func (repo *leaveRepository) CountPendingByLecturer(lecturerID string) (int, error) {
	var count int
	err := repo.db.Get(&count,
		`SELECT COUNT(*) FROM leave_request WHERE lecturer_id = $1 AND status = $2`,
		lecturerID, leave.StatusPending,
	)
	return count, errors.Wrap(err, "counting pending requests")
}

func (repo *leaveRepository) UpdateRequest(req leave.Request) (leave.Request, error) {
	res, err := repo.db.NamedExec(
		`UPDATE leave_request SET status = :status, note = :note WHERE id = :id`,
		req,
	)
	if err != nil {
		return leave.Request{}, errors.Wrap(err, "updating request")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return leave.Request{}, leave.ErrNotFound
	}
	return req, nil
}
