package sqlxrepos

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/user"
)

const (
	sessionColumns = `id, lecturer_id, class_name, date, start_time, duration,
	require_pin, pin, status, created_at`
	recordColumns = `id, session_id, student_id, status, check_time, note, updated_at`
)

type attendanceRepository struct {
	db *sqlx.DB
}

func NewAttendanceRepository(db *sqlx.DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) NextSessionID(width int) (string, error) {
	return nextID(repo.db, attendance.SessionIDPrefix, width)
}

func (repo *attendanceRepository) CreateSession(sess attendance.Session) (attendance.Session, error) {
	_, err := repo.db.NamedExec(
		`INSERT INTO session (`+sessionColumns+`)
		 VALUES (:id, :lecturer_id, :class_name, :date, :start_time, :duration,
			:require_pin, :pin, :status, :created_at)`,
		sess,
	)
	if err != nil {
		return attendance.Session{}, errors.Wrap(err, "creating session")
	}
	return sess, nil
}

func (repo *attendanceRepository) GetSessionByID(id string) (attendance.Session, error) {
	var sess attendance.Session
	err := repo.db.Get(&sess, `SELECT `+sessionColumns+` FROM session WHERE id = $1`, id)
	switch err {
	case nil:
		return sess, nil
	case sql.ErrNoRows:
		return attendance.Session{}, attendance.ErrSessionNotFound
	default:
		return attendance.Session{}, errors.Wrap(err, "getting session")
	}
}

func (repo *attendanceRepository) QuerySessionsByLecturer(lecturerID string) ([]attendance.Session, error) {
	sessions := make([]attendance.Session, 0)
	err := repo.db.Select(&sessions,
		`SELECT `+sessionColumns+` FROM session WHERE lecturer_id = $1 ORDER BY created_at DESC`,
		lecturerID,
	)
	return sessions, errors.Wrap(err, "querying sessions")
}

func (repo *attendanceRepository) CloseSession(id string) (attendance.Session, error) {
	var sess attendance.Session
	err := repo.db.Get(&sess,
		`UPDATE session SET status = $1 WHERE id = $2 AND status = $3 RETURNING `+sessionColumns,
		attendance.SessionClosed, id, attendance.SessionOpen,
	)
	switch err {
	case nil:
		return sess, nil
	case sql.ErrNoRows:
		// lost the CAS; disambiguate missing vs already closed
		if _, err := repo.GetSessionByID(id); err != nil {
			return attendance.Session{}, err
		}
		return attendance.Session{}, attendance.ErrSessionClosed
	default:
		return attendance.Session{}, errors.Wrap(err, "closing session")
	}
}

func (repo *attendanceRepository) CreateRecord(rec attendance.Record) (attendance.Record, error) {
	rec.ID = uuid.New().String()
	_, err := repo.db.NamedExec(
		`INSERT INTO attendance_record (`+recordColumns+`)
		 VALUES (:id, :session_id, :student_id, :status, :check_time, :note, :updated_at)`,
		rec,
	)
	if err != nil {
		if isUniqueViolation(errors.Cause(err)) {
			return attendance.Record{}, attendance.ErrAlreadyRecorded
		}
		return attendance.Record{}, errors.Wrap(err, "creating record")
	}
	return rec, nil
}

func (repo *attendanceRepository) GetRecord(sessionID, studentID string) (attendance.Record, error) {
	var rec attendance.Record
	err := repo.db.Get(&rec,
		`SELECT `+recordColumns+` FROM attendance_record WHERE session_id = $1 AND student_id = $2`,
		sessionID, studentID,
	)
	switch err {
	case nil:
		return rec, nil
	case sql.ErrNoRows:
		return attendance.Record{}, attendance.ErrRecordNotFound
	default:
		return attendance.Record{}, errors.Wrap(err, "getting record")
	}
}

func (repo *attendanceRepository) UpdateRecord(rec attendance.Record) (attendance.Record, error) {
	res, err := repo.db.NamedExec(
		`UPDATE attendance_record
		 SET status = :status, check_time = :check_time, note = :note, updated_at = :updated_at
		 WHERE id = :id`,
		rec,
	)
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "updating record")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return attendance.Record{}, attendance.ErrRecordNotFound
	}
	return rec, nil
}

func (repo *attendanceRepository) DeleteRecord(sessionID, studentID string) error {
	res, err := repo.db.Exec(
		`DELETE FROM attendance_record WHERE session_id = $1 AND student_id = $2`,
		sessionID, studentID,
	)
	if err != nil {
		return errors.Wrap(err, "deleting record")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return attendance.ErrRecordNotFound
	}
	return nil
}

func (repo *attendanceRepository) QueryHistory(studentID string, filter attendance.HistoryFilter) ([]attendance.HistoryItem, error) {
	items := make([]attendance.HistoryItem, 0)
	err := repo.db.Select(&items,
		`SELECT s.id AS session_id, s.class_name, s.date,
			COALESCE(s.start_time, '') AS start_time,
			r.status, COALESCE(r.note, '') AS note
		 FROM attendance_record r
		 JOIN session s ON s.id = r.session_id
		 WHERE r.student_id = $1
			AND ($2 = '' OR s.class_name = $2)
			AND ($3 = '' OR s.date >= $3)
			AND ($4 = '' OR s.date <= $4)
		 ORDER BY s.date DESC, s.id DESC`,
		studentID, filter.ClassName, filter.DateFrom, filter.DateTo,
	)
	return items, errors.Wrap(err, "querying history")
}

func (repo *attendanceRepository) QueryRoster(sessionID string) ([]attendance.RosterEntry, error) {
	entries := make([]attendance.RosterEntry, 0)
	err := repo.db.Select(&entries,
		`SELECT u.id AS student_id, u.role_id AS student_role_id, u.name AS student_name,
			COALESCE(r.status, $1) AS status
		 FROM "user" u
		 LEFT JOIN attendance_record r ON r.student_id = u.id AND r.session_id = $2
		 WHERE u.role = $3
		 ORDER BY u.role_id`,
		attendance.StatusAbsent, sessionID, user.RoleStudent,
	)
	return entries, errors.Wrap(err, "querying roster")
}

func (repo *attendanceRepository) QueryClassSummary(className, dateFrom, dateTo string) ([]attendance.ClassSummary, error) {
	rows := make([]attendance.ClassSummary, 0)
	err := repo.db.Select(&rows,
		`SELECT u.role_id AS student_role_id, u.name AS student_name,
			COUNT(*) FILTER (WHERE r.status = 'Present') AS present,
			COUNT(*) FILTER (WHERE r.status = 'Late') AS late,
			COUNT(*) FILTER (WHERE r.status = 'Absent') AS absent,
			COUNT(*) FILTER (WHERE r.status = 'Excused') AS excused,
			COUNT(*) AS total
		 FROM attendance_record r
		 JOIN session s ON s.id = r.session_id
		 JOIN "user" u ON u.id = r.student_id
		 WHERE s.class_name = $1
			AND ($2 = '' OR s.date >= $2)
			AND ($3 = '' OR s.date <= $3)
		 GROUP BY u.role_id, u.name
		 ORDER BY u.role_id`,
		className, dateFrom, dateTo,
	)
	return rows, errors.Wrap(err, "querying class summary")
}

func (repo *attendanceRepository) SearchRecords(filter attendance.SearchFilter) ([]attendance.SearchResult, error) {
	where := ""
	args := []interface{}{}
	switch filter.By {
	case attendance.SearchByStudentID:
		where, args = `r.student_id = $1`, []interface{}{filter.Keyword}
	case attendance.SearchBySessionID:
		where, args = `r.session_id = $1`, []interface{}{filter.Keyword}
	case attendance.SearchByClassName:
		where, args = `s.class_name = $1`, []interface{}{filter.Keyword}
	case attendance.SearchByDateRange:
		where = `($1 = '' OR s.date >= $1) AND ($2 = '' OR s.date <= $2)`
		args = []interface{}{filter.DateFrom, filter.DateTo}
	default:
		return []attendance.SearchResult{}, nil
	}

	results := make([]attendance.SearchResult, 0)
	err := repo.db.Select(&results,
		`SELECT r.id AS record_id, s.id AS session_id, s.class_name, s.date,
			u.role_id AS student_role_id, u.name AS student_name, r.status,
			COALESCE(to_char(r.check_time, 'YYYY-MM-DD HH24:MI:SS'), '') AS check_time,
			COALESCE(r.note, '') AS note
		 FROM attendance_record r
		 JOIN session s ON s.id = r.session_id
		 JOIN "user" u ON u.id = r.student_id
		 WHERE `+where+`
		 ORDER BY s.date DESC, s.id, u.role_id`,
		args...,
	)
	return results, errors.Wrap(err, "searching records")
}

// CountClassAbsences tallies Absent records per student across a class.
func (repo *attendanceRepository) CountClassAbsences(className string) (map[string]int, error) {
	rows := make([]struct {
		StudentID string `db:"student_id"`
		Count     int    `db:"count"`
	}, 0)
	err := repo.db.Select(&rows,
		`SELECT r.student_id, COUNT(*) AS count
		 FROM attendance_record r
		 JOIN session s ON s.id = r.session_id
		 WHERE s.class_name = $1 AND r.status = $2
		 GROUP BY r.student_id`,
		className, attendance.StatusAbsent,
	)
	if err != nil {
		return nil, errors.Wrap(err, "counting class absences")
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.StudentID] = row.Count
	}
	return counts, nil
}
