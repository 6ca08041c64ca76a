package attendance

import (
	"math"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/user"
)

var (
	nowFunc = core.Now // mockable

	// errors
	ErrSessionNotFound  = errors.New("session ID not found")
	ErrSessionClosed    = errors.New("session is closed or expired")
	ErrPINRequired      = errors.New("PIN is required")
	ErrInvalidPIN       = errors.New("invalid or expired PIN")
	ErrAlreadyRecorded  = errors.New("attendance already recorded for this student in the session")
	ErrRecordNotFound   = errors.New("attendance record not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidStatus    = errors.New("invalid attendance status")
)

type (
	Repository interface {
		// NextSessionID atomically allocates the next session identifier.
		NextSessionID(width int) (string, error)
		CreateSession(sess Session) (Session, error)
		GetSessionByID(id string) (Session, error)
		// QuerySessionsByLecturer returns a lecturer's sessions, newest first.
		QuerySessionsByLecturer(lecturerID string) ([]Session, error)
		// CloseSession transitions OPEN -> CLOSED as a compare-and-set;
		// it returns ErrSessionClosed when the session is already closed.
		CloseSession(id string) (Session, error)

		// CreateRecord inserts a record; the (session, student) pair is a
		// uniqueness key and conflicts return ErrAlreadyRecorded.
		CreateRecord(rec Record) (Record, error)
		// GetRecord returns ErrRecordNotFound when the pair has no record.
		GetRecord(sessionID, studentID string) (Record, error)
		UpdateRecord(rec Record) (Record, error)
		DeleteRecord(sessionID, studentID string) error

		QueryHistory(studentID string, filter HistoryFilter) ([]HistoryItem, error)
		QueryRoster(sessionID string) ([]RosterEntry, error)
		QueryClassSummary(className, dateFrom, dateTo string) ([]ClassSummary, error)
		SearchRecords(filter SearchFilter) ([]SearchResult, error)
	}

	// StudentDirectory resolves the student population; the user service
	// satisfies it.
	StudentDirectory interface {
		Students() ([]user.User, error)
		GetByRoleID(roleID string) (user.User, error)
	}

	// Warner evaluates the absence threshold for a class; the warning
	// service satisfies it.
	Warner interface {
		Generate(className string, threshold int) error
	}

	Service struct {
		repo      Repository
		students  StudentDirectory
		warner    Warner
		threshold int
		idWidth   int
	}
)

func NewService(repo Repository, students StudentDirectory, warner Warner) *Service {
	return &Service{
		repo:      repo,
		students:  students,
		warner:    warner,
		threshold: core.Conf.Attendance.AbsentWarningThreshold,
		idWidth:   core.Conf.Attendance.SessionIDWidth,
	}
}

// CreateSession opens a new session owned by the given lecturer.
func (svc *Service) CreateSession(lecturer user.User, ns NewSession) (Session, error) {
	if !lecturer.IsLecturer() {
		return Session{}, ErrPermissionDenied
	}
	if err := ns.Validate(); err != nil {
		return Session{}, err
	}

	id, err := svc.repo.NextSessionID(svc.idWidth)
	if err != nil {
		return Session{}, errors.Wrap(err, "allocating session ID")
	}

	sess := Session{
		ID:         id,
		LecturerID: lecturer.ID,
		ClassName:  ns.ClassName,
		Date:       ns.Date,
		StartTime:  null.NewString(ns.StartTime, ns.StartTime != ""),
		Duration:   null.NewInt(ns.Duration, ns.Duration > 0),
		RequirePIN: ns.RequirePIN,
		PIN:        null.NewString(ns.PIN, ns.PIN != ""),
		Status:     SessionOpen,
		CreatedAt:  nowFunc(),
	}
	return svc.repo.CreateSession(sess)
}

func (svc *Service) GetSession(id string) (Session, error) {
	return svc.repo.GetSessionByID(NormalizeSessionID(id))
}

func (svc *Service) LecturerSessions(lecturerID string) ([]Session, error) {
	return svc.repo.QuerySessionsByLecturer(lecturerID)
}

// CloseSession transitions the session to CLOSED, backfills Absent records
// for every student with no record in it, then evaluates the absence
// threshold for the session's class. Only the owning lecturer may close.
// The close is one-shot: a second close fails and re-runs nothing.
func (svc *Service) CloseSession(lecturer user.User, sessionID string) error {
	sess, err := svc.repo.GetSessionByID(sessionID)
	if err != nil {
		return err
	}
	if sess.LecturerID != lecturer.ID {
		return ErrPermissionDenied
	}

	if _, err = svc.repo.CloseSession(sess.ID); err != nil {
		return err
	}

	if err = svc.backfillAbsences(sess.ID); err != nil {
		return errors.Wrap(err, "backfilling absences")
	}
	if err = svc.warner.Generate(sess.ClassName, svc.threshold); err != nil {
		return errors.Wrap(err, "generating warnings")
	}
	return nil
}

// backfillAbsences creates an Absent record (no check time, no note) for
// every known student lacking a record in the session. Records that appear
// concurrently are kept, not overwritten.
func (svc *Service) backfillAbsences(sessionID string) error {
	students, err := svc.students.Students()
	if err != nil {
		return err
	}
	for _, stu := range students {
		rec := Record{
			SessionID: sessionID,
			StudentID: stu.ID,
			Status:    StatusAbsent,
			UpdatedAt: nowFunc(),
		}
		if _, err := svc.repo.CreateRecord(rec); err != nil && err != ErrAlreadyRecorded {
			return err
		}
	}
	return nil
}

// CheckIn registers the student's presence against an open session. This is
// the only path producing a Present status from direct student action.
func (svc *Service) CheckIn(student user.User, rawSessionID, pin string) (Record, error) {
	sess, err := svc.repo.GetSessionByID(NormalizeSessionID(rawSessionID))
	if err != nil {
		return Record{}, err
	}
	if !sess.IsOpen(nowFunc()) {
		return Record{}, ErrSessionClosed
	}

	if sess.RequirePIN {
		if pin == "" {
			return Record{}, ErrPINRequired
		}
		// A session flagged require_pin with no stored PIN admits any
		// non-empty input; deliberate laxity, do not tighten here.
		if sess.PIN.Valid && sess.PIN.String != "" && pin != sess.PIN.String {
			return Record{}, ErrInvalidPIN
		}
	}

	if _, err := svc.repo.GetRecord(sess.ID, student.ID); err == nil {
		return Record{}, ErrAlreadyRecorded
	} else if err != ErrRecordNotFound {
		return Record{}, err
	}

	now := nowFunc()
	rec := Record{
		SessionID: sess.ID,
		StudentID: student.ID,
		Status:    StatusPresent,
		CheckTime: null.TimeFrom(now),
		UpdatedAt: now,
	}
	return svc.repo.CreateRecord(rec)
}

// History returns a student's attendance history with running per-status counts.
func (svc *Service) History(studentID string, filter HistoryFilter) ([]HistoryItem, Summary, error) {
	filter.Clean()
	items, err := svc.repo.QueryHistory(studentID, filter)
	if err != nil {
		return nil, Summary{}, err
	}
	var sum Summary
	for _, it := range items {
		sum.add(it.Status)
	}
	return items, sum, nil
}

// Roster lists every student with their current status in the session,
// defaulting to Absent when no record exists yet.
func (svc *Service) Roster(sessionID string) ([]RosterEntry, error) {
	if _, err := svc.repo.GetSessionByID(sessionID); err != nil {
		return nil, err
	}
	return svc.repo.QueryRoster(sessionID)
}

// SummarizeClass aggregates per-student status counts for a class within an
// optional date range, with an integer attendance rate (0% when no records).
func (svc *Service) SummarizeClass(className, dateFrom, dateTo string) ([]ClassSummary, error) {
	rows, err := svc.repo.QueryClassSummary(className, dateFrom, dateTo)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Rate = attendanceRate(rows[i].Present, rows[i].Total)
	}
	return rows, nil
}

func attendanceRate(present, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(present) / float64(total) * 100))
}

// Search runs the admin record search. An unknown mode yields no results.
func (svc *Service) Search(filter SearchFilter) ([]SearchResult, error) {
	filter.Clean()
	switch filter.By {
	case SearchByStudentID:
		stu, err := svc.students.GetByRoleID(filter.Keyword)
		if err != nil {
			if err == user.ErrNotFound {
				return []SearchResult{}, nil
			}
			return nil, err
		}
		filter.Keyword = stu.ID
	case SearchBySessionID:
		filter.Keyword = NormalizeSessionID(filter.Keyword)
	case SearchByClassName, SearchByDateRange:
	default:
		return []SearchResult{}, nil
	}
	return svc.repo.SearchRecords(filter)
}

// SetStudentStatus manually sets one student's status (and note) in a
// session, creating the record when missing.
func (svc *Service) SetStudentStatus(sessionID, studentRoleID string, status Status, note string) (Record, error) {
	if !status.Valid() {
		return Record{}, ErrInvalidStatus
	}
	stu, err := svc.students.GetByRoleID(studentRoleID)
	if err != nil {
		return Record{}, err
	}

	now := nowFunc()
	rec, err := svc.repo.GetRecord(sessionID, stu.ID)
	switch err {
	case nil:
		rec.Status = status
		rec.Note = null.NewString(note, note != "")
		rec.UpdatedAt = now
		return svc.repo.UpdateRecord(rec)
	case ErrRecordNotFound:
		rec = Record{
			SessionID: sessionID,
			StudentID: stu.ID,
			Status:    status,
			Note:      null.NewString(note, note != ""),
			UpdatedAt: now,
		}
		return svc.repo.CreateRecord(rec)
	default:
		return Record{}, err
	}
}

// MarkAllPresent flips every rostered student in the session to Present,
// stamping a check time only on records created by this call.
func (svc *Service) MarkAllPresent(sessionID string) error {
	students, err := svc.students.Students()
	if err != nil {
		return err
	}
	now := nowFunc()
	for _, stu := range students {
		rec, err := svc.repo.GetRecord(sessionID, stu.ID)
		switch err {
		case nil:
			rec.Status = StatusPresent
			rec.UpdatedAt = now
			if _, err = svc.repo.UpdateRecord(rec); err != nil {
				return err
			}
		case ErrRecordNotFound:
			rec = Record{
				SessionID: sessionID,
				StudentID: stu.ID,
				Status:    StatusPresent,
				CheckTime: null.TimeFrom(now),
				UpdatedAt: now,
			}
			if _, err = svc.repo.CreateRecord(rec); err != nil {
				return err
			}
		default:
			return err
		}
	}
	return nil
}

// DeleteRecord removes a record by (session, student role-id).
func (svc *Service) DeleteRecord(sessionID, studentRoleID string) error {
	stu, err := svc.students.GetByRoleID(studentRoleID)
	if err != nil {
		return err
	}
	return svc.repo.DeleteRecord(sessionID, stu.ID)
}
