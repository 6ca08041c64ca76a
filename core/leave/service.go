package leave

import (
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/user"
)

var (
	nowFunc = core.Now // mockable

	// errors
	ErrNotFound = errors.New("request not found")
	// ErrAlreadyDecided guards the one-shot decision: an APPROVED/REJECTED
	// request cannot be re-decided, so the attendance side effect runs at
	// most once per request.
	ErrAlreadyDecided = errors.New("request already decided")

	leaveTypeTag  = "leavetype_"
	leaveTypeText = "type must be Absent or Late"
)

func init() {
	_ = core.Validate.RegisterValidation(leaveTypeTag, func(fl validator.FieldLevel) bool {
		t := fl.Field().String()
		return t == TypeAbsent || t == TypeLate
	})
	core.RegisterCustomTranslation(leaveTypeTag, leaveTypeText)
}

type (
	Repository interface {
		// NextRequestID atomically allocates the next request identifier.
		NextRequestID(width int) (string, error)
		CreateRequest(req Request) (Request, error)
		GetRequestByID(id string) (Request, error)
		// QueryRequestsByStudent returns a student's requests, newest first.
		QueryRequestsByStudent(studentID string) ([]Request, error)
		// QueryRequestsByLecturer returns requests addressed to a lecturer,
		// newest first, optionally only pending ones.
		QueryRequestsByLecturer(lecturerID string, pendingOnly bool) ([]Request, error)
		CountPendingByStudent(studentID string) (int, error)
		CountPendingByLecturer(lecturerID string) (int, error)
		UpdateRequest(req Request) (Request, error)
	}

	// SessionLookup resolves sessions at submission time; the attendance
	// service satisfies it.
	SessionLookup interface {
		GetSession(id string) (attendance.Session, error)
	}

	// RecordReconciler rewrites attendance history on approval; the
	// attendance repository satisfies it.
	RecordReconciler interface {
		GetRecord(sessionID, studentID string) (attendance.Record, error)
		CreateRecord(rec attendance.Record) (attendance.Record, error)
		UpdateRecord(rec attendance.Record) (attendance.Record, error)
	}

	Service struct {
		repo     Repository
		sessions SessionLookup
		records  RecordReconciler
		idWidth  int
	}
)

func NewService(repo Repository, sessions SessionLookup, records RecordReconciler) *Service {
	return &Service{
		repo:     repo,
		sessions: sessions,
		records:  records,
		idWidth:  core.Conf.Attendance.SessionIDWidth,
	}
}

// Submit files a request against an existing session. The session's owning
// lecturer is denormalized onto the request and fixed from then on.
func (svc *Service) Submit(student user.User, nr NewRequest) (Request, error) {
	if err := nr.Validate(); err != nil {
		return Request{}, err
	}

	sess, err := svc.sessions.GetSession(nr.SessionID)
	if err != nil {
		return Request{}, err
	}

	id, err := svc.repo.NextRequestID(svc.idWidth)
	if err != nil {
		return Request{}, errors.Wrap(err, "allocating request ID")
	}

	req := Request{
		ID:         id,
		StudentID:  student.ID,
		LecturerID: sess.LecturerID,
		SessionID:  null.StringFrom(sess.ID),
		Type:       nr.Type,
		Status:     StatusPending,
		Reason:     nr.Reason,
		Evidence:   null.NewString(nr.Evidence, nr.Evidence != ""),
		CreatedAt:  nowFunc(),
	}
	return svc.repo.CreateRequest(req)
}

func (svc *Service) ForStudent(studentID string) ([]Request, error) {
	return svc.repo.QueryRequestsByStudent(studentID)
}

func (svc *Service) ForLecturer(lecturerID string, pendingOnly bool) ([]Request, error) {
	return svc.repo.QueryRequestsByLecturer(lecturerID, pendingOnly)
}

func (svc *Service) PendingCountForStudent(studentID string) (int, error) {
	return svc.repo.CountPendingByStudent(studentID)
}

func (svc *Service) PendingCountForLecturer(lecturerID string) (int, error) {
	return svc.repo.CountPendingByLecturer(lecturerID)
}

// Decide resolves a pending request. Only the lecturer stored on the request
// may decide, and a request that does not belong to them reads as not found.
// On approval, and only when the request targets a session, the attendance
// record is reconciled: type Absent excuses, type Late marks late; an
// existing record's status (and note, when a comment is given) is
// overwritten, a missing one is created without a check time. Rejection
// never touches attendance.
func (svc *Service) Decide(lecturer user.User, requestID string, dec Decision) (Request, error) {
	req, err := svc.repo.GetRequestByID(requestID)
	if err != nil {
		return Request{}, err
	}
	if req.LecturerID != lecturer.ID {
		return Request{}, ErrNotFound
	}
	if req.IsDecided() {
		return Request{}, ErrAlreadyDecided
	}

	if dec.Approve {
		req.Status = StatusApproved
	} else {
		req.Status = StatusRejected
	}
	if dec.Comment != "" {
		req.Note = null.StringFrom(dec.Comment)
	}

	req, err = svc.repo.UpdateRequest(req)
	if err != nil {
		return Request{}, err
	}

	if dec.Approve && req.SessionID.Valid {
		if err := svc.reconcile(req, dec.Comment); err != nil {
			return Request{}, errors.Wrap(err, "reconciling attendance record")
		}
	}
	return req, nil
}

func (svc *Service) reconcile(req Request, comment string) error {
	status := attendance.StatusExcused
	if req.Type == TypeLate {
		status = attendance.StatusLate
	}

	now := nowFunc()
	rec, err := svc.records.GetRecord(req.SessionID.String, req.StudentID)
	switch err {
	case nil:
		rec.Status = status
		if comment != "" {
			rec.Note = null.StringFrom(comment)
		}
		rec.UpdatedAt = now
		_, err = svc.records.UpdateRecord(rec)
		return err
	case attendance.ErrRecordNotFound:
		rec = attendance.Record{
			SessionID: req.SessionID.String,
			StudentID: req.StudentID,
			Status:    status,
			Note:      null.NewString(comment, comment != ""),
			UpdatedAt: now,
		}
		_, err = svc.records.CreateRecord(rec)
		return err
	default:
		return err
	}
}
