package leave

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/mahudhurio/core"
)

// Request types: what the student is asking to be excused for.
const (
	TypeAbsent = "Absent"
	TypeLate   = "Late"
)

// Request statuses. PENDING is the only state a decision may act on.
const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

// RequestIDPrefix prefixes allocated request identifiers (R001).
const RequestIDPrefix = "R"

// Request is a student's petition to excuse an absence or late arrival.
// LecturerID is copied from the session at submission time and fixed; it is
// the authorization key for the decision.
type Request struct {
	ID         string      `json:"id" db:"id"`
	StudentID  string      `json:"student_id" db:"student_id"`
	LecturerID string      `json:"lecturer_id" db:"lecturer_id"`
	SessionID  null.String `json:"session_id,omitempty" db:"session_id"`
	Type       string      `json:"type" db:"type"`
	Status     string      `json:"status" db:"status"`
	Reason     string      `json:"reason" db:"reason"`
	Evidence   null.String `json:"evidence,omitempty" db:"evidence"`
	Note       null.String `json:"note,omitempty" db:"note"` // lecturer comment
	CreatedAt  time.Time   `json:"created_at" db:"created_at"` // UTC
}

func (r Request) IsDecided() bool {
	return r.Status != StatusPending
}

// NewRequest contains information needed to submit a leave request.
type NewRequest struct {
	SessionID string `json:"session_id" validate:"required"`
	Type      string `json:"type" validate:"required,leavetype_"`
	Reason    string `json:"reason" validate:"required"`
	Evidence  string `json:"evidence"`
}

func (nr *NewRequest) Validate() error {
	nr.SessionID = core.CleanString(nr.SessionID)
	nr.Type = core.CleanString(nr.Type)
	nr.Reason = core.CleanString(nr.Reason)
	nr.Evidence = core.CleanString(nr.Evidence)
	return core.Validate.Struct(nr)
}

// Decision is a lecturer's verdict on a pending request.
type Decision struct {
	Approve bool   `json:"approve"`
	Comment string `json:"comment"`
}

func (d *Decision) Validate() error {
	d.Comment = core.CleanString(d.Comment)
	return core.Validate.Struct(d)
}
