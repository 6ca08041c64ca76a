package attendance

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/mahudhurio/core"
)

// Record statuses.
type Status string

const (
	StatusPresent Status = "Present"
	StatusLate    Status = "Late"
	StatusAbsent  Status = "Absent"
	StatusExcused Status = "Excused"
)

// Valid returns true when the status is a supported value.
func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusLate, StatusAbsent, StatusExcused:
		return true
	default:
		return false
	}
}

// Session statuses.
const (
	SessionOpen   = "OPEN"
	SessionClosed = "CLOSED"
)

// SessionIDPrefix prefixes allocated session identifiers (S001).
const SessionIDPrefix = "S"

// Session is a single scheduled attendance-taking window for one class
// meeting. It is created OPEN and transitions to CLOSED exactly once.
type Session struct {
	ID         string      `json:"id" db:"id"`
	LecturerID string      `json:"lecturer_id" db:"lecturer_id"`
	ClassName  string      `json:"class_name" db:"class_name"`
	Date       string      `json:"date" db:"date"`                 // YYYY-MM-DD
	StartTime  null.String `json:"start_time,omitempty" db:"start_time"` // HH:MM
	Duration   null.Int    `json:"duration_minutes,omitempty" db:"duration"`
	RequirePIN bool        `json:"require_pin" db:"require_pin"`
	PIN        null.String `json:"-" db:"pin"`
	Status     string      `json:"status" db:"status"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"` // UTC
}

// EndsAt returns the instant the session expires. ok is false when the
// session carries no usable timing data, in which case it never expires on
// its own.
func (s Session) EndsAt() (end time.Time, ok bool) {
	if !s.StartTime.Valid || !s.Duration.Valid || s.Duration.Int <= 0 {
		return time.Time{}, false
	}
	start, err := time.Parse(core.DateFormat+" "+core.ClockFormat, s.Date+" "+s.StartTime.String)
	if err != nil {
		return time.Time{}, false
	}
	return start.Add(time.Duration(s.Duration.Int) * time.Minute), true
}

// IsOpen reports whether the session admits check-ins at `now`: status OPEN
// and, when start time and duration are both set, `now` has not passed the
// end. A pure function of session state and the clock; it never mutates.
func (s Session) IsOpen(now time.Time) bool {
	if s.Status != SessionOpen {
		return false
	}
	if end, ok := s.EndsAt(); ok && now.After(end) {
		return false
	}
	return true
}

// Record registers one student's status in one session. At most one record
// exists per (session, student) pair; after creation only the status, note
// and updated timestamp may change.
type Record struct {
	ID        string      `json:"id" db:"id"`
	SessionID string      `json:"session_id" db:"session_id"`
	StudentID string      `json:"student_id" db:"student_id"`
	Status    Status      `json:"status" db:"status"`
	CheckTime null.Time   `json:"check_time,omitempty" db:"check_time"`
	Note      null.String `json:"note,omitempty" db:"note"`
	UpdatedAt time.Time   `json:"updated_at" db:"updated_at"` // UTC
}

// NewSession contains information needed to open a session.
type NewSession struct {
	ClassName  string `json:"class_name" validate:"required"`
	Date       string `json:"date" validate:"required,date_"`
	StartTime  string `json:"start_time" validate:"omitempty,clock_"`
	Duration   int    `json:"duration_minutes" validate:"omitempty,min=1"`
	RequirePIN bool   `json:"require_pin"`
	// PIN must be non-empty when RequirePIN is set; callers generate one
	// when the lecturer did not supply it (numeric by convention).
	PIN string `json:"pin"`
}

func (ns *NewSession) Validate() error {
	ns.ClassName = core.CleanString(ns.ClassName)
	ns.Date = core.CleanString(ns.Date)
	ns.StartTime = core.CleanString(ns.StartTime)
	ns.PIN = core.CleanString(ns.PIN)
	return core.Validate.Struct(ns)
}

// HistoryFilter narrows a student's attendance history.
type HistoryFilter struct {
	ClassName string `query:"class_name"`
	DateFrom  string `query:"date_from"`
	DateTo    string `query:"date_to"`
}

func (f *HistoryFilter) Clean() {
	f.ClassName = core.CleanString(f.ClassName)
	f.DateFrom = core.CleanString(f.DateFrom)
	f.DateTo = core.CleanString(f.DateTo)
}

// HistoryItem is one row of a student's attendance history.
type HistoryItem struct {
	SessionID string `json:"session_id" db:"session_id"`
	ClassName string `json:"class_name" db:"class_name"`
	Date      string `json:"date" db:"date"`
	StartTime string `json:"start_time" db:"start_time"`
	Status    Status `json:"status" db:"status"`
	Note      string `json:"note" db:"note"`
}

// Summary holds running per-status counts.
type Summary struct {
	Present int `json:"present"`
	Late    int `json:"late"`
	Absent  int `json:"absent"`
	Excused int `json:"excused"`
}

func (s *Summary) add(status Status) {
	switch status {
	case StatusPresent:
		s.Present++
	case StatusLate:
		s.Late++
	case StatusAbsent:
		s.Absent++
	case StatusExcused:
		s.Excused++
	}
}

// RosterEntry is one row of the roster-vs-record join for a session;
// students with no record yet display as Absent.
type RosterEntry struct {
	StudentID     string `json:"student_id" db:"student_id"`
	StudentRoleID string `json:"student_role_id" db:"student_role_id"`
	StudentName   string `json:"student_name" db:"student_name"`
	Status        Status `json:"status" db:"status"`
}

// ClassSummary is one student's per-status counts in a class, with an
// integer attendance rate (present / total, rounded to nearest percent).
type ClassSummary struct {
	StudentRoleID string `json:"student_id" db:"student_role_id"`
	StudentName   string `json:"student_name" db:"student_name"`
	Present       int    `json:"present" db:"present"`
	Late          int    `json:"late" db:"late"`
	Absent        int    `json:"absent" db:"absent"`
	Excused       int    `json:"excused" db:"excused"`
	Total         int    `json:"total" db:"total"`
	Rate          int    `json:"attendance_rate" db:"-"` // percent
}

// Search modes for the admin record search.
const (
	SearchByStudentID = "student_id"
	SearchBySessionID = "session_id"
	SearchByClassName = "class_name"
	SearchByDateRange = "date_range"
)

// SearchFilter is the admin search console query.
type SearchFilter struct {
	By       string `query:"by"`
	Keyword  string `query:"keyword"`
	DateFrom string `query:"date_from"`
	DateTo   string `query:"date_to"`
}

func (f *SearchFilter) Clean() {
	f.By = core.CleanString(f.By, true /* lower */)
	f.Keyword = core.CleanString(f.Keyword)
	f.DateFrom = core.CleanString(f.DateFrom)
	f.DateTo = core.CleanString(f.DateTo)
}

// SearchResult is one row of the admin record search.
type SearchResult struct {
	RecordID      string `json:"record_id" db:"record_id"`
	SessionID     string `json:"session_id" db:"session_id"`
	ClassName     string `json:"class_name" db:"class_name"`
	Date          string `json:"date" db:"date"`
	StudentRoleID string `json:"student_id" db:"student_role_id"`
	StudentName   string `json:"student_name" db:"student_name"`
	Status        Status `json:"status" db:"status"`
	CheckTime     string `json:"check_time" db:"check_time"`
	Note          string `json:"note" db:"note"`
}
