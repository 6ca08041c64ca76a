package warning

import (
	"fmt"
	"time"

	"github.com/volatiletech/null/v8"
)

// SystemLabel tags system-generated warnings.
const SystemLabel = "SAS"

// WarningIDPrefix prefixes allocated warning identifiers (W001).
const WarningIDPrefix = "W"

// Warning is an automatic notice issued when a student crosses the absence
// threshold for a class. Threshold records the threshold in force at issue
// time; together with StudentID and ClassName it keys idempotence, so a
// class close never issues the same warning twice.
type Warning struct {
	ID        string      `json:"id" db:"id"`
	StudentID string      `json:"student_id" db:"student_id"`
	IssuedBy  string      `json:"issued_by" db:"issued_by"`
	ClassName null.String `json:"class_name,omitempty" db:"class_name"`
	Threshold int         `json:"threshold" db:"threshold"`
	Message   string      `json:"message" db:"message"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"` // UTC
}

func thresholdMessage(threshold int) string {
	return fmt.Sprintf("Absence threshold reached (%d)", threshold)
}
