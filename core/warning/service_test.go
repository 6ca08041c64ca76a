package warning_test

import (
	"testing"

	"github.com/trezcool/mahudhurio/core/warning"
	inmemdb "github.com/trezcool/mahudhurio/storage/database/inmem"
)

// absenceCounts stubs the attendance side with fixed per-student tallies.
type absenceCounts map[string]int

func (c absenceCounts) CountClassAbsences(string) (map[string]int, error) { return c, nil }

func setup(t *testing.T, counts absenceCounts) *warning.Service {
	t.Helper()
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("opening DB: %v", err)
	}
	return warning.NewService(inmemdb.NewWarningRepository(db), counts)
}

func TestServiceGenerate(t *testing.T) {
	svc := setup(t, absenceCounts{"stu-below": 2, "stu-at": 3, "stu-above": 5})

	if err := svc.Generate("SE101", 3); err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}

	tests := []struct {
		studentID string
		want      int
	}{
		{studentID: "stu-below", want: 0},
		{studentID: "stu-at", want: 1},
		{studentID: "stu-above", want: 1},
	}
	for _, tt := range tests {
		count, err := svc.CountForStudent(tt.studentID)
		if err != nil {
			t.Fatalf("CountForStudent(%s) failed: %v", tt.studentID, err)
		}
		if count != tt.want {
			t.Errorf("%s: warnings = %d; want %d", tt.studentID, count, tt.want)
		}
	}

	warnings, err := svc.ForStudent("stu-at")
	if err != nil {
		t.Fatalf("ForStudent() failed: %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("len(warnings) = %d; want 1", len(warnings))
	}
	w := warnings[0]
	if w.Message != "Absence threshold reached (3)" {
		t.Errorf("Message = %q", w.Message)
	}
	if w.IssuedBy != warning.SystemLabel {
		t.Errorf("IssuedBy = %q; want %q", w.IssuedBy, warning.SystemLabel)
	}
	if w.ClassName.String != "SE101" {
		t.Errorf("ClassName = %q; want SE101", w.ClassName.String)
	}
	if w.Threshold != 3 {
		t.Errorf("Threshold = %d; want 3", w.Threshold)
	}
}

func TestServiceGenerateIdempotent(t *testing.T) {
	svc := setup(t, absenceCounts{"stu1": 4})

	for i := 0; i < 3; i++ {
		if err := svc.Generate("SE101", 3); err != nil {
			t.Fatalf("Generate() run %d failed: %v", i+1, err)
		}
	}

	count, err := svc.CountForStudent("stu1")
	if err != nil {
		t.Fatalf("CountForStudent() failed: %v", err)
	}
	if count != 1 {
		t.Errorf("warnings = %d; want exactly 1", count)
	}
}

func TestServiceGenerateDistinctThresholds(t *testing.T) {
	svc := setup(t, absenceCounts{"stu1": 5})

	// idempotence keys on (student, class, threshold); a stricter policy
	// later still produces its own warning
	if err := svc.Generate("SE101", 3); err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}
	if err := svc.Generate("SE101", 5); err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}

	warnings, err := svc.ForStudent("stu1")
	if err != nil {
		t.Fatalf("ForStudent() failed: %v", err)
	}
	if len(warnings) != 2 {
		t.Errorf("len(warnings) = %d; want 2", len(warnings))
	}
}
