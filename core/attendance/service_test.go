package attendance_test

import (
	"fmt"
	"testing"

	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/user"
	"github.com/trezcool/mahudhurio/core/warning"
	inmemdb "github.com/trezcool/mahudhurio/storage/database/inmem"
)

type fixture struct {
	svc     *attendance.Service
	usrSvc  *user.Service
	warnSvc *warning.Service

	lecturer user.User
	students []user.User
}

func setup(t *testing.T, studentCount int) *fixture {
	t.Helper()

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("opening DB: %v", err)
	}
	attRepo := inmemdb.NewAttendanceRepository(db)
	usrSvc := user.NewService(inmemdb.NewUserRepository(db))
	warnSvc := warning.NewService(inmemdb.NewWarningRepository(db), attRepo)
	svc := attendance.NewService(attRepo, usrSvc, warnSvc)

	f := &fixture{svc: svc, usrSvc: usrSvc, warnSvc: warnSvc}
	f.lecturer = f.createUser(t, "Lecturer One", "lec1", user.RoleLecturer)
	for i := 0; i < studentCount; i++ {
		uname := fmt.Sprintf("stu%d", i+1)
		f.students = append(f.students, f.createUser(t, "Student "+uname, uname, user.RoleStudent))
	}
	return f
}

func (f *fixture) createUser(t *testing.T, name, uname, role string) user.User {
	t.Helper()
	usr, err := f.usrSvc.Create(user.NewUser{
		Name:     name,
		Username: uname,
		Email:    uname + "@test.cd",
		Role:     role,
		Password: "LeTests#2021",
	})
	if err != nil {
		t.Fatalf("creating user %s: %v", uname, err)
	}
	return usr
}

func (f *fixture) openSession(t *testing.T, ns attendance.NewSession) attendance.Session {
	t.Helper()
	sess, err := f.svc.CreateSession(f.lecturer, ns)
	if err != nil {
		t.Fatalf("creating session: %v", err)
	}
	return sess
}

func TestServiceCreateSession(t *testing.T) {
	f := setup(t, 1)

	sess := f.openSession(t, attendance.NewSession{ClassName: "SE101", Date: "2021-03-01"})
	if sess.ID != "S001" {
		t.Errorf("ID = %q; want S001", sess.ID)
	}
	if sess.Status != attendance.SessionOpen {
		t.Errorf("Status = %q; want OPEN", sess.Status)
	}

	sess = f.openSession(t, attendance.NewSession{ClassName: "SE101", Date: "2021-03-02"})
	if sess.ID != "S002" {
		t.Errorf("second ID = %q; want S002", sess.ID)
	}

	if _, err := f.svc.CreateSession(f.students[0], attendance.NewSession{ClassName: "SE101", Date: "2021-03-01"}); err != attendance.ErrPermissionDenied {
		t.Errorf("student create error = %v; want ErrPermissionDenied", err)
	}

	if _, err := f.svc.CreateSession(f.lecturer, attendance.NewSession{Date: "2021-03-01"}); err == nil {
		t.Error("expected validation error for missing class name")
	}
	if _, err := f.svc.CreateSession(f.lecturer, attendance.NewSession{ClassName: "SE101", Date: "01/03/2021"}); err == nil {
		t.Error("expected validation error for bad date format")
	}
	if _, err := f.svc.CreateSession(f.lecturer, attendance.NewSession{ClassName: "SE101", Date: "2021-03-01", RequirePIN: true}); err == nil {
		t.Error("expected validation error for require_pin without PIN")
	}
}

func TestServiceCheckIn(t *testing.T) {
	f := setup(t, 2)
	stu := f.students[0]

	sess := f.openSession(t, attendance.NewSession{ClassName: "SE101", Date: "2021-03-01", RequirePIN: true, PIN: "1234"})

	if _, err := f.svc.CheckIn(stu, "S999", "1234"); err != attendance.ErrSessionNotFound {
		t.Errorf("unknown session error = %v; want ErrSessionNotFound", err)
	}
	if _, err := f.svc.CheckIn(stu, sess.ID, ""); err != attendance.ErrPINRequired {
		t.Errorf("missing PIN error = %v; want ErrPINRequired", err)
	}
	if _, err := f.svc.CheckIn(stu, sess.ID, "9999"); err != attendance.ErrInvalidPIN {
		t.Errorf("wrong PIN error = %v; want ErrInvalidPIN", err)
	}

	rec, err := f.svc.CheckIn(stu, " s001 ", "1234")
	if err != nil {
		t.Fatalf("CheckIn() failed: %v", err)
	}
	if rec.Status != attendance.StatusPresent {
		t.Errorf("Status = %q; want Present", rec.Status)
	}
	if !rec.CheckTime.Valid {
		t.Error("check time not stamped")
	}

	if _, err = f.svc.CheckIn(stu, sess.ID, "1234"); err != attendance.ErrAlreadyRecorded {
		t.Errorf("double check-in error = %v; want ErrAlreadyRecorded", err)
	}

	// a second student is unaffected
	if _, err = f.svc.CheckIn(f.students[1], sess.ID, "1234"); err != nil {
		t.Errorf("second student CheckIn() failed: %v", err)
	}

	if err = f.svc.CloseSession(f.lecturer, sess.ID); err != nil {
		t.Fatalf("CloseSession() failed: %v", err)
	}
	if _, err = f.svc.CheckIn(stu, sess.ID, "1234"); err != attendance.ErrSessionClosed {
		t.Errorf("closed session error = %v; want ErrSessionClosed", err)
	}
}

func TestServiceCheckInExpiredSession(t *testing.T) {
	f := setup(t, 1)

	sess := f.openSession(t, attendance.NewSession{
		ClassName: "SE101",
		Date:      "2000-01-01",
		StartTime: "10:00",
		Duration:  30,
	})
	if _, err := f.svc.CheckIn(f.students[0], sess.ID, ""); err != attendance.ErrSessionClosed {
		t.Errorf("expired session error = %v; want ErrSessionClosed", err)
	}
}

func TestServiceCloseSessionBackfill(t *testing.T) {
	f := setup(t, 4)

	sess := f.openSession(t, attendance.NewSession{ClassName: "SE101", Date: "2021-03-01"})
	if _, err := f.svc.CheckIn(f.students[0], sess.ID, ""); err != nil {
		t.Fatalf("CheckIn() failed: %v", err)
	}

	if err := f.svc.CloseSession(f.students[0], sess.ID); err != attendance.ErrPermissionDenied {
		t.Errorf("non-owner close error = %v; want ErrPermissionDenied", err)
	}

	if err := f.svc.CloseSession(f.lecturer, sess.ID); err != nil {
		t.Fatalf("CloseSession() failed: %v", err)
	}

	roster, err := f.svc.Roster(sess.ID)
	if err != nil {
		t.Fatalf("Roster() failed: %v", err)
	}
	if len(roster) != 4 {
		t.Fatalf("len(roster) = %d; want 4", len(roster))
	}
	var present, absent int
	for _, entry := range roster {
		switch entry.Status {
		case attendance.StatusPresent:
			present++
		case attendance.StatusAbsent:
			absent++
		}
	}
	if present != 1 || absent != 3 {
		t.Errorf("present = %d, absent = %d; want 1, 3", present, absent)
	}

	// the check-in record is kept, not overwritten
	items, summary, err := f.svc.History(f.students[0].ID, attendance.HistoryFilter{})
	if err != nil {
		t.Fatalf("History() failed: %v", err)
	}
	if len(items) != 1 || summary.Present != 1 || summary.Absent != 0 {
		t.Errorf("history = %d items, summary = %+v; want 1 Present", len(items), summary)
	}

	if err = f.svc.CloseSession(f.lecturer, sess.ID); err != attendance.ErrSessionClosed {
		t.Errorf("double close error = %v; want ErrSessionClosed", err)
	}
}

func TestServiceWarningsOnClose(t *testing.T) {
	f := setup(t, 2)
	stu := f.students[0]

	// let the second student keep checking in; the first stays absent
	for i, date := range []string{"2021-03-01", "2021-03-02", "2021-03-03"} {
		sess := f.openSession(t, attendance.NewSession{ClassName: "SE101", Date: date})
		if _, err := f.svc.CheckIn(f.students[1], sess.ID, ""); err != nil {
			t.Fatalf("CheckIn() failed: %v", err)
		}
		if err := f.svc.CloseSession(f.lecturer, sess.ID); err != nil {
			t.Fatalf("CloseSession() failed: %v", err)
		}

		count, err := f.warnSvc.CountForStudent(stu.ID)
		if err != nil {
			t.Fatalf("CountForStudent() failed: %v", err)
		}
		wantCount := 0
		if i == 2 { // threshold of 3 reached
			wantCount = 1
		}
		if count != wantCount {
			t.Errorf("after %d absences: warnings = %d; want %d", i+1, count, wantCount)
		}
	}

	warnings, err := f.warnSvc.ForStudent(stu.ID)
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
	if w.ID != "W001" {
		t.Errorf("ID = %q; want W001", w.ID)
	}

	// the compliant student got none
	if count, _ := f.warnSvc.CountForStudent(f.students[1].ID); count != 0 {
		t.Errorf("compliant student warnings = %d; want 0", count)
	}
}

func TestServiceSetStudentStatus(t *testing.T) {
	f := setup(t, 1)
	stu := f.students[0]

	sess := f.openSession(t, attendance.NewSession{ClassName: "SE101", Date: "2021-03-01"})

	if _, err := f.svc.SetStudentStatus(sess.ID, stu.RoleID, "Sick", ""); err != attendance.ErrInvalidStatus {
		t.Errorf("bad status error = %v; want ErrInvalidStatus", err)
	}
	if _, err := f.svc.SetStudentStatus(sess.ID, "STU999", attendance.StatusLate, ""); err != user.ErrNotFound {
		t.Errorf("unknown student error = %v; want user.ErrNotFound", err)
	}

	rec, err := f.svc.SetStudentStatus(sess.ID, stu.RoleID, attendance.StatusLate, "traffic")
	if err != nil {
		t.Fatalf("SetStudentStatus() failed: %v", err)
	}
	if rec.Status != attendance.StatusLate || rec.Note.String != "traffic" {
		t.Errorf("rec = %+v; want Late with note", rec)
	}

	// update in place, no duplicate
	rec, err = f.svc.SetStudentStatus(sess.ID, stu.RoleID, attendance.StatusExcused, "")
	if err != nil {
		t.Fatalf("SetStudentStatus() update failed: %v", err)
	}
	if rec.Status != attendance.StatusExcused {
		t.Errorf("Status = %q; want Excused", rec.Status)
	}
	items, _, err := f.svc.History(stu.ID, attendance.HistoryFilter{})
	if err != nil {
		t.Fatalf("History() failed: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("len(items) = %d; want 1", len(items))
	}
}

func TestServiceMarkAllPresent(t *testing.T) {
	f := setup(t, 3)

	sess := f.openSession(t, attendance.NewSession{ClassName: "SE101", Date: "2021-03-01"})
	if _, err := f.svc.SetStudentStatus(sess.ID, f.students[0].RoleID, attendance.StatusAbsent, ""); err != nil {
		t.Fatalf("SetStudentStatus() failed: %v", err)
	}

	if err := f.svc.MarkAllPresent(sess.ID); err != nil {
		t.Fatalf("MarkAllPresent() failed: %v", err)
	}

	roster, err := f.svc.Roster(sess.ID)
	if err != nil {
		t.Fatalf("Roster() failed: %v", err)
	}
	for _, entry := range roster {
		if entry.Status != attendance.StatusPresent {
			t.Errorf("%s status = %q; want Present", entry.StudentRoleID, entry.Status)
		}
	}
}

func TestServiceDeleteRecord(t *testing.T) {
	f := setup(t, 1)
	stu := f.students[0]

	sess := f.openSession(t, attendance.NewSession{ClassName: "SE101", Date: "2021-03-01"})
	if _, err := f.svc.CheckIn(stu, sess.ID, ""); err != nil {
		t.Fatalf("CheckIn() failed: %v", err)
	}

	if err := f.svc.DeleteRecord(sess.ID, stu.RoleID); err != nil {
		t.Fatalf("DeleteRecord() failed: %v", err)
	}
	if err := f.svc.DeleteRecord(sess.ID, stu.RoleID); err != attendance.ErrRecordNotFound {
		t.Errorf("second delete error = %v; want ErrRecordNotFound", err)
	}
}

func TestServiceSummarizeClass(t *testing.T) {
	f := setup(t, 2)
	stu := f.students[0]

	for _, date := range []string{"2021-03-01", "2021-03-02", "2021-03-03", "2021-03-04"} {
		sess := f.openSession(t, attendance.NewSession{ClassName: "SE101", Date: date})
		if date != "2021-03-04" {
			if _, err := f.svc.CheckIn(stu, sess.ID, ""); err != nil {
				t.Fatalf("CheckIn() failed: %v", err)
			}
		}
		if err := f.svc.CloseSession(f.lecturer, sess.ID); err != nil {
			t.Fatalf("CloseSession() failed: %v", err)
		}
	}

	rows, err := f.svc.SummarizeClass("SE101", "", "")
	if err != nil {
		t.Fatalf("SummarizeClass() failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d; want 2", len(rows))
	}

	var got attendance.ClassSummary
	for _, row := range rows {
		if row.StudentRoleID == stu.RoleID {
			got = row
		}
	}
	if got.Present != 3 || got.Absent != 1 || got.Total != 4 {
		t.Errorf("summary = %+v; want 3 Present, 1 Absent of 4", got)
	}
	if got.Rate != 75 {
		t.Errorf("Rate = %d; want 75", got.Rate)
	}

	// date range narrows the population
	rows, err = f.svc.SummarizeClass("SE101", "2021-03-04", "2021-03-04")
	if err != nil {
		t.Fatalf("SummarizeClass() ranged failed: %v", err)
	}
	for _, row := range rows {
		if row.StudentRoleID == stu.RoleID && row.Total != 1 {
			t.Errorf("ranged Total = %d; want 1", row.Total)
		}
	}
}

func TestServiceSearch(t *testing.T) {
	f := setup(t, 2)
	stu := f.students[0]

	sess := f.openSession(t, attendance.NewSession{ClassName: "SE101", Date: "2021-03-01"})
	if _, err := f.svc.CheckIn(stu, sess.ID, ""); err != nil {
		t.Fatalf("CheckIn() failed: %v", err)
	}

	tests := []struct {
		name   string
		filter attendance.SearchFilter
		want   int
	}{
		{name: "by student id", filter: attendance.SearchFilter{By: "student_id", Keyword: stu.RoleID}, want: 1},
		{name: "by unknown student id", filter: attendance.SearchFilter{By: "student_id", Keyword: "STU999"}, want: 0},
		{name: "by session id", filter: attendance.SearchFilter{By: "session_id", Keyword: "s001"}, want: 1},
		{name: "by class name", filter: attendance.SearchFilter{By: "class_name", Keyword: "SE101"}, want: 1},
		{name: "by date range", filter: attendance.SearchFilter{By: "date_range", DateFrom: "2021-03-01", DateTo: "2021-03-01"}, want: 1},
		{name: "date range excludes", filter: attendance.SearchFilter{By: "date_range", DateFrom: "2021-03-02"}, want: 0},
		{name: "unknown mode", filter: attendance.SearchFilter{By: "lol", Keyword: "SE101"}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := f.svc.Search(tt.filter)
			if err != nil {
				t.Fatalf("Search() failed: %v", err)
			}
			if len(results) != tt.want {
				t.Errorf("len(results) = %d; want %d", len(results), tt.want)
			}
		})
	}
}
