package reportsvc

import (
	"bytes"
	"net/mail"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
)

type summaryStub []attendance.ClassSummary

func (s summaryStub) SummarizeClass(string, string, string) ([]attendance.ClassSummary, error) {
	return s, nil
}

type mailStub struct {
	sent []*core.EmailMessage
}

func (m *mailStub) SendMessages(messages ...*core.EmailMessage) {
	m.sent = append(m.sent, messages...)
}

var testSummary = summaryStub{
	{StudentRoleID: "STU001", StudentName: "Student One", Present: 3, Absent: 1, Total: 4, Rate: 75},
	{StudentRoleID: "STU002", StudentName: "Student Two", Late: 2, Excused: 2, Total: 4, Rate: 0},
}

func TestServiceGenerate(t *testing.T) {
	svc := NewService(testSummary, &mailStub{})

	content, filename, err := svc.Generate("SE101", "2021-03-01", "2021-03-31")
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}
	if filename != "attendance_report_SE101.xlsx" {
		t.Errorf("filename = %q", filename)
	}

	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		t.Fatalf("opening workbook: %v", err)
	}
	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("reading rows: %v", err)
	}

	if len(rows) != 7 {
		t.Fatalf("len(rows) = %d; want 7", len(rows))
	}
	if rows[0][0] != "Course/Class ID" || rows[0][1] != "SE101" {
		t.Errorf("header row = %v", rows[0])
	}
	if rows[1][1] != "2021-03-01" || rows[2][1] != "2021-03-31" {
		t.Errorf("date rows = %v, %v", rows[1], rows[2])
	}
	if rows[4][0] != "StudentID" || rows[4][6] != "Attendance Rate" {
		t.Errorf("column header row = %v", rows[4])
	}
	if rows[5][0] != "STU001" || rows[5][6] != "75%" {
		t.Errorf("first data row = %v", rows[5])
	}
	if rows[6][6] != "0%" {
		t.Errorf("second data row = %v", rows[6])
	}
}

func TestServiceEmail(t *testing.T) {
	mailer := &mailStub{}
	svc := NewService(testSummary, mailer)

	if err := svc.Email("SE101", "", "", mail.Address{Address: "prof@test.cd"}); err != nil {
		t.Fatalf("Email() failed: %v", err)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("len(sent) = %d; want 1", len(mailer.sent))
	}
	msg := mailer.sent[0]
	if !msg.HasAttachments() {
		t.Fatal("no attachment")
	}
	att := msg.Attachments[0]
	if att.Filename != "attendance_report_SE101.xlsx" || att.ContentType != contentType {
		t.Errorf("attachment = %q (%s)", att.Filename, att.ContentType)
	}
}
