// Package reportsvc renders class attendance reports as xlsx workbooks.
package reportsvc

import (
	"bytes"
	"fmt"
	"net/mail"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
)

const (
	sheetName   = "Attendance Report"
	contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Summarizer produces the per-student class summary; the attendance service
// satisfies it.
type Summarizer interface {
	SummarizeClass(className, dateFrom, dateTo string) ([]attendance.ClassSummary, error)
}

type Service struct {
	summarizer Summarizer
	mail       core.EmailService
}

func NewService(summarizer Summarizer, mail core.EmailService) *Service {
	return &Service{summarizer: summarizer, mail: mail}
}

// Generate builds the workbook in memory; nothing is persisted server-side.
func (svc *Service) Generate(className, dateFrom, dateTo string) ([]byte, string, error) {
	summary, err := svc.summarizer.SummarizeClass(className, dateFrom, dateTo)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	f.SetSheetName(f.GetSheetName(0), sheetName)

	rows := [][]interface{}{
		{"Course/Class ID", className},
		{"From", dateFrom},
		{"To", dateTo},
		{},
		{"StudentID", "StudentName", "Present", "Late", "Absent", "Excused", "Attendance Rate"},
	}
	for _, sum := range summary {
		rows = append(rows, []interface{}{
			sum.StudentRoleID, sum.StudentName, sum.Present, sum.Late,
			sum.Absent, sum.Excused, fmt.Sprintf("%d%%", sum.Rate),
		})
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, "", errors.Wrap(err, "resolving cell")
		}
		if err = f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, "", errors.Wrap(err, "writing row")
		}
	}

	buf := new(bytes.Buffer)
	if err = f.Write(buf); err != nil {
		return nil, "", errors.Wrap(err, "writing workbook")
	}
	return buf.Bytes(), fmt.Sprintf("attendance_report_%s.xlsx", className), nil
}

// Email generates the report and mails it as an attachment.
func (svc *Service) Email(className, dateFrom, dateTo string, to mail.Address) error {
	content, filename, err := svc.Generate(className, dateFrom, dateTo)
	if err != nil {
		return err
	}

	msg := &core.EmailMessage{
		To:      []mail.Address{to},
		Subject: fmt.Sprintf("Attendance report for %s", className),
		Body:    fmt.Sprintf("Attached is the attendance report for class %s.", className),
	}
	msg.Attach(content, filename, contentType)
	svc.mail.SendMessages(msg)
	return nil
}
