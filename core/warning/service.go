package warning

import (
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/mahudhurio/core"
)

var nowFunc = core.Now // mockable

type (
	Repository interface {
		// NextWarningID atomically allocates the next warning identifier.
		NextWarningID(width int) (string, error)
		CreateWarning(w Warning) (Warning, error)
		// HasWarning reports whether the (student, class, threshold) triple
		// already produced a warning.
		HasWarning(studentID, className string, threshold int) (bool, error)
		QueryWarningsByStudent(studentID string) ([]Warning, error)
		CountWarningsByStudent(studentID string) (int, error)
	}

	// AbsenceCounter tallies Absent records per student for a class; the
	// attendance storage satisfies it.
	AbsenceCounter interface {
		CountClassAbsences(className string) (map[string]int, error)
	}

	Service struct {
		repo     Repository
		absences AbsenceCounter
		idWidth  int
	}
)

func NewService(repo Repository, absences AbsenceCounter) *Service {
	return &Service{
		repo:     repo,
		absences: absences,
		idWidth:  core.Conf.Attendance.SessionIDWidth,
	}
}

// Generate issues a warning to every student whose Absent count in the class
// meets the threshold and who has not already been warned for it. Safe to
// run on every session close.
func (svc *Service) Generate(className string, threshold int) error {
	counts, err := svc.absences.CountClassAbsences(className)
	if err != nil {
		return errors.Wrap(err, "counting class absences")
	}

	for studentID, count := range counts {
		if count < threshold {
			continue
		}
		warned, err := svc.repo.HasWarning(studentID, className, threshold)
		if err != nil {
			return err
		}
		if warned {
			continue
		}

		id, err := svc.repo.NextWarningID(svc.idWidth)
		if err != nil {
			return errors.Wrap(err, "allocating warning ID")
		}
		w := Warning{
			ID:        id,
			StudentID: studentID,
			IssuedBy:  SystemLabel,
			ClassName: null.StringFrom(className),
			Threshold: threshold,
			Message:   thresholdMessage(threshold),
			CreatedAt: nowFunc(),
		}
		if _, err := svc.repo.CreateWarning(w); err != nil {
			return err
		}
	}
	return nil
}

func (svc *Service) ForStudent(studentID string) ([]Warning, error) {
	return svc.repo.QueryWarningsByStudent(studentID)
}

func (svc *Service) CountForStudent(studentID string) (int, error) {
	return svc.repo.CountWarningsByStudent(studentID)
}
