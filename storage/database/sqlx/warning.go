package sqlxrepos

import (
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/warning"
)

const warningColumns = `id, student_id, issued_by, class_name, threshold, message, created_at`

type warningRepository struct {
	db *sqlx.DB
}

func NewWarningRepository(db *sqlx.DB) warning.Repository {
	return &warningRepository{db: db}
}

func (repo *warningRepository) NextWarningID(width int) (string, error) {
	return nextID(repo.db, warning.WarningIDPrefix, width)
}

func (repo *warningRepository) CreateWarning(w warning.Warning) (warning.Warning, error) {
	_, err := repo.db.NamedExec(
		`INSERT INTO warning (`+warningColumns+`)
		 VALUES (:id, :student_id, :issued_by, :class_name, :threshold, :message, :created_at)
		 ON CONFLICT (student_id, class_name, threshold) DO NOTHING`,
		w,
	)
	if err != nil {
		return warning.Warning{}, errors.Wrap(err, "creating warning")
	}
	return w, nil
}

func (repo *warningRepository) HasWarning(studentID, className string, threshold int) (bool, error) {
	var exists bool
	err := repo.db.Get(&exists,
		`SELECT EXISTS (
			SELECT 1 FROM warning WHERE student_id = $1 AND class_name = $2 AND threshold = $3
		 )`,
		studentID, className, threshold,
	)
	return exists, errors.Wrap(err, "checking warning")
}

func (repo *warningRepository) QueryWarningsByStudent(studentID string) ([]warning.Warning, error) {
	warnings := make([]warning.Warning, 0)
	err := repo.db.Select(&warnings,
		`SELECT `+warningColumns+` FROM warning WHERE student_id = $1 ORDER BY created_at DESC`,
		studentID,
	)
	return warnings, errors.Wrap(err, "querying warnings")
}

func (repo *warningRepository) CountWarningsByStudent(studentID string) (int, error) {
	var count int
	err := repo.db.Get(&count, `SELECT COUNT(*) FROM warning WHERE student_id = $1`, studentID)
	return count, errors.Wrap(err, "counting warnings")
}
