package inmemdb

import (
	"sort"

	"github.com/trezcool/mahudhurio/core/warning"
)

type warningRepository struct {
	db *DB
}

func NewWarningRepository(db *DB) warning.Repository {
	return &warningRepository{db: db}
}

func (repo *warningRepository) NextWarningID(width int) (string, error) {
	return repo.db.nextID(warning.WarningIDPrefix, width), nil
}

func (repo *warningRepository) CreateWarning(w warning.Warning) (warning.Warning, error) {
	repo.db.warning.Lock()
	defer repo.db.warning.Unlock()

	repo.db.warning.table[w.ID] = &w
	return w, nil
}

func (repo *warningRepository) HasWarning(studentID, className string, threshold int) (bool, error) {
	repo.db.warning.RLock()
	defer repo.db.warning.RUnlock()

	for _, w := range repo.db.warning.table {
		if w.StudentID == studentID && w.ClassName.String == className && w.Threshold == threshold {
			return true, nil
		}
	}
	return false, nil
}

func (repo *warningRepository) QueryWarningsByStudent(studentID string) ([]warning.Warning, error) {
	repo.db.warning.RLock()
	defer repo.db.warning.RUnlock()

	warnings := make([]warning.Warning, 0)
	for _, w := range repo.db.warning.table {
		if w.StudentID == studentID {
			warnings = append(warnings, *w)
		}
	}
	sort.Slice(warnings, func(i, j int) bool { return warnings[i].CreatedAt.After(warnings[j].CreatedAt) })
	return warnings, nil
}

func (repo *warningRepository) CountWarningsByStudent(studentID string) (int, error) {
	warnings, err := repo.QueryWarningsByStudent(studentID)
	if err != nil {
		return 0, err
	}
	return len(warnings), nil
}
