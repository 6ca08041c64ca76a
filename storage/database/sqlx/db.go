package sqlxrepos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/ids"
)

const pqUniqueViolation = "23505"

// nextID allocates the next prefixed identifier from the id_sequence table.
// The row lock serializes concurrent allocations for the same prefix.
func nextID(db *sqlx.DB, prefix string, width int) (string, error) {
	tx, err := db.Beginx()
	if err != nil {
		return "", errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	var last string
	err = tx.Get(&last, `SELECT last_id FROM id_sequence WHERE prefix = $1 FOR UPDATE`, prefix)
	if err != nil && err != sql.ErrNoRows {
		return "", errors.Wrap(err, "reading sequence")
	}

	next := ids.Increment(last, prefix, width)
	_, err = tx.Exec(
		`INSERT INTO id_sequence (prefix, last_id) VALUES ($1, $2)
		 ON CONFLICT (prefix) DO UPDATE SET last_id = EXCLUDED.last_id`,
		prefix, next,
	)
	if err != nil {
		return "", errors.Wrap(err, "advancing sequence")
	}

	if err = tx.Commit(); err != nil {
		return "", errors.Wrap(err, "committing transaction")
	}
	return next, nil
}

func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return string(pqErr.Code) == pqUniqueViolation
	}
	return false
}
