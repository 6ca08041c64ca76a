package sqlxrepos

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/user"
)

const userColumns = `id, name, username, email, role, role_id, major, is_active,
	password_hash, failed_logins, locked_until, created_at, updated_at, last_login`

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckUsernameUniqueness(username, email string, excludedUsers ...user.User) error {
	excluded := make([]string, 0, len(excludedUsers))
	for _, usr := range excludedUsers {
		excluded = append(excluded, usr.ID)
	}

	var conflict struct {
		Username string `db:"username"`
		Email    string `db:"email"`
	}
	err := repo.db.Get(&conflict,
		`SELECT username, email FROM "user"
		 WHERE (username = $1 OR email = $2) AND NOT (id = ANY($3))
		 LIMIT 1`,
		username, email, pq.Array(excluded),
	)
	switch err {
	case sql.ErrNoRows:
		return nil
	case nil:
		if conflict.Username == username {
			return user.ErrUsernameExists
		}
		return user.ErrEmailExists
	default:
		return errors.Wrap(err, "checking uniqueness")
	}
}

func (repo *userRepository) CreateUser(usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	_, err := repo.db.NamedExec(
		`INSERT INTO "user" (`+userColumns+`)
		 VALUES (:id, :name, :username, :email, :role, :role_id, :major, :is_active,
			:password_hash, :failed_logins, :locked_until, :created_at, :updated_at, :last_login)`,
		usr,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

func (repo *userRepository) QueryAllUsers() ([]user.User, error) {
	users := make([]user.User, 0)
	err := repo.db.Select(&users, `SELECT `+userColumns+` FROM "user" ORDER BY name`)
	return users, errors.Wrap(err, "querying users")
}

func (repo *userRepository) QueryUsersByRole(role string) ([]user.User, error) {
	users := make([]user.User, 0)
	err := repo.db.Select(&users, `SELECT `+userColumns+` FROM "user" WHERE role = $1 ORDER BY name`, role)
	return users, errors.Wrap(err, "querying users by role")
}

func (repo *userRepository) getUser(where string, arg interface{}) (user.User, error) {
	var usr user.User
	err := repo.db.Get(&usr, `SELECT `+userColumns+` FROM "user" WHERE `+where, arg)
	switch err {
	case nil:
		return usr, nil
	case sql.ErrNoRows:
		return user.User{}, user.ErrNotFound
	default:
		return user.User{}, errors.Wrap(err, "getting user")
	}
}

func (repo *userRepository) GetUserByID(id string) (user.User, error) {
	return repo.getUser(`id = $1`, id)
}

func (repo *userRepository) GetUserByUsername(username string) (user.User, error) {
	return repo.getUser(`username = $1`, username)
}

func (repo *userRepository) GetUserByUsernameOrEmail(username string) (user.User, error) {
	return repo.getUser(`username = $1 OR email = $1`, username)
}

func (repo *userRepository) GetUserByRoleID(roleID string) (user.User, error) {
	return repo.getUser(`role_id = $1`, roleID)
}

func (repo *userRepository) UpdateUser(usr user.User) (user.User, error) {
	res, err := repo.db.NamedExec(
		`UPDATE "user"
		 SET name = :name, username = :username, email = :email, role = :role,
			major = :major, is_active = :is_active, password_hash = :password_hash,
			failed_logins = :failed_logins, locked_until = :locked_until,
			updated_at = :updated_at, last_login = :last_login
		 WHERE id = :id`,
		usr,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo *userRepository) NextRoleID(prefix string, width int) (string, error) {
	return nextID(repo.db, prefix, width)
}
