package user

import (
	"time"

	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/mahudhurio/core"
)

// Roles
const (
	RoleStudent  = "student"
	RoleLecturer = "lecturer"
	RoleAdmin    = "admin"
)

var AllRoles = []string{RoleStudent, RoleLecturer, RoleAdmin}

// Role-ID prefixes used when allocating human-readable identifiers.
const (
	StudentIDPrefix  = "STU"
	LecturerIDPrefix = "LEC"
	AdminIDPrefix    = "AD"
)

type User struct {
	ID       string `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	Username string `json:"username" db:"username"`
	Email    string `json:"email" db:"email"`
	Role     string `json:"role" db:"role"`
	// RoleID is the human-readable per-role identifier shown to people
	// (STU001, LEC001, AD001). The engine never derives anything from it.
	RoleID       string      `json:"role_id" db:"role_id"`
	Major        null.String `json:"major,omitempty" db:"major"`
	IsActive     bool        `json:"is_active" db:"is_active"`
	PasswordHash []byte      `json:"-" db:"password_hash"`
	FailedLogins int         `json:"-" db:"failed_logins"`
	LockedUntil  null.Time   `json:"-" db:"locked_until"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"` // UTC
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"` // UTC
	LastLogin    null.Time   `json:"last_login" db:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsAdmin() bool    { return u.Role == RoleAdmin }
func (u *User) IsLecturer() bool { return u.Role == RoleLecturer }
func (u *User) IsStudent() bool  { return u.Role == RoleStudent }

// IsLocked reports whether the account is still under a failed-login lockout.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil.Valid && now.Before(u.LockedUntil.Time)
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string `json:"name" validate:"required"`
	Username        string `json:"username" validate:"required,min=4,alphanum_"`
	Email           string `json:"email" validate:"omitempty,email"`
	Role            string `json:"role" validate:"required,role_"`
	Major           string `json:"major"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Validate(svc *Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Major = core.CleanString(nu.Major)

	if err := core.Validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(nu.Username, nu.Email)
}
