package user

import (
	"errors"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/mahudhurio/core"
)

var (
	nowFunc = core.Now // mockable

	// errors
	ErrNotFound       = errors.New("user not found")
	ErrEmailExists    = errors.New("a user with this email already exists")
	ErrUsernameExists = errors.New("a user with this username already exists")
	ErrAccountLocked  = errors.New("account locked after too many failed logins")
)

// Failed-login lockout policy: maxFailedLogins consecutive failures lock the
// account for lockoutDelta.
const (
	maxFailedLogins = 5
	lockoutDelta    = 5 * time.Minute
)

type (
	Repository interface {
		CheckUsernameUniqueness(username, email string, excludedUsers ...User) error
		CreateUser(usr User) (User, error)
		QueryAllUsers() ([]User, error)
		// QueryUsersByRole returns users holding `role`, ordered by name.
		QueryUsersByRole(role string) ([]User, error)
		GetUserByID(id string) (User, error)
		GetUserByUsername(username string) (User, error)
		GetUserByUsernameOrEmail(username string) (User, error)
		// GetUserByRoleID resolves a human-readable role identifier (STU001...).
		GetUserByRoleID(roleID string) (User, error)
		UpdateUser(usr User) (User, error)
		// NextRoleID atomically allocates the next role identifier for prefix.
		NextRoleID(prefix string, width int) (string, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) CheckUniqueness(uname, email string, exclUsers ...User) error {
	if err := svc.repo.CheckUsernameUniqueness(uname, email, exclUsers...); err != nil {
		var field string
		switch err {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

func (svc *Service) Create(nu NewUser) (User, error) {
	prefix := rolePrefix(nu.Role)
	roleID, err := svc.repo.NextRoleID(prefix, core.Conf.Attendance.SessionIDWidth)
	if err != nil {
		return User{}, err
	}

	now := nowFunc()
	usr := User{
		Name:      nu.Name,
		Username:  nu.Username,
		Email:     nu.Email,
		Role:      nu.Role,
		RoleID:    roleID,
		Major:     null.NewString(nu.Major, nu.Major != ""),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(usr)
}

func (svc *Service) QueryAll() ([]User, error) {
	return svc.repo.QueryAllUsers()
}

// Students returns the full roster, the population backfilled on session close.
func (svc *Service) Students() ([]User, error) {
	return svc.repo.QueryUsersByRole(RoleStudent)
}

func (svc *Service) GetByID(id string) (User, error) {
	return svc.repo.GetUserByID(id)
}

func (svc *Service) GetByUsername(uname string) (User, error) {
	return svc.repo.GetUserByUsername(core.CleanString(uname, true /* lower */))
}

func (svc *Service) GetByUsernameOrEmail(uname string) (User, error) {
	return svc.repo.GetUserByUsernameOrEmail(core.CleanString(uname, true /* lower */))
}

func (svc *Service) GetByRoleID(roleID string) (User, error) {
	return svc.repo.GetUserByRoleID(core.CleanString(roleID))
}

// Authenticate verifies credentials and applies the lockout policy: a wrong
// password bumps the failure counter, the maxFailedLogins-th failure locks
// the account, and a locked account rejects even a correct password.
func (svc *Service) Authenticate(uname, pwd string) (User, error) {
	usr, err := svc.GetByUsernameOrEmail(uname)
	if err != nil {
		return User{}, err
	}

	now := nowFunc()
	if usr.IsLocked(now) {
		return User{}, ErrAccountLocked
	}

	if err := usr.CheckPassword(pwd); err != nil {
		usr.FailedLogins++
		if usr.FailedLogins >= maxFailedLogins {
			usr.LockedUntil = null.TimeFrom(now.Add(lockoutDelta))
		}
		if _, uerr := svc.repo.UpdateUser(usr); uerr != nil {
			return User{}, uerr
		}
		return User{}, ErrNotFound
	}

	usr.FailedLogins = 0
	usr.LockedUntil = null.Time{}
	usr.LastLogin = null.TimeFrom(now)
	return svc.repo.UpdateUser(usr)
}

// ResetPassword sets a new password and clears any lockout.
func (svc *Service) ResetPassword(uname, pwd string) (User, error) {
	usr, err := svc.GetByUsernameOrEmail(uname)
	if err != nil {
		return User{}, err
	}
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, err
	}
	usr.FailedLogins = 0
	usr.LockedUntil = null.Time{}
	usr.UpdatedAt = nowFunc()
	return svc.repo.UpdateUser(usr)
}

func rolePrefix(role string) string {
	switch role {
	case RoleLecturer:
		return LecturerIDPrefix
	case RoleAdmin:
		return AdminIDPrefix
	default:
		return StudentIDPrefix
	}
}
