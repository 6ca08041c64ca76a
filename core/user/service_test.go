package user_test

import (
	"testing"

	"github.com/trezcool/mahudhurio/core/user"
	inmemdb "github.com/trezcool/mahudhurio/storage/database/inmem"
)

func setup(t *testing.T) *user.Service {
	t.Helper()
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("opening DB: %v", err)
	}
	return user.NewService(inmemdb.NewUserRepository(db))
}

func createUser(t *testing.T, svc *user.Service, uname, role string) user.User {
	t.Helper()
	usr, err := svc.Create(user.NewUser{
		Name:     "Test " + uname,
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

func TestServiceCreateAllocatesRoleIDs(t *testing.T) {
	svc := setup(t)

	tests := []struct {
		uname string
		role  string
		want  string
	}{
		{uname: "stu1", role: user.RoleStudent, want: "STU001"},
		{uname: "stu2", role: user.RoleStudent, want: "STU002"},
		{uname: "lec1", role: user.RoleLecturer, want: "LEC001"},
		{uname: "admin", role: user.RoleAdmin, want: "AD001"},
		{uname: "stu3", role: user.RoleStudent, want: "STU003"},
	}
	for _, tt := range tests {
		usr := createUser(t, svc, tt.uname, tt.role)
		if usr.RoleID != tt.want {
			t.Errorf("%s: RoleID = %q; want %q", tt.uname, usr.RoleID, tt.want)
		}
		if !usr.IsActive {
			t.Errorf("%s: not active", tt.uname)
		}

		got, err := svc.GetByRoleID(" " + tt.want + " ")
		if err != nil {
			t.Fatalf("GetByRoleID(%s) failed: %v", tt.want, err)
		}
		if got.ID != usr.ID {
			t.Errorf("GetByRoleID(%s) = %s; want %s", tt.want, got.ID, usr.ID)
		}
	}
}

func TestServiceAuthenticate(t *testing.T) {
	svc := setup(t)
	createUser(t, svc, "stu1", user.RoleStudent)

	if _, err := svc.Authenticate("nobody", "LeTests#2021"); err != user.ErrNotFound {
		t.Errorf("unknown user error = %v; want ErrNotFound", err)
	}
	if _, err := svc.Authenticate("stu1", "wrong"); err != user.ErrNotFound {
		t.Errorf("wrong password error = %v; want ErrNotFound", err)
	}

	for _, uname := range []string{"stu1", "STU1 ", "stu1@test.cd"} {
		usr, err := svc.Authenticate(uname, "LeTests#2021")
		if err != nil {
			t.Fatalf("Authenticate(%q) failed: %v", uname, err)
		}
		if !usr.LastLogin.Valid {
			t.Errorf("Authenticate(%q): last login not stamped", uname)
		}
	}
}

func TestServiceAuthenticateLockout(t *testing.T) {
	svc := setup(t)
	createUser(t, svc, "stu1", user.RoleStudent)

	for i := 0; i < 5; i++ {
		if _, err := svc.Authenticate("stu1", "wrong"); err != user.ErrNotFound {
			t.Fatalf("failure %d error = %v; want ErrNotFound", i+1, err)
		}
	}

	// the lockout now rejects even the correct password
	if _, err := svc.Authenticate("stu1", "LeTests#2021"); err != user.ErrAccountLocked {
		t.Errorf("locked account error = %v; want ErrAccountLocked", err)
	}

	// a password reset clears the lockout
	if _, err := svc.ResetPassword("stu1", "NewPass#2021"); err != nil {
		t.Fatalf("ResetPassword() failed: %v", err)
	}
	usr, err := svc.Authenticate("stu1", "NewPass#2021")
	if err != nil {
		t.Fatalf("Authenticate() after reset failed: %v", err)
	}
	if usr.FailedLogins != 0 || usr.LockedUntil.Valid {
		t.Errorf("lockout state not cleared: %+v", usr)
	}
}

func TestServiceAuthenticateFailureCounterResets(t *testing.T) {
	svc := setup(t)
	createUser(t, svc, "stu1", user.RoleStudent)

	for i := 0; i < 4; i++ {
		if _, err := svc.Authenticate("stu1", "wrong"); err != user.ErrNotFound {
			t.Fatalf("failure %d error = %v; want ErrNotFound", i+1, err)
		}
	}
	usr, err := svc.Authenticate("stu1", "LeTests#2021")
	if err != nil {
		t.Fatalf("Authenticate() failed: %v", err)
	}
	if usr.FailedLogins != 0 {
		t.Errorf("FailedLogins = %d; want 0", usr.FailedLogins)
	}

	// the slate is clean, four more failures do not lock
	for i := 0; i < 4; i++ {
		if _, err := svc.Authenticate("stu1", "wrong"); err != user.ErrNotFound {
			t.Fatalf("post-reset failure %d error = %v; want ErrNotFound", i+1, err)
		}
	}
	if _, err := svc.Authenticate("stu1", "LeTests#2021"); err != nil {
		t.Errorf("Authenticate() failed: %v", err)
	}
}

func TestServiceCheckUniqueness(t *testing.T) {
	svc := setup(t)
	usr := createUser(t, svc, "stu1", user.RoleStudent)

	if err := svc.CheckUniqueness("stu2", "stu2@test.cd"); err != nil {
		t.Errorf("fresh identity error = %v; want nil", err)
	}
	if err := svc.CheckUniqueness("stu1", "other@test.cd"); err == nil {
		t.Error("expected a username clash")
	}
	if err := svc.CheckUniqueness("other", "stu1@test.cd"); err == nil {
		t.Error("expected an email clash")
	}
	// the user themselves is excluded on update
	if err := svc.CheckUniqueness("stu1", "stu1@test.cd", usr); err != nil {
		t.Errorf("self-excluded error = %v; want nil", err)
	}
}

func TestServiceStudents(t *testing.T) {
	svc := setup(t)
	createUser(t, svc, "stu1", user.RoleStudent)
	createUser(t, svc, "lec1", user.RoleLecturer)
	createUser(t, svc, "stu2", user.RoleStudent)

	students, err := svc.Students()
	if err != nil {
		t.Fatalf("Students() failed: %v", err)
	}
	if len(students) != 2 {
		t.Fatalf("len(students) = %d; want 2", len(students))
	}
	for _, stu := range students {
		if !stu.IsStudent() {
			t.Errorf("%s is not a student", stu.Username)
		}
	}
}
