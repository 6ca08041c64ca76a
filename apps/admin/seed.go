package main

import (
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/user"
)

// demo users; usable out of the box for local development.
var demoUsers = []user.NewUser{
	{Name: "Admin User", Username: "admin", Email: "admin@sas.local", Role: user.RoleAdmin, Password: "admin123"},
	{Name: "Lecturer One", Username: "lec1", Email: "lec1@sas.local", Role: user.RoleLecturer, Password: "lec123"},
	{Name: "Student One", Username: "stu1", Email: "stu1@sas.local", Role: user.RoleStudent, Major: "Software Engineering", Password: "stu123"},
}

// seed creates the demo users. It is a no-op when the admin already exists.
func (cli *commandLine) seed() error {
	if _, err := cli.usrSvc.GetByUsername("admin"); err == nil {
		logger.Println("already seeded")
		return nil
	} else if err != user.ErrNotFound {
		return errors.Wrap(err, "checking seed")
	}

	for _, nu := range demoUsers {
		usr, err := cli.usrSvc.Create(nu)
		if err != nil {
			return errors.Wrapf(err, "creating %s", nu.Username)
		}
		logger.Printf("created %s (%s)", usr.Username, usr.RoleID)
	}
	return nil
}
