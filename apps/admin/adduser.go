package main

import (
	"context"

	"github.com/trezcool/escola/core/user"
)

// addUser creates a staff user.User
func (cli *commandLine) addUser(name, email, role, pwd string) error {
	usr, err := cli.usrSvc.Create(context.Background(), user.NewUser{
		Name:            name,
		Email:           email,
		Role:            role,
		Password:        pwd,
		PasswordConfirm: pwd,
	})
	if err != nil {
		return err
	}
	cli.printf("%s %q created with ID %s\n", usr.Role, usr.Email, usr.ID)
	return nil
}
