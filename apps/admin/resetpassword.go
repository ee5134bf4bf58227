package main

import (
	"context"
)

func (cli *commandLine) resetPassword(email, pwd string) error {
	_, err := cli.usrSvc.ResetPassword(context.Background(), email, pwd)
	return err
}

func (cli *commandLine) seedAdmin() error {
	usr, created, err := cli.usrSvc.SeedAdmin(context.Background(), cli.conf.Admin)
	if err != nil {
		return err
	}
	if created {
		cli.printf("admin %q created\n", usr.Email)
	} else {
		cli.printf("admin already seeded\n")
	}
	return nil
}
