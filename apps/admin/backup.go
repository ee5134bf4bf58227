package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/escola/core/user"
	"github.com/trezcool/escola/services/spreadsheet"
)

func (cli *commandLine) printf(format string, args ...interface{}) {
	fmt.Fprintf(cli.out, format, args...)
}

// export writes the backup document to file, or to the output when file is empty.
func (cli *commandLine) export(file string) error {
	data := cli.backupSvc.Export(context.Background())
	if file == "" {
		_, err := cli.out.Write(data)
		return err
	}
	if err := os.WriteFile(file, data, 0o600); err != nil {
		return errors.Wrap(err, "writing backup")
	}
	cli.printf("backup written to %s\n", file)
	return nil
}

func (cli *commandLine) restore(file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return errors.Wrap(err, "reading backup")
	}
	if err = cli.backupSvc.Restore(context.Background(), data); err != nil {
		return err
	}
	cli.printf("backup %s restored\n", file)
	return nil
}

func (cli *commandLine) importRoster(file, teacherID string) error {
	f, err := os.Open(file)
	if err != nil {
		return errors.Wrap(err, "opening roster")
	}
	defer f.Close()

	rows, err := spreadsheet.ReadRoster(f)
	if err != nil {
		return err
	}
	if teacherID == "" {
		teacherID = user.SeedAdminID
	}
	rep, err := cli.rosterSvc.Import(context.Background(), rows, teacherID)
	if err != nil {
		return err
	}
	cli.printf("classes created: %d, reused: %d, students enrolled: %d\n",
		rep.ClassesCreated, rep.ClassesReused, rep.StudentsEnrolled)
	for _, s := range rep.Skipped {
		cli.printf("skipped %s\n", s)
	}
	return nil
}

func (cli *commandLine) autoBackup() error {
	if !cli.backupSvc.RunAutoBackup(context.Background()) {
		return errors.New("auto backup failed, the store may be full")
	}
	cli.printf("auto backup stored\n")
	return nil
}
