package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/backup"
	"github.com/trezcool/escola/core/roster"
	"github.com/trezcool/escola/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf      *core.Config
	usrSvc    *user.Service
	backupSvc *backup.Service
	rosterSvc *roster.Service
	out       io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  adduser -name NAME -email EMAIL [-role admin|teacher] - create a staff user")
	fmt.Fprintln(cli.out, "  resetpassword -email EMAIL - reset user's password")
	fmt.Fprintln(cli.out, "  seedadmin - create the configured admin on first run")
	fmt.Fprintln(cli.out, "  export [-o FILE] - write a full backup (stdout by default)")
	fmt.Fprintln(cli.out, "  import -f FILE - replace every record with the backup in FILE")
	fmt.Fprintln(cli.out, "  roster -f FILE.xlsx [-teacher ID] - import a spreadsheet roster")
	fmt.Fprintln(cli.out, "  autobackup - take an auto backup snapshot now")
	fmt.Fprintln(cli.out, "  migrate - set up the postgres store")
}

// readPassword prompts for a password; an empty one prints the usage of cmd.
func (cli *commandLine) readPassword(cmd *flag.FlagSet) (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		cmd.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserEmail := addUserCmd.String("email", "", "The user's email. The password will be prompted next.")
	addUserRole := addUserCmd.String("role", user.RoleTeacher, "The user's role: admin or teacher.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The user's email. The password will be prompted next.")

	exportCmd := flag.NewFlagSet("export", flag.ContinueOnError)
	exportFile := exportCmd.String("o", "", "The output file.")

	importCmd := flag.NewFlagSet("import", flag.ContinueOnError)
	importFile := importCmd.String("f", "", "The backup file.")

	rosterCmd := flag.NewFlagSet("roster", flag.ContinueOnError)
	rosterFile := rosterCmd.String("f", "", "The .xlsx roster.")
	rosterTeacher := rosterCmd.String("teacher", "", "The teacher of classes whose teacher is unknown. Defaults to the seed admin.")

	for _, cmd := range []*flag.FlagSet{addUserCmd, resetPasswordCmd, exportCmd, importCmd, rosterCmd} {
		cmd.SetOutput(cli.out)
	}

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *addUserName == "" || *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.readPassword(addUserCmd)
		if err != nil {
			return err
		}
		return cli.addUser(*addUserName, *addUserEmail, *addUserRole, pwd)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.readPassword(resetPasswordCmd)
		if err != nil {
			return err
		}
		return cli.resetPassword(*resetPasswordEmail, pwd)

	case "seedadmin":
		return cli.seedAdmin()

	case "export":
		if err := exportCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.export(*exportFile)

	case "import":
		if err := importCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *importFile == "" {
			importCmd.Usage()
			return errHelp
		}
		return cli.restore(*importFile)

	case "roster":
		if err := rosterCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *rosterFile == "" {
			rosterCmd.Usage()
			return errHelp
		}
		return cli.importRoster(*rosterFile, *rosterTeacher)

	case "autobackup":
		return cli.autoBackup()

	case "migrate":
		return cli.migrate()

	default:
		cli.printUsage()
		return errHelp
	}
}
