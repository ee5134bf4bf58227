package main

import (
	"context"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/backup"
	"github.com/trezcool/escola/core/class"
	"github.com/trezcool/escola/core/feedback"
	"github.com/trezcool/escola/core/roster"
	"github.com/trezcool/escola/core/student"
	"github.com/trezcool/escola/core/user"
	logsvc "github.com/trezcool/escola/services/logger"
	"github.com/trezcool/escola/storage/kv"
	recordrepos "github.com/trezcool/escola/storage/records"
)

func main() {
	os.Exit(run())
}

func run() int {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	logger.Enable(!conf.Debug)

	cli := commandLine{conf: conf, out: os.Stdout}

	// migrate runs before the store is opened
	if len(os.Args) < 2 || os.Args[1] != "migrate" {
		store, closeStore, err := kv.Open(context.Background(), conf.Store)
		if err != nil {
			logger.Fatal("opening store", err)
		}
		defer func() {
			if err := closeStore(); err != nil {
				logger.Error("closing store", err)
			}
		}()

		validate := validator.New()
		translator := core.NewTranslator()
		core.InitValidators(validate, translator)
		user.InitValidators(validate, translator)
		feedback.InitValidators(validate, translator)

		rs := core.NewRecords(store, logger)
		db := recordrepos.NewDB(rs)
		usrRepo := recordrepos.NewUserRepository(db)
		classRepo := recordrepos.NewClassRepository(db)
		classSvc := class.NewService(classRepo, usrRepo, validate)
		stuSvc := student.NewService(recordrepos.NewStudentRepository(db), classRepo, usrRepo, validate)

		cli.usrSvc = user.NewService(usrRepo, validate)
		cli.backupSvc = backup.NewService(rs, logger)
		cli.rosterSvc = roster.NewService(classSvc, stuSvc, usrRepo, logger)
	}

	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("command failed", err)
		}
		return 1
	}
	return 0
}
