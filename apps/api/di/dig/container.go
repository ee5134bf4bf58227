package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/escola/apps/api/echo"
	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/backup"
	"github.com/trezcool/escola/core/class"
	"github.com/trezcool/escola/core/feedback"
	"github.com/trezcool/escola/core/grading"
	"github.com/trezcool/escola/core/quiz"
	"github.com/trezcool/escola/core/report"
	"github.com/trezcool/escola/core/roster"
	"github.com/trezcool/escola/core/settings"
	"github.com/trezcool/escola/core/student"
	"github.com/trezcool/escola/core/tutor"
	"github.com/trezcool/escola/core/user"
	aisvc "github.com/trezcool/escola/services/ai"
	emailsvc "github.com/trezcool/escola/services/email"
	logsvc "github.com/trezcool/escola/services/logger"
	"github.com/trezcool/escola/services/spreadsheet"
	"github.com/trezcool/escola/storage/kv"
	recordrepos "github.com/trezcool/escola/storage/records"
)

type (
	// StoreCloser releases the store backend.
	StoreCloser func() error

	// AssistantCloser releases the tutor assistant.
	AssistantCloser func() error

	StoreLoggerParam struct {
		dig.In
		Logger core.Logger `name:"storeLogger"`
	}

	depsParam struct {
		dig.In

		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator

		UserSvc     *user.Service
		ClassSvc    *class.Service
		StudentSvc  *student.Service
		GradingSvc  *grading.Service
		FeedbackSvc *feedback.Service
		QuizSvc     *quiz.Service
		TutorSvc    *tutor.Service
		SettingsSvc *settings.Service
		BackupSvc   *backup.Service
		RosterSvc   *roster.Service
		ReportSvc   *report.Service
	}
)

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newStoreLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "STORE : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newStore(conf *core.Config, loggerParam StoreLoggerParam) (core.KVStore, StoreCloser) {
	store, closeStore, err := kv.Open(context.Background(), conf.Store)
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("opening %s store: %v", conf.Store.Driver, err), err)
	}
	return store, closeStore
}

func newRecords(store core.KVStore, loggerParam StoreLoggerParam) *core.Records {
	return core.NewRecords(store, loggerParam.Logger)
}

func newTranslator() ut.Translator {
	return core.NewTranslator()
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	feedback.InitValidators(validate, translator)
	return validate
}

func newAssistant(conf *core.Config, logger core.Logger) (tutor.Assistant, AssistantCloser) {
	assistant, closeAssistant, err := aisvc.New(context.Background(), conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up tutor assistant: %v", err), err)
	}
	return assistant, closeAssistant
}

func newGradebookWriter() report.GradebookWriter {
	return spreadsheet.WriteGradebook
}

func newServer(p depsParam) *echoapi.Server {
	return echoapi.NewServer(&echoapi.Deps{
		Conf:        p.Conf,
		Logger:      p.Logger,
		Validate:    p.Validate,
		Translator:  p.Translator,
		UserSvc:     p.UserSvc,
		ClassSvc:    p.ClassSvc,
		StudentSvc:  p.StudentSvc,
		GradingSvc:  p.GradingSvc,
		FeedbackSvc: p.FeedbackSvc,
		QuizSvc:     p.QuizSvc,
		TutorSvc:    p.TutorSvc,
		SettingsSvc: p.SettingsSvc,
		BackupSvc:   p.BackupSvc,
		RosterSvc:   p.RosterSvc,
		ReportSvc:   p.ReportSvc,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newStoreLogger, dig.Name("storeLogger")))
	must(c.Provide(newStore))
	must(c.Provide(newRecords))
	must(c.Provide(recordrepos.NewDB))
	must(c.Provide(newTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(emailsvc.New))
	must(c.Provide(newAssistant))
	must(c.Provide(newGradebookWriter))

	// repositories
	must(c.Provide(recordrepos.NewUserRepository))
	must(c.Provide(recordrepos.NewClassRepository))
	must(c.Provide(recordrepos.NewStudentRepository))
	must(c.Provide(recordrepos.NewGradingRepository))
	must(c.Provide(recordrepos.NewFeedbackRepository))
	must(c.Provide(recordrepos.NewQuizRepository))
	must(c.Provide(recordrepos.NewSettingsRepository))

	// services
	must(c.Provide(user.NewService))
	must(c.Provide(class.NewService))
	must(c.Provide(student.NewService))
	must(c.Provide(grading.NewService))
	must(c.Provide(feedback.NewService))
	must(c.Provide(quiz.NewService))
	must(c.Provide(tutor.NewService))
	must(c.Provide(settings.NewService))
	must(c.Provide(backup.NewService))
	must(c.Provide(roster.NewService))
	must(c.Provide(report.NewService))

	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
