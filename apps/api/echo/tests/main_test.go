package tests

import (
	"io"
	"log"
	"os"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	. "github.com/pfebridge/pfebridge/apps/api/echo"
	"github.com/pfebridge/pfebridge/core"
	"github.com/pfebridge/pfebridge/core/defense"
	"github.com/pfebridge/pfebridge/core/professor"
	"github.com/pfebridge/pfebridge/core/subject"
	"github.com/pfebridge/pfebridge/core/user"
	emailsvc "github.com/pfebridge/pfebridge/services/email"
	logsvc "github.com/pfebridge/pfebridge/services/logger"
	dummydb "github.com/pfebridge/pfebridge/storage/database/dummy"
)

func TestMain(m *testing.M) {
	conf := core.Conf
	conf.TestMode = true
	conf.Debug = false

	// set up DB & repos
	db, err := dummydb.Open()
	if err != nil {
		log.Fatalf("dummydb.Open(): %v", err)
	}
	usrRepo = dummydb.NewUserRepository(db)
	profRepo = dummydb.NewProfessorRepository(db)
	subjRepo = dummydb.NewSubjectRepository(db)
	defRepo = dummydb.NewDefenseRepository(db)

	// set up services
	logger := logsvc.NewStdLogger(log.New(io.Discard, "", 0))
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc = user.NewService(usrRepo, mailSvc, conf)
	profSvc := professor.NewService(profRepo)
	subjSvc := subject.NewService(subjRepo)
	defSvc := defense.NewService(defRepo, profRepo, subjRepo, nil /* sink */, logger, conf)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	core.ParseEmailTemplates()

	// set up server
	server = NewServer(
		ServerDeps{
			Conf:           conf,
			Logger:         logger,
			UserSvc:        usrSvc,
			ProfessorSvc:   profSvc,
			SubjectSvc:     subjSvc,
			DefenseSvc:     defSvc,
			Validate:       validate,
			Translator:     translator,
			DisableReqLogs: true,
		},
	)

	os.Exit(m.Run())
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
