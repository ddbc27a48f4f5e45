package main

import (
	"context"
	"database/sql"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/pfebridge/pfebridge/apps/api/echo"
	"github.com/pfebridge/pfebridge/core"
	"github.com/pfebridge/pfebridge/core/defense"
	"github.com/pfebridge/pfebridge/core/professor"
	"github.com/pfebridge/pfebridge/core/subject"
	"github.com/pfebridge/pfebridge/core/user"
	emailsvc "github.com/pfebridge/pfebridge/services/email"
	logsvc "github.com/pfebridge/pfebridge/services/logger"
	"github.com/pfebridge/pfebridge/storage/database"
	sqlxrepos "github.com/pfebridge/pfebridge/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.Conf

	// set up loggers
	var logger core.Logger
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	if conf.Debug {
		logger = logsvc.NewStdLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, conf)
	}

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error(fmt.Sprintf("closing database: %v", err), err)
		}
	}()
	sdb := sqlx.NewDb(db, conf.Database.Engine)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	profRepo := sqlxrepos.NewProfessorRepository(sdb)
	subjRepo := sqlxrepos.NewSubjectRepository(sdb)

	usrSvc := user.NewService(sqlxrepos.NewUserRepository(sdb), mailSvc, conf)
	profSvc := professor.NewService(profRepo)
	subjSvc := subject.NewService(subjRepo)
	defSvc := defense.NewService(
		sqlxrepos.NewDefenseRepository(sdb),
		profRepo,
		subjRepo,
		defense.NewMailSink(mailSvc, profRepo, logger),
		logger,
		conf,
	)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	core.ParseEmailTemplates()

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugAddr, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:         conf,
			Logger:       logger,
			UserSvc:      usrSvc,
			ProfessorSvc: profSvc,
			SubjectSvc:   subjSvc,
			DefenseSvc:   defSvc,
			Validate:     validate,
			Translator:   translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sql.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
