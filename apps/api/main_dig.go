package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"

	dig_container "github.com/trezcool/escola/apps/api/di/dig"
	echoapi "github.com/trezcool/escola/apps/api/echo"
	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/backup"
	"github.com/trezcool/escola/core/user"
)

func startWithDig() {
	c := dig_container.New()

	must(c.Invoke(func(
		conf *core.Config,
		apiLogger core.Logger,
		storeLoggerParam dig_container.StoreLoggerParam,
		closeStore dig_container.StoreCloser,
		closeAssistant dig_container.AssistantCloser,
		usrSvc *user.Service,
		backupSvc *backup.Service,
		server *echoapi.Server,
	) {
		// =========================================================================
		// Initialize App

		apiLogger.Info(fmt.Sprintf("Application initializing : %v", conf))

		core.ParseEmailTemplates(conf, apiLogger)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		if admin, created, err := usrSvc.SeedAdmin(ctx, conf.Admin); err != nil {
			apiLogger.Error(fmt.Sprintf("seeding admin: %v", err), err)
		} else if created {
			apiLogger.Info(fmt.Sprintf("admin %q seeded", admin.Email))
		}

		storeLogger := storeLoggerParam.Logger
		defer func() {
			if err := closeStore(); err != nil {
				storeLogger.Fatal("Failed to close", err)
			}
		}()
		defer func() {
			if err := closeAssistant(); err != nil {
				apiLogger.Error("Failed to close tutor assistant", err)
			}
		}()
		defer apiLogger.Info("Application stopped")

		// =========================================================================
		// Start Auto Backups

		go backupSvc.Loop(ctx, conf.Backup.AutoInterval)

		// =========================================================================
		// Start Debug Service
		//
		// /debug/vars - Added to the default mux by importing the expvar package.

		// Expose important info under /debug/vars.
		expvar.NewString("build").Set(conf.Build)
		expvar.NewString("env").Set(conf.Env)
		expvar.NewString("store").Set(conf.Store.Driver)

		go func() {
			if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
				apiLogger.Error(fmt.Sprintf("debug server closed: %v", err), err)
			}
		}()

		// =========================================================================
		// Start API Service

		go func() {
			server.Start()
		}()

		// =========================================================================
		// Shutdown

		select {
		case err := <-server.Errors():
			apiLogger.Fatal(fmt.Sprintf("server error: %v", err), err)

		case sig := <-server.ShutdownSignal():
			apiLogger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

			// give outstanding requests a deadline for completion
			sctx, scancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
			defer scancel()

			// asking listener to shut down and shed load
			if err := server.Shutdown(sctx); err != nil {
				apiLogger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

				if err = server.Close(); err != nil {
					apiLogger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
				}
			}
		}
	}))
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
