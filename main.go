package main

import (
	"context"
	"formflow/account"
	"formflow/client/es"
	"formflow/common"
	"formflow/domain/flow"
	"formflow/domain/notify"
	"formflow/domain/submission"
	"formflow/event"
	"formflow/indices"
	"formflow/infra/tracing"
	"formflow/persistence"
	"formflow/servehttp"
	"formflow/session"
	"formflow/sessions"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

func main() {
	logrus.Info("service start")

	closer := tracing.InitGlobalTracer(common.GetServiceName())
	defer closer.Close()

	dbConfig, err := persistence.ParseDatabaseConfigFromEnv()
	if err != nil {
		logrus.Fatalf("parse database config failed %v\n", err)
	}

	// create database (no conflict)
	if dbConfig.DriverType == "mysql" {
		if err := persistence.PrepareMysqlDatabase(dbConfig.DriverArgs); err != nil {
			logrus.Fatalf("failed to prepare database %v\n", err)
		}
	}

	// connect database
	persistence.ActiveDataSourceManager = &persistence.DataSourceManager{DatabaseConfig: dbConfig}
	if err := persistence.ActiveDataSourceManager.Start(); err != nil {
		logrus.Fatalf("database conneciton failed %v\n", err)
	}
	defer persistence.ActiveDataSourceManager.Stop()

	// database migration (race condition)
	models := []interface{}{
		&flow.Workflow{}, &flow.WorkflowState{}, &flow.WorkflowTransition{}, &flow.FormDefinition{},
		&submission.Submission{}, &submission.TransitionStep{}, &event.EventRecord{},
	}
	models = append(models, account.Models()...)
	if err := persistence.ActiveDataSourceManager.GormDB(context.Background()).AutoMigrate(models...).Error; err != nil {
		logrus.Fatalf("database migration failed %v\n", err)
	}
	if err := account.DefaultSecurityConfiguration(context.Background()); err != nil {
		logrus.Fatalf("security configuration failed %v\n", err)
	}

	emitter := event.NewEmitter(event.LogDispatcher{}, event.EmitterOptionsFromEnv())
	emitter.Start()
	defer emitter.Stop()

	directory := account.NewDirectory(common.EnvDuration("DIRECTORY_CACHE_TTL", time.Minute))
	submission.ActiveExecutor = submission.NewExecutor(submission.GormStateStore{}, notify.NewResolver(directory), emitter)

	engine := servehttp.BuildHttpEngine()
	if os.Getenv("ELASTICSEARCH_URL") != "" {
		es.CreateClientFromEnv()
		if err := indices.EnsureWorkflowIndex(context.Background()); err != nil {
			logrus.Warnf("failed to prepare workflow index: %v", err)
		}
		event.EventHandlers = append(event.EventHandlers, indices.IndexWorkflowEventHandle)
		crontab, err := indices.StartCron()
		if err != nil {
			logrus.Fatalf("failed to schedule index sync %v\n", err)
		}
		if crontab != nil {
			defer crontab.Stop()
		}
		indices.RegisterIndicesRestAPI(engine, session.SimpleAuthFilter())
	}

	sessions.RegisterSessionsHandler(engine)
	sessions.RegisterSessionHandler(engine, session.SimpleAuthFilter())
	account.RegisterUsersHandler(engine, session.SimpleAuthFilter())
	servehttp.RegisterWorkflowHandler(engine, session.SimpleAuthFilter())
	servehttp.RegisterFormHandler(engine, session.SimpleAuthFilter())
	servehttp.RegisterSubmissionHandler(engine, session.SimpleAuthFilter())
	servehttp.RegisterEventHandler(engine, session.SimpleAuthFilter())

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":80"
	}
	servehttp.StartHTTPServer(engine, addr, directory.Flush)
}
