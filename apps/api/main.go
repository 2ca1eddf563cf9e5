package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/trezcool/wazazi/apps/api/echo"
	"github.com/trezcool/wazazi/core"
	"github.com/trezcool/wazazi/core/account"
	"github.com/trezcool/wazazi/core/billing"
	"github.com/trezcool/wazazi/core/family"
	"github.com/trezcool/wazazi/core/school"
	emailsvc "github.com/trezcool/wazazi/services/email"
	logsvc "github.com/trezcool/wazazi/services/logger"
	"github.com/trezcool/wazazi/storage/database"
	pgrepos "github.com/trezcool/wazazi/storage/database/postgres"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error(fmt.Sprintf("closing database: %v", err), err)
		}
	}()
	sqlxDB := sqlx.NewDb(db, conf.Database.Engine)

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	accountSvc := account.NewService(pgrepos.NewProfileRepository(sqlxDB))
	schoolSvc := school.NewService(pgrepos.NewSchoolRepository(sqlxDB))
	familySvc := family.NewService(pgrepos.NewFamilyRepository(sqlxDB))
	billingSvc := billing.NewService(pgrepos.NewBillingRepository(sqlxDB), mailSvc, conf, logger)

	// =========================================================================
	// Start API Service

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	server := echoapi.NewServer(&echoapi.Options{
		Address:    conf.Server.Addr(),
		Conf:       conf,
		Logger:     logger,
		AccountSvc: accountSvc,
		SchoolSvc:  schoolSvc,
		FamilySvc:  familySvc,
		BillingSvc: billingSvc,
		SignalShutdown: func() {
			shutdown <- syscall.SIGTERM
		},
	})

	go server.Start()

	// =========================================================================
	// Shutdown

	sig := <-shutdown
	logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

	// give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()

	if err = server.Stop(ctx); err != nil {
		logger.Fatal(fmt.Sprintf("could not stop server gracefully: %v", err), err)
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
