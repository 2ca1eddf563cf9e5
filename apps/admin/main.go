package main

import (
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/wazazi/core"
	"github.com/trezcool/wazazi/storage/database"
	pgrepos "github.com/trezcool/wazazi/storage/database/postgres"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal(err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(err)
	}
	defer func() { _ = db.Close() }()
	sqlxDB := sqlx.NewDb(db, conf.Database.Engine)

	// start CLI
	cli := commandLine{
		db:          db,
		profileRepo: pgrepos.NewProfileRepository(sqlxDB),
		familyRepo:  pgrepos.NewFamilyRepository(sqlxDB),
		schoolRepo:  pgrepos.NewSchoolRepository(sqlxDB),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
