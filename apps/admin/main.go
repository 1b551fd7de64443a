package main

import (
	"context"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/topphysics/core"
	"github.com/trezcool/topphysics/core/assistant"
	logsvc "github.com/trezcool/topphysics/services/logger"
	"github.com/trezcool/topphysics/storage"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.NewConfig()

	dbLogger := logsvc.NewRollbarLogger(logger, conf)
	dbLogger.Enable(false)

	// set up DB
	ctx, cancel := context.WithTimeout(context.Background(), conf.Database.Timeout)
	stores, err := storage.Open(ctx, conf, dbLogger, false /* migrate */)
	cancel()
	errAndDie(err)
	defer func() { _ = stores.Close(context.Background()) }()

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	assistant.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		db:         stores.DB,
		astSvc:     assistant.NewService(stores.Assistants, validate),
		translator: translator,
		out:        os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
