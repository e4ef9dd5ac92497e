package main

import (
	"log"
	"os"

	"github.com/speakhq/speakadmin/apps/app"
	"github.com/speakhq/speakadmin/core"
	logsvc "github.com/speakhq/speakadmin/services/logger"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	a, err := app.New(conf, logger)
	if err != nil {
		logger.Fatal("setting up application", err)
	}

	cli := commandLine{app: a, out: os.Stdout}
	err = cli.run(os.Args)
	if err != nil && err != errHelp {
		logger.Error("admin command failed", err)
	}
	_ = a.Close()
	logger.Close()
	if err != nil {
		os.Exit(1)
	}
}
