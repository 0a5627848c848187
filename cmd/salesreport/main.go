package main

import (
	"os"

	"go.uber.org/zap"

	"github.com/mamadbah2/salesreport/pkg/logger"
)

func main() {
	log := logger.Must(logger.New(os.Getenv("LOG_LEVEL")))
	defer func() { _ = log.Sync() }()

	if err := newApp(log).Run(os.Args); err != nil {
		log.Fatal("salesreport failed", zap.Error(err))
	}
}
