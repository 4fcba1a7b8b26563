package main

import (
	"log"

	"originfunc/pkg/config"
	"originfunc/pkg/function"
	z "originfunc/pkg/lambda"
	"originfunc/pkg/logger"
	"originfunc/pkg/validator"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	// front ends read amounts as numbers
	decimal.MarshalJSONWithoutQuotes = true

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	l, err := logger.New(cfg.Debug)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync(l)

	v, err := validator.New(cfg.Validator(), validator.WithLogger(l))
	if err != nil {
		l.Fatal("invalid configuration", zap.Error(err))
	}

	h := z.NewHandler(v, function.Run, l)

	l.Info("starting function",
		zap.String("subdomain", cfg.Subdomain),
		zap.String("event_format", cfg.EventFormat),
	)
	if cfg.EventFormat == config.EventFormatV2 {
		lambda.Start(h.HandleHTTP)
		return
	}
	lambda.Start(h.HandleProxy)
}
