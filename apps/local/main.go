package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"originfunc/pkg/config"
	"originfunc/pkg/function"
	"originfunc/pkg/lambda"
	"originfunc/pkg/local"
	"originfunc/pkg/logger"
	"originfunc/pkg/validator"

	"github.com/urfave/cli/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	app := &cli.App{
		Name:  "local",
		Usage: "serve the function over HTTP the way API Gateway would call it",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "port",
				Usage: "port to listen on (default FUNC_LOCAL_PORT)",
			},
			&cli.StringFlag{
				Name:  "subdomain",
				Usage: "application subdomain to accept (default FUNC_SUBDOMAIN)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "log request and response traces",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	decimal.MarshalJSONWithoutQuotes = true

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if c.IsSet("port") {
		cfg.LocalPort = c.String("port")
	}
	if c.IsSet("subdomain") {
		cfg.Subdomain = c.String("subdomain")
	}
	if c.Bool("debug") {
		cfg.Debug = true
	}

	l, err := logger.NewDevelopment(cfg.Debug)
	if err != nil {
		return err
	}
	defer logger.Sync(l)

	v, err := validator.New(cfg.Validator(), validator.WithLogger(l))
	if err != nil {
		return err
	}

	for _, d := range validator.AllowedDomains() {
		l.Info("accepting origin", zap.String("origin", "https://"+v.Subdomain()+"."+d))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s := local.NewServer(cfg.LocalPort, lambda.NewHandler(v, function.Run, l), l)
	return s.Run(ctx)
}
