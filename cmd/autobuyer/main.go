package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"slices"

	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/RajshekharX12/as/internal/auth"
	"github.com/RajshekharX12/as/internal/config"
	"github.com/RajshekharX12/as/internal/pkg/errs"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	tokenUser := flag.String("token", "", "print a control API token for the user and exit")
	flag.Parse()

	if *tokenUser != "" {
		return printToken(*tokenUser)
	}

	app := fx.New(
		Module,
		fx.WithLogger(func(zaplog *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zaplog}
		}),
		fx.Invoke(
			initTracing,
			startEngines,
			startServer,
		),
	)

	startCtx, cancel := context.WithTimeout(context.Background(), fx.DefaultTimeout)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}

	<-app.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), fx.DefaultTimeout)
	defer cancel()
	return app.Stop(stopCtx)
}

func printToken(userID string) error {
	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}
	if !slices.Contains(cfg.Service.Users, userID) {
		return errs.Newf("user %s is not listed in USERS", userID)
	}

	token, err := auth.NewAuth(cfg.Auth, cfg.Service.Users).BuildToken(userID)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
