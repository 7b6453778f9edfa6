package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"maxbot/app/client/bitrix"
	"maxbot/app/client/events"
	"maxbot/app/client/pg"
	"maxbot/app/client/telegram"
	"maxbot/app/config"
	"maxbot/app/server"
	"maxbot/app/service/orchestrator"
	"maxbot/app/service/reply"
	"maxbot/app/service/sessions"
	"maxbot/app/service/store"
	"maxbot/app/util/mylog"

	"github.com/gofiber/fiber/v2/log"
	"github.com/samber/do"
	"golang.org/x/sync/errgroup"
)

func main() {
	di := do.New()
	defer di.Shutdown()
	defer log.Info("Waiting for services to finish...")

	mylog.Preinit()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	do.ProvideValue(di, appCtx)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	do.ProvideValue(di, cfg)

	if err = mylog.Init(cfg); err != nil {
		log.Fatalf("logging init failed: %v", err)
	}

	do.Provide(di, pg.New)
	do.Provide(di, events.New)
	do.Provide(di, bitrix.New)
	do.Provide(di, reply.New)
	do.Provide(di, store.New)
	do.Provide(di, sessions.New)
	do.Provide(di, func(i *do.Injector) (orchestrator.LeadNotifier, error) {
		return telegram.NewNotifier(i)
	})
	do.Provide(di, orchestrator.New)
	do.Provide(di, telegram.New)
	do.Provide(di, server.New)

	slog.Info("Service started")

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt)
		<-sigint

		log.Info("Shutting down...")

		cancel()
	}()

	eg, egCtx := errgroup.WithContext(appCtx)
	eg.Go(func() error {
		return do.MustInvoke[*server.Server](di).Run(egCtx)
	})
	eg.Go(func() error {
		return do.MustInvoke[*telegram.Bot](di).Run(egCtx)
	})

	if err = eg.Wait(); err != nil {
		log.Fatalf("service failed: %v", err)
	}
}
