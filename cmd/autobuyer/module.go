package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/RajshekharX12/as/internal/auth"
	"github.com/RajshekharX12/as/internal/config"
	"github.com/RajshekharX12/as/internal/cooldown"
	cooldownConfig "github.com/RajshekharX12/as/internal/cooldown/config"
	"github.com/RajshekharX12/as/internal/feed"
	"github.com/RajshekharX12/as/internal/handler"
	"github.com/RajshekharX12/as/internal/journal"
	"github.com/RajshekharX12/as/internal/logger"
	"github.com/RajshekharX12/as/internal/notify"
	"github.com/RajshekharX12/as/internal/pkg/clock"
	"github.com/RajshekharX12/as/internal/purchase"
	"github.com/RajshekharX12/as/internal/service"
	"github.com/RajshekharX12/as/internal/service/marketclient"
	"github.com/RajshekharX12/as/internal/store"
	"github.com/RajshekharX12/as/internal/tracing"
)

var Module = fx.Options(
	fx.Provide(
		config.GetConfig,
		newLogger,
		newStore,
		newMarketClient,
		newFeed,
		newCooldown,
		newNotifier,
		newJournal,
		newIDGenerator,
		newService,
		newAuth,
		newServer,
	),
)

func newLogger(lc fx.Lifecycle, cfg config.Config) (*zap.Logger, error) {
	zaplog, err := logger.NewZapLog(cfg.Logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			zaplog.Sync()
			return nil
		},
	})
	return zaplog, nil
}

func newStore(lc fx.Lifecycle, cfg config.Config) (store.Store, error) {
	st, err := store.NewStore(cfg.Store)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return st.Close()
		},
	})
	return st, nil
}

func newMarketClient(cfg config.Config) marketclient.MarketClient {
	return marketclient.NewMarketClient(cfg.Market)
}

func newFeed(cfg config.Config, market marketclient.MarketClient, zaplog *zap.Logger) (feed.Adapter, error) {
	sources := []feed.Source{feed.NewAPISource(market)}
	if cfg.Feed.File != "" {
		sources = append(sources, feed.NewFileSource(cfg.Feed.File))
	}
	return feed.NewAdapter(cfg.Feed, sources, zaplog)
}

func newCooldown(lc fx.Lifecycle, cfg config.Config) (cooldown.Factory, error) {
	if cfg.Cooldown.Backend != cooldownConfig.BackendRedis {
		return cooldown.NewFactory(cfg.Cooldown, nil)
	}

	client := cooldown.NewRedisClient(cfg.Cooldown)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
		OnStop: func(_ context.Context) error {
			return client.Close()
		},
	})
	return cooldown.NewFactory(cfg.Cooldown, client)
}

func newNotifier(lc fx.Lifecycle, cfg config.Config, zaplog *zap.Logger) (notify.Notifier, error) {
	logNotifier := notify.NewLogNotifier(zaplog)
	if cfg.Notify.NatsURL == "" {
		return logNotifier, nil
	}

	conn, err := notify.Connect(cfg.Notify)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return conn.Drain()
		},
	})
	return notify.Multi(logNotifier, notify.NewNATSNotifier(conn, cfg.Notify.SubjectPrefix)), nil
}

// newJournal; без брокеров журнал выключен
func newJournal(lc fx.Lifecycle, cfg config.Config) (purchase.Journal, error) {
	if len(cfg.Journal.Brokers) == 0 {
		return nil, nil
	}

	j, err := journal.NewKafkaJournal(cfg.Journal)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return j.Close()
		},
	})
	return j, nil
}

func newIDGenerator(cfg config.Config) (purchase.IDGenerator, error) {
	return purchase.NewIDGenerator(cfg.Purchase.SnowflakeNode)
}

func newService(cfg config.Config, st store.Store, adapter feed.Adapter, cooldowns cooldown.Factory,
	market marketclient.MarketClient, notifier notify.Notifier, j purchase.Journal,
	ids purchase.IDGenerator, zaplog *zap.Logger) (service.Service, error) {
	return service.NewService(service.Params{
		Config:          cfg.Service,
		SchedulerConfig: cfg.Scheduler,
		PurchaseConfig:  cfg.Purchase,
		Store:           st,
		Feed:            adapter,
		Cooldown:        cooldowns,
		Buyer:           market,
		Market:          market,
		Notifier:        notifier,
		Journal:         j,
		IDs:             ids,
		Clock:           clock.NewRealClock(),
		Logger:          zaplog,
	})
}

func newAuth(cfg config.Config) auth.Auth {
	return auth.NewAuth(cfg.Auth, cfg.Service.Users)
}

func newServer(cfg config.Config, a auth.Auth, svc service.Service, zaplog *zap.Logger) *http.Server {
	router := handler.NewRouter(cfg.Handler, a, svc, zaplog, cfg.Logger.LogBodies)
	return handler.NewServer(cfg.Handler, router)
}

func initTracing(lc fx.Lifecycle, cfg config.Config) error {
	shutdown, err := tracing.Init(cfg.Tracing, os.Stdout)
	if err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStop: shutdown,
	})
	return nil
}

// startEngines крутит циклы опроса пользователей, пока приложение запущено
func startEngines(lc fx.Lifecycle, svc service.Service, zaplog *zap.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			zaplog.Info("starting engines", zap.Strings("users", svc.Users()))
			go func() {
				defer close(done)
				svc.Run(ctx)
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}

func startServer(lc fx.Lifecycle, srv *http.Server, zaplog *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			listener, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			zaplog.Info("server started", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
					zaplog.Error("server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			zaplog.Info("server stopping")
			return srv.Shutdown(ctx)
		},
	})
}
