package config

import (

	"github.com/kelseyhightower/envconfig"

	authConfig "github.com/RajshekharX12/as/internal/auth/config"
	cooldownConfig "github.com/RajshekharX12/as/internal/cooldown/config"
	feedConfig "github.com/RajshekharX12/as/internal/feed/config"
	handlerConfig "github.com/RajshekharX12/as/internal/handler/config"
	journalConfig "github.com/RajshekharX12/as/internal/journal/config"
	loggerConfig "github.com/RajshekharX12/as/internal/logger/config"
	notifyConfig "github.com/RajshekharX12/as/internal/notify/config"
	"github.com/RajshekharX12/as/internal/pkg/errs"
	purchaseConfig "github.com/RajshekharX12/as/internal/purchase/config"
	schedulerConfig "github.com/RajshekharX12/as/internal/scheduler/config"
	serviceConfig "github.com/RajshekharX12/as/internal/service/config"
	marketConfig "github.com/RajshekharX12/as/internal/service/marketclient/config"
	storeConfig "github.com/RajshekharX12/as/internal/store/config"
	tracingConfig "github.com/RajshekharX12/as/internal/tracing/config"
)

// Config собирает настройки пакетов; переменные окружения читаются
// по именам из тегов envconfig (SERVER_ADDR, DB_DSN, ...)
type Config struct {
	Handler   handlerConfig.Config
	Auth      authConfig.Config
	Service   serviceConfig.Config
	Scheduler schedulerConfig.Config
	Purchase  purchaseConfig.Config
	Feed      feedConfig.Config
	Market    marketConfig.Config
	Cooldown  cooldownConfig.Config
	Store     storeConfig.Config
	Notify    notifyConfig.Config
	Journal   journalConfig.Config
	Logger    loggerConfig.Config
	Tracing   tracingConfig.Config
}

func GetConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, errs.Wrap(err, "process env config")
	}
	return cfg, nil
}
