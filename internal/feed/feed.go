package feed

import (
	"context"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/RajshekharX12/as/internal/feed/config"
	"github.com/RajshekharX12/as/internal/model"
	"github.com/RajshekharX12/as/internal/pkg/errs"
)

var tracer = otel.Tracer("github.com/RajshekharX12/as/internal/feed")

// Adapter никогда не возвращает ошибку: при сбое источника - пустой список и запись в лог.
// Один адаптер обслуживает все движки: одновременные Fetch сливаются в один запрос,
// непустой результат переиспользуется в течение CacheTTL.
type Adapter interface {
	Fetch(ctx context.Context) (string, []model.Offer)
	SetPrimary(name string) error
	Primary() string
	LiveSource() string
	Sources() []string
}

type adapter struct {
	mu      sync.RWMutex
	sources []Source
	primary string
	live    string
	timeout time.Duration
	zaplog  *zap.Logger

	group    singleflight.Group
	cacheTTL time.Duration
	cached   *fetchResult
}

type fetchResult struct {
	source    string
	offers    []model.Offer
	fetchedAt time.Time
}

func NewAdapter(cfg config.Config, sources []Source, zaplog *zap.Logger) (Adapter, error) {
	adapter := &adapter{
		sources:  sources,
		timeout:  cfg.Timeout,
		cacheTTL: cfg.CacheTTL,
		zaplog:   zaplog,
	}
	if err := adapter.SetPrimary(cfg.Mode); err != nil {
		return nil, err
	}
	return adapter, nil
}

func (adapter *adapter) Fetch(ctx context.Context) (string, []model.Offer) {
	ctx, span := tracer.Start(ctx, "feed.fetch")
	defer span.End()

	if result, ok := adapter.fresh(); ok {
		span.SetAttributes(attribute.Bool("feed.cached", true))
		return result.source, slices.Clone(result.offers)
	}

	// запрос общий для всех ожидающих, поэтому отмена одного движка его не прерывает
	value, _, shared := adapter.group.Do("fetch", func() (any, error) {
		primary := adapter.Primary()
		source, offers := adapter.fetch(context.WithoutCancel(ctx))
		result := &fetchResult{source: source, offers: offers, fetchedAt: time.Now()}
		adapter.mu.Lock()
		// после смены источника старый результат не кешируем
		if len(offers) > 0 && adapter.cacheTTL > 0 && adapter.primary == primary {
			adapter.cached = result
		}
		adapter.mu.Unlock()
		return result, nil
	})
	result := value.(*fetchResult)
	span.SetAttributes(
		attribute.String("feed.source", result.source),
		attribute.Int("feed.offers", len(result.offers)),
		attribute.Bool("feed.shared", shared),
	)
	return result.source, slices.Clone(result.offers)
}

func (adapter *adapter) fresh() (*fetchResult, bool) {
	adapter.mu.RLock()
	defer adapter.mu.RUnlock()
	if adapter.cached == nil || time.Since(adapter.cached.fetchedAt) >= adapter.cacheTTL {
		return nil, false
	}
	return adapter.cached, true
}

func (adapter *adapter) fetch(ctx context.Context) (string, []model.Offer) {
	adapter.mu.RLock()
	primary, secondary := adapter.order()
	adapter.mu.RUnlock()

	source := primary.Name()
	offers := adapter.fetchFrom(ctx, primary)
	// основной источник пуст - пробуем резервный
	if len(offers) == 0 && secondary != nil {
		adapter.zaplog.Debug("primary feed empty, falling back",
			zap.String("primary", primary.Name()),
			zap.String("secondary", secondary.Name()))
		if fallback := adapter.fetchFrom(ctx, secondary); len(fallback) > 0 {
			source, offers = secondary.Name(), fallback
		}
	}

	if len(offers) > 0 {
		adapter.mu.Lock()
		adapter.live = source
		adapter.mu.Unlock()
	}
	return source, offers
}

func (adapter *adapter) fetchFrom(ctx context.Context, source Source) []model.Offer {
	if adapter.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, adapter.timeout)
		defer cancel()
	}

	raw, err := source.Fetch(ctx)
	if err != nil {
		err = errs.Mark(errs.Wrapf(err, "fetch %s", source.Name()), errs.ErrFeedUnavailable)
		adapter.zaplog.Warn("feed unavailable", zap.String("source", source.Name()), zap.Error(err))
		return nil
	}

	offers, dropped, err := Normalize(raw)
	if err != nil {
		adapter.zaplog.Warn("feed unavailable", zap.String("source", source.Name()), zap.Error(err))
		return nil
	}
	for _, err := range dropped {
		adapter.zaplog.Debug("offer dropped", zap.String("source", source.Name()), zap.Error(err))
	}
	return offers
}

// order возвращает основной и резервный источник (резервного может не быть)
func (adapter *adapter) order() (Source, Source) {
	var primary, secondary Source
	for _, source := range adapter.sources {
		switch {
		case source.Name() == adapter.primary:
			primary = source
		case secondary == nil:
			secondary = source
		}
	}
	return primary, secondary
}

func (adapter *adapter) SetPrimary(name string) error {
	if !slices.Contains(adapter.Sources(), name) {
		return errs.Wrapf(errs.ErrUnknownSource, "%q", name)
	}
	adapter.mu.Lock()
	defer adapter.mu.Unlock()

	adapter.primary = name
	adapter.cached = nil
	return nil
}

func (adapter *adapter) Primary() string {
	adapter.mu.RLock()
	defer adapter.mu.RUnlock()
	return adapter.primary
}

func (adapter *adapter) LiveSource() string {
	adapter.mu.RLock()
	defer adapter.mu.RUnlock()
	return adapter.live
}

func (adapter *adapter) Sources() []string {
	names := make([]string, 0, len(adapter.sources))
	for _, source := range adapter.sources {
		names = append(names, source.Name())
	}
	return names
}
