package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/RajshekharX12/as/internal/cooldown"
	"github.com/RajshekharX12/as/internal/feed"
	"github.com/RajshekharX12/as/internal/ledger"
	"github.com/RajshekharX12/as/internal/model"
	"github.com/RajshekharX12/as/internal/notify"
	"github.com/RajshekharX12/as/internal/pkg/clock"
	"github.com/RajshekharX12/as/internal/pkg/errs"
	"github.com/RajshekharX12/as/internal/purchase"
	purchaseConfig "github.com/RajshekharX12/as/internal/purchase/config"
	"github.com/RajshekharX12/as/internal/scheduler"
	schedulerConfig "github.com/RajshekharX12/as/internal/scheduler/config"
	"github.com/RajshekharX12/as/internal/service/config"
	"github.com/RajshekharX12/as/internal/store"
)

type Service interface {
	Users() []string
	Start(ctx context.Context, userID string) error
	Stop(ctx context.Context, userID string) error
	Status(userID string) (model.Status, error)
	SetConstraints(ctx context.Context, userID string, cs model.ConstraintSet) error
	SetBudgets(ctx context.Context, userID string, budgets model.Budgets) error
	SetNotifications(ctx context.Context, userID string, on bool) error
	SetFeedSource(name string) error
	ManualBuy(ctx context.Context, userID string, offerID string) (model.PurchaseRecord, error)
	TestDrop(ctx context.Context, userID string) (model.PurchaseRecord, error)
	Credit(ctx context.Context, userID string, amount int64) (model.LedgerState, error)
	Refund(ctx context.Context, userID string, purchaseID int64) (model.PurchaseRecord, error)
	RefundLast(ctx context.Context, userID string) (model.PurchaseRecord, error)
	Purchases(ctx context.Context, userID string, limit int) ([]model.PurchaseRecord, error)
	Balance(ctx context.Context, userID string) (Balance, error)
	Health(ctx context.Context) Health
	Run(ctx context.Context)
}

// BalanceSource - баланс на стороне маркета, только для отображения
type BalanceSource interface {
	GetBalance(ctx context.Context) (int64, error)
}

type Balance struct {
	Ledger model.LedgerState `json:"ledger"`
	// nil, если маркет не ответил
	External *int64 `json:"external,omitempty"`
}

type Health struct {
	Primary    string                    `json:"primary"`
	LiveSource string                    `json:"live_source"`
	Sources    []string                  `json:"sources"`
	Engines    map[string]model.RunState `json:"engines"`
	Store      string                    `json:"store"`
}

type Params struct {
	Config          config.Config
	SchedulerConfig schedulerConfig.Config
	PurchaseConfig  purchaseConfig.Config
	Store           store.Store
	Feed            feed.Adapter
	Cooldown        cooldown.Factory
	Buyer           purchase.Buyer
	Market          BalanceSource
	Notifier        notify.Notifier
	// nil - журнал выключен
	Journal purchase.Journal
	IDs     purchase.IDGenerator
	Clock   clock.Clock
	Logger  *zap.Logger
}

// engine - движок одного пользователя
type engine struct {
	ledger    ledger.Ledger
	scheduler scheduler.Scheduler
}

type service struct {
	cfg     config.Config
	store   store.Store
	feed    feed.Adapter
	market  BalanceSource
	zaplog  *zap.Logger
	users   []string
	engines map[string]*engine
}

func NewService(params Params) (Service, error) {
	cfg := params.Config
	if len(cfg.Users) == 0 {
		return nil, errs.New("no users configured")
	}
	defaults, err := defaultState(cfg)
	if err != nil {
		return nil, err
	}

	service := &service{
		cfg:     cfg,
		store:   params.Store,
		feed:    params.Feed,
		market:  params.Market,
		zaplog:  params.Logger,
		engines: make(map[string]*engine, len(cfg.Users)),
	}

	ctx := context.Background()
	for _, userID := range cfg.Users {
		if _, ok := service.engines[userID]; ok {
			continue
		}

		state, err := params.Store.LoadUser(ctx, userID)
		switch {
		case err == nil:
		case errs.Is(err, store.ErrNoRows):
			state = defaults
			state.UserID = userID
		default:
			return nil, errs.Wrapf(err, "load user %s", userID)
		}

		ledger := ledger.NewLedger(params.Clock, state.Ledger)
		executor := purchase.NewExecutor(params.PurchaseConfig, userID, cfg.Recipients[userID], ledger,
			params.Buyer, params.Store, params.Journal, params.IDs, params.Clock, params.Logger)
		scheduler, err := scheduler.New(scheduler.Params{
			Config:   params.SchedulerConfig,
			UserID:   userID,
			Feed:     params.Feed,
			Cooldown: params.Cooldown(userID),
			Ledger:   ledger,
			Executor: executor,
			Notifier: params.Notifier,
			Saver:    params.Store,
			Clock:    params.Clock,
			Logger:   params.Logger,
			Initial:  state,
		})
		if err != nil {
			return nil, err
		}
		// день мог смениться, пока сервис стоял
		scheduler.Persist(ctx)

		service.users = append(service.users, userID)
		service.engines[userID] = &engine{ledger: ledger, scheduler: scheduler}
		params.Logger.Info("engine ready",
			zap.String("user", userID),
			zap.String("state", string(state.State)),
			zap.Int64("balance", ledger.Snapshot().Balance))
	}
	return service, nil
}

// defaultState - ограничения и бюджеты нового пользователя
func defaultState(cfg config.Config) (model.UserState, error) {
	window, err := model.ParseTimeWindow(cfg.DefaultWindow)
	if err != nil {
		return model.UserState{}, errs.Wrap(err, "DEFAULT_WINDOW")
	}
	return model.UserState{
		Constraints: model.ConstraintSet{
			PriceMin:          cfg.DefaultMinPrice,
			PriceMax:          cfg.DefaultMaxPrice,
			AllowIDs:          cfg.DefaultAllowIDs,
			AllowKeywords:     cfg.DefaultAllowKeywords,
			Window:            window,
			NotifyOnlyOverCap: cfg.DefaultNotifyOnlyOverCap,
			LimitedOnly:       cfg.DefaultLimitedOnly,
		},
		Budgets: model.Budgets{
			Daily:   cfg.DefaultDailyBudget,
			Overall: cfg.DefaultOverallLimit,
			Supply:  cfg.DefaultSupplyLimit,
			Cycles:  cfg.DefaultCycles,
		},
		Ledger:        model.LedgerState{DailyBudget: cfg.DefaultDailyBudget},
		State:         model.RunStateIdle,
		Notifications: cfg.DefaultNotifications,
	}, nil
}

func (service *service) engine(userID string) (*engine, error) {
	engine, ok := service.engines[userID]
	if !ok {
		return nil, errs.Wrapf(errs.ErrUnknownUser, "%q", userID)
	}
	return engine, nil
}

func (service *service) Users() []string {
	return append([]string(nil), service.users...)
}

func (service *service) Start(ctx context.Context, userID string) error {
	engine, err := service.engine(userID)
	if err != nil {
		return err
	}
	if engine.scheduler.Status().State == model.RunStatePolling {
		return errs.Wrap(errs.ErrInvalidState, "already polling")
	}
	engine.scheduler.Start(ctx)
	return nil
}

func (service *service) Stop(ctx context.Context, userID string) error {
	engine, err := service.engine(userID)
	if err != nil {
		return err
	}
	if engine.scheduler.Status().State == model.RunStateIdle {
		return errs.Wrap(errs.ErrInvalidState, "not running")
	}
	engine.scheduler.Stop(ctx)
	return nil
}

func (service *service) Status(userID string) (model.Status, error) {
	engine, err := service.engine(userID)
	if err != nil {
		return model.Status{}, err
	}
	return engine.scheduler.Status(), nil
}

func (service *service) SetConstraints(ctx context.Context, userID string, cs model.ConstraintSet) error {
	engine, err := service.engine(userID)
	if err != nil {
		return err
	}
	if cs.PriceMin < 0 || cs.PriceMax < 0 {
		return errs.Wrap(errs.ErrInvalidRequest, "negative price bound")
	}
	if cs.PriceMax > 0 && cs.PriceMin > cs.PriceMax {
		return errs.Wrap(errs.ErrInvalidRequest, "min price above max price")
	}
	engine.scheduler.SetConstraints(ctx, cs)
	return nil
}

func (service *service) SetBudgets(ctx context.Context, userID string, budgets model.Budgets) error {
	engine, err := service.engine(userID)
	if err != nil {
		return err
	}
	if budgets.Daily < 0 || budgets.Overall < 0 || budgets.Supply < 0 || budgets.Cycles < 0 {
		return errs.Wrap(errs.ErrInvalidRequest, "negative budget")
	}
	engine.scheduler.SetBudgets(ctx, budgets)
	return nil
}

func (service *service) SetNotifications(ctx context.Context, userID string, on bool) error {
	engine, err := service.engine(userID)
	if err != nil {
		return err
	}
	engine.scheduler.SetNotifications(ctx, on)
	return nil
}

func (service *service) SetFeedSource(name string) error {
	if err := service.feed.SetPrimary(name); err != nil {
		return err
	}
	service.zaplog.Info("feed source switched", zap.String("source", name))
	return nil
}

func (service *service) ManualBuy(ctx context.Context, userID string, offerID string) (model.PurchaseRecord, error) {
	engine, err := service.engine(userID)
	if err != nil {
		return model.PurchaseRecord{}, err
	}
	outcome, err := engine.scheduler.Buy(ctx, offerID)
	if err != nil {
		return model.PurchaseRecord{}, err
	}
	if !outcome.Sent() {
		return model.PurchaseRecord{}, outcome.Err
	}
	return *outcome.Record, nil
}

func (service *service) TestDrop(ctx context.Context, userID string) (model.PurchaseRecord, error) {
	engine, err := service.engine(userID)
	if err != nil {
		return model.PurchaseRecord{}, err
	}
	outcome := engine.scheduler.TestDrop(ctx)
	if !outcome.Sent() {
		return model.PurchaseRecord{}, outcome.Err
	}
	return *outcome.Record, nil
}

// Credit - пополнение баланса
func (service *service) Credit(ctx context.Context, userID string, amount int64) (model.LedgerState, error) {
	engine, err := service.engine(userID)
	if err != nil {
		return model.LedgerState{}, err
	}
	if err := engine.ledger.Credit(amount); err != nil {
		return model.LedgerState{}, err
	}
	engine.scheduler.Persist(ctx)
	service.zaplog.Info("balance credited", zap.String("user", userID), zap.Int64("amount", amount))
	return engine.ledger.Snapshot(), nil
}

// Refund удаляет запись о покупке и возвращает её цену на баланс.
// Тестовые покупки баланс не списывали, поэтому и не компенсируются.
func (service *service) Refund(ctx context.Context, userID string, purchaseID int64) (model.PurchaseRecord, error) {
	engine, err := service.engine(userID)
	if err != nil {
		return model.PurchaseRecord{}, err
	}

	record, err := service.store.DeletePurchase(ctx, userID, purchaseID)
	if err != nil {
		if errs.Is(err, store.ErrNoRows) {
			return model.PurchaseRecord{}, errs.Wrapf(errs.ErrNotFound, "purchase %d", purchaseID)
		}
		return model.PurchaseRecord{}, errs.Wrap(err, "delete purchase")
	}

	if record.Mode != model.PurchaseModeTest && record.Price > 0 {
		if err := engine.ledger.Credit(record.Price); err != nil {
			return model.PurchaseRecord{}, err
		}
	}
	engine.scheduler.Persist(ctx)
	service.zaplog.Info("purchase refunded",
		zap.String("user", userID),
		zap.Int64("purchase_id", record.ID),
		zap.String("offer_id", record.OfferID),
		zap.Int64("price", record.Price))
	return record, nil
}

func (service *service) RefundLast(ctx context.Context, userID string) (model.PurchaseRecord, error) {
	if _, err := service.engine(userID); err != nil {
		return model.PurchaseRecord{}, err
	}
	last, err := service.store.LastPurchase(ctx, userID)
	if err != nil {
		if errs.Is(err, store.ErrNoRows) {
			return model.PurchaseRecord{}, errs.Wrap(errs.ErrNotFound, "no purchases")
		}
		return model.PurchaseRecord{}, errs.Wrap(err, "last purchase")
	}
	return service.Refund(ctx, userID, last.ID)
}

func (service *service) Purchases(ctx context.Context, userID string, limit int) ([]model.PurchaseRecord, error) {
	if _, err := service.engine(userID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > service.cfg.HistoryLimit {
		limit = service.cfg.HistoryLimit
	}
	records, err := service.store.ListPurchases(ctx, userID, limit)
	if err != nil {
		return nil, errs.Wrap(err, "list purchases")
	}
	return records, nil
}

func (service *service) Balance(ctx context.Context, userID string) (Balance, error) {
	engine, err := service.engine(userID)
	if err != nil {
		return Balance{}, err
	}

	balance := Balance{Ledger: engine.ledger.Snapshot()}
	if service.market != nil {
		external, err := service.market.GetBalance(ctx)
		if err != nil {
			service.zaplog.Warn("market balance unavailable", zap.Error(err))
		} else {
			balance.External = &external
		}
	}
	return balance, nil
}

func (service *service) Health(ctx context.Context) Health {
	health := Health{
		Primary:    service.feed.Primary(),
		LiveSource: service.feed.LiveSource(),
		Sources:    service.feed.Sources(),
		Engines:    make(map[string]model.RunState, len(service.engines)),
		Store:      "ok",
	}
	for userID, engine := range service.engines {
		health.Engines[userID] = engine.scheduler.Status().State
	}
	if err := service.store.Ping(ctx); err != nil {
		health.Store = err.Error()
	}
	return health
}

// Run крутит циклы всех пользователей до отмены ctx
func (service *service) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, userID := range service.users {
		wg.Add(1)
		go func(engine *engine) {
			defer wg.Done()
			engine.scheduler.Run(ctx)
		}(service.engines[userID])
	}
	wg.Wait()

	// финальное сохранение состояния
	for _, engine := range service.engines {
		engine.scheduler.Persist(context.WithoutCancel(ctx))
	}
	service.zaplog.Info("engines stopped")
}
