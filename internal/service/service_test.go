package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/RajshekharX12/as/internal/cooldown"
	cooldownConfig "github.com/RajshekharX12/as/internal/cooldown/config"
	"github.com/RajshekharX12/as/internal/feed"
	feedConfig "github.com/RajshekharX12/as/internal/feed/config"
	"github.com/RajshekharX12/as/internal/model"
	"github.com/RajshekharX12/as/internal/notify"
	"github.com/RajshekharX12/as/internal/pkg/clock"
	"github.com/RajshekharX12/as/internal/pkg/errs"
	"github.com/RajshekharX12/as/internal/purchase"
	purchaseConfig "github.com/RajshekharX12/as/internal/purchase/config"
	"github.com/RajshekharX12/as/internal/purchase/mock"
	schedulerConfig "github.com/RajshekharX12/as/internal/scheduler/config"
	"github.com/RajshekharX12/as/internal/service/config"
	"github.com/RajshekharX12/as/internal/store"
	storeConfig "github.com/RajshekharX12/as/internal/store/config"
)

const testUser = "100001"

type staticSource struct {
	raw string
}

func (source *staticSource) Name() string {
	return feedConfig.SourceAPI
}

func (source *staticSource) Fetch(context.Context) ([]byte, error) {
	return []byte(source.raw), nil
}

type stubMarket struct {
	balance int64
	err     error
}

func (market *stubMarket) GetBalance(context.Context) (int64, error) {
	return market.balance, market.err
}

type fixture struct {
	store  store.Store
	buyer  *mock.MockBuyer
	market *stubMarket
	params Params
}

func newFixture(t *testing.T) *fixture {
	st, err := store.NewStore(storeConfig.Config{
		DBDriver: storeConfig.DriverSQLite,
		DBDsn:    filepath.Join(t.TempDir(), "autobuyer.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	adapter, err := feed.NewAdapter(feedConfig.Config{Mode: feedConfig.SourceAPI, Timeout: time.Second},
		[]feed.Source{&staticSource{raw: `{"gifts":[{"id":"g1","title":"Bear","star_count":30}]}`}}, zap.NewNop())
	require.NoError(t, err)
	cooldowns, err := cooldown.NewFactory(cooldownConfig.Config{Cooldown: time.Minute, MaxEntries: 10}, nil)
	require.NoError(t, err)
	ids, err := purchase.NewIDGenerator(1)
	require.NoError(t, err)

	f := &fixture{
		store:  st,
		buyer:  mock.NewMockBuyer(gomock.NewController(t)),
		market: &stubMarket{balance: 1000},
	}
	f.params = Params{
		Config: config.Config{
			Users:                []string{testUser, "100002"},
			Recipients:           map[string]string{testUser: "channel"},
			DefaultMaxPrice:      100,
			DefaultCycles:        500,
			DefaultDailyBudget:   200,
			DefaultNotifications: true,
			HistoryLimit:         10,
		},
		SchedulerConfig: schedulerConfig.Config{PollInterval: time.Second, WindowIdleInterval: time.Second, WindowLocation: "UTC"},
		PurchaseConfig:  purchaseConfig.Config{BuyTimeout: time.Second},
		Store:           st,
		Feed:            adapter,
		Cooldown:        cooldowns,
		Buyer:           f.buyer,
		Market:          f.market,
		Notifier:        notify.NewLogNotifier(zap.NewNop()),
		IDs:             ids,
		Clock:           clock.NewMockClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)),
		Logger:          zap.NewNop(),
	}
	return f
}

func (f *fixture) service(t *testing.T) Service {
	service, err := NewService(f.params)
	require.NoError(t, err)
	return service
}

func TestNewServiceDefaults(t *testing.T) {
	f := newFixture(t)
	service := f.service(t)
	require.Equal(t, []string{testUser, "100002"}, service.Users())

	status, err := service.Status(testUser)
	require.NoError(t, err)
	require.Equal(t, model.RunStateIdle, status.State)
	require.Equal(t, int64(100), status.Constraints.PriceMax)
	require.Equal(t, int64(500), status.Budgets.Cycles)
	require.Equal(t, int64(200), status.Counters.DailyBudget)
	require.True(t, status.Notifications)

	// состояние сразу сохранено
	saved, err := f.store.LoadUser(context.Background(), testUser)
	require.NoError(t, err)
	require.Equal(t, "2024-05-01", saved.Ledger.DayKey)

	_, err = service.Status("stranger")
	require.True(t, errs.Is(err, errs.ErrUnknownUser))
}

func TestNewServiceErrors(t *testing.T) {
	f := newFixture(t)

	f.params.Config.Users = nil
	_, err := NewService(f.params)
	require.Error(t, err)

	f.params.Config.Users = []string{testUser}
	f.params.Config.DefaultWindow = "25:00-26:00"
	_, err = NewService(f.params)
	require.Error(t, err)
}

func TestStartStop(t *testing.T) {
	ctx := context.Background()
	service := newFixture(t).service(t)

	err := service.Stop(ctx, testUser)
	require.True(t, errs.Is(err, errs.ErrInvalidState))

	require.NoError(t, service.Start(ctx, testUser))
	status, err := service.Status(testUser)
	require.NoError(t, err)
	require.Equal(t, model.RunStatePolling, status.State)
	require.NotEmpty(t, status.RunID)

	err = service.Start(ctx, testUser)
	require.True(t, errs.Is(err, errs.ErrInvalidState))

	require.NoError(t, service.Stop(ctx, testUser))
	status, err = service.Status(testUser)
	require.NoError(t, err)
	require.Equal(t, model.RunStateIdle, status.State)
}

func TestSettingsValidation(t *testing.T) {
	ctx := context.Background()
	service := newFixture(t).service(t)

	err := service.SetConstraints(ctx, testUser, model.ConstraintSet{PriceMin: 50, PriceMax: 10})
	require.True(t, errs.Is(err, errs.ErrInvalidRequest))
	err = service.SetBudgets(ctx, testUser, model.Budgets{Daily: -1})
	require.True(t, errs.Is(err, errs.ErrInvalidRequest))

	require.NoError(t, service.SetConstraints(ctx, testUser, model.ConstraintSet{AllowIDs: []string{"g1"}}))
	require.NoError(t, service.SetBudgets(ctx, testUser, model.Budgets{Daily: 20}))
	require.NoError(t, service.SetNotifications(ctx, testUser, false))

	status, err := service.Status(testUser)
	require.NoError(t, err)
	require.Equal(t, []string{"g1"}, status.Constraints.AllowIDs)
	require.Equal(t, int64(20), status.Counters.DailyBudget)
	require.False(t, status.Notifications)

	err = service.SetFeedSource(feedConfig.SourceFile)
	require.True(t, errs.Is(err, errs.ErrUnknownSource))
	require.NoError(t, service.SetFeedSource(feedConfig.SourceAPI))
}

func TestManualBuyAndRefund(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	service := f.service(t)

	// без баланса покупка отклоняется до внешнего вызова
	_, err := service.ManualBuy(ctx, testUser, "g1")
	require.True(t, errs.Is(err, errs.ErrInsufficientFunds))

	_, err = service.Credit(ctx, testUser, 0)
	require.True(t, errs.Is(err, errs.ErrInvalidAmount))
	state, err := service.Credit(ctx, testUser, 100)
	require.NoError(t, err)
	require.Equal(t, int64(100), state.Balance)

	f.buyer.EXPECT().SendOffer(gomock.Any(), "channel", "g1", "manual purchase").Return(nil)
	record, err := service.ManualBuy(ctx, testUser, "g1")
	require.NoError(t, err)
	require.Equal(t, int64(30), record.Price)
	require.Equal(t, model.PurchaseModeManual, record.Mode)

	_, err = service.ManualBuy(ctx, testUser, "missing")
	require.True(t, errs.Is(err, errs.ErrNotFound))

	records, err := service.Purchases(ctx, testUser, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)

	refunded, err := service.RefundLast(ctx, testUser)
	require.NoError(t, err)
	require.Equal(t, record.ID, refunded.ID)

	balance, err := service.Balance(ctx, testUser)
	require.NoError(t, err)
	require.Equal(t, int64(100), balance.Ledger.Balance)
	require.Equal(t, int64(1000), *balance.External)

	_, err = service.RefundLast(ctx, testUser)
	require.True(t, errs.Is(err, errs.ErrNotFound))
	_, err = service.Refund(ctx, testUser, record.ID)
	require.True(t, errs.Is(err, errs.ErrNotFound))
}

func TestTestDropRefundDoesNotCredit(t *testing.T) {
	ctx := context.Background()
	service := newFixture(t).service(t)
	_, err := service.Credit(ctx, testUser, 50)
	require.NoError(t, err)

	record, err := service.TestDrop(ctx, testUser)
	require.NoError(t, err)
	require.Equal(t, model.PurchaseModeTest, record.Mode)

	_, err = service.Refund(ctx, testUser, record.ID)
	require.NoError(t, err)
	balance, err := service.Balance(ctx, testUser)
	require.NoError(t, err)
	require.Equal(t, int64(50), balance.Ledger.Balance)
}

func TestBalanceMarketDown(t *testing.T) {
	f := newFixture(t)
	f.market.err = errors.New("timeout")
	service := f.service(t)

	balance, err := service.Balance(context.Background(), testUser)
	require.NoError(t, err)
	require.Nil(t, balance.External)
}

func TestStateSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	service := f.service(t)
	_, err := service.Credit(ctx, testUser, 70)
	require.NoError(t, err)
	require.NoError(t, service.Start(ctx, testUser))
	runID := mustStatus(t, service, testUser).RunID

	restarted := f.service(t)
	status := mustStatus(t, restarted, testUser)
	require.Equal(t, int64(70), status.Counters.Balance)
	require.Equal(t, model.RunStatePolling, status.State)
	require.Equal(t, runID, status.RunID)
}

func TestHealthAndRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	service := newFixture(t).service(t)

	health := service.Health(ctx)
	require.Equal(t, "ok", health.Store)
	require.Equal(t, feedConfig.SourceAPI, health.Primary)
	require.Equal(t, model.RunStateIdle, health.Engines[testUser])
	require.Len(t, health.Engines, 2)

	done := make(chan struct{})
	go func() {
		service.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("engines did not stop")
	}
}

func mustStatus(t *testing.T, service Service, userID string) model.Status {
	status, err := service.Status(userID)
	require.NoError(t, err)
	return status
}
