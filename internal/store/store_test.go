package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/RajshekharX12/as/internal/model"
	"github.com/RajshekharX12/as/internal/store/config"
)

func newTestStore(t *testing.T) Store {
	cfg := config.Config{
		DBDriver: config.DriverSQLite,
		DBDsn:    filepath.Join(t.TempDir(), "autobuyer.db"),
	}
	store, err := NewStore(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func ptr(v int64) *int64 {
	return &v
}

func TestStoreUserState(t *testing.T) {
	const userID = "100001"

	ctx := context.Background()
	store := newTestStore(t)

	// нет строки
	_, err := store.LoadUser(ctx, userID)
	require.ErrorIs(t, err, ErrNoRows)

	window, err := model.ParseTimeWindow("22:00-06:00")
	require.NoError(t, err)
	state := model.UserState{
		UserID: userID,
		Constraints: model.ConstraintSet{
			PriceMin:          10,
			PriceMax:          300,
			AllowIDs:          []string{"g1"},
			AllowKeywords:     []string{"bear"},
			Window:            window,
			NotifyOnlyOverCap: true,
		},
		Budgets: model.Budgets{Daily: 100, Overall: 500, Cycles: 500},
		Ledger: model.LedgerState{
			Balance:          70,
			DayKey:           "2024-05-01",
			DailySpent:       30,
			DailyBudget:      100,
			OverallRemaining: ptr(470),
			CyclesRemaining:  ptr(12),
		},
		Totals:        model.Totals{Purchases: 1, Spent: 30, Alerts: 2},
		State:         model.RunStatePolling,
		RunID:         "run-1",
		Notifications: true,
	}
	require.NoError(t, store.SaveUser(ctx, state))

	loaded, err := store.LoadUser(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, state, loaded)

	// перезапись
	state.State = model.RunStateStopped
	state.Reason = model.StopReasonCyclesExhausted
	state.Ledger.CyclesRemaining = ptr(0)
	state.Ledger.OverallRemaining = nil
	require.NoError(t, store.SaveUser(ctx, state))

	loaded, err = store.LoadUser(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, state, loaded)
}

func TestStorePurchase(t *testing.T) {
	const userID = "100001"

	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.LastPurchase(ctx, userID)
	require.ErrorIs(t, err, ErrNoRows)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := int64(1); i <= 3; i++ {
		err = store.AppendPurchase(ctx, model.PurchaseRecord{
			ID:        i,
			UserID:    userID,
			RunID:     "run-1",
			OfferID:   "g1",
			Title:     "Bear",
			Price:     10 * i,
			Mode:      model.PurchaseModeAuto,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}
	require.NoError(t, store.AppendPurchase(ctx, model.PurchaseRecord{ID: 99, UserID: "other", Mode: model.PurchaseModeTest, Timestamp: base}))

	// повторная запись
	err = store.AppendPurchase(ctx, model.PurchaseRecord{ID: 1, UserID: userID, Timestamp: base})
	require.ErrorIs(t, err, ErrAlreadyExists)

	records, err := store.ListPurchases(ctx, userID, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, int64(3), records[0].ID)
	require.Equal(t, int64(2), records[1].ID)
	require.Equal(t, base.Add(3*time.Minute), records[0].Timestamp)

	last, err := store.LastPurchase(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, records[0], last)

	// возврат
	deleted, err := store.DeletePurchase(ctx, userID, 2)
	require.NoError(t, err)
	require.Equal(t, int64(20), deleted.Price)

	_, err = store.DeletePurchase(ctx, userID, 2)
	require.ErrorIs(t, err, ErrNoRows)
	_, err = store.DeletePurchase(ctx, userID, 99)
	require.ErrorIs(t, err, ErrNoRows)

	records, err = store.ListPurchases(ctx, userID, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.NoError(t, store.Ping(ctx))
}
