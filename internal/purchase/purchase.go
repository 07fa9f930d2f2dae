package purchase

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/RajshekharX12/as/internal/ledger"
	"github.com/RajshekharX12/as/internal/model"
	"github.com/RajshekharX12/as/internal/pkg/clock"
	"github.com/RajshekharX12/as/internal/pkg/errs"
	"github.com/RajshekharX12/as/internal/purchase/config"
)

var tracer = otel.Tracer("github.com/RajshekharX12/as/internal/purchase")

// Outcome - либо запись о покупке, либо причина отказа
type Outcome struct {
	Record *model.PurchaseRecord
	Err    error
}

func (outcome Outcome) Sent() bool {
	return outcome.Err == nil && outcome.Record != nil
}

type Executor interface {
	BeginRun(runID string)
	Execute(ctx context.Context, offer model.Offer, mode model.PurchaseMode) Outcome
}

type executor struct {
	cfg       config.Config
	userID    string
	recipient string
	ledger    ledger.Ledger
	buyer     Buyer
	recorder  Recorder
	journal   Journal
	ids       IDGenerator
	clock     clock.Clock
	zaplog    *zap.Logger

	mu    sync.Mutex
	runID string
}

// NewExecutor; journal может быть nil
func NewExecutor(cfg config.Config, userID string, recipient string, ledger ledger.Ledger,
	buyer Buyer, recorder Recorder, journal Journal, ids IDGenerator, clock clock.Clock, zaplog *zap.Logger) Executor {
	if recipient == "" {
		recipient = userID
	}
	return &executor{
		cfg:       cfg,
		userID:    userID,
		recipient: recipient,
		ledger:    ledger,
		buyer:     buyer,
		recorder:  recorder,
		journal:   journal,
		ids:       ids,
		clock:     clock,
		zaplog:    zaplog.With(zap.String("user", userID)),
	}
}

func (executor *executor) BeginRun(runID string) {
	executor.mu.Lock()
	defer executor.mu.Unlock()
	executor.runID = runID
}

// Execute: резерв -> внешняя покупка -> запись или откат.
// Покупка не прерывается отменой ctx, её ограничивает только BuyTimeout.
func (executor *executor) Execute(ctx context.Context, offer model.Offer, mode model.PurchaseMode) Outcome {
	ctx, span := tracer.Start(ctx, "purchase.execute")
	defer span.End()
	span.SetAttributes(
		attribute.String("offer.id", offer.ID),
		attribute.Int64("offer.price", offer.Price),
		attribute.String("purchase.mode", string(mode)),
	)

	token, err := executor.ledger.Reserve(offer.Price)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Outcome{Err: errs.Wrapf(err, "reserve %d for %s", offer.Price, offer.ID)}
	}

	// тестовый режим: резерв проверен и возвращён, внешний вызов не делается
	if mode == model.PurchaseModeTest {
		executor.ledger.Rollback(token)
		record := executor.newRecord(offer, mode)
		executor.persist(ctx, record)
		return Outcome{Record: &record}
	}

	buyCtx := context.WithoutCancel(ctx)
	if executor.cfg.BuyTimeout > 0 {
		var cancel context.CancelFunc
		buyCtx, cancel = context.WithTimeout(buyCtx, executor.cfg.BuyTimeout)
		defer cancel()
	}
	if err := executor.buyer.SendOffer(buyCtx, executor.recipient, offer.ID, purchaseText(mode)); err != nil {
		executor.ledger.Rollback(token)
		err = errs.Mark(errs.Wrapf(err, "buy %s", offer.ID), errs.ErrExternalBuyFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, "external buy failed")
		return Outcome{Err: err}
	}

	record := executor.newRecord(offer, mode)
	executor.ledger.Commit(token)
	executor.persist(ctx, record)
	span.SetAttributes(attribute.Int64("purchase.id", record.ID))
	return Outcome{Record: &record}
}

func (executor *executor) newRecord(offer model.Offer, mode model.PurchaseMode) model.PurchaseRecord {
	executor.mu.Lock()
	runID := executor.runID
	executor.mu.Unlock()

	return model.PurchaseRecord{
		ID:        executor.ids.NextID(),
		UserID:    executor.userID,
		RunID:     runID,
		OfferID:   offer.ID,
		Title:     offer.Title,
		Price:     offer.Price,
		Mode:      mode,
		Timestamp: executor.clock.Now().UTC(),
	}
}

// persist: покупка уже состоялась, поэтому ошибки только логируются
func (executor *executor) persist(ctx context.Context, record model.PurchaseRecord) {
	ctx = context.WithoutCancel(ctx)
	if err := executor.recorder.AppendPurchase(ctx, record); err != nil {
		executor.zaplog.Error("purchase record not saved",
			zap.Int64("purchase_id", record.ID),
			zap.String("offer_id", record.OfferID),
			zap.Int64("price", record.Price),
			zap.Error(err))
	}
	if executor.journal == nil {
		return
	}
	if err := executor.journal.Publish(ctx, record); err != nil {
		executor.zaplog.Warn("purchase journal publish failed",
			zap.Int64("purchase_id", record.ID),
			zap.Error(err))
	}
}

func purchaseText(mode model.PurchaseMode) string {
	switch mode {
	case model.PurchaseModeManual:
		return "manual purchase"
	default:
		return "auto purchase"
	}
}
