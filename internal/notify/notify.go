package notify

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/RajshekharX12/as/internal/model"
)

type Kind string

const (
	KindPurchased Kind = "purchased"
	KindAlert     Kind = "alert"
	KindStopped   Kind = "stopped"
	KindDrop      Kind = "drop"
)

type OfferView struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Price     int64  `json:"price"`
	Remaining *int64 `json:"remaining,omitempty"`
	Emoji     string `json:"emoji,omitempty"`
	// путь ручной покупки в API управления
	ManualBuy string `json:"manual_buy,omitempty"`
}

// Event - сообщение для пользователя
type Event struct {
	Kind    Kind                  `json:"kind"`
	UserID  string                `json:"user_id"`
	Record  *model.PurchaseRecord `json:"record,omitempty"`
	Offers  []OfferView           `json:"offers,omitempty"`
	Reason  model.StopReason      `json:"reason,omitempty"`
	Message string                `json:"message,omitempty"`
	At      time.Time             `json:"at"`
}

type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

func PurchasedEvent(record model.PurchaseRecord, at time.Time) Event {
	return Event{Kind: KindPurchased, UserID: record.UserID, Record: &record, At: at}
}

func AlertEvent(userID string, offer model.Offer, at time.Time) Event {
	view := viewOf(offer)
	view.ManualBuy = "/api/engine/offers/" + offer.ID + "/buy"
	return Event{Kind: KindAlert, UserID: userID, Offers: []OfferView{view}, At: at}
}

func StoppedEvent(userID string, reason model.StopReason, at time.Time) Event {
	return Event{Kind: KindStopped, UserID: userID, Reason: reason, Message: reason.Describe(), At: at}
}

func DropEvent(userID string, offers []model.Offer, at time.Time) Event {
	views := make([]OfferView, 0, len(offers))
	for _, offer := range offers {
		views = append(views, viewOf(offer))
	}
	return Event{Kind: KindDrop, UserID: userID, Offers: views, At: at}
}

func viewOf(offer model.Offer) OfferView {
	return OfferView{
		ID:        offer.ID,
		Title:     offer.Title,
		Price:     offer.Price,
		Remaining: offer.Remaining,
		Emoji:     offer.Emoji,
	}
}

// Лог

type logNotifier struct {
	zaplog *zap.Logger
}

func NewLogNotifier(zaplog *zap.Logger) Notifier {
	return &logNotifier{zaplog: zaplog}
}

func (notifier *logNotifier) Notify(_ context.Context, event Event) error {
	fields := []zap.Field{
		zap.String("user", event.UserID),
		zap.String("kind", string(event.Kind)),
	}
	if event.Record != nil {
		fields = append(fields,
			zap.String("offer_id", event.Record.OfferID),
			zap.Int64("price", event.Record.Price),
			zap.String("mode", string(event.Record.Mode)))
	}
	for _, offer := range event.Offers {
		fields = append(fields, zap.String("offer_id", offer.ID), zap.Int64("price", offer.Price))
	}
	if event.Reason != model.StopReasonNone {
		fields = append(fields, zap.String("reason", event.Message))
	}
	notifier.zaplog.Info("notification", fields...)
	return nil
}

// Рассылка в несколько каналов

type multiNotifier []Notifier

func Multi(notifiers ...Notifier) Notifier {
	return multiNotifier(notifiers)
}

func (notifiers multiNotifier) Notify(ctx context.Context, event Event) error {
	var errs []error
	for _, notifier := range notifiers {
		if err := notifier.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
