package purchase

import (
	"context"

	"github.com/RajshekharX12/as/internal/model"
)

//go:generate mockgen -source=deps.go -destination=mock/deps.go -package=mock

// Buyer - внешнее действие покупки
type Buyer interface {
	SendOffer(ctx context.Context, recipient string, offerID string, text string) error
}

// Recorder - журнал покупок в хранилище
type Recorder interface {
	AppendPurchase(ctx context.Context, record model.PurchaseRecord) error
}

// Journal - внешняя шина событий о покупках, доставка не гарантируется
type Journal interface {
	Publish(ctx context.Context, record model.PurchaseRecord) error
}
