package notify

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"

	"github.com/RajshekharX12/as/internal/notify/config"
	"github.com/RajshekharX12/as/internal/pkg/errs"
)

// Publisher - то, что нужно от соединения NATS
type Publisher interface {
	Publish(subject string, data []byte) error
}

type natsNotifier struct {
	publisher Publisher
	prefix    string
}

func NewNATSNotifier(publisher Publisher, prefix string) Notifier {
	return &natsNotifier{publisher: publisher, prefix: prefix}
}

// Connect подключается к NATS по адресу из конфигурации
func Connect(cfg config.Config) (*nats.Conn, error) {
	conn, err := nats.Connect(cfg.NatsURL, nats.Name("autobuyer"))
	if err != nil {
		return nil, errs.Wrap(err, "connect to nats")
	}
	return conn, nil
}

// subject: <prefix>.<user>.<kind>
func (notifier *natsNotifier) Notify(_ context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	subject := notifier.prefix + "." + event.UserID + "." + string(event.Kind)
	return notifier.publisher.Publish(subject, data)
}
