package journal

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/IBM/sarama"

	"github.com/RajshekharX12/as/internal/journal/config"
	"github.com/RajshekharX12/as/internal/model"
	"github.com/RajshekharX12/as/internal/pkg/errs"
)

// Journal публикует записи о покупках в Kafka; ключ сообщения - пользователь,
// поэтому покупки одного пользователя лежат в одной партиции по порядку.
type Journal struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaJournal(cfg config.Config) (*Journal, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.RequiredAcks = sarama.WaitForLocal
	saramaConfig.Producer.Retry.Max = 3
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.ClientID = "autobuyer"

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, errs.Wrap(err, "create kafka producer")
	}
	return New(producer, cfg.Topic), nil
}

func New(producer sarama.SyncProducer, topic string) *Journal {
	return &Journal{producer: producer, topic: topic}
}

func (journal *Journal) Publish(_ context.Context, record model.PurchaseRecord) error {
	value, err := json.Marshal(record)
	if err != nil {
		return err
	}
	_, _, err = journal.producer.SendMessage(&sarama.ProducerMessage{
		Topic: journal.topic,
		Key:   sarama.StringEncoder(record.UserID),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte("purchase_id"), Value: []byte(strconv.FormatInt(record.ID, 10))},
			{Key: []byte("mode"), Value: []byte(record.Mode)},
		},
	})
	return err
}

func (journal *Journal) Close() error {
	return journal.producer.Close()
}
