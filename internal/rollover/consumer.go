package rollover

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer reads rollover jobs from Kafka and hands them to a handler.
// A message is committed once handled, whatever the outcome, so a failing job is not replayed
// forever; operators re-run it after fixing the reported users.
type KafkaConsumer struct {
	reader messageReader
	log    *zap.Logger
}

// NewKafkaConsumer returns a consumer in groupID reading topic.
func NewKafkaConsumer(brokers []string, topic, groupID string, log *zap.Logger) *KafkaConsumer {
	if log == nil {
		log = zap.NewNop()
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 1e6,
		MaxWait:  time.Second,
	})
	return &KafkaConsumer{reader: reader, log: log}
}

// Consume blocks until ctx is done.
func (c *KafkaConsumer) Consume(ctx context.Context, handle func(context.Context, Job) error) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Warn("rollover: kafka read error", zap.Error(err))
			continue
		}
		job, err := DecodeJob(msg.Value)
		if err != nil {
			c.log.Error("rollover: dropping malformed job", zap.Int64("offset", msg.Offset), zap.Error(err))
		} else if err := handle(ctx, job); err != nil {
			c.log.Warn("rollover: job failed", zap.String("job_id", job.ID), zap.Error(err))
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.log.Warn("rollover: commit failed", zap.Int64("offset", msg.Offset), zap.Error(err))
		}
	}
}

// Close closes the Kafka reader.
func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}
