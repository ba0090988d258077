// Package forward moves lead events from Kafka to Loki.
package forward

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// pushTimeout bounds a single Loki push.
const pushTimeout = 10 * time.Second

// MessageReader is the subset of *kafka.Reader used by the Forwarder.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// Pusher delivers one raw event JSON. *loki.Client implements it.
type Pusher interface {
	PushEventJSON(ctx context.Context, rawJSON []byte) error
}

// Forwarder reads event messages and pushes each to a Pusher. Push failures are logged and the message is skipped.
type Forwarder struct {
	reader MessageReader
	pusher Pusher
	logger *zap.Logger
}

// NewForwarder returns a Forwarder. logger may be nil.
func NewForwarder(reader MessageReader, pusher Pusher, logger *zap.Logger) *Forwarder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Forwarder{reader: reader, pusher: pusher, logger: logger}
}

// NewKafkaReader returns a consumer-group reader for the lead events topic.
func NewKafkaReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		CommitInterval: time.Second,
	})
}

// Run forwards messages until ctx is cancelled. It returns nil on cancellation and io.EOF
// when the reader is closed underneath it.
func (f *Forwarder) Run(ctx context.Context) error {
	var forwarded int
	for {
		msg, err := f.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				f.logger.Info("forwarder stopped", zap.Int("forwarded", forwarded))
				return nil
			}
			if errors.Is(err, io.EOF) {
				return err
			}
			f.logger.Warn("kafka read failed", zap.Error(err))
			continue
		}

		pushCtx, cancel := context.WithTimeout(ctx, pushTimeout)
		err = f.pusher.PushEventJSON(pushCtx, msg.Value)
		cancel()
		if err != nil {
			f.logger.Warn("loki push failed",
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
			continue
		}
		forwarded++
	}
}
