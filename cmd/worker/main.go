// Worker consumes lead events from Kafka and pushes them to Loki.
// Set KAFKA_BROKERS, LEAD_EVENTS_TOPIC, KAFKA_GROUP_ID and LOKI_URL.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"lead-capture/internal/config"
	"lead-capture/internal/logging"
	"lead-capture/internal/telemetry/forward"
	"lead-capture/internal/telemetry/loki"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	brokers := cfg.KafkaBrokersList()
	if len(brokers) == 0 {
		logger.Fatal("worker: KAFKA_BROKERS is required")
	}
	if cfg.LokiURL == "" {
		logger.Fatal("worker: LOKI_URL is required")
	}
	client, err := loki.NewClient(cfg.LokiURL)
	if err != nil {
		logger.Fatal("worker: loki client", zap.Error(err))
	}

	reader := forward.NewKafkaReader(brokers, cfg.LeadEventsTopic, cfg.KafkaGroupID)
	defer reader.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("worker: forwarding lead events",
		zap.String("topic", cfg.LeadEventsTopic),
		zap.String("group_id", cfg.KafkaGroupID),
		zap.String("loki_url", cfg.LokiURL))

	if err := forward.NewForwarder(reader, client, logger).Run(ctx); err != nil {
		logger.Error("worker: forwarder stopped", zap.Error(err))
	}
}
