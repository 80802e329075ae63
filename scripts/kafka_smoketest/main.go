// Command kafka_smoketest emits one of each payment lifecycle event through
// the Kafka event bus and waits until every one is consumed back.
//
// Usage: BROKERS=localhost:9092 go run ./scripts/kafka_smoketest
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	infra_eventbus "github.com/amirasaad/marketpay/infra/eventbus"
	"github.com/amirasaad/marketpay/pkg/domain/events"
	"github.com/amirasaad/marketpay/pkg/domain/payment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func main() {
	if err := run(); err != nil {
		slog.Error("smoke test failed", "error", err)
		os.Exit(1)
	}
	slog.Info("smoke test passed")
}

func run() error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	brokers := strings.TrimSpace(os.Getenv("BROKERS"))
	if brokers == "" {
		brokers = "localhost:9092"
	}
	// a fresh group and prefix so earlier runs are not replayed
	runID := uuid.NewString()[:8]
	bus, err := infra_eventbus.NewWithKafka(brokers, events.Factories(), logger, &infra_eventbus.KafkaEventBusConfig{
		GroupID:     "marketpay-smoke-" + runID,
		TopicPrefix: "marketpay.smoke." + runID,
	})
	if err != nil {
		return err
	}
	defer func() { _ = bus.Close() }()

	now := time.Now().UTC()
	reference := payment.GenerateReference(payment.MethodMTNMoMo, time.Now())
	sample := []events.Event{
		events.PaymentInitiated{
			TransactionID: uuid.New(),
			Reference:     reference,
			UserID:        uuid.New(),
			Method:        payment.MethodMTNMoMo,
			Amount:        decimal.NewFromInt(5000),
			Currency:      "RWF",
			OccurredAt:    now,
		},
		events.PaymentStatusChanged{
			Reference: reference, Method: payment.MethodMTNMoMo,
			From: payment.StatusPending, To: payment.StatusCompleted, OccurredAt: now,
		},
		events.RefundProcessed{
			OriginalReference: reference, RefundReference: reference + "-R",
			Method: payment.MethodMTNMoMo, Amount: decimal.NewFromInt(5000),
			Status: payment.StatusPending, OccurredAt: now,
		},
		events.WebhookReceived{Method: payment.MethodMTNMoMo, Outcome: "processed", OccurredAt: now},
	}

	var wg sync.WaitGroup
	wg.Add(len(sample))
	for _, evt := range sample {
		var once sync.Once
		bus.Register(evt.Type(), func(_ context.Context, got events.Event) error {
			logger.Info("consumed", "type", got.Type())
			once.Do(wg.Done)
			return nil
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	for _, evt := range sample {
		if err := bus.Emit(ctx, evt); err != nil {
			return err
		}
		logger.Info("produced", "type", evt.Type())
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("timed out waiting for events: %w", ctx.Err())
	}
}
