//go:build kafka

package eventbus

import (
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/amirasaad/marketpay/pkg/domain/events"
	"github.com/amirasaad/marketpay/pkg/domain/payment"
	"github.com/stretchr/testify/require"
	testcontainerskafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

// setupKafkaBus starts a Kafka container and returns a bus connected to it.
func setupKafkaBus(tb testing.TB) *KafkaEventBus {
	tb.Helper()
	if !dockerIsReachable() {
		tb.Skip("docker is not reachable")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	kafkaContainer, err := testcontainerskafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(tb, err)
	tb.Cleanup(func() { _ = kafkaContainer.Terminate(context.Background()) })

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(tb, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus, err := NewWithKafka(strings.Join(brokers, ","), events.Factories(), logger, &KafkaEventBusConfig{
		GroupID:     "marketpay-test",
		TopicPrefix: "marketpay.test",
	})
	require.NoError(tb, err)
	tb.Cleanup(func() { _ = bus.Close() })
	return bus
}

func dockerIsReachable() bool {
	host := os.Getenv("DOCKER_HOST")
	if strings.HasPrefix(host, "unix://") {
		return canDialUnix(strings.TrimPrefix(host, "unix://"))
	}
	if host != "" {
		return true
	}
	return canDialUnix("/var/run/docker.sock")
}

func canDialUnix(path string) bool {
	conn, err := net.DialTimeout("unix", path, 300*time.Millisecond)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

func TestKafkaBusHandlerReceivesEvent(t *testing.T) {
	bus := setupKafkaBus(t)

	received := make(chan *events.PaymentInitiated, 1)
	bus.Register(events.TypePaymentInitiated, func(_ context.Context, e events.Event) error {
		received <- e.(*events.PaymentInitiated)
		return nil
	})

	require.NoError(t, bus.Emit(context.Background(), events.PaymentInitiated{
		Reference: "BNK-1",
		Method:    payment.MethodBankTransfer,
		Currency:  "RWF",
	}))

	select {
	case evt := <-received:
		require.Equal(t, "BNK-1", evt.Reference)
		require.Equal(t, payment.MethodBankTransfer, evt.Method)
	case <-time.After(30 * time.Second):
		t.Fatal("handler did not receive event in time")
	}
}
