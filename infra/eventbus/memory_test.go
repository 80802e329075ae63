package eventbus

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/amirasaad/marketpay/pkg/domain/events"
	"github.com/amirasaad/marketpay/pkg/domain/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMemoryEventBus_EmitDispatchesByType(t *testing.T) {
	bus := NewWithMemory(discardLogger())
	var changed, initiated int
	bus.Register(events.TypePaymentStatusChanged, func(ctx context.Context, e events.Event) error {
		changed++
		return nil
	})
	bus.Register(events.TypePaymentInitiated, func(ctx context.Context, e events.Event) error {
		initiated++
		return errors.New("handler errors are logged")
	})

	require.NoError(t, bus.Emit(context.Background(), events.PaymentStatusChanged{To: payment.StatusCompleted}))
	require.NoError(t, bus.Emit(context.Background(), events.PaymentInitiated{}))

	assert.Equal(t, 1, changed)
	assert.Equal(t, 1, initiated)
	assert.Len(t, bus.Published(), 2)

	bus.ClearPublished()
	assert.Empty(t, bus.Published())
}

func TestMemoryAsyncEventBus_HandlesEvents(t *testing.T) {
	bus := NewWithMemoryAsync(discardLogger())
	var count atomic.Int32
	bus.Register(events.TypeWebhookReceived, func(ctx context.Context, e events.Event) error {
		count.Add(1)
		return nil
	})
	bus.Register(events.TypeWebhookReceived, func(ctx context.Context, e events.Event) error {
		panic("recovered")
	})

	for range 5 {
		require.NoError(t, bus.Emit(context.Background(), events.WebhookReceived{Method: payment.MethodMTNMoMo}))
	}
	bus.Wait()
	assert.Equal(t, int32(5), count.Load())
}

func TestEnvelope_RoundTripsThroughFactories(t *testing.T) {
	raw, err := encodeEnvelope(events.PaymentStatusChanged{Reference: "REF1", To: payment.StatusExpired})
	require.NoError(t, err)

	evt, typ, err := decodeEnvelope(raw, events.Factories())
	require.NoError(t, err)
	assert.Equal(t, events.TypePaymentStatusChanged, typ)
	changed, ok := evt.(*events.PaymentStatusChanged)
	require.True(t, ok)
	assert.Equal(t, "REF1", changed.Reference)
	assert.Equal(t, payment.StatusExpired, changed.To)

	_, _, err = decodeEnvelope([]byte(`{"type":"nope","payload":{}}`), events.Factories())
	assert.Error(t, err)
}

func TestParseBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, parseBrokers(" a:9092, ,b:9092 "))
	assert.Empty(t, parseBrokers(""))
}
