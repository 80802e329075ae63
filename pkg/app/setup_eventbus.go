package app

import (
	"context"
	"log/slog"

	"github.com/amirasaad/marketpay/pkg/domain/events"
	"github.com/amirasaad/marketpay/pkg/eventbus"
)

// setupEventBus registers the lifecycle subscribers.
func (a *App) setupEventBus(logger *slog.Logger) {
	bus := a.Deps.EventBus
	audit := auditHandler(logger.With("subscriber", "payment-audit"))

	bus.Register(events.TypePaymentInitiated, audit)
	bus.Register(events.TypePaymentStatusChanged, audit)
	bus.Register(events.TypeRefundProcessed, audit)
	bus.Register(events.TypeWebhookReceived, audit)
}

// auditHandler logs lifecycle events. Events emitted in-process arrive as
// values; events decoded from a broker arrive as pointers.
func auditHandler(logger *slog.Logger) eventbus.HandlerFunc {
	return func(_ context.Context, event events.Event) error {
		switch e := deref(event).(type) {
		case events.PaymentInitiated:
			logger.Info("payment initiated",
				"reference", e.Reference,
				"method", e.Method,
				"amount", e.Amount.String(),
				"currency", e.Currency,
			)
		case events.PaymentStatusChanged:
			logger.Info("payment status changed", "reference", e.Reference, "from", e.From, "to", e.To)
		case events.RefundProcessed:
			logger.Info("refund processed",
				"original_reference", e.OriginalReference,
				"refund_reference", e.RefundReference,
				"status", e.Status,
			)
		default:
			logger.Debug("event received", "type", event.Type())
		}
		return nil
	}
}

func deref(event events.Event) events.Event {
	switch e := event.(type) {
	case *events.PaymentInitiated:
		return *e
	case *events.PaymentStatusChanged:
		return *e
	case *events.RefundProcessed:
		return *e
	case *events.WebhookReceived:
		return *e
	}
	return event
}
