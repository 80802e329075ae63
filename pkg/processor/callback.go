package processor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/amirasaad/marketpay/pkg/domain/payment"
)

// statusCallback is the settlement notification shape shared by the
// offline methods: a reconciliation feed for bank transfers and a chain
// watcher for crypto.
type statusCallback struct {
	Reference         string `json:"reference"`
	Status            string `json:"status"`
	ProviderReference string `json:"provider_reference,omitempty"`
	TxHash            string `json:"tx_hash,omitempty"`
}

func (b *Base) applyStatusCallback(ctx context.Context, method payment.Method, hook payment.Webhook) error {
	cfg, err := b.GetPaymentConfig(ctx, method)
	if err != nil {
		return err
	}
	if err := b.VerifySignature(cfg, hook); err != nil {
		return err
	}
	var cb statusCallback
	if err := json.Unmarshal(hook.Payload, &cb); err != nil {
		return payment.ValidationError("malformed webhook payload")
	}
	if cb.Reference == "" {
		return payment.ValidationError("webhook payload is missing reference")
	}
	if cb.Status == "" {
		return payment.ValidationError("webhook payload is missing status")
	}

	tx, err := b.GetTransaction(ctx, cb.Reference)
	if err != nil {
		return err
	}
	if tx == nil || tx.Method != method {
		return fmt.Errorf("%w: transaction %s", payment.ErrNotFound, cb.Reference)
	}
	mapped := payment.MapProviderStatus(cb.Status)
	if mapped == tx.Status {
		return nil
	}
	if tx.Status.IsTerminal() {
		return payment.ValidationError(
			fmt.Sprintf("transaction %s is already %s", cb.Reference, tx.Status))
	}
	data := map[string]any{"status": cb.Status}
	if cb.ProviderReference != "" {
		data["provider_reference"] = cb.ProviderReference
	}
	if cb.TxHash != "" {
		data["tx_hash"] = cb.TxHash
	}
	return b.UpdateTransactionStatus(ctx, cb.Reference, mapped, data)
}
