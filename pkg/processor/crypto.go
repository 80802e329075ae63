package processor

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"github.com/amirasaad/marketpay/pkg/domain/payment"
	"github.com/amirasaad/marketpay/pkg/metrics"
	"github.com/amirasaad/marketpay/pkg/provider"
	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
)

const (
	cryptoDecimals = 8
	qrSize         = 256
)

var uriSchemes = map[string]string{
	payment.CryptoBTC:  "bitcoin",
	payment.CryptoETH:  "ethereum",
	payment.CryptoUSDT: "tether",
}

// Crypto converts the fiat amount into a crypto quote and returns the
// deposit address with a QR code. Settlement arrives through the webhook.
type Crypto struct {
	*Base
	rates  provider.RateSource
	logger *slog.Logger
}

// NewCrypto creates the crypto processor.
func NewCrypto(base *Base, rates provider.RateSource) *Crypto {
	return &Crypto{Base: base, rates: rates, logger: base.logger.With("processor", payment.MethodCrypto)}
}

func (p *Crypto) Method() payment.Method { return payment.MethodCrypto }

func (p *Crypto) Initiate(ctx context.Context, req payment.InitiateRequest) payment.InitResult {
	req.Normalize()
	res, err := p.initiate(ctx, req)
	if err != nil {
		p.logger.Warn("initiate failed", "user_id", req.UserID, "error", err)
		metrics.PaymentsInitiated.WithLabelValues(string(p.Method()), "failure").Inc()
		return payment.InitFailure(err)
	}
	metrics.PaymentsInitiated.WithLabelValues(string(p.Method()), "success").Inc()
	return res
}

func (p *Crypto) initiate(ctx context.Context, req payment.InitiateRequest) (payment.InitResult, error) {
	if err := req.Validate(); err != nil {
		return payment.InitResult{}, err
	}
	if req.CryptoType == "" {
		return payment.InitResult{}, payment.ValidationError("crypto type is required")
	}
	cfg, err := p.GetPaymentConfig(ctx, p.Method())
	if err != nil {
		return payment.InitResult{}, err
	}
	if !cfg.Data.CryptoEnabled(req.CryptoType) {
		return payment.InitResult{}, payment.ValidationError(
			fmt.Sprintf("crypto type %s is not enabled", req.CryptoType))
	}
	address := cfg.Data.WalletAddresses[req.CryptoType]
	if address == "" {
		return payment.InitResult{}, payment.ConfigurationError(
			fmt.Sprintf("no wallet address configured for %s", req.CryptoType))
	}

	total := req.Amount.Add(cfg.Data.Fee(req.Amount))
	quote, err := p.Quote(ctx, cfg.Data, total, req.Currency, req.CryptoType)
	if err != nil {
		return payment.InitResult{}, err
	}
	qr, err := qrDataURL(paymentURI(req.CryptoType, address, quote.Amount))
	if err != nil {
		return payment.InitResult{}, fmt.Errorf("failed to render QR code: %w", err)
	}

	tx, err := p.ReserveTransaction(ctx, p.Method(), req, cfg, func(tx *payment.Transaction) {
		tx.Metadata["crypto_type"] = req.CryptoType
		tx.Metadata["crypto_amount"] = quote.Amount.String()
		tx.Metadata["usd_amount"] = quote.USDAmount.String()
		tx.Metadata["wallet_address"] = address
		tx.Metadata["rate_mode"] = quote.RateMode
	}, nil)
	if err != nil {
		return payment.InitResult{}, err
	}

	return payment.InitResult{
		Success:       true,
		TransactionID: tx.ID.String(),
		Reference:     tx.Reference,
		Status:        payment.StatusPending,
		Fee:           &tx.FeeAmount,
		ExpiresAt:     &tx.ExpiresAt,
		Instructions: &payment.Instructions{
			Message: fmt.Sprintf("Send exactly %s %s to the address below before the payment expires.",
				quote.Amount.String(), req.CryptoType),
			Crypto: &payment.CryptoDetails{
				Currency:      req.CryptoType,
				Amount:        quote.Amount,
				WalletAddress: address,
				QRCode:        qr,
				USDAmount:     quote.USDAmount,
				RateMode:      quote.RateMode,
			},
		},
	}, nil
}

// Quote is a fiat amount priced in a crypto currency.
type Quote struct {
	Amount    decimal.Decimal
	USDAmount decimal.Decimal
	RateMode  string
}

// Quote converts amount of currency into symbol. Manual mode prices the
// fiat leg with manual_exchange_rate (units of currency per USD) and the
// crypto leg with manual_crypto_prices, falling back to the live source for
// anything not configured. Live mode reads both legs from the source.
func (p *Crypto) Quote(
	ctx context.Context,
	data payment.ConfigData,
	amount decimal.Decimal,
	currency, symbol string,
) (Quote, error) {
	mode := data.ExchangeRateMode
	if mode == "" {
		mode = payment.RateModeLive
		if data.ManualExchangeRate.IsPositive() {
			mode = payment.RateModeManual
		}
	}

	var usd, cryptoUSD decimal.Decimal
	switch {
	case strings.EqualFold(currency, "USD"):
		usd = amount
	case mode == payment.RateModeManual && data.ManualExchangeRate.IsPositive():
		usd = amount.Div(data.ManualExchangeRate)
	default:
		fiatUSD, err := p.rate(ctx, currency)
		if err != nil {
			return Quote{}, err
		}
		usd = amount.Mul(fiatUSD)
	}

	if price, ok := data.ManualCryptoPrices[symbol]; mode == payment.RateModeManual && ok && price.IsPositive() {
		cryptoUSD = price
	} else {
		var err error
		if cryptoUSD, err = p.rate(ctx, symbol); err != nil {
			return Quote{}, err
		}
	}

	return Quote{
		Amount:    usd.DivRound(cryptoUSD, cryptoDecimals),
		USDAmount: usd.Round(2),
		RateMode:  mode,
	}, nil
}

func (p *Crypto) rate(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if p.rates == nil {
		return decimal.Zero, payment.ConfigurationError("no exchange rate source available for " + symbol)
	}
	rate, err := p.rates.USDRate(ctx, symbol)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: rate for %s: %w", payment.ErrProvider, symbol, err)
	}
	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: non-positive rate for %s", payment.ErrProvider, symbol)
	}
	return rate, nil
}

func paymentURI(symbol, address string, amount decimal.Decimal) string {
	scheme, ok := uriSchemes[symbol]
	if !ok {
		scheme = strings.ToLower(symbol)
	}
	return fmt.Sprintf("%s:%s?amount=%s", scheme, address, amount.String())
}

func qrDataURL(content string) (string, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, qrSize)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// Verify expires stale quotes and otherwise reports NotImplemented with the
// stored status; on-chain confirmation arrives through the webhook.
func (p *Crypto) Verify(ctx context.Context, reference string) payment.VerificationResult {
	tx, done := p.Lookup(ctx, p.Method(), reference)
	if done != nil {
		return *done
	}
	res := payment.VerifyFailure(reference, payment.NotImplementedError(p.Method(), "verify"))
	res.Status = tx.Status
	return res
}

func (p *Crypto) ProcessWebhook(ctx context.Context, hook payment.Webhook) error {
	return p.HandleWebhook(ctx, p.Method(), "chain.confirmation", hook, func(ctx context.Context) error {
		return p.applyStatusCallback(ctx, p.Method(), hook)
	})
}

func (p *Crypto) Refund(_ context.Context, _ payment.RefundRequest) payment.RefundResult {
	return payment.RefundFailure(payment.NotImplementedError(p.Method(), "refund"))
}

var _ Processor = (*Crypto)(nil)
