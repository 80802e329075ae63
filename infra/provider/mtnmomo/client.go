// Package mtnmomo is an HTTP client for the MTN Mobile Money collection API.
package mtnmomo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/amirasaad/marketpay/pkg/metrics"
	"github.com/amirasaad/marketpay/pkg/provider"
)

const providerName = "mtn_momo"

// Client calls the collection endpoints. Credentials travel with every
// call since they live in the per-method configuration row.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a client. A nil httpClient uses one without a timeout; the
// caller bounds each call through its context.
func New(httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger.With("provider", providerName),
	}
}

type party struct {
	PartyIDType string `json:"partyIdType"`
	PartyID     string `json:"partyId"`
}

type requestToPayBody struct {
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
	ExternalID   string `json:"externalId"`
	Payer        party  `json:"payer"`
	PayerMessage string `json:"payerMessage,omitempty"`
	PayeeNote    string `json:"payeeNote,omitempty"`
}

type refundBody struct {
	Amount              string `json:"amount"`
	Currency            string `json:"currency"`
	ExternalID          string `json:"externalId"`
	PayerMessage        string `json:"payerMessage,omitempty"`
	PayeeNote           string `json:"payeeNote,omitempty"`
	ReferenceIDToRefund string `json:"referenceIdToRefund"`
}

// StatusError is a non-2xx answer from the API.
type StatusError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("mtn momo %s returned status %d: %s", e.Operation, e.StatusCode, e.Body)
}

// RequestToPay asks the payer to approve a debit. The API answers 202
// without a body; the outcome arrives by callback or status query.
func (c *Client) RequestToPay(ctx context.Context, creds provider.MoMoCredentials, req provider.RequestToPay) error {
	body := requestToPayBody{
		Amount:       req.Amount.String(),
		Currency:     req.Currency,
		ExternalID:   req.ExternalID,
		Payer:        party{PartyIDType: "MSISDN", PartyID: req.PayerMSISDN},
		PayerMessage: req.PayerMessage,
		PayeeNote:    req.PayeeNote,
	}
	_, err := c.do(ctx, creds, "request_to_pay", http.MethodPost, "/requesttopay", req.ReferenceID, body)
	return err
}

// RequestToPayStatus fetches the state of a request previously sent with
// referenceID.
func (c *Client) RequestToPayStatus(
	ctx context.Context,
	creds provider.MoMoCredentials,
	referenceID string,
) (*provider.RequestToPayStatus, error) {
	raw, err := c.do(ctx, creds, "status", http.MethodGet, "/requesttopay/"+referenceID, "", nil)
	if err != nil {
		return nil, err
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("mtn momo status: decode response: %w", err)
	}
	return &provider.RequestToPayStatus{
		ReferenceID:            referenceID,
		ExternalID:             stringField(data, "externalId"),
		Status:                 strings.ToUpper(stringField(data, "status")),
		FinancialTransactionID: stringField(data, "financialTransactionId"),
		Reason:                 reason(data["reason"]),
		Raw:                    data,
	}, nil
}

// Refund returns money for a settled request.
func (c *Client) Refund(ctx context.Context, creds provider.MoMoCredentials, req provider.MoMoRefund) error {
	body := refundBody{
		Amount:              req.Amount.String(),
		Currency:            req.Currency,
		ExternalID:          req.ExternalID,
		PayerMessage:        req.PayerMessage,
		PayeeNote:           req.PayeeNote,
		ReferenceIDToRefund: req.ReferenceIDToRefund,
	}
	_, err := c.do(ctx, creds, "refund", http.MethodPost, "/refund", req.ReferenceID, body)
	return err
}

func (c *Client) do(
	ctx context.Context,
	creds provider.MoMoCredentials,
	operation, method, path, referenceID string,
	payload any,
) (respBody []byte, err error) {
	start := time.Now()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		metrics.ProviderLatency.WithLabelValues(providerName, operation, outcome).
			Observe(time.Since(start).Seconds())
	}()

	var reader io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("mtn momo %s: encode request: %w", operation, err)
		}
		reader = bytes.NewReader(encoded)
	}

	url := strings.TrimRight(creds.Endpoint, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("mtn momo %s: build request: %w", operation, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if creds.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+creds.APIKey)
	}
	if creds.SubscriptionKey != "" {
		req.Header.Set("Ocp-Apim-Subscription-Key", creds.SubscriptionKey)
	}
	if creds.Environment != "" {
		req.Header.Set("X-Target-Environment", creds.Environment)
	}
	if referenceID != "" {
		req.Header.Set("X-Reference-Id", referenceID)
	}
	if creds.CallbackURL != "" && method == http.MethodPost {
		req.Header.Set("X-Callback-Url", creds.CallbackURL)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mtn momo %s: %w", operation, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err = io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("mtn momo %s: read response: %w", operation, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("provider rejected request",
			"operation", operation,
			"status", resp.StatusCode,
			"reference_id", referenceID,
		)
		return nil, &StatusError{Operation: operation, StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}

func stringField(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}

// reason is either a bare code or an object with code and message.
func reason(v any) string {
	switch r := v.(type) {
	case string:
		return r
	case map[string]any:
		if msg := stringField(r, "message"); msg != "" {
			return msg
		}
		return stringField(r, "code")
	}
	return ""
}

var _ provider.MobileMoney = (*Client)(nil)
