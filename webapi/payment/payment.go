// Package payment exposes the payment processors over HTTP.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/amirasaad/marketpay/pkg/config"
	"github.com/amirasaad/marketpay/pkg/domain/payment"
	"github.com/amirasaad/marketpay/pkg/middleware"
	paymentsvc "github.com/amirasaad/marketpay/pkg/service/payment"
	"github.com/amirasaad/marketpay/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SignatureHeader carries the hex HMAC-SHA256 of a webhook body.
const SignatureHeader = "X-Webhook-Signature"

// Payments is the processor registry as seen by the handlers.
type Payments interface {
	InitiatePayment(ctx context.Context, method payment.Method, req payment.InitiateRequest) payment.InitResult
	VerifyPayment(ctx context.Context, method payment.Method, reference string) payment.VerificationResult
	RefundPayment(ctx context.Context, method payment.Method, req payment.RefundRequest) payment.RefundResult
	ProcessWebhook(ctx context.Context, method payment.Method, hook payment.Webhook) error
	InvalidateConfig(ctx context.Context, method payment.Method) error
	Transaction(ctx context.Context, reference string) (*payment.Transaction, error)
}

// MethodLister answers the public method listing.
type MethodLister interface {
	ListMethods(ctx context.Context) (*paymentsvc.Listing, error)
}

// Routes registers the payment endpoints.
func Routes(
	app *fiber.App,
	payments Payments,
	methods MethodLister,
	cfg *config.App,
	logger *slog.Logger,
) {
	logger = logger.With("handler", "payment")
	protected := middleware.JwtProtected(cfg.Auth.Jwt)
	admin := middleware.RequireRole(cfg.Auth.Jwt.AdminRole)

	app.Get("/payment-methods", ListMethods(methods, logger))
	app.Post("/webhooks/:method", Webhook(payments, logger))

	api := app.Group("/api/payments", protected)
	api.Post("/:method/refunds", admin, Refund(payments))
	api.Post("/:method", Initiate(payments, payment.Tier(cfg.Payment.DefaultTier)))
	api.Get("/:method/:reference", Verify(payments, cfg.Auth.Jwt.AdminRole))

	app.Delete("/api/admin/payment-methods/:method/cache", protected, admin, InvalidateConfig(payments, logger))
}

// ListMethods returns the supported methods and whether each is active.
// @Summary List payment methods
// @Description Lists every supported payment method and whether it is currently active.
// @Tags payments
// @Produce json
// @Success 200 {object} paymentsvc.Listing "Payment methods"
// @Failure 429 {object} common.ProblemDetails "Too many requests"
// @Failure 500 {object} common.ProblemDetails "Internal server error"
// @Router /payment-methods [get]
func ListMethods(methods MethodLister, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		listing, err := methods.ListMethods(c.UserContext())
		if err != nil {
			logger.Error("failed to list payment methods", "error", err)
			return common.ProblemDetailsJSON(c, "Internal Server Error", nil,
				fiber.StatusInternalServerError, "failed to load payment methods")
		}
		return c.JSON(listing)
	}
}

// Initiate starts a payment for the authenticated user.
// @Summary Initiate a payment
// @Description Starts a payment with the given method for the authenticated user. Mobile money needs phone_number, crypto needs crypto_type.
// @Tags payments
// @Accept json
// @Produce json
// @Param method path string true "Payment method" Enums(mtn_momo, airtel_money, bank_transfer, crypto, wallet)
// @Param request body InitiatePaymentRequest true "Payment details"
// @Success 200 {object} payment.InitResult "Payment initiated"
// @Failure 400 {object} common.ProblemDetails "Invalid request"
// @Failure 401 {object} common.ProblemDetails "Unauthorized"
// @Failure 422 {object} payment.InitResult "Payment rejected"
// @Failure 501 {object} payment.InitResult "Method not implemented"
// @Router /api/payments/{method} [post]
// @Security BearerAuth
func Initiate(payments Payments, defaultTier payment.Tier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := middleware.CurrentClaims(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err, fiber.StatusUnauthorized)
		}
		input, err := common.BindAndValidate[InitiatePaymentRequest](c)
		if err != nil {
			return nil
		}
		amount, err := decimal.NewFromString(input.Amount)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid amount", nil, fiber.StatusBadRequest, err.Error())
		}
		req := payment.InitiateRequest{
			UserID:      claims.UserID,
			Amount:      amount,
			Currency:    input.Currency,
			Type:        payment.TransactionType(input.Type),
			Description: input.Description,
			PhoneNumber: input.PhoneNumber,
			CryptoType:  input.CryptoType,
			Tier:        claims.Tier,
			Metadata:    input.Metadata,
		}
		if req.Tier == "" {
			req.Tier = defaultTier
		}
		if input.ListingID != "" {
			id := uuid.MustParse(input.ListingID)
			req.ListingID = &id
		}

		res := payments.InitiatePayment(c.UserContext(), payment.Method(c.Params("method")), req)
		return c.Status(resultStatus(res.Success, res.NotImplemented)).JSON(res)
	}
}

// Verify reports the current state of a payment. Offline methods answer
// NotImplemented alongside the stored status, so the body is always 200.
// Only the payer and adminRole may see a transaction; anyone else gets the
// not-found result.
// @Summary Verify a payment
// @Description Reports the current status of a payment owned by the caller.
// @Tags payments
// @Produce json
// @Param method path string true "Payment method"
// @Param reference path string true "Payment reference"
// @Success 200 {object} payment.VerificationResult "Payment status"
// @Failure 401 {object} common.ProblemDetails "Unauthorized"
// @Router /api/payments/{method}/{reference} [get]
// @Security BearerAuth
func Verify(payments Payments, adminRole string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := middleware.CurrentClaims(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err, fiber.StatusUnauthorized)
		}
		reference := c.Params("reference")
		tx, err := payments.Transaction(c.UserContext(), reference)
		if err != nil {
			return c.JSON(payment.VerifyFailure(reference, err))
		}
		if tx == nil || (tx.UserID != claims.UserID && (adminRole == "" || claims.Role != adminRole)) {
			return c.JSON(payment.VerifyFailure(reference,
				fmt.Errorf("%w: transaction %s", payment.ErrNotFound, reference)))
		}
		res := payments.VerifyPayment(c.UserContext(), payment.Method(c.Params("method")), reference)
		return c.JSON(res)
	}
}

// Refund returns (part of) a completed payment. Admin only.
// @Summary Refund a payment
// @Description Refunds all or part of a completed payment. Requires the admin role.
// @Tags payments
// @Accept json
// @Produce json
// @Param method path string true "Payment method"
// @Param request body RefundPaymentRequest true "Refund details"
// @Success 200 {object} payment.RefundResult "Refund accepted"
// @Failure 400 {object} common.ProblemDetails "Invalid request"
// @Failure 403 {object} common.ProblemDetails "Forbidden"
// @Failure 422 {object} payment.RefundResult "Refund rejected"
// @Failure 501 {object} payment.RefundResult "Method not implemented"
// @Router /api/payments/{method}/refunds [post]
// @Security BearerAuth
func Refund(payments Payments) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := middleware.CurrentClaims(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err, fiber.StatusUnauthorized)
		}
		input, err := common.BindAndValidate[RefundPaymentRequest](c)
		if err != nil {
			return nil
		}
		req := payment.RefundRequest{
			Reference:   input.Reference,
			Reason:      input.Reason,
			ProcessedBy: &claims.UserID,
		}
		if input.Amount != "" {
			amount, err := decimal.NewFromString(input.Amount)
			if err != nil {
				return common.ProblemDetailsJSON(c, "Invalid amount", nil, fiber.StatusBadRequest, err.Error())
			}
			req.Amount = &amount
		}
		res := payments.RefundPayment(c.UserContext(), payment.Method(c.Params("method")), req)
		return c.Status(resultStatus(res.Success, res.NotImplemented)).JSON(res)
	}
}

// Webhook feeds a provider notification to its processor. Providers retry
// on any non-2xx answer.
// @Summary Receive a provider webhook
// @Description Applies a provider notification. The body may be signed with the X-Webhook-Signature header.
// @Tags webhooks
// @Accept json
// @Produce json
// @Param method path string true "Payment method"
// @Param X-Webhook-Signature header string false "Hex HMAC-SHA256 of the body"
// @Success 200 {object} map[string]bool "Webhook accepted"
// @Failure 400 {object} common.ProblemDetails "Invalid payload or signature"
// @Failure 404 {object} common.ProblemDetails "Unknown method"
// @Failure 500 {object} common.ProblemDetails "Processing failed"
// @Router /webhooks/{method} [post]
func Webhook(payments Payments, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		method := payment.Method(c.Params("method"))
		hook := payment.Webhook{
			Payload:   append([]byte(nil), c.Body()...),
			Signature: c.Get(SignatureHeader),
		}
		if err := payments.ProcessWebhook(c.UserContext(), method, hook); err != nil {
			status := webhookStatus(err)
			if status == fiber.StatusInternalServerError {
				logger.Error("webhook processing failed", "method", method, "error", err)
			}
			return common.ProblemDetailsJSON(c, "Webhook rejected", err, status)
		}
		return c.JSON(fiber.Map{"received": true})
	}
}

// InvalidateConfig drops the cached configuration of a method.
// @Summary Invalidate a cached method configuration
// @Tags admin
// @Param method path string true "Payment method"
// @Success 204 "Cache cleared"
// @Failure 401 {object} common.ProblemDetails "Unauthorized"
// @Failure 403 {object} common.ProblemDetails "Forbidden"
// @Failure 404 {object} common.ProblemDetails "Unsupported method"
// @Router /api/admin/payment-methods/{method}/cache [delete]
// @Security BearerAuth
func InvalidateConfig(payments Payments, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		method := payment.Method(c.Params("method"))
		if err := payments.InvalidateConfig(c.UserContext(), method); err != nil {
			if !errors.Is(err, payment.ErrUnsupportedMethod) {
				logger.Error("failed to invalidate configuration", "method", method, "error", err)
			}
			return common.ProblemDetailsJSON(c, "Cache invalidation failed", err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func resultStatus(success, notImplemented bool) int {
	switch {
	case success:
		return fiber.StatusOK
	case notImplemented:
		return fiber.StatusNotImplemented
	default:
		return fiber.StatusUnprocessableEntity
	}
}

func webhookStatus(err error) int {
	switch {
	case errors.Is(err, payment.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, payment.ErrNotImplemented):
		return fiber.StatusNotImplemented
	case errors.Is(err, payment.ErrUnsupportedMethod):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}
