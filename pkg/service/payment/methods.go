// Package payment holds the application services built around the
// processor registry: the method listing, the expiry sweeper and the
// exchange rate sync.
package payment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amirasaad/marketpay/pkg/domain/payment"
	"github.com/amirasaad/marketpay/pkg/repository"
)

// MethodInfo describes one payment method to clients.
type MethodInfo struct {
	ID                      payment.Method `json:"id"`
	Name                    string         `json:"name"`
	DisplayName             string         `json:"displayName"`
	Icon                    string         `json:"icon"`
	Description             string         `json:"description"`
	IsActive                bool           `json:"isActive"`
	RequiresPhone           bool           `json:"requiresPhone"`
	RequiresCryptoSelection bool           `json:"requiresCryptoSelection"`
	SupportedCryptos        []string       `json:"supportedCryptos,omitempty"`
}

// Listing is the answer of ListMethods.
type Listing struct {
	Methods   []MethodInfo     `json:"methods"`
	Supported []payment.Method `json:"supported"`
}

type methodMeta struct {
	name, displayName       string
	icon, description       string
	requiresPhone           bool
	requiresCrypto          bool
	activeByDefault         bool
}

var catalog = map[payment.Method]methodMeta{
	payment.MethodMTNMoMo: {
		name:          "MTN MoMo",
		displayName:   "MTN Mobile Money",
		icon:          "/icons/payments/mtn-momo.svg",
		description:   "Pay from your MTN MoMo account",
		requiresPhone: true,
	},
	payment.MethodAirtelMoney: {
		name:          "Airtel Money",
		displayName:   "Airtel Money",
		icon:          "/icons/payments/airtel-money.svg",
		description:   "Pay from your Airtel Money account",
		requiresPhone: true,
	},
	payment.MethodBankTransfer: {
		name:        "Bank Transfer",
		displayName: "Direct Bank Transfer",
		icon:        "/icons/payments/bank-transfer.svg",
		description: "Transfer to our bank account using the payment reference",
	},
	payment.MethodCrypto: {
		name:           "Crypto",
		displayName:    "Cryptocurrency",
		icon:           "/icons/payments/crypto.svg",
		description:    "Pay with BTC, ETH or USDT",
		requiresCrypto: true,
	},
	payment.MethodWallet: {
		name:            "Wallet",
		displayName:     "Marketplace Wallet",
		icon:            "/icons/payments/wallet.svg",
		description:     "Pay instantly from your marketplace wallet balance",
		activeByDefault: true,
	},
}

// MethodLister is the part of the processor registry the listing needs.
type MethodLister interface {
	SupportedMethods() []payment.Method
}

// MethodsService answers the payment method listing.
type MethodsService struct {
	methods MethodLister
	uow     repository.UnitOfWork
	logger  *slog.Logger
}

// NewMethodsService creates the listing service.
func NewMethodsService(methods MethodLister, uow repository.UnitOfWork, logger *slog.Logger) *MethodsService {
	return &MethodsService{
		methods: methods,
		uow:     uow,
		logger:  logger.With("service", "payment-methods"),
	}
}

// ListMethods cross-references the supported methods with their
// configuration rows. A method without a row is active only if its catalog
// entry says so.
func (s *MethodsService) ListMethods(ctx context.Context) (*Listing, error) {
	configs, err := s.uow.Configurations().List(ctx)
	if err != nil {
		s.logger.Error("failed to load payment configurations", "error", err)
		return nil, fmt.Errorf("failed to list payment methods: %w", err)
	}
	byMethod := make(map[payment.Method]*payment.Configuration, len(configs))
	for _, c := range configs {
		byMethod[c.Method] = c
	}

	supported := s.methods.SupportedMethods()
	listing := &Listing{
		Methods:   make([]MethodInfo, 0, len(supported)),
		Supported: supported,
	}
	for _, m := range supported {
		meta, ok := catalog[m]
		if !ok {
			meta = methodMeta{name: string(m), displayName: string(m)}
		}
		info := MethodInfo{
			ID:                      m,
			Name:                    meta.name,
			DisplayName:             meta.displayName,
			Icon:                    meta.icon,
			Description:             meta.description,
			IsActive:                meta.activeByDefault,
			RequiresPhone:           meta.requiresPhone,
			RequiresCryptoSelection: meta.requiresCrypto,
		}
		cfg := byMethod[m]
		if cfg != nil {
			info.IsActive = cfg.IsActive
		}
		if m == payment.MethodCrypto {
			info.SupportedCryptos = enabledCryptos(cfg)
		}
		listing.Methods = append(listing.Methods, info)
	}
	return listing, nil
}

func enabledCryptos(cfg *payment.Configuration) []string {
	var out []string
	for _, symbol := range payment.SupportedCryptos {
		if cfg == nil || cfg.Data.CryptoEnabled(symbol) {
			out = append(out, symbol)
		}
	}
	return out
}
