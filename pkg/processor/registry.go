package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/amirasaad/marketpay/pkg/domain/payment"
	"github.com/amirasaad/marketpay/pkg/provider"
)

// Deps are the collaborators processors are built from.
type Deps struct {
	Base            *Base
	MobileMoney     provider.MobileMoney
	Rates           provider.RateSource
	ProviderTimeout time.Duration
	Logger          *slog.Logger
}

// Factory builds the processor of one method.
type Factory func(deps Deps) (Processor, error)

// DefaultFactories maps every known method to its constructor.
func DefaultFactories() map[payment.Method]Factory {
	return map[payment.Method]Factory{
		payment.MethodMTNMoMo: func(d Deps) (Processor, error) {
			if d.MobileMoney == nil {
				return nil, errors.New("mtn_momo needs a mobile money client")
			}
			return NewMTNMoMo(d.Base, d.MobileMoney, d.ProviderTimeout), nil
		},
		payment.MethodAirtelMoney: func(d Deps) (Processor, error) {
			return NewAirtelMoney(d.Base), nil
		},
		payment.MethodBankTransfer: func(d Deps) (Processor, error) {
			return NewBankTransfer(d.Base), nil
		},
		payment.MethodCrypto: func(d Deps) (Processor, error) {
			return NewCrypto(d.Base, d.Rates), nil
		},
		payment.MethodWallet: func(d Deps) (Processor, error) {
			return NewWallet(d.Base), nil
		},
	}
}

// Registry resolves method tags to processors, building each at most once.
type Registry struct {
	mu         sync.Mutex
	deps       Deps
	factories  map[payment.Method]Factory
	processors map[payment.Method]Processor
	logger     *slog.Logger
}

// NewRegistry creates a registry over DefaultFactories.
func NewRegistry(deps Deps) *Registry {
	return NewRegistryWithFactories(deps, DefaultFactories())
}

// NewRegistryWithFactories creates a registry over factories.
func NewRegistryWithFactories(deps Deps, factories map[payment.Method]Factory) *Registry {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		deps:       deps,
		factories:  factories,
		processors: make(map[payment.Method]Processor, len(factories)),
		logger:     logger.With("component", "processor-registry"),
	}
}

// Processor returns the processor of method, building it on first use.
func (r *Registry) Processor(method payment.Method) (Processor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.processors[method]; ok {
		return p, nil
	}
	factory, ok := r.factories[method]
	if !ok {
		return nil, payment.UnsupportedMethodError(method)
	}
	p, err := factory(r.deps)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s processor: %w", method, err)
	}
	r.processors[method] = p
	r.logger.Debug("processor created", "method", method)
	return p, nil
}

// InitiatePayment delegates to the processor of method.
func (r *Registry) InitiatePayment(
	ctx context.Context,
	method payment.Method,
	req payment.InitiateRequest,
) payment.InitResult {
	p, err := r.Processor(method)
	if err != nil {
		return payment.InitFailure(err)
	}
	return p.Initiate(ctx, req)
}

// VerifyPayment delegates to the processor of method.
func (r *Registry) VerifyPayment(
	ctx context.Context,
	method payment.Method,
	reference string,
) payment.VerificationResult {
	p, err := r.Processor(method)
	if err != nil {
		return payment.VerifyFailure(reference, err)
	}
	return p.Verify(ctx, reference)
}

// ProcessWebhook delegates to the processor of method.
func (r *Registry) ProcessWebhook(ctx context.Context, method payment.Method, hook payment.Webhook) error {
	p, err := r.Processor(method)
	if err != nil {
		return err
	}
	return p.ProcessWebhook(ctx, hook)
}

// RefundPayment delegates to the processor of method.
func (r *Registry) RefundPayment(
	ctx context.Context,
	method payment.Method,
	req payment.RefundRequest,
) payment.RefundResult {
	p, err := r.Processor(method)
	if err != nil {
		return payment.RefundFailure(err)
	}
	return p.Refund(ctx, req)
}

// Transaction loads a transaction by reference; nil when unknown.
func (r *Registry) Transaction(ctx context.Context, reference string) (*payment.Transaction, error) {
	return r.deps.Base.GetTransaction(ctx, reference)
}

// SupportedMethods lists the methods the registry can build, in display
// order.
func (r *Registry) SupportedMethods() []payment.Method {
	out := make([]payment.Method, 0, len(r.factories))
	for _, m := range payment.Methods {
		if _, ok := r.factories[m]; ok {
			out = append(out, m)
		}
	}
	return out
}

// IsMethodAvailable reports whether a processor can be built for method.
// It does not consult configuration.
func (r *Registry) IsMethodAvailable(method payment.Method) bool {
	_, err := r.Processor(method)
	return err == nil
}

// InvalidateConfig drops the cached configuration of method.
func (r *Registry) InvalidateConfig(ctx context.Context, method payment.Method) error {
	if !method.IsKnown() {
		return payment.UnsupportedMethodError(method)
	}
	return r.deps.Base.configs.Invalidate(ctx, method)
}

// Configs exposes the configuration store.
func (r *Registry) Configs() *ConfigStore {
	return r.deps.Base.configs
}
