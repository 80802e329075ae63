package mocks

import (
	"context"

	"github.com/amirasaad/marketpay/pkg/provider"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MobileMoney is a testify mock of provider.MobileMoney.
type MobileMoney struct {
	mock.Mock
}

func (m *MobileMoney) RequestToPay(ctx context.Context, creds provider.MoMoCredentials, req provider.RequestToPay) error {
	args := m.Called(ctx, creds, req)
	return args.Error(0)
}

func (m *MobileMoney) RequestToPayStatus(
	ctx context.Context,
	creds provider.MoMoCredentials,
	referenceID string,
) (*provider.RequestToPayStatus, error) {
	args := m.Called(ctx, creds, referenceID)
	status, _ := args.Get(0).(*provider.RequestToPayStatus)
	return status, args.Error(1)
}

func (m *MobileMoney) Refund(ctx context.Context, creds provider.MoMoCredentials, req provider.MoMoRefund) error {
	args := m.Called(ctx, creds, req)
	return args.Error(0)
}

var _ provider.MobileMoney = (*MobileMoney)(nil)

// RateSource is a testify mock of provider.RateSource.
type RateSource struct {
	mock.Mock
}

func (m *RateSource) USDRate(ctx context.Context, symbol string) (decimal.Decimal, error) {
	args := m.Called(ctx, symbol)
	rate, _ := args.Get(0).(decimal.Decimal)
	return rate, args.Error(1)
}

var _ provider.RateSource = (*RateSource)(nil)
