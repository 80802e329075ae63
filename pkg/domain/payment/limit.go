package payment

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MethodLimit bounds payments for one (method, tier) pair. A zero bound is
// not enforced.
type MethodLimit struct {
	ID           uuid.UUID
	Method       Method
	Tier         Tier
	MinAmount    decimal.Decimal
	MaxAmount    decimal.Decimal
	DailyLimit   decimal.Decimal
	MonthlyLimit decimal.Decimal
}

// Check validates amount against the bounds given what was already used in
// the current day and month.
func (l MethodLimit) Check(amount, dailyUsed, monthlyUsed decimal.Decimal) error {
	if l.MinAmount.IsPositive() && amount.LessThan(l.MinAmount) {
		return fmt.Errorf("%w: amount %s is below the minimum of %s",
			ErrLimitExceeded, amount.String(), l.MinAmount.String())
	}
	if l.MaxAmount.IsPositive() && amount.GreaterThan(l.MaxAmount) {
		return fmt.Errorf("%w: amount %s exceeds the maximum of %s",
			ErrLimitExceeded, amount.String(), l.MaxAmount.String())
	}
	if l.DailyLimit.IsPositive() && dailyUsed.Add(amount).GreaterThan(l.DailyLimit) {
		return fmt.Errorf("%w: daily limit of %s exceeded. Remaining: %s",
			ErrLimitExceeded, l.DailyLimit.String(), remaining(l.DailyLimit, dailyUsed))
	}
	if l.MonthlyLimit.IsPositive() && monthlyUsed.Add(amount).GreaterThan(l.MonthlyLimit) {
		return fmt.Errorf("%w: monthly limit of %s exceeded. Remaining: %s",
			ErrLimitExceeded, l.MonthlyLimit.String(), remaining(l.MonthlyLimit, monthlyUsed))
	}
	return nil
}

func remaining(limit, used decimal.Decimal) string {
	r := limit.Sub(used)
	if r.IsNegative() {
		r = decimal.Zero
	}
	return r.String()
}
