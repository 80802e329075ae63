package payment

import "strings"

// Method is the tag identifying a payment method.
type Method string

const (
	MethodMTNMoMo      Method = "mtn_momo"
	MethodAirtelMoney  Method = "airtel_money"
	MethodBankTransfer Method = "bank_transfer"
	MethodCrypto       Method = "crypto"
	MethodWallet       Method = "wallet"
)

// Methods lists every method known to the system, in display order.
var Methods = []Method{
	MethodMTNMoMo,
	MethodAirtelMoney,
	MethodBankTransfer,
	MethodCrypto,
	MethodWallet,
}

// ReferencePrefix is the uppercase prefix used in transaction references.
func (m Method) ReferencePrefix() string {
	return strings.ToUpper(string(m))
}

func (m Method) String() string { return string(m) }

// IsKnown reports whether m is one of Methods.
func (m Method) IsKnown() bool {
	for _, known := range Methods {
		if m == known {
			return true
		}
	}
	return false
}

// Tier names a user's limit tier.
type Tier string

const (
	TierBasic   Tier = "basic"
	TierPremium Tier = "premium"
)

// Crypto currency codes accepted by the crypto method.
const (
	CryptoBTC  = "BTC"
	CryptoETH  = "ETH"
	CryptoUSDT = "USDT"
)

// SupportedCryptos is the default set of crypto sub-types.
var SupportedCryptos = []string{CryptoBTC, CryptoETH, CryptoUSDT}
