package payment

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

var suffixRange = big.NewInt(900000)

// GenerateReference returns {METHOD}{unix_millis}{6 digits}.
func GenerateReference(method Method, now time.Time) string {
	n, err := rand.Int(rand.Reader, suffixRange)
	if err != nil {
		// crypto/rand does not fail on supported platforms
		n = big.NewInt(now.UnixNano() % 900000)
	}
	return fmt.Sprintf("%s%d%06d", method.ReferencePrefix(), now.UnixMilli(), n.Int64()+100000)
}
