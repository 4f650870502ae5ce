// Package gateway talks to the external payment provider and verifies
// its webhook signatures.
package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/shopspring/decimal"
)

// Gateway is the narrow contract the core needs from the payment
// provider. Order creation and refunds are separate round trips; payment
// confirmation arrives asynchronously through the webhook.
type Gateway interface {
	CreateOrder(ctx context.Context, amount decimal.Decimal, currency, reference string) (orderID string, err error)
	RefundPayment(ctx context.Context, paymentID string, amount decimal.Decimal) (refundID string, err error)
}

// Sign computes hex(HMAC-SHA256(secret, orderID|paymentID)), the scheme
// the provider uses to authenticate webhook deliveries.
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares in constant time.
func VerifySignature(secret, orderID, paymentID, signature string) bool {
	expected := Sign(secret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}
