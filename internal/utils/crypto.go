// internal/utils/crypto.go
package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
)

// IdempotencyKey derives the provider idempotency key for a purchase.
// The key is a pure function of the purchase id so a retried provider
// call can never mint a second charge for the same ledger row.
func IdempotencyKey(purchaseID uuid.UUID) string {
	return "purchase_" + purchaseID.String()
}

// ComputeHMAC returns the hex HMAC-SHA256 of body under secret.
func ComputeHMAC(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyHMAC compares a provider-supplied hex signature in constant time.
func VerifyHMAC(body []byte, secret, signature string) bool {
	expected := ComputeHMAC(body, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
