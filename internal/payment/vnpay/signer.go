package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strings"

	"shoppay/internal/payment"
)

const (
	FieldSecureHash     = "vnp_SecureHash"
	FieldSecureHashType = "vnp_SecureHashType"
)

// Sign returns the lowercase hex HMAC-SHA512 of data keyed by secret.
func Sign(data, secret string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify strips the signature fields from params, re-signs the rest and compares
// in constant time. An empty secret or missing signature never verifies.
func Verify(params payment.Params, secret string) bool {
	if secret == "" {
		return false
	}
	received := strings.ToLower(strings.TrimSpace(params[FieldSecureHash]))
	if received == "" {
		return false
	}
	expected := Sign(Encode(params.Without(FieldSecureHash, FieldSecureHashType)), secret)
	return hmac.Equal([]byte(expected), []byte(received))
}
