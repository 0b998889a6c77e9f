package vnpay

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"shoppay/internal/payment"
)

const testSecret = "SECRETKEYFORTESTS0123456789ABCDE"

func signedParams(p payment.Params, secret string) payment.Params {
	out := p.Without()
	out[FieldSecureHash] = Sign(Encode(p), secret)
	return out
}

func sampleCallback() payment.Params {
	return payment.Params{
		FieldAmount:            "25000000",
		FieldBankCode:          "NCB",
		FieldOrderInfo:         "Thanh toan don hang 665f1c",
		FieldPayDate:           "20261017094512",
		FieldResponseCode:      "00",
		FieldTmnCode:           "SHOPTEST",
		FieldTransactionNo:     "14123456",
		FieldTransactionStatus: "00",
		FieldTxnRef:            "665f1c",
	}
}

func TestSign_HexSHA512(t *testing.T) {
	sig := Sign("a=1", testSecret)
	assert.Len(t, sig, 128)
	assert.Equal(t, strings.ToLower(sig), sig)
	assert.Equal(t, sig, Sign("a=1", testSecret))
	assert.NotEqual(t, sig, Sign("a=1", testSecret+"x"))
}

func TestVerify_RoundTrip(t *testing.T) {
	params := signedParams(sampleCallback(), testSecret)
	assert.True(t, Verify(params, testSecret))
}

func TestVerify_IgnoresHashTypeAndCase(t *testing.T) {
	params := signedParams(sampleCallback(), testSecret)
	params[FieldSecureHashType] = "HmacSHA512"
	params[FieldSecureHash] = strings.ToUpper(params[FieldSecureHash])
	assert.True(t, Verify(params, testSecret))
}

func TestVerify_DetectsTampering(t *testing.T) {
	for key := range sampleCallback() {
		t.Run(key, func(t *testing.T) {
			params := signedParams(sampleCallback(), testSecret)
			v := []byte(params[key])
			if v[0] == 'X' {
				v[0] = 'Y'
			} else {
				v[0] = 'X'
			}
			params[key] = string(v)
			assert.False(t, Verify(params, testSecret))
		})
	}
}

func TestVerify_AddedFieldBreaksSignature(t *testing.T) {
	params := signedParams(sampleCallback(), testSecret)
	params["vnp_Extra"] = "1"
	assert.False(t, Verify(params, testSecret))
}

func TestVerify_FailsClosed(t *testing.T) {
	params := signedParams(sampleCallback(), testSecret)

	assert.False(t, Verify(params, ""), "empty secret")
	assert.False(t, Verify(params, "other-secret"), "wrong secret")
	assert.False(t, Verify(sampleCallback(), testSecret), "missing signature")
}
