package vnpay

import (
	"net/url"
	"sort"
	"strings"

	"shoppay/internal/payment"
)

// Encode serializes params into the signable query string: empty values are
// dropped, keys sorted byte-wise, keys and values percent-encoded with %20 for
// space, pairs joined with '&'. The same bytes are used for the redirect URL.
func Encode(params payment.Params) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(escape(k))
		b.WriteByte('=')
		b.WriteString(escape(params[k]))
	}
	return b.String()
}

func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
