package vnpay

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxOrderInfoLen = 255

var dStroke = strings.NewReplacer("đ", "d", "Đ", "D")

// SanitizeOrderInfo transliterates the description to unaccented ASCII and drops
// characters the gateway rejects in vnp_OrderInfo.
func SanitizeOrderInfo(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(t, dStroke.Replace(s))
	if err != nil {
		plain = s
	}

	var b strings.Builder
	pendingSpace := false
	for _, r := range plain {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = b.Len() > 0
			continue
		case r > unicode.MaxASCII:
			continue
		case unicode.IsLetter(r), unicode.IsDigit(r), strings.ContainsRune("#-_.,:/", r):
		default:
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteRune(r)
		if b.Len() >= maxOrderInfoLen {
			break
		}
	}
	return b.String()
}
