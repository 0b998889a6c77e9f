package vnpay

import (
	"net/netip"
	"strings"
)

const loopbackIP = "127.0.0.1"

// NormalizeIP reduces a client address to the form the gateway expects: first
// hop of a forwarded list, IPv4-mapped IPv6 unwrapped, every loopback spelling
// collapsed to 127.0.0.1.
func NormalizeIP(raw string) string {
	ip := strings.TrimSpace(raw)
	if i := strings.IndexByte(ip, ','); i >= 0 {
		ip = strings.TrimSpace(ip[:i])
	}
	if ip == "" || strings.EqualFold(ip, "localhost") {
		return loopbackIP
	}

	addr, err := netip.ParseAddr(ip)
	if err != nil {
		ap, perr := netip.ParseAddrPort(ip)
		if perr != nil {
			return strings.TrimPrefix(ip, "::ffff:")
		}
		addr = ap.Addr()
	}
	addr = addr.Unmap().WithZone("")
	if addr.IsLoopback() {
		return loopbackIP
	}
	return addr.String()
}
