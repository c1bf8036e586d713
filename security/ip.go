package security

import (
	"net"
	"net/http"
	"strings"
)

// GetClientIP extracts the client IP address from a request.
// When trustProxy is set, X-Forwarded-For and X-Real-IP are consulted;
// trustedProxyCount says how many proxies sit between us and the client so
// the right entry of X-Forwarded-For is picked. Without a trusted proxy the
// direct connection address is used.
func GetClientIP(r *http.Request, trustProxy bool, trustedProxyCount int) string {
	if trustProxy {
		if ip := clientIPFromForwardedFor(r.Header.Get("X-Forwarded-For"), trustedProxyCount); ip != "" {
			return ip
		}
		if xri := r.Header.Get("X-Real-IP"); net.ParseIP(xri) != nil {
			return xri
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// clientIPFromForwardedFor picks the client entry out of an X-Forwarded-For
// list. The header reads "client, proxy1, proxy2, ..." with our trusted
// proxies rightmost, so the client sits trustedProxyCount+1 from the end.
func clientIPFromForwardedFor(xff string, trustedProxyCount int) string {
	if xff == "" {
		return ""
	}

	ips := strings.Split(xff, ",")
	if trustedProxyCount < 1 {
		trustedProxyCount = 1
	}

	idx := len(ips) - trustedProxyCount - 1
	if idx < 0 {
		idx = 0
	}

	ip := strings.TrimSpace(ips[idx])
	if net.ParseIP(ip) == nil {
		return ""
	}
	return ip
}
