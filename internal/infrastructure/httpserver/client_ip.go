package httpserver

import (
	"net"

	"github.com/labstack/echo/v4"
)

// newIPExtractor decides which address identifies the caller for rate limiting.
// Without trusted proxies forwarding headers are ignored. With them, X-Forwarded-For
// is walked from the right and only hops inside the listed CIDRs are skipped.
func newIPExtractor(trustedProxies []string) echo.IPExtractor {
	var opts []echo.TrustOption
	for _, cidr := range trustedProxies {
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			continue
		}
		opts = append(opts, echo.TrustIPRange(ipNet))
	}
	if len(opts) == 0 {
		return echo.ExtractIPDirect()
	}
	opts = append(opts, echo.TrustLoopback(false), echo.TrustLinkLocal(false), echo.TrustPrivateNet(false))
	return echo.ExtractIPFromXFFHeader(opts...)
}
