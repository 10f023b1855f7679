package v1

import (
	"net"
	"net/netip"
	"strings"

	"github.com/gofiber/fiber/v2"
)

var privateIPBlocks = []*net.IPNet{
	parseCIDR("10.0.0.0/8"),
	parseCIDR("172.16.0.0/12"),
	parseCIDR("192.168.0.0/16"),
	parseCIDR("fc00::/7"),
	parseCIDR("fe80::/10"),
	parseCIDR("::1/128"),
	parseCIDR("127.0.0.0/8"),
}

// getClientIP resolves the visitor's public IP, preferring reverse-proxy
// headers over the socket address. Returns the loopback address when no
// public IP can be determined so the view still records with some signal.
func getClientIP(c *fiber.Ctx) string {
	if ip := firstPublicIP(strings.Split(c.Get("X-Forwarded-For"), ",")); ip != "" {
		return ip
	}

	for _, header := range []string{"X-Real-IP", "CF-Connecting-IP", "True-Client-IP"} {
		if value := c.Get(header); value != "" {
			if ip := firstPublicIP([]string{value}); ip != "" {
				return ip
			}
		}
	}

	if host, _, err := net.SplitHostPort(c.Context().RemoteAddr().String()); err == nil {
		if ip := firstPublicIP([]string{host}); ip != "" {
			return ip
		}
	}

	if ip := firstPublicIP([]string{c.IP()}); ip != "" {
		return ip
	}

	return "127.0.0.1"
}

// firstPublicIP returns the first candidate that parses as a public address,
// preferring IPv4 over IPv6 when both appear.
func firstPublicIP(candidates []string) string {
	var ipv6Fallback string

	for _, raw := range candidates {
		clean, parsed := normalizeIP(raw)
		if parsed == nil || isPrivateIP(parsed) {
			continue
		}
		if parsed.To4() != nil {
			return clean
		}
		if ipv6Fallback == "" {
			ipv6Fallback = clean
		}
	}

	return ipv6Fallback
}

func normalizeIP(raw string) (string, net.IP) {
	clean := strings.TrimSpace(strings.Trim(strings.TrimSpace(raw), "\""))
	if clean == "" {
		return "", nil
	}

	// Drop zone identifiers like fe80::1%eth0
	if percent := strings.Index(clean, "%"); percent != -1 {
		clean = clean[:percent]
	}

	if addrPort, err := netip.ParseAddrPort(clean); err == nil {
		return canonicalAddr(addrPort.Addr())
	}

	trimmed := strings.TrimSuffix(strings.TrimPrefix(clean, "["), "]")
	if addr, err := netip.ParseAddr(trimmed); err == nil {
		return canonicalAddr(addr)
	}

	if host, _, err := net.SplitHostPort(clean); err == nil {
		return normalizeIP(host)
	}

	return "", nil
}

func canonicalAddr(addr netip.Addr) (string, net.IP) {
	if addr.Is4In6() {
		addr = addr.Unmap()
	}
	s := addr.String()
	return s, net.ParseIP(s)
}

func isPrivateIP(ip net.IP) bool {
	if ip == nil {
		return false
	}
	for _, block := range privateIPBlocks {
		if block != nil && block.Contains(ip) {
			return true
		}
	}
	return false
}

func parseCIDR(s string) *net.IPNet {
	_, block, _ := net.ParseCIDR(s)
	return block
}
