// Package privacy masks personal data before it reaches the logs.
package privacy

import (
	"fmt"
	"net"
	"strings"
)

// AnonymizeIP truncates an address to its network: IPv4 to the /24, IPv6 to
// the /48. A "host:port" remote address is accepted. Empty input yields
// "unknown" and unparseable input "invalid".
func AnonymizeIP(addr string) string {
	if addr == "" || addr == "unknown" {
		return "unknown"
	}
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}

	parsed := net.ParseIP(addr)
	if parsed == nil {
		return "invalid"
	}
	if v4 := parsed.To4(); v4 != nil {
		return fmt.Sprintf("%d.%d.%d.0", v4[0], v4[1], v4[2])
	}
	return fmt.Sprintf("%02x%02x:%02x%02x:%02x%02x::",
		parsed[0], parsed[1],
		parsed[2], parsed[3],
		parsed[4], parsed[5])
}

// MaskEmail keeps the first character of the local part and the domain:
// "ann@example.com" becomes "a**@example.com". Input without an "@" is
// masked entirely.
func MaskEmail(email string) string {
	email = strings.TrimSpace(email)
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return strings.Repeat("*", len(email))
	}
	first := []rune(local)[:1]
	return string(first) + strings.Repeat("*", len([]rune(local))-1) + "@" + domain
}
