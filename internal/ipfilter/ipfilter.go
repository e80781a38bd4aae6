// Package ipfilter pulls IPv4 candidates out of free-form log text and drops
// the ones that can never be attributed to a remote public host.
package ipfilter

import (
	"net/netip"
	"regexp"
)

var (
	// Shape only: octets above 255 still match and are rejected by FilterPublic.
	candidateRegex = regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)

	nonPublicPrefixes = []netip.Prefix{
		netip.MustParsePrefix("0.0.0.0/8"),
		netip.MustParsePrefix("10.0.0.0/8"),
		// RFC 6598 shared space: only ever seen behind carrier-grade NAT.
		netip.MustParsePrefix("100.64.0.0/10"),
		netip.MustParsePrefix("127.0.0.0/8"),
		netip.MustParsePrefix("169.254.0.0/16"),
		netip.MustParsePrefix("172.16.0.0/12"),
		netip.MustParsePrefix("192.0.0.0/24"),
		netip.MustParsePrefix("192.168.0.0/16"),
		netip.MustParsePrefix("198.18.0.0/15"),
		netip.MustParsePrefix("240.0.0.0/4"),
	}
)

// ExtractCandidateIPs returns every dotted-quad shaped token in text, in order
// of appearance and including duplicates.
func ExtractCandidateIPs(text string) []string {
	matches := candidateRegex.FindAllString(text, -1)
	if matches == nil {
		return []string{}
	}
	return matches
}

// FilterPublic keeps the candidates that parse as strict dotted-decimal IPv4
// and are neither loopback nor private. Order and duplicates are preserved;
// unparseable tokens such as 999.1.1.1 or 01.2.3.4 are dropped.
func FilterPublic(ips []string) []string {
	public := make([]string, 0, len(ips))
	for _, raw := range ips {
		if IsPublic(raw) {
			public = append(public, raw)
		}
	}
	return public
}

// IsPublic reports whether raw is a routable public IPv4 address.
func IsPublic(raw string) bool {
	addr, err := netip.ParseAddr(raw)
	if err != nil || !addr.Is4() {
		return false
	}
	if addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() || addr.IsUnspecified() {
		return false
	}
	for _, prefix := range nonPublicPrefixes {
		if prefix.Contains(addr) {
			return false
		}
	}
	return true
}

// PublicCandidates is ExtractCandidateIPs followed by FilterPublic.
func PublicCandidates(text string) []string {
	return FilterPublic(ExtractCandidateIPs(text))
}
