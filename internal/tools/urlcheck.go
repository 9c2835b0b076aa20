package tools

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// URLValidator blocks tool-initiated requests to private networks. The model
// chooses which URLs to crawl and scrape, so every target is treated as
// untrusted input.
//
// Blocked targets:
//   - private ranges (10.0.0.0/8, 172.16.0.0/12, 192.168.0.0/16)
//   - loopback and link-local addresses
//   - cloud metadata endpoints
//   - non-http(s) schemes
type URLValidator struct {
	blockedHosts map[string]struct{}
}

// NewURLValidator creates a validator with the default block list.
func NewURLValidator() *URLValidator {
	return &URLValidator{
		blockedHosts: map[string]struct{}{
			"localhost":                {},
			"metadata.google.internal": {},
			"metadata.gce.internal":    {},
			"metadata.internal":        {},
		},
	}
}

// Validate reports whether the URL is safe for a tool to fetch.
func (v *URLValidator) Validate(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("unsupported scheme %q (http and https only)", u.Scheme)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return fmt.Errorf("empty hostname")
	}
	if _, blocked := v.blockedHosts[host]; blocked {
		return fmt.Errorf("blocked host: %s", host)
	}

	if ip := net.ParseIP(host); ip != nil {
		return checkIP(ip)
	}
	return nil
}

func checkIP(ip net.IP) error {
	if v4 := ip.To4(); v4 != nil {
		ip = v4
	}

	switch {
	case ip.IsLoopback():
		return fmt.Errorf("loopback address not allowed: %s", ip)
	case ip.IsPrivate():
		return fmt.Errorf("private address not allowed: %s", ip)
	case ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast():
		return fmt.Errorf("link-local address not allowed: %s", ip)
	case ip.IsUnspecified():
		return fmt.Errorf("unspecified address not allowed: %s", ip)
	}
	return nil
}
