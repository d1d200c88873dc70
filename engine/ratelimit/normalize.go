package ratelimit

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ErrInvalidDomain is returned by NormalizeDomain for a value that can't be
// reduced to a host.
var ErrInvalidDomain = errors.New("ratelimit: invalid domain")

// NormalizeDomain canonicalizes a host or URL into the key used to shard
// per-domain rate limiter and circuit breaker state: lowercased, scheme and
// path stripped, default ports (80/443) dropped, IPv6 literals bracketed.
func NormalizeDomain(value string) (string, error) {
	host := strings.ToLower(strings.TrimSpace(value))
	if host == "" {
		return "", ErrInvalidDomain
	}

	if strings.Contains(host, "://") {
		u, err := url.Parse(host)
		if err != nil || u.Host == "" {
			return "", ErrInvalidDomain
		}
		host = strings.ToLower(u.Host)
	}

	if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		return host, nil
	}

	base := host
	port := ""
	if strings.ContainsRune(host, ':') {
		h, p, err := net.SplitHostPort(host)
		if err != nil {
			return "", ErrInvalidDomain
		}
		base, port = strings.ToLower(h), p
	}
	if base == "" {
		return "", ErrInvalidDomain
	}
	if strings.Contains(base, ":") && !strings.HasPrefix(base, "[") {
		base = fmt.Sprintf("[%s]", base)
	}

	switch port {
	case "", "0":
		return base, nil
	case "80":
		return base, nil
	case "443":
		return base, nil
	}
	return fmt.Sprintf("%s:%s", base, port), nil
}
