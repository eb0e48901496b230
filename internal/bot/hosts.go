package bot

import (
	"net"
	"strings"
)

// HostAllowList matches request hosts against ALLOWED_HOSTS entries. An
// entry is an exact host, "*" for any host, or "*.example.com" for any
// subdomain of example.com. An empty list allows nothing.
type HostAllowList struct {
	any      bool
	exact    map[string]bool
	suffixes []string
}

// NewHostAllowList normalizes the configured patterns.
func NewHostAllowList(patterns []string) *HostAllowList {
	l := &HostAllowList{exact: make(map[string]bool)}

	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))

		switch {
		case p == "":
			continue
		case p == "*":
			l.any = true
		case strings.HasPrefix(p, "*."):
			l.suffixes = append(l.suffixes, p[1:])
		default:
			l.exact[stripPort(p)] = true
		}
	}

	return l
}

// Allowed reports whether the Host header value is permitted. The port is
// ignored.
func (l *HostAllowList) Allowed(host string) bool {
	host = stripPort(strings.ToLower(strings.TrimSpace(host)))
	host = strings.TrimSuffix(host, ".")

	if host == "" {
		return false
	}

	if l.any || l.exact[host] {
		return true
	}

	for _, s := range l.suffixes {
		if strings.HasSuffix(host, s) && len(host) > len(s) {
			return true
		}
	}

	return false
}

func stripPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return strings.Trim(h, "[]")
	}

	return strings.Trim(host, "[]")
}
