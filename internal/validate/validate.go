package validate

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
)

// IdentRe matches valid identifiers used for home, entity, and scene IDs.
// Must start with alphanumeric, followed by alphanumeric, dots, hyphens, or underscores.
var IdentRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// MaxIdentLen is the maximum length for identifiers.
const MaxIdentLen = 128

// Ident validates a string as a valid resource identifier.
func Ident(s string) bool {
	return len(s) > 0 && len(s) <= MaxIdentLen && IdentRe.MatchString(s)
}

// HTTPURL ensures the URL uses http or https scheme and has a non-empty host
// to prevent SSRF via file://, ftp://, or other dangerous schemes.
func HTTPURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	switch u.Scheme {
	case "http", "https":
		// OK
	case "":
		return fmt.Errorf("URL missing scheme: %s", rawURL)
	default:
		return fmt.Errorf("URL scheme %q not allowed (only http/https)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL missing host: %s", rawURL)
	}
	return nil
}

// HostPort validates a host plus TCP port pair for the local server address.
// The host may be a hostname or an IP literal; the port must be in (0, 65535].
func HostPort(host string, port int) error {
	host = strings.TrimSpace(host)
	if host == "" {
		return fmt.Errorf("server host is empty")
	}
	if strings.ContainsAny(host, "/?#@ ") {
		return fmt.Errorf("server host %q contains invalid characters", host)
	}
	if ip := net.ParseIP(host); ip == nil && !IdentRe.MatchString(host) {
		return fmt.Errorf("server host %q is not a valid hostname or IP", host)
	}
	if port <= 0 || port > 65535 {
		return fmt.Errorf("server port %d out of range", port)
	}
	return nil
}
