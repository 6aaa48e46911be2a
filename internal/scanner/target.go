package scanner

import (
	"fmt"
	"net/url"
	"strings"
)

// TargetInfo contains parsed target information.
type TargetInfo struct {
	Original string
	Scheme   string
	Host     string
	Port     string
	Path     string
	FullURL  string // full normalized URL used for requests
}

// ParseTarget parses a target string into structured components. It accepts
// bare hosts (example.com), full URLs, and host:port forms, defaulting the
// scheme to http when none is given.
func ParseTarget(target string) *TargetInfo {
	info := &TargetInfo{Original: target}

	parsed, err := url.Parse(strings.TrimSpace(target))

	// A "scheme" containing dots means url.Parse swallowed a bare
	// host:port form; reparse with an explicit scheme.
	if err != nil || parsed.Scheme == "" || strings.Contains(parsed.Scheme, ".") {
		parsed, _ = url.Parse("http://" + strings.TrimSpace(target))
	}

	if parsed != nil {
		info.Scheme = parsed.Scheme
		info.Host = parsed.Hostname()
		info.Port = parsed.Port()
		info.Path = parsed.Path
		info.FullURL = parsed.String()
	}

	if info.Host == "" {
		host := target
		host = strings.TrimPrefix(host, "http://")
		host = strings.TrimPrefix(host, "https://")
		host = strings.Split(host, "/")[0]
		parts := strings.Split(host, ":")
		info.Host = parts[0]
		if len(parts) > 1 {
			info.Port = parts[1]
		}
		if info.Scheme == "" {
			info.Scheme = "http"
		}
		info.FullURL = info.Scheme + "://" + host
	}

	return info
}

// NormalizeTarget returns a full URL with scheme for the given target, or an
// error when the target carries a scheme other than http/https.
func NormalizeTarget(target string) (string, error) {
	info := ParseTarget(target)
	if info.Scheme != "http" && info.Scheme != "https" {
		return "", &InvalidTargetError{Target: target, Reason: fmt.Sprintf("unsupported scheme %q", info.Scheme)}
	}
	if info.Host == "" {
		return "", &InvalidTargetError{Target: target, Reason: "missing host"}
	}
	return info.FullURL, nil
}

// InvalidTargetError signals a target that cannot be scanned.
type InvalidTargetError struct {
	Target string
	Reason string
}

func (e *InvalidTargetError) Error() string {
	return fmt.Sprintf("invalid target %q: %s", e.Target, e.Reason)
}
