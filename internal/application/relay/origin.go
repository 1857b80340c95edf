package relay

import "strings"

// OriginAllowed reports whether a declared request origin passes the
// account's allow-list. An empty list allows any origin. Matching is
// exact, except that a single trailing slash on either side is tolerated
// (the two common serializations of the same origin). No wildcard or
// subdomain matching.
func OriginAllowed(allowedOrigins []string, origin string) bool {
	if len(allowedOrigins) == 0 {
		return true
	}
	for _, allowed := range allowedOrigins {
		if allowed == origin || strings.TrimSuffix(allowed, "/") == origin || strings.TrimSuffix(origin, "/") == allowed {
			return true
		}
	}
	return false
}
