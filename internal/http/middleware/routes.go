package middleware

import "strings"

// RouteClass is the three-way classification governing whether the auth
// gate requires identity for a path.
type RouteClass int

const (
	RouteBypassed RouteClass = iota
	RoutePublic
	RouteProtected
)

func (c RouteClass) String() string {
	switch c {
	case RouteBypassed:
		return "bypassed"
	case RoutePublic:
		return "public"
	default:
		return "protected"
	}
}

// Build assets, the identity provider's own endpoints, and infra probes
// never go through auth or rate limiting.
var bypassedPrefixes = []string{
	"/_next/",
	"/static/",
	"/assets/",
	"/auth/v1/",
	"/healthz",
	"/metrics",
}

// publicPaths carry no session requirement. The billing webhook stays here
// permanently: its requests are authenticated by the provider signature,
// never by a session.
var publicPaths = map[string]bool{
	"/":                   true,
	"/login":              true,
	"/signup":             true,
	"/auth/callback":      true,
	"/api/stripe/webhook": true,
}

var protectedPrefixes = []string{
	"/dashboard",
	"/generate",
	"/history",
	"/api/generate",
	"/api/history",
	"/api/user",
	"/api/stripe/checkout",
}

// Classify is a pure path classifier. Anything not explicitly bypassed or
// public is protected: default-deny, not default-allow.
func Classify(path string) RouteClass {
	for _, p := range bypassedPrefixes {
		if path == strings.TrimSuffix(p, "/") || strings.HasPrefix(path, p) {
			return RouteBypassed
		}
	}
	if hasFileExtension(path) {
		return RouteBypassed
	}

	if publicPaths[path] {
		return RoutePublic
	}

	for _, p := range protectedPrefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return RouteProtected
		}
	}

	return RouteProtected
}

// IsAPIPath splits the 401-vs-redirect behavior: programmatic clients get
// statuses, browsers get the login page.
func IsAPIPath(path string) bool {
	return strings.HasPrefix(path, "/api/")
}

func hasFileExtension(path string) bool {
	last := path
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		last = path[i+1:]
	}
	return strings.Contains(last, ".")
}
