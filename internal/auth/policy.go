package auth

import "strings"

// Access is the decision a route policy rule yields.
type Access int

const (
	// RequireAuth routes demand a valid bearer token.
	RequireAuth Access = iota
	// Public routes pass through the gate with no identity.
	Public
)

// Rule pairs a method and path pattern with an access level. Pattern is an
// exact path, or a prefix ending in "/**" which matches the base path and
// anything below it. An empty method matches every method.
type Rule struct {
	Method  string
	Pattern string
	Access  Access
}

// Policy is the process-wide, ordered route policy table. Evaluation is
// first-match; a request matching no rule requires authentication.
type Policy struct {
	rules []Rule
}

func NewPolicy(rules []Rule) *Policy {
	return &Policy{rules: rules}
}

// DefaultPolicy mirrors the service's route surface: auth endpoints and item
// browsing are public, everything else needs identity.
func DefaultPolicy() *Policy {
	return NewPolicy([]Rule{
		{Method: "POST", Pattern: "/api/auth/**", Access: Public},
		// The caller's own listings live under /api/items but need identity;
		// they must outrank the public browsing wildcard below.
		{Method: "GET", Pattern: "/api/items/my-items", Access: RequireAuth},
		{Method: "GET", Pattern: "/api/items/my-lost", Access: RequireAuth},
		{Method: "GET", Pattern: "/api/items/my-found", Access: RequireAuth},
		{Method: "GET", Pattern: "/api/items/my-resolved", Access: RequireAuth},
		{Method: "GET", Pattern: "/api/items/**", Access: Public},
		{Method: "GET", Pattern: "/health", Access: Public},
		// Guarded by its own cron secret, not by bearer tokens.
		{Pattern: "/internal/maintenance/cleanup", Access: Public},
	})
}

// Decide returns the access level for a (method, path) pair, deny-by-default.
func (p *Policy) Decide(method, path string) Access {
	for _, rule := range p.rules {
		if rule.Method != "" && rule.Method != method {
			continue
		}
		if matchPattern(rule.Pattern, path) {
			return rule.Access
		}
	}
	return RequireAuth
}

func matchPattern(pattern, path string) bool {
	if base, ok := strings.CutSuffix(pattern, "/**"); ok {
		return path == base || strings.HasPrefix(path, base+"/")
	}
	return path == pattern
}
