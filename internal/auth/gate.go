package auth

import (
	"net/http"
	"strings"

	"findspot-server/internal/observability"
)

// Gate is the request authorization middleware. It wraps the whole router so
// no handler can be reached without passing the policy check: public routes
// flow through untouched, every other request must carry a valid bearer
// token, whose subject is bound into the context for downstream handlers.
type Gate struct {
	policy *Policy
	codec  *Codec
	logger *observability.Logger
}

func NewGate(policy *Policy, codec *Codec, logger *observability.Logger) *Gate {
	return &Gate{policy: policy, codec: codec, logger: logger}
}

func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.policy.Decide(r.Method, r.URL.Path) == Public {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := bearerToken(r)
		if !ok {
			g.reject(w, r, "missing_bearer_token")
			return
		}

		subject, err := g.codec.Validate(token)
		if err != nil {
			// The client sees one generic 401; the log keeps the
			// malformed-vs-expired distinction for observability.
			reason := "invalid_token"
			if err == ErrExpiredToken {
				reason = "expired_token"
			}
			g.reject(w, r, reason)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), subject)))
	})
}

func (g *Gate) reject(w http.ResponseWriter, r *http.Request, reason string) {
	g.logger.Info("request_unauthenticated", map[string]any{
		"method": r.Method,
		"path":   r.URL.Path,
		"reason": reason,
	})
	writeError(w, http.StatusUnauthorized, "authentication required")
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
