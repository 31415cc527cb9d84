package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ContextKey is used for storing claims in request context.
type ContextKey string

const (
	// ClaimsKey holds the verified *Claims.
	ClaimsKey ContextKey = "claims"
)

// Middleware gates handlers on a verified bearer token.
type Middleware struct {
	verifier *Verifier
}

// NewMiddleware builds the middleware around a verifier.
func NewMiddleware(verifier *Verifier) *Middleware {
	return &Middleware{verifier: verifier}
}

// Require wraps next so it only runs for a valid token carrying every
// listed scope. Claims land in the request context for the handler.
func (m *Middleware) Require(scopes ...string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, err := extractBearerToken(r)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED",
					"Authentication required")
				return
			}

			claims, err := m.verifier.VerifyToken(token)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED",
					"Invalid token")
				return
			}

			if !hasScopes(claims, scopes) {
				writeAuthError(w, http.StatusForbidden, "FORBIDDEN",
					"Insufficient permissions")
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			next(w, r.WithContext(ctx))
		}
	}
}

// ClaimsFromRequest extracts verified claims inside a handler, nil when the
// request never passed the middleware.
func ClaimsFromRequest(r *http.Request) *Claims {
	claims, ok := r.Context().Value(ClaimsKey).(*Claims)
	if !ok {
		return nil
	}
	return claims
}

func extractBearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("missing Authorization header")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", fmt.Errorf("invalid Authorization header format")
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", fmt.Errorf("empty token")
	}
	return token, nil
}

func hasScopes(claims *Claims, required []string) bool {
	if claims == nil {
		return false
	}
	for _, want := range required {
		found := false
		for _, scope := range claims.Scopes {
			if scope == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// writeAuthError writes an error response in the API envelope format.
func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"result":        "error",
		"code":          code,
		"message":       message,
		"correlationId": fmt.Sprintf("%d", time.Now().UnixNano()),
	})
}
