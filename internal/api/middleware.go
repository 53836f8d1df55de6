/**
 * @description
 * HTTP middleware for the donation service. Session tokens are optional on
 * most endpoints, so the middleware resolves the bearer token when present
 * and stores the user ID in the request context without rejecting anonymous
 * callers. Handlers that require a session check the context themselves.
 *
 * The usage endpoints also identify anonymous visitors by an opaque client
 * key header so free-use quotas survive page reloads.
 */

package api

import (
	"context"
	"log"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/freedomfund/donation-service/internal/app"
)

type contextKey string

const (
	userIDContextKey    contextKey = "userID"
	clientKeyContextKey contextKey = "clientKey"
)

// ClientKeyHeader carries the anonymous visitor identifier.
const ClientKeyHeader = "X-Client-Key"

// SessionMiddleware resolves an optional bearer token into a user ID on the
// request context. Invalid or expired tokens are treated the same as no
// token; the whoami endpoint is where clients discover a dead session.
func SessionMiddleware(tokens *app.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if token := bearerToken(r); token != "" {
				userID, err := tokens.Verify(token)
				if err == nil {
					ctx = context.WithValue(ctx, userIDContextKey, userID)
				} else {
					log.Printf("level=debug component=api msg=\"ignoring invalid session token\" err=%v", err)
				}
			}

			if key := strings.TrimSpace(r.Header.Get(ClientKeyHeader)); key != "" {
				ctx = context.WithValue(ctx, clientKeyContextKey, key)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// GetUserID returns the authenticated user's ID from the context, if any.
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDContextKey).(uuid.UUID)
	return id, ok
}

// GetClientKey returns the caller's usage identity. Authenticated callers are
// keyed by user ID so their history follows the account; anonymous callers
// fall back to the client key header, then to the remote IP.
func GetClientKey(ctx context.Context, r *http.Request) string {
	if id, ok := GetUserID(ctx); ok {
		return "user:" + id.String()
	}
	if key, ok := ctx.Value(clientKeyContextKey).(string); ok && key != "" {
		return "anon:" + key
	}
	return "ip:" + remoteIP(r)
}

func remoteIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
