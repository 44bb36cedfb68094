package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/verdantlabs/leafroom-backend/pkg/logger"
)

const sessionIDHeader = "X-Session-Id"

// CartContext resolves the key the request's cart lives under. Authenticated
// customers get a per-user key; guests are tracked by the session id header,
// minted here on first contact and echoed back so the client can hold on to
// it.
func CartContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if userID := UserIDFromContext(ctx); userID != "" {
				ctx = contextWithCartKey(ctx, "user:"+userID)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			sessionID := strings.TrimSpace(r.Header.Get(sessionIDHeader))
			if sessionID == "" || uuid.Validate(sessionID) != nil {
				sessionID = uuid.NewString()
			}
			w.Header().Set(sessionIDHeader, sessionID)

			ctx = WithSessionID(ctx, sessionID)
			ctx = contextWithCartKey(ctx, "session:"+sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func contextWithCartKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, ctxCartKey, key)
}
