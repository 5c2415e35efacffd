package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"calibrate-backend/pkg/auth"
	"calibrate-backend/pkg/common"
)

// Authenticate validates the bearer token and installs the caller's user id
// into the request context. Handlers must take the user identity from the
// context, never from a request body or query parameter.
func Authenticate(verifier auth.TokenVerifier, limiter auth.RateLimiter, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.ExtractBearerToken(r.Header.Get("Authorization"))
			if err != nil {
				common.RespondAppError(w, err)
				return
			}

			identity, err := verifier.VerifyToken(token)
			if err != nil {
				logger.Debug("token verification failed", zap.Error(err))
				common.RespondAppError(w, err)
				return
			}

			if limiter != nil {
				allowed, err := limiter.Allow(r.Context(), identity.UserID)
				if err != nil {
					// Limiter trouble must not lock users out.
					logger.Warn("rate limiter check failed", zap.Error(err))
				} else if !allowed {
					common.RespondError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests")
					return
				}
			}

			ctx := common.EnrichContext(r.Context(), identity.UserID, common.ExtractRequestID(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
