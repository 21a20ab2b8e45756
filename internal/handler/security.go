package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/masterpiece-shawarma/storefront/internal/domain/auth"
)

// APIKeyHeader carries the ops API key.
const APIKeyHeader = "api_key"

type apiKeyKey struct{}

// APIKeyFromContext returns the key that authenticated the request, if any.
func APIKeyFromContext(ctx context.Context) *auth.APIKeyInfo {
	info, _ := ctx.Value(apiKeyKey{}).(*auth.APIKeyInfo)
	return info
}

// requireScope rejects requests without a valid API key carrying scope.
func (h *Handler) requireScope(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			info, err := h.keys.Authenticate(ctx, r.Header.Get(APIKeyHeader))
			if err != nil {
				writeDomainError(ctx, w, err)
				return
			}
			if !info.HasScope(scope) {
				zctx.From(ctx).Warn("API key missing scope",
					zap.String("key", info.Name),
					zap.String("scope", scope),
				)
				writeDomainError(ctx, w, auth.ErrForbidden)
				return
			}
			ctx = context.WithValue(ctx, apiKeyKey{}, info)
			ctx = zctx.With(ctx, zap.String("api_key", info.Name))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
