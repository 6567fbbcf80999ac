package handler

import (
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/hrc-bakery/storefront/internal/auth"
)

// APIKeyHeader carries the admin API key. A bearer token is accepted too.
const APIKeyHeader = "api_key"

func apiKey(r *http.Request) string {
	if k := r.Header.Get(APIKeyHeader); k != "" {
		return k
	}
	if v, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// requireAdmin rejects requests without a valid admin API key.
func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info, err := h.auth.Authenticate(r.Context(), apiKey(r))
		if err != nil {
			if errors.Is(err, auth.ErrUnauthorized) {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			internalError(w, r, err)
			return
		}

		lg := zctx.From(r.Context()).With(zap.String("admin_key", info.Name))
		next.ServeHTTP(w, r.WithContext(zctx.Base(r.Context(), lg)))
	})
}
