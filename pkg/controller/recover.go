package controller

import (
	"net/http"

	"github.com/kike-0203/watchy-solver-clean/pkg/logger"

	"go.uber.org/zap"
)

// WithRecover returns a middleware that recovers from panics raised while
// handling a request. The panic is logged with a stack trace and the client
// receives a 500 JSON body; the serving process keeps accepting connections.
func WithRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			p := recover()
			if p == nil {
				return
			}
			logger.Error(r.Context(), "recovered panic in request handler",
				zap.Any("panic", p),
				zap.Stack("stack"),
				zap.String("url", r.URL.String()),
			)

			// the handler may have written already; this is best effort
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		}()

		next.ServeHTTP(w, r)
	})
}
