package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/realty/realty-api/internal/pkg/logger"
)

// RequestID propagates or assigns X-Request-ID and tags the request logger
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		w.Header().Set("X-Request-ID", requestID)

		ctx := logger.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
