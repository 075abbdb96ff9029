// Package framework wraps the HTTP intake functions with the cross-cutting
// concerns every handler needs: a per-request logger carrying an execution ID,
// permissive CORS headers, and panic capture.
package framework

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ripixel/workout-sync/pkg/infrastructure/sentry"
)

type ctxKey int

const loggerKey ctxKey = 0

// Logger returns the request-scoped logger, or the default logger if the
// request was not wrapped.
func Logger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// SetCORSHeaders sets the permissive cross-origin headers both intake
// functions respond with.
func SetCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// WrapHTTP wraps an HTTP handler with execution logging and panic capture.
func WrapHTTP(serviceName string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		execID := uuid.NewString()
		logger := slog.Default().With("service", serviceName, "execution_id", execID)

		logger.Info("Function started", "method", r.Method, "path", r.URL.Path)

		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			err, ok := rec.(error)
			if !ok {
				err = fmt.Errorf("panic: %v", rec)
			}
			logger.Error("Function panicked", "error", err)
			sentry.CaptureException(err, map[string]interface{}{
				"service":      serviceName,
				"execution_id": execID,
			}, logger)
			sentry.Flush(2 * time.Second)

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": "Internal server error"})
		}()

		ctx := context.WithValue(r.Context(), loggerKey, logger)
		handler(w, r.WithContext(ctx))

		logger.Info("Function completed")
	}
}
