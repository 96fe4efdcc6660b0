package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	cerrors "github.com/matzehuels/comfyscope/pkg/errors"
)

// HeaderRequestID carries the request id on responses.
const HeaderRequestID = "X-Request-ID"

type ctxKey struct{}

// requestID assigns every request a random UUID.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

// RequestID returns the id assigned to the request, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// requestLogger logs one line per request once the handler returns.
func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logger.Info("request",
				"id", RequestID(r.Context()),
				"method", r.Method,
				"uri", r.URL.RequestURI(),
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start))
		})
	}
}

// recoverer turns handler panics into 500 responses. When the handler has
// already started its response, the panic is only logged.
func recoverer(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler {
					panic(v)
				}
				logger.Error("panic", "id", RequestID(r.Context()), "value", v)
				if ww.Status() == 0 {
					respondError(ww, http.StatusInternalServerError,
						cerrors.New(cerrors.ErrCodeInternal, "internal error"))
				}
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
