package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/mdobak/go-xerrors"
	log "github.com/sirupsen/logrus"

	"github.com/Brownie44l1/mri-tumor-api/internal/handlers"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// RequestObserver records finished requests, typically into metrics.
type RequestObserver interface {
	ObserveRequest(route, method string, status int, d time.Duration)
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get("X-Request-Id"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", requestID)
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestIDFromContext(ctx context.Context) string {
	if value, ok := ctx.Value(requestIDKey).(string); ok {
		return value
	}
	return ""
}

// loggerMiddleware logs HTTP requests and reports them to obs.
func loggerMiddleware(obs RequestObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			latency := time.Since(start)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			if obs != nil {
				obs.ObserveRequest(route, r.Method, status, latency)
			}

			log.WithFields(log.Fields{
				"status":     status,
				"method":     r.Method,
				"path":       r.URL.Path,
				"ip":         r.RemoteAddr,
				"latency_ms": latency.Milliseconds(),
				"bytes":      ww.BytesWritten(),
				"request_id": requestIDFromContext(r.Context()),
			}).Info("API request")
		})
	}
}

// recoverMiddleware turns a panic escaping a handler into a generic 500.
func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			err := xerrors.FromRecover(rec)
			log.WithError(err).WithFields(log.Fields{
				"request_id": requestIDFromContext(r.Context()),
				"stack":      xerrors.StackTrace(err).String(),
			}).Error("Unhandled panic")
			handlers.InternalError(w)
		}()
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware handles CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-Id")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// bodyLimit rejects bodies above max before the handler runs. Bodies of
// unknown length are capped by http.MaxBytesReader instead.
func bodyLimit(max int64, tooLarge http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > max {
				tooLarge(w, r)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, max)
			next.ServeHTTP(w, r)
		})
	}
}
