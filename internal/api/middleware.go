package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/blagoySimandov/bundlestore/internal/logging"
	"github.com/blagoySimandov/bundlestore/internal/metrics"
	"github.com/gorilla/mux"
)

const (
	corsAllowOrigin     = "Access-Control-Allow-Origin"
	corsAllowMethods    = "Access-Control-Allow-Methods"
	corsAllowHeaders    = "Access-Control-Allow-Headers"
	allowedMethods      = "GET, POST, OPTIONS"
	allowedHeaders      = "Content-Type, X-Country, X-Customer-ID"
	internalServerError = "internal server error"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// WideEventMiddleware opens one wide event per request, records its latency
// in Prometheus and emits the event when the handler returns.
func WideEventMiddleware(observer *metrics.Observer) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			event := logging.NewWideEvent("http_request")
			ctx := logging.WithContext(r.Context(), event)

			route := routeTemplate(r)
			logging.EnrichHTTP(ctx, r.Method, route, r.URL.Path)
			w.Header().Set("X-Trace-ID", event.TraceID)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			defer func() {
				d := time.Since(start)
				logging.EnrichHTTPStatus(ctx, rec.status)
				logging.EnrichHTTPDuration(ctx, d)
				observer.ObserveRequest(route, r.Method, rec.status, d)
				logging.Emit(ctx)
			}()

			next.ServeHTTP(rec, r.WithContext(ctx))
		})
	}
}

// RecoveryMiddleware must run inside WideEventMiddleware so the panic lands
// on the request's event.
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logging.EnrichPanic(r.Context())
				writeError(w, r, http.StatusInternalServerError, "panic", fmt.Errorf("%s: %v", internalServerError, err))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func CORSMiddleware(allowedOrigin string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(corsAllowOrigin, allowedOrigin)
			w.Header().Set(corsAllowMethods, allowedMethods)
			w.Header().Set(corsAllowHeaders, allowedHeaders)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}
