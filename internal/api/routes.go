package api

import (
	"net/http"

	"github.com/blagoySimandov/bundlestore/internal/metrics"
	"github.com/gorilla/mux"
)

type RouterConfig struct {
	AllowedOrigin  string
	Observer       *metrics.Observer
	MetricsHandler http.Handler
}

func SetupRoutes(h *BundleHandler, cfg RouterConfig) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", Healthz).Methods(http.MethodGet)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler).Methods(http.MethodGet)
	}

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.Use(CORSMiddleware(cfg.AllowedOrigin))
	v1.Use(WideEventMiddleware(cfg.Observer))
	v1.Use(RecoveryMiddleware)

	v1.HandleFunc("/bundles", h.ListBundles).Methods(http.MethodGet, http.MethodOptions)
	v1.HandleFunc("/bundles/{bundleID}", h.GetBundle).Methods(http.MethodGet, http.MethodOptions)
	v1.HandleFunc("/bundles/{bundleID}/quote", h.Quote).Methods(http.MethodPost, http.MethodOptions)
	v1.HandleFunc("/bundles/{bundleID}/cart", h.Cart).Methods(http.MethodPost, http.MethodOptions)
	v1.HandleFunc("/bundles/{bundleID}/upgrade", h.Upgrade).Methods(http.MethodGet, http.MethodOptions)

	return r
}
