package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/blagoySimandov/bundlestore/internal/engine"
	"github.com/blagoySimandov/bundlestore/internal/storefront"
	"github.com/gorilla/mux"
)

const (
	headerCountry    = "X-Country"
	headerCustomerID = "X-Customer-ID"
	maxBodyBytes     = 64 << 10
	defaultPageSize  = 50
)

type BundleHandler struct {
	svc                *storefront.Service
	allowClockOverride bool
}

func NewBundleHandler(svc *storefront.Service, allowClockOverride bool) *BundleHandler {
	return &BundleHandler{svc: svc, allowClockOverride: allowClockOverride}
}

func (h *BundleHandler) ListBundles(w http.ResponseWriter, r *http.Request) {
	offset, err := intParam(r, "offset", 0)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_offset", err)
		return
	}
	limit, err := intParam(r, "limit", defaultPageSize)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_limit", err)
		return
	}

	bundles, err := h.svc.ListBundles(r.Context(), offset, limit)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "list_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, bundles)
}

func (h *BundleHandler) GetBundle(w http.ResponseWriter, r *http.Request) {
	req, err := h.request(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", err)
		return
	}

	order := engine.DisplayOrder(r.URL.Query().Get("order"))
	switch order {
	case "":
		order = engine.DisplayCheapestFirst
	case engine.DisplayCheapestFirst, engine.DisplayPriciestFirst:
	default:
		writeError(w, r, http.StatusBadRequest, "invalid_order", fmt.Errorf("unknown display order %q", order))
		return
	}

	detail, err := h.svc.Bundle(r.Context(), req, order)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *BundleHandler) Quote(w http.ResponseWriter, r *http.Request) {
	req, err := h.request(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", err)
		return
	}
	sel, err := decodeSelection(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_selection", err)
		return
	}

	quote, err := h.svc.Quote(r.Context(), req, sel)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (h *BundleHandler) Cart(w http.ResponseWriter, r *http.Request) {
	req, err := h.request(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", err)
		return
	}
	sel, err := decodeSelection(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_selection", err)
		return
	}

	cart, err := h.svc.Cart(r.Context(), req, sel)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *BundleHandler) Upgrade(w http.ResponseWriter, r *http.Request) {
	req, err := h.request(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", err)
		return
	}

	res, err := h.svc.Upgrade(r.Context(), req)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *BundleHandler) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *engine.ValidationError
	switch {
	case errors.Is(err, storefront.ErrBundleNotFound):
		writeError(w, r, http.StatusNotFound, "bundle_not_found", err)
	case errors.Is(err, storefront.ErrCustomerRequired):
		writeError(w, r, http.StatusBadRequest, "customer_required", err)
	case errors.Is(err, storefront.ErrInvalidBundle):
		writeError(w, r, http.StatusInternalServerError, storefront.RefusalReason(err), err)
	case errors.Is(err, engine.ErrBelowMinimum),
		errors.As(err, &verr):
		writeError(w, r, http.StatusBadRequest, storefront.RefusalReason(err), err)
	case errors.Is(err, engine.ErrSaleInactive),
		errors.Is(err, engine.ErrUnavailable),
		errors.Is(err, engine.ErrNothingToPurchase):
		writeError(w, r, http.StatusConflict, storefront.RefusalReason(err), err)
	default:
		writeError(w, r, http.StatusInternalServerError, "internal", err)
	}
}

// request reads the bundle id, caller headers and, when enabled, the ?now=
// clock override. The override is ignored when disabled.
func (h *BundleHandler) request(r *http.Request) (storefront.Request, error) {
	req := storefront.Request{
		BundleID:   mux.Vars(r)["bundleID"],
		CustomerID: r.Header.Get(headerCustomerID),
		Country:    r.Header.Get(headerCountry),
	}
	if raw := r.URL.Query().Get("auto_charity"); raw != "" {
		auto, err := strconv.ParseBool(raw)
		if err != nil {
			return req, fmt.Errorf("auto_charity must be a boolean: %w", err)
		}
		req.AutoCharity = auto
	}
	if raw := r.URL.Query().Get("now"); raw != "" && h.allowClockOverride {
		now, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return req, fmt.Errorf("now must be RFC3339: %w", err)
		}
		req.Now = now
	}
	return req, nil
}

func decodeSelection(r *http.Request) (engine.Selection, error) {
	sel := engine.NewSelection()
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&sel)
	if errors.Is(err, io.EOF) {
		return engine.NewSelection(), nil
	}
	if err != nil {
		return sel, fmt.Errorf("decode selection: %w", err)
	}
	return sel, nil
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return v, nil
}
