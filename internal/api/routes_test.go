package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/blagoySimandov/bundlestore/internal/api"
	"github.com/blagoySimandov/bundlestore/internal/metrics"
	"github.com/blagoySimandov/bundlestore/internal/models"
	"github.com/blagoySimandov/bundlestore/internal/state"
	"github.com/blagoySimandov/bundlestore/internal/storefront"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var launch = time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)

func newRouter(t *testing.T, allowClockOverride bool) http.Handler {
	t.Helper()
	ctx := context.Background()
	store := state.NewInMemoryStore()
	require.NoError(t, store.SaveBundle(ctx, &models.Bundle{
		ID:                 "spring-indie",
		Name:               "Spring Indie Bundle",
		StartsAt:           launch,
		EndsAt:             launch.Add(14 * 24 * time.Hour),
		PublisherSplit:     75,
		PlatformSplit:      20,
		CharitySplit:       5,
		ExcessDistribution: models.ExcessCharity,
		MinimumAmount:      100,
		Tiers: []models.Tier{
			{ID: "tier-15", Type: models.TierTypeBase, Price: 1500},
			{ID: "tier-5", Type: models.TierTypeBase, Price: 500},
			{ID: "charity-3", Type: models.TierTypeCharity, Price: 300},
		},
		Products: []models.Product{
			{ID: "P1", TierID: "tier-5"},
			{ID: "P2", TierID: "tier-15"},
			{ID: "C1", TierID: "charity-3"},
		},
	}))
	require.NoError(t, store.SetStock(ctx, "spring-indie", "tier-5", "DE", 10))
	require.NoError(t, store.SetStock(ctx, "spring-indie", "tier-15", "DE", 0))
	require.NoError(t, store.SavePurchase(ctx, &models.PriorPurchase{
		CustomerID:        "cust-1",
		BundleID:          "spring-indie",
		Status:            models.PurchaseStatusCompleted,
		SnapshotTierPrice: 500,
		SnapshotProducts:  []string{"P1"},
		PurchasedAt:       launch.Add(time.Hour),
	}))

	reg := prometheus.NewRegistry()
	observer, err := metrics.New("test", reg)
	require.NoError(t, err)

	svc := storefront.NewService(store, observer,
		storefront.WithClock(func() time.Time { return launch.Add(48 * time.Hour) }))
	return api.SetupRoutes(api.NewBundleHandler(svc, allowClockOverride), api.RouterConfig{
		AllowedOrigin:  "http://localhost:5173",
		Observer:       observer,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
}

func do(t *testing.T, h http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestGetBundle(t *testing.T) {
	h := newRouter(t, false)

	rec := do(t, h, http.MethodGet, "/api/v1/bundles/spring-indie?order=priciest_first", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Trace-ID"))

	body := decode(t, rec)
	display := body["display_tiers"].([]any)
	assert.Equal(t, "tier-15", display[0].(map[string]any)["id"])
	canonical := body["base_tiers"].([]any)
	assert.Equal(t, "tier-5", canonical[0].(map[string]any)["id"])
}

func TestGetBundle_Errors(t *testing.T) {
	h := newRouter(t, false)

	rec := do(t, h, http.MethodGet, "/api/v1/bundles/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "bundle_not_found", decode(t, rec)["reason"])

	rec = do(t, h, http.MethodGet, "/api/v1/bundles/spring-indie?order=sideways", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListBundles(t *testing.T) {
	h := newRouter(t, false)

	rec := do(t, h, http.MethodGet, "/api/v1/bundles?limit=5", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	rec = do(t, h, http.MethodGet, "/api/v1/bundles?limit=-1", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuote(t *testing.T) {
	h := newRouter(t, false)

	rec := do(t, h, http.MethodPost, "/api/v1/bundles/spring-indie/quote",
		`{"base_amount": 1100, "charity_tier_ids": ["charity-3"], "tip_amount": 0}`,
		map[string]string{"X-Country": "DE"})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	split := body["split"].(map[string]any)
	assert.Equal(t, float64(1400), split["total_amount"])
	assert.Equal(t, "soldout", body["availability"].(map[string]any)["reason"])
	assert.Equal(t, false, body["can_purchase"])
	assert.Equal(t, "tier-5", body["current_base_tier"].(map[string]any)["id"])
}

func TestQuote_EmptyBodyAndBadBody(t *testing.T) {
	h := newRouter(t, false)

	rec := do(t, h, http.MethodPost, "/api/v1/bundles/spring-indie/quote", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), decode(t, rec)["split"].(map[string]any)["total_amount"])

	rec = do(t, h, http.MethodPost, "/api/v1/bundles/spring-indie/quote", "{", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuote_ClockOverride(t *testing.T) {
	target := "/api/v1/bundles/spring-indie/quote?now=2026-03-01T00:00:00Z"
	sel := `{"base_amount": 500}`

	rec := do(t, newRouter(t, true), http.MethodPost, target, sel, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "not-started", decode(t, rec)["window"].(map[string]any)["state"])

	rec = do(t, newRouter(t, false), http.MethodPost, target, sel, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "active", decode(t, rec)["window"].(map[string]any)["state"], "override ignored when disabled")

	rec = do(t, newRouter(t, true), http.MethodPost, "/api/v1/bundles/spring-indie/quote?now=yesterday", sel, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCart(t *testing.T) {
	h := newRouter(t, false)

	rec := do(t, h, http.MethodPost, "/api/v1/bundles/spring-indie/cart",
		`{"base_amount": 500}`, map[string]string{"X-Country": "DE"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "unavailable", decode(t, rec)["reason"])

	rec = do(t, h, http.MethodPost, "/api/v1/bundles/spring-indie/cart",
		`{"base_amount": -5}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_selection", decode(t, rec)["reason"])

	rec = do(t, h, http.MethodPost, "/api/v1/bundles/spring-indie/cart",
		`{"base_amount": 500, "tip_amount": 100}`, map[string]string{"X-Country": "FR"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "unavailable", decode(t, rec)["reason"])
}

func TestCart_BelowMinimum(t *testing.T) {
	h := newRouter(t, false)

	rec := do(t, h, http.MethodPost, "/api/v1/bundles/spring-indie/cart",
		`{"base_amount": 50, "charity_tier_ids": ["charity-3"]}`, map[string]string{"X-Country": "DE"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "below_minimum", decode(t, rec)["reason"])
}

func TestQuote_BelowMinimum(t *testing.T) {
	h := newRouter(t, false)

	rec := do(t, h, http.MethodPost, "/api/v1/bundles/spring-indie/quote",
		`{"base_amount": 50}`, map[string]string{"X-Country": "DE"})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, true, body["below_minimum"])
	assert.Equal(t, false, body["can_purchase"])
	assert.Equal(t, float64(0), body["split"].(map[string]any)["total_amount"])
}

func TestQuote_AutoCharity(t *testing.T) {
	h := newRouter(t, false)

	rec := do(t, h, http.MethodPost, "/api/v1/bundles/spring-indie/quote?auto_charity=true",
		`{"base_amount": 600}`, map[string]string{"X-Country": "DE"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, []any{"charity-3"}, body["selection"].(map[string]any)["charity_tier_ids"])
	assert.Equal(t, float64(900), body["split"].(map[string]any)["total_amount"])

	rec = do(t, h, http.MethodPost, "/api/v1/bundles/spring-indie/quote?auto_charity=maybe",
		`{"base_amount": 600}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStoredBundleFailingValidation(t *testing.T) {
	ctx := context.Background()
	store := state.NewInMemoryStore()
	require.NoError(t, store.SaveBundle(ctx, &models.Bundle{
		ID:             "broken",
		StartsAt:       launch,
		EndsAt:         launch.Add(24 * time.Hour),
		PublisherSplit: 60,
		PlatformSplit:  20,
		CharitySplit:   10,
		Tiers:          []models.Tier{{ID: "t1", Type: models.TierTypeBase, Price: 500}},
	}))
	svc := storefront.NewService(store, nil, storefront.WithClock(func() time.Time { return launch.Add(time.Hour) }))
	h := api.SetupRoutes(api.NewBundleHandler(svc, false), api.RouterConfig{AllowedOrigin: "*"})

	for _, tc := range []struct{ method, target, body string }{
		{http.MethodGet, "/api/v1/bundles/broken", ""},
		{http.MethodPost, "/api/v1/bundles/broken/quote", `{"base_amount": 700}`},
		{http.MethodPost, "/api/v1/bundles/broken/cart", `{"base_amount": 700}`},
	} {
		rec := do(t, h, tc.method, tc.target, tc.body, nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code, tc.target)
		assert.Equal(t, "invalid_bundle", decode(t, rec)["reason"], tc.target)
	}
}

func TestCart_Success(t *testing.T) {
	ctx := context.Background()
	store := state.NewInMemoryStore()
	require.NoError(t, store.SaveBundle(ctx, &models.Bundle{
		ID:             "solo",
		StartsAt:       launch,
		EndsAt:         launch.Add(24 * time.Hour),
		PublisherSplit: 100,
		Tiers:          []models.Tier{{ID: "t1", Type: models.TierTypeBase, Price: 500}},
	}))
	svc := storefront.NewService(store, nil, storefront.WithClock(func() time.Time { return launch.Add(time.Hour) }))
	h := api.SetupRoutes(api.NewBundleHandler(svc, false), api.RouterConfig{AllowedOrigin: "*"})

	rec := do(t, h, http.MethodPost, "/api/v1/bundles/solo/cart", `{"base_amount": 700}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.NotEmpty(t, body["cart_id"])
	assert.Equal(t, float64(700), body["total_amount"])
	assert.Equal(t, "t1", body["base_tier_id"])
}

func TestUpgrade(t *testing.T) {
	h := newRouter(t, false)

	rec := do(t, h, http.MethodGet, "/api/v1/bundles/spring-indie/upgrade", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "customer_required", decode(t, rec)["reason"])

	rec = do(t, h, http.MethodGet, "/api/v1/bundles/spring-indie/upgrade", "",
		map[string]string{"X-Customer-ID": "cust-1"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["eligible"])
	assert.Equal(t, "priced_delta", body["flow"])
	assert.Equal(t, true, body["has_purchase"])
}

func TestCORSPreflight(t *testing.T) {
	h := newRouter(t, false)

	rec := do(t, h, http.MethodOptions, "/api/v1/bundles/spring-indie/quote", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "X-Country")
}

func TestHealthzAndMetrics(t *testing.T) {
	h := newRouter(t, false)

	rec := do(t, h, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	do(t, h, http.MethodPost, "/api/v1/bundles/spring-indie/quote", `{"base_amount": 500}`, map[string]string{"X-Country": "DE"})
	rec = do(t, h, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_quotes_total")
	assert.Contains(t, rec.Body.String(), `test_unavailable_quotes_total{reason="soldout"} 1`)
	assert.Contains(t, rec.Body.String(), "test_http_request_duration_seconds")
}
