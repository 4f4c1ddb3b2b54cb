package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserver_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	o, err := New("test", reg)
	require.NoError(t, err)

	o.RecordQuote("active", true, "")
	o.RecordQuote("active", false, "soldout")
	o.RecordQuote("active", false, "soldout")
	o.RecordCartRefusal("sale_inactive")
	o.RecordUpgradeCheck("eligible")
	o.ObserveRequest("/api/v1/bundles/{bundleID}/quote", "POST", 200, 5*time.Millisecond)

	assert.Equal(t, float64(1), testutil.ToFloat64(o.quotes.WithLabelValues("active", "true")))
	assert.Equal(t, float64(2), testutil.ToFloat64(o.unavailable.WithLabelValues("soldout")))
	assert.Equal(t, float64(1), testutil.ToFloat64(o.cartRefusals.WithLabelValues("sale_inactive")))
	assert.Equal(t, float64(1), testutil.ToFloat64(o.upgradeChecks.WithLabelValues("eligible")))
	assert.Equal(t, 1, testutil.CollectAndCount(o.requestDuration))
}

func TestNew_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := New("test", reg)
	require.NoError(t, err)
	second, err := New("test", reg)
	require.NoError(t, err)

	first.RecordCartRefusal("unavailable")
	assert.Equal(t, float64(1), testutil.ToFloat64(second.cartRefusals.WithLabelValues("unavailable")))
}

func TestNilObserver(t *testing.T) {
	var o *Observer
	assert.NotPanics(t, func() {
		o.RecordQuote("active", true, "")
		o.RecordCartRefusal("x")
		o.RecordUpgradeCheck("x")
		o.ObserveRequest("/", "GET", 200, time.Second)
	})
}
