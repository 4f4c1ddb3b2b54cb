package metrics

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Observer records storefront telemetry. A nil *Observer is valid and drops
// everything, which keeps call sites free of nil checks.
type Observer struct {
	requestDuration *prometheus.HistogramVec
	quotes          *prometheus.CounterVec
	unavailable     *prometheus.CounterVec
	cartRefusals    *prometheus.CounterVec
	upgradeChecks   *prometheus.CounterVec
}

func New(namespace string, reg prometheus.Registerer) (*Observer, error) {
	if namespace == "" {
		namespace = "bundlestore"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	o := &Observer{
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latency of storefront API requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		quotes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_total",
			Help:      "Derived views computed, by lifecycle state and purchase gate.",
		}, []string{"state", "can_purchase"}),
		unavailable: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unavailable_quotes_total",
			Help:      "Quotes where no base tier was purchasable, by reason.",
		}, []string{"reason"}),
		cartRefusals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_refusals_total",
			Help:      "Cart submissions refused, by reason.",
		}, []string{"reason"}),
		upgradeChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upgrade_checks_total",
			Help:      "Upgrade eligibility checks, by outcome.",
		}, []string{"outcome"}),
	}

	var err error
	if o.requestDuration, err = register(reg, o.requestDuration); err != nil {
		return nil, err
	}
	if o.quotes, err = register(reg, o.quotes); err != nil {
		return nil, err
	}
	if o.unavailable, err = register(reg, o.unavailable); err != nil {
		return nil, err
	}
	if o.cartRefusals, err = register(reg, o.cartRefusals); err != nil {
		return nil, err
	}
	if o.upgradeChecks, err = register(reg, o.upgradeChecks); err != nil {
		return nil, err
	}
	return o, nil
}

// register returns the already registered collector when one with the same
// descriptor exists, so building a second Observer against the default
// registry is harmless.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("register storefront metric: %w", err)
	}
	return c, nil
}

func (o *Observer) ObserveRequest(route, method string, status int, d time.Duration) {
	if o == nil {
		return
	}
	o.requestDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(d.Seconds())
}

func (o *Observer) RecordQuote(state string, canPurchase bool, unavailableReason string) {
	if o == nil {
		return
	}
	o.quotes.WithLabelValues(state, strconv.FormatBool(canPurchase)).Inc()
	if unavailableReason != "" {
		o.unavailable.WithLabelValues(unavailableReason).Inc()
	}
}

func (o *Observer) RecordCartRefusal(reason string) {
	if o == nil {
		return
	}
	o.cartRefusals.WithLabelValues(reason).Inc()
}

func (o *Observer) RecordUpgradeCheck(outcome string) {
	if o == nil {
		return
	}
	o.upgradeChecks.WithLabelValues(outcome).Inc()
}
