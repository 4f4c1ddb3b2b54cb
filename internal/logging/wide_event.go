package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type contextKey string

const (
	contextKeyWideEvent contextKey = "wide_event"
	contextKeyTraceID   contextKey = "trace_id"
)

// WideEvent is the single structured log line emitted per storefront
// request. Handlers and the storefront service fill it in as the request
// flows through them.
type WideEvent struct {
	TraceID   string    `json:"trace_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`

	HTTPMethod     string `json:"http_method,omitempty"`
	HTTPRoute      string `json:"http_route,omitempty"`
	HTTPPath       string `json:"http_path,omitempty"`
	HTTPStatusCode int    `json:"http_status_code,omitempty"`
	HTTPDurationMs int64  `json:"http_duration_ms,omitempty"`

	CustomerID string `json:"customer_id,omitempty"`
	Territory  string `json:"territory,omitempty"`

	BundleID       string `json:"bundle_id,omitempty"`
	LifecycleState string `json:"lifecycle_state,omitempty"`
	BaseTierID     string `json:"base_tier_id,omitempty"`
	TotalCents     int64  `json:"total_cents,omitempty"`
	CanPurchase    *bool  `json:"can_purchase,omitempty"`
	Unavailable    string `json:"unavailable_reason,omitempty"`
	UpgradeReason  string `json:"upgrade_reason,omitempty"`

	Error          string `json:"error,omitempty"`
	ErrorStage     string `json:"error_stage,omitempty"`
	PanicRecovered bool   `json:"panic_recovered,omitempty"`

	Metadata map[string]any `json:"metadata,omitempty"`
}

func NewWideEvent(eventType string) *WideEvent {
	return &WideEvent{
		TraceID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
		Metadata:  make(map[string]any),
	}
}

func WithContext(ctx context.Context, event *WideEvent) context.Context {
	ctx = context.WithValue(ctx, contextKeyWideEvent, event)
	ctx = context.WithValue(ctx, contextKeyTraceID, event.TraceID)
	return ctx
}

func FromContext(ctx context.Context) *WideEvent {
	if event, ok := ctx.Value(contextKeyWideEvent).(*WideEvent); ok {
		return event
	}
	return nil
}

func GetTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(contextKeyTraceID).(string); ok {
		return traceID
	}
	return ""
}

// Enrich helpers are no-ops when the context carries no event, so the
// storefront service can call them from tests and CLIs too.

func EnrichHTTP(ctx context.Context, method, route, path string) {
	if event := FromContext(ctx); event != nil {
		event.HTTPMethod = method
		event.HTTPRoute = route
		event.HTTPPath = path
	}
}

func EnrichHTTPStatus(ctx context.Context, statusCode int) {
	if event := FromContext(ctx); event != nil {
		event.HTTPStatusCode = statusCode
	}
}

func EnrichHTTPDuration(ctx context.Context, duration time.Duration) {
	if event := FromContext(ctx); event != nil {
		event.HTTPDurationMs = duration.Milliseconds()
	}
}

func EnrichCustomer(ctx context.Context, customerID, territory string) {
	if event := FromContext(ctx); event != nil {
		event.CustomerID = customerID
		event.Territory = territory
	}
}

func EnrichBundle(ctx context.Context, bundleID, lifecycleState string) {
	if event := FromContext(ctx); event != nil {
		event.BundleID = bundleID
		event.LifecycleState = lifecycleState
	}
}

func EnrichQuote(ctx context.Context, baseTierID string, totalCents int64, canPurchase bool, unavailable string) {
	if event := FromContext(ctx); event != nil {
		event.BaseTierID = baseTierID
		event.TotalCents = totalCents
		event.CanPurchase = &canPurchase
		event.Unavailable = unavailable
	}
}

func EnrichUpgrade(ctx context.Context, reason string) {
	if event := FromContext(ctx); event != nil {
		event.UpgradeReason = reason
	}
}

func EnrichError(ctx context.Context, err error, stage string) {
	if event := FromContext(ctx); event != nil {
		if err != nil {
			event.Error = err.Error()
			event.ErrorStage = stage
		}
	}
}

func EnrichPanic(ctx context.Context) {
	if event := FromContext(ctx); event != nil {
		event.PanicRecovered = true
	}
}

func EnrichMetadata(ctx context.Context, key string, value any) {
	if event := FromContext(ctx); event != nil {
		event.Metadata[key] = value
	}
}

// Emit writes the event through slog. Empty fields are left out.
func Emit(ctx context.Context) {
	event := FromContext(ctx)
	if event == nil {
		return
	}
	slog.LogAttrs(ctx, event.level(), "wide_event", event.attrs()...)
}

func (e *WideEvent) level() slog.Level {
	switch {
	case e.PanicRecovered || e.HTTPStatusCode >= 500:
		return slog.LevelError
	case e.Error != "":
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

func (e *WideEvent) attrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("trace_id", e.TraceID),
		slog.String("event_type", e.EventType),
		slog.Time("timestamp", e.Timestamp),
	}
	str := func(key, v string) {
		if v != "" {
			attrs = append(attrs, slog.String(key, v))
		}
	}

	str("http_method", e.HTTPMethod)
	str("http_route", e.HTTPRoute)
	str("http_path", e.HTTPPath)
	if e.HTTPStatusCode != 0 {
		attrs = append(attrs, slog.Int("http_status_code", e.HTTPStatusCode))
	}
	attrs = append(attrs, slog.Int64("http_duration_ms", e.HTTPDurationMs))

	str("customer_id", e.CustomerID)
	str("territory", e.Territory)
	str("bundle_id", e.BundleID)
	str("lifecycle_state", e.LifecycleState)
	str("base_tier_id", e.BaseTierID)
	if e.CanPurchase != nil {
		attrs = append(attrs,
			slog.Int64("total_cents", e.TotalCents),
			slog.Bool("can_purchase", *e.CanPurchase))
	}
	str("unavailable_reason", e.Unavailable)
	str("upgrade_reason", e.UpgradeReason)

	str("error", e.Error)
	str("error_stage", e.ErrorStage)
	if e.PanicRecovered {
		attrs = append(attrs, slog.Bool("panic_recovered", true))
	}
	if len(e.Metadata) > 0 {
		attrs = append(attrs, slog.Any("metadata", e.Metadata))
	}
	return attrs
}
