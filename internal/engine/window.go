package engine

import (
	"time"

	"github.com/blagoySimandov/bundlestore/internal/models"
)

type LifecycleState string

const (
	StateNotStarted LifecycleState = "not-started"
	StatePreSale    LifecycleState = "pre-sale"
	StateActive     LifecycleState = "active"
	StateExpired    LifecycleState = "expired"
)

const (
	LabelEndsIn          = "ends in"
	LabelStartsIn        = "starts in"
	LabelPreSaleStartsIn = "pre-sale starts in"
	LabelEnded           = "ended"
)

// Window is the bundle's lifecycle at one instant.
type Window struct {
	State LifecycleState `json:"state"`
	Label string         `json:"label"`
	// CountdownTo is the instant the label counts towards. Zero when expired.
	CountdownTo time.Time     `json:"countdown_to,omitempty"`
	Remaining   time.Duration `json:"remaining"`
}

// EvaluateWindow places now on the bundle's lifecycle. Expiry is checked
// first and is terminal.
func EvaluateWindow(b *models.Bundle, now time.Time) Window {
	if b == nil {
		return Window{State: StateExpired, Label: LabelEnded}
	}
	if now.After(b.EndsAt) {
		return Window{State: StateExpired, Label: LabelEnded}
	}

	if now.Before(b.StartsAt) {
		sellFrom, sellTo := b.SaleStart(), b.SaleEnd()
		switch {
		case b.HasPreSale() && within(now, sellFrom, sellTo):
			return countdown(StatePreSale, LabelEndsIn, now, b.StartsAt)
		case sellFrom.Before(b.StartsAt) && now.Before(sellFrom):
			return countdown(StateNotStarted, LabelPreSaleStartsIn, now, sellFrom)
		default:
			return countdown(StateNotStarted, LabelStartsIn, now, b.StartsAt)
		}
	}

	return countdown(StateActive, LabelEndsIn, now, b.EndsAt)
}

// IsSaleActive reports whether a purchase may be made at now. It depends only
// on the sale window, not on the lifecycle state: a bundle can be publicly
// active after its sale window has closed.
func IsSaleActive(b *models.Bundle, now time.Time) bool {
	if b == nil {
		return false
	}
	return within(now, b.SaleStart(), b.SaleEnd())
}

func within(now, from, to time.Time) bool {
	return !now.Before(from) && !now.After(to)
}

func countdown(state LifecycleState, label string, now, to time.Time) Window {
	return Window{
		State:       state,
		Label:       label,
		CountdownTo: to,
		Remaining:   to.Sub(now),
	}
}
