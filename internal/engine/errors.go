package engine

import (
	"errors"
	"strings"
)

var (
	ErrInvalidSplit           = errors.New("split percentages must sum to 100")
	ErrNonIncreasingBaseTiers = errors.New("base tier prices must be strictly increasing")
	ErrNegativeAmount         = errors.New("amount must not be negative")
	ErrUnknownTier            = errors.New("unknown tier")
	ErrDuplicateTier          = errors.New("duplicate tier id")
	ErrInvalidWindow          = errors.New("invalid bundle window")
	ErrInvalidTierType        = errors.New("invalid tier type")
	ErrBelowMinimum           = errors.New("base amount is below the bundle minimum")

	ErrSaleInactive      = errors.New("bundle is not on sale")
	ErrUnavailable       = errors.New("bundle is not available")
	ErrNothingToPurchase = errors.New("nothing to purchase")
)

// ValidationError carries every problem found in one validation pass.
// errors.Is matches any of the underlying sentinel errors.
type ValidationError struct {
	Problems []error
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() []error {
	return e.Problems
}

type problems []error

func (p *problems) add(err error) {
	*p = append(*p, err)
}

func (p problems) err() error {
	if len(p) == 0 {
		return nil
	}
	return &ValidationError{Problems: p}
}
