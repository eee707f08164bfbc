package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/class-meetup-checkin/internal/monitoring"
)

// ErrSettingsUnavailable marks a commission lookup that failed or returned
// an unusable value.  Calculator swallows it and uses the default.
var ErrSettingsUnavailable = errors.New("settings unavailable")

// CommissionSource reads the current platform commission percent.
type CommissionSource interface {
	CommissionPercent(ctx context.Context) (decimal.Decimal, error)
}

// Calculator computes breakdowns using the commission percent from
// platform settings.
type Calculator struct {
	source CommissionSource
	log    *zap.Logger
}

// NewCalculator returns a Calculator reading from source.  A nil source
// always yields the default commission.
func NewCalculator(source CommissionSource, log *zap.Logger) *Calculator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Calculator{source: source, log: log}
}

// CommissionPercent returns the effective commission percent.  Lookup
// failures and out of range values degrade to DefaultCommissionPercent.
func (c *Calculator) CommissionPercent(ctx context.Context) decimal.Decimal {
	p, err := c.lookup(ctx)
	if err != nil {
		c.log.Debug("commission lookup degraded to default",
			zap.Error(err),
			zap.String("default", DefaultCommissionPercent.String()))
		monitoring.TrackCommissionLookup("default")
		return DefaultCommissionPercent
	}
	return p
}

func (c *Calculator) lookup(ctx context.Context) (decimal.Decimal, error) {
	if c.source == nil {
		return decimal.Zero, ErrSettingsUnavailable
	}
	p, err := c.source.CommissionPercent(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrSettingsUnavailable, err)
	}
	if err := ValidatePercent(p); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrSettingsUnavailable, err)
	}
	return p, nil
}

// Breakdown computes the breakdown for gross with the effective
// commission percent.
func (c *Calculator) Breakdown(ctx context.Context, gross decimal.Decimal) Breakdown {
	return Compute(gross, c.CommissionPercent(ctx))
}

// ValidatePercent checks that p lies within [0, 100].
func ValidatePercent(p decimal.Decimal) error {
	if p.IsNegative() || p.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("commission percent %s out of range [0,100]", p.String())
	}
	return nil
}
