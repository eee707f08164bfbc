// Package payment computes the fee breakdown shown to buyers and used
// when creating charges for classes and meetups.
package payment

import "github.com/shopspring/decimal"

// VenueRentLabel describes the venue rent policy.  Rent is currently a
// flat zero but the label is always returned alongside the amount.
const VenueRentLabel = "$0 per 30 min"

var (
	// DefaultCommissionPercent applies when platform settings cannot be read.
	DefaultCommissionPercent = decimal.NewFromInt(4)

	// ProcessingFeeRate models the payment processor's cut of gross.
	ProcessingFeeRate = decimal.RequireFromString("0.03")

	venueRent = decimal.Zero
)

// Breakdown is the derived fee split for a gross amount.  All money
// fields are rounded to two places.
type Breakdown struct {
	GrossAmount       decimal.Decimal
	VenueRent         decimal.Decimal
	VenueRentLabel    string
	CommissionPercent decimal.Decimal
	CommissionAmount  decimal.Decimal
	ProcessingFee     decimal.Decimal
	NetAmount         decimal.Decimal
	PayoutAmount      decimal.Decimal
}

// Compute returns the breakdown for gross at the given commission percent.
// Every term is rounded to cents where it is computed, and the payout is
// derived from the rounded terms, so results reconcile with stored ledgers
// to the cent.  Zero and negative amounts are not rejected.
func Compute(gross, commissionPercent decimal.Decimal) Breakdown {
	g := round2(gross)
	commission := round2(g.Mul(commissionPercent).Shift(-2))
	fee := round2(g.Mul(ProcessingFeeRate))

	return Breakdown{
		GrossAmount:       g,
		VenueRent:         venueRent,
		VenueRentLabel:    VenueRentLabel,
		CommissionPercent: commissionPercent,
		CommissionAmount:  commission,
		ProcessingFee:     fee,
		NetAmount:         round2(g.Sub(fee)),
		PayoutAmount:      round2(g.Sub(fee).Sub(commission).Sub(venueRent)),
	}
}

// round2 rounds half away from zero to two decimal places.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
