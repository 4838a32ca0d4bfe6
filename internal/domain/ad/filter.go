package ad

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Filter narrows a browsed listing on the client. Zero-valued fields do not
// constrain; string fields match case-insensitively.
type Filter struct {
	Make         string
	Model        string
	Location     string
	Transmission string
	FuelType     string
	MinPrice     decimal.Decimal
	MaxPrice     decimal.Decimal
	MinYear      int
	MaxMileage   int
}

// Matches reports whether an ad satisfies every set constraint.
func (f Filter) Matches(a *Ad) bool {
	if !matchesField(f.Make, a.Make) ||
		!matchesField(f.Model, a.Model) ||
		!matchesField(f.Location, a.Location) ||
		!matchesField(f.Transmission, a.Transmission) ||
		!matchesField(f.FuelType, a.FuelType) {
		return false
	}
	if f.MinPrice.IsPositive() && a.Price.LessThan(f.MinPrice) {
		return false
	}
	if f.MaxPrice.IsPositive() && a.Price.GreaterThan(f.MaxPrice) {
		return false
	}
	if f.MinYear > 0 && a.ModelYear < f.MinYear {
		return false
	}
	if f.MaxMileage > 0 && a.Mileage > f.MaxMileage {
		return false
	}
	return true
}

// Apply returns the ads that satisfy the filter, in their original order.
func (f Filter) Apply(ads []*Ad) []*Ad {
	out := make([]*Ad, 0, len(ads))
	for _, a := range ads {
		if f.Matches(a) {
			out = append(out, a)
		}
	}
	return out
}

func matchesField(want, have string) bool {
	return want == "" || strings.EqualFold(want, have)
}
