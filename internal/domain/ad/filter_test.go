package ad

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestFilterMatches(t *testing.T) {
	corolla := &Ad{
		Make:         "Toyota",
		Model:        "Corolla",
		Location:     "Lahore",
		Transmission: "Automatic",
		FuelType:     "Petrol",
		ModelYear:    2021,
		Mileage:      45000,
		Price:        decimal.NewFromInt(2500000),
	}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty filter matches everything", Filter{}, true},
		{"make matches case-insensitively", Filter{Make: "toyota"}, true},
		{"different make", Filter{Make: "Honda"}, false},
		{"price within range", Filter{MinPrice: decimal.NewFromInt(2000000), MaxPrice: decimal.NewFromInt(3000000)}, true},
		{"price above max", Filter{MaxPrice: decimal.NewFromInt(2000000)}, false},
		{"price below min", Filter{MinPrice: decimal.NewFromInt(3000000)}, false},
		{"year too old", Filter{MinYear: 2022}, false},
		{"mileage too high", Filter{MaxMileage: 40000}, false},
		{"combined constraints", Filter{Make: "Toyota", Location: "lahore", MinYear: 2020}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.filter.Matches(corolla))
		})
	}
}

func TestFilterApplyKeepsOrder(t *testing.T) {
	ads := []*Ad{
		{Make: "Toyota", Model: "Corolla", Price: decimal.NewFromInt(2500000)},
		{Make: "Honda", Model: "Civic", Price: decimal.NewFromInt(4000000)},
		{Make: "Toyota", Model: "Yaris", Price: decimal.NewFromInt(3500000)},
	}

	got := Filter{Make: "Toyota"}.Apply(ads)
	require.Len(t, got, 2)
	require.Equal(t, "Corolla", got[0].Model)
	require.Equal(t, "Yaris", got[1].Model)
}
