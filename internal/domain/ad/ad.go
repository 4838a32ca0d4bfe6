package ad

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Owner identifies the seller who posted an ad.
type Owner struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Ad represents a single car listing on the marketplace.
type Ad struct {
	ID             int64           `json:"id"`
	Make           string          `json:"make"`
	Model          string          `json:"model"`
	Variant        string          `json:"variant"`
	Color          string          `json:"color"`
	EngineCapacity int             `json:"engine_capacity"`
	FuelType       string          `json:"fuel_type"`
	Transmission   string          `json:"transmission"`
	Mileage        int             `json:"mileage"`
	BodyType       string          `json:"body_type"`
	Features       []string        `json:"features"`
	Images         []string        `json:"images"`
	Location       string          `json:"location"`
	RegisteredIn   string          `json:"registered_in"`
	ModelYear      int             `json:"model_year"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	AuctionEndsAt  *time.Time      `json:"auction_ends_at,omitempty"`
	Owner          Owner           `json:"owner"`
}

// Title returns the display name of the listed car.
func (a *Ad) Title() string {
	return strings.TrimSpace(fmt.Sprintf("%s %s %s", a.Make, a.Model, a.Variant))
}

// AuctionEnd derives the fixed end of this ad's auction. The explicit end
// time wins when the backend provides one; otherwise the auction runs for
// defaultWindow from the time the ad was posted.
func (a *Ad) AuctionEnd(defaultWindow time.Duration) time.Time {
	if a.AuctionEndsAt != nil && !a.AuctionEndsAt.IsZero() {
		return *a.AuctionEndsAt
	}
	return a.CreatedAt.Add(defaultWindow)
}
