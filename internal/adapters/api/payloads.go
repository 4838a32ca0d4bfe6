package api

import (
	"encoding/json"
	"strings"
	"time"

	"carmandi-marketplace-client/internal/domain/ad"
	"carmandi-marketplace-client/internal/domain/bid"

	"github.com/shopspring/decimal"
)

// adPayload mirrors the backend's ad record. The features column arrives in
// several shapes depending on how the ad was posted: a JSON array, a JSON
// array serialized into a string, or a ragged comma-separated string.
type adPayload struct {
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
	Features       json.RawMessage `json:"features"`
	Images         []string        `json:"images"`
	Location       string          `json:"location"`
	RegisteredIn   string          `json:"registered_in"`
	ModelYear      int             `json:"model_year"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	AuctionEndsAt  *time.Time      `json:"auction_ends_at"`
	Owner          ad.Owner        `json:"owner"`
}

func (p *adPayload) toDomain() *ad.Ad {
	return &ad.Ad{
		ID:             p.ID,
		Make:           p.Make,
		Model:          p.Model,
		Variant:        p.Variant,
		Color:          p.Color,
		EngineCapacity: p.EngineCapacity,
		FuelType:       p.FuelType,
		Transmission:   p.Transmission,
		Mileage:        p.Mileage,
		BodyType:       p.BodyType,
		Features:       parseFeatures(p.Features),
		Images:         p.Images,
		Location:       p.Location,
		RegisteredIn:   p.RegisteredIn,
		ModelYear:      p.ModelYear,
		Description:    p.Description,
		Price:          p.Price,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
		AuctionEndsAt:  p.AuctionEndsAt,
		Owner:          p.Owner,
	}
}

func parseFeatures(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}

	var single string
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil
	}
	if err := json.Unmarshal([]byte(single), &list); err == nil {
		return list
	}

	// Last resort: strip brackets and quotes, split on commas
	single = strings.NewReplacer("[", "", "]", "", `"`, "").Replace(single)
	for _, part := range strings.Split(single, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			list = append(list, trimmed)
		}
	}
	return list
}

// bidPayload mirrors one accepted bid from the history endpoint
type bidPayload struct {
	ID       string          `json:"id"`
	AdID     string          `json:"ad_id"`
	Bidder   string          `json:"bidder"`
	Amount   decimal.Decimal `json:"amount"`
	PlacedAt time.Time       `json:"placed_at"`
}

func (p *bidPayload) toDomain(adID string) *bid.Bid {
	if p.AdID != "" {
		adID = p.AdID
	}
	b := bid.New(adID, p.Bidder, p.Amount, p.PlacedAt, bid.OriginHistorical)
	b.ServerID = p.ID
	return b
}
