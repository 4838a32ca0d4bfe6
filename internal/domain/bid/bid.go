package bid

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Origin tags where a bid entered the view from.
type Origin string

const (
	// OriginHistorical marks bids loaded from the bid-history endpoint.
	OriginHistorical Origin = "historical"
	// OriginOptimistic marks bids submitted locally and not yet confirmed.
	OriginOptimistic Origin = "optimistic"
	// OriginPushed marks bids delivered over the real-time feed.
	OriginPushed Origin = "pushed"
)

// Status represents the confirmation state of a bid.
type Status string

const (
	StatusConfirmed   Status = "confirmed"
	StatusPending     Status = "pending"
	StatusUnconfirmed Status = "unconfirmed"
)

// Bid represents one offer on an ad's live auction.
type Bid struct {
	ID       uuid.UUID       `json:"id"`
	ServerID string          `json:"server_id,omitempty"`
	AdID     string          `json:"ad_id"`
	Bidder   string          `json:"bidder"`
	Amount   decimal.Decimal `json:"amount"`
	PlacedAt time.Time       `json:"placed_at"`
	Origin   Origin          `json:"origin"`
	Status   Status          `json:"status"`
}

// New creates a bid entry for the given source.
func New(adID, bidder string, amount decimal.Decimal, placedAt time.Time, origin Origin) *Bid {
	status := StatusConfirmed
	if origin == OriginOptimistic {
		status = StatusPending
	}
	return &Bid{
		ID:       uuid.New(),
		AdID:     adID,
		Bidder:   bidder,
		Amount:   amount,
		PlacedAt: placedAt,
		Origin:   origin,
		Status:   status,
	}
}

// SameBid reports whether b and other describe the same logical bid. Two
// bids match on equal non-empty server ids, or on bidder plus amount with
// placement times within tolerance of each other.
func (b *Bid) SameBid(other *Bid, tolerance time.Duration) bool {
	if b.ServerID != "" && other.ServerID != "" {
		return b.ServerID == other.ServerID
	}
	if b.Bidder != other.Bidder || !b.Amount.Equal(other.Amount) {
		return false
	}
	diff := b.PlacedAt.Sub(other.PlacedAt)
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}

// Confirm upgrades an optimistic entry in place with its server-confirmed
// counterpart.
func (b *Bid) Confirm(authoritative *Bid) {
	if authoritative.ServerID != "" {
		b.ServerID = authoritative.ServerID
	}
	if !authoritative.PlacedAt.IsZero() {
		b.PlacedAt = authoritative.PlacedAt
	}
	b.Origin = authoritative.Origin
	b.Status = StatusConfirmed
}

// MarkUnconfirmed flags a local entry whose persistence attempt failed.
func (b *Bid) MarkUnconfirmed() {
	b.Status = StatusUnconfirmed
}

// IsConfirmed returns true once the bid is backed by server state.
func (b *Bid) IsConfirmed() bool {
	return b.Status == StatusConfirmed
}

// IsLocal returns true for bids that originated from this client.
func (b *Bid) IsLocal() bool {
	return b.Origin == OriginOptimistic
}

// Clone returns a copy safe to hand outside the owning view.
func (b *Bid) Clone() *Bid {
	dup := *b
	return &dup
}
