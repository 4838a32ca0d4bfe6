package inbound

import (
	"context"
	"time"

	"carmandi-marketplace-client/internal/domain/ad"
	"carmandi-marketplace-client/internal/domain/bid"
	"carmandi-marketplace-client/internal/domain/chat"

	"github.com/shopspring/decimal"
)

// AuctionPhase represents the countdown state of a live auction view
type AuctionPhase string

const (
	PhaseRunning AuctionPhase = "running"
	PhaseEnded   AuctionPhase = "ended"
)

// BidNotice is the transient "new bid" affordance raised when another
// bidder's bid arrives over the feed. It auto-clears after its display
// window.
type BidNotice struct {
	Bidder    string          `json:"bidder"`
	Amount    decimal.Decimal `json:"amount"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// AuctionSnapshot is the read-only render state of one auction view.
type AuctionSnapshot struct {
	Ad *ad.Ad `json:"ad,omitempty"`

	// Bids is ordered by amount descending for display
	Bids []*bid.Bid `json:"bids"`
	// History is ordered by placement time ascending
	History []*bid.Bid `json:"history"`

	HighestBid     decimal.Decimal `json:"highest_bid"`
	MinimumNextBid decimal.Decimal `json:"minimum_next_bid"`

	AuctionEnd    time.Time     `json:"auction_end"`
	TimeRemaining time.Duration `json:"time_remaining"`
	Countdown     string        `json:"countdown"`
	Phase         AuctionPhase  `json:"phase"`

	Notice *BidNotice `json:"notice,omitempty"`

	// Degraded is set when the feed room could not be joined; the view
	// stays usable without live updates
	Degraded bool `json:"degraded"`

	// LoadErr reports a failed initial fetch; the view renders empty
	LoadErr error `json:"-"`
	// SubmitErr reports the most recent failed submission
	SubmitErr error `json:"-"`
}

// AuctionView defines the operations of a live-auction view model
type AuctionView interface {
	// Snapshot returns the current render state
	Snapshot(ctx context.Context) (AuctionSnapshot, error)

	// SubmitBid places a bid for the signed-in user. The amount is the raw
	// user input and is validated here before any network call.
	SubmitBid(ctx context.Context, amount string) error

	// Deactivate tears the view down: leaves the feed room, stops the
	// countdown and discards any in-flight responses
	Deactivate()
}

// ChatView defines the operations of a conversation view model
type ChatView interface {
	// Messages returns the transcript in arrival order
	Messages(ctx context.Context) ([]chat.Message, error)

	// Send broadcasts a message to the conversation room
	Send(ctx context.Context, text string) error

	// Deactivate leaves the room and stops the view
	Deactivate()
}
