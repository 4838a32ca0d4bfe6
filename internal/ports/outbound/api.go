package outbound

import (
	"context"

	"carmandi-marketplace-client/internal/domain/ad"
	"carmandi-marketplace-client/internal/domain/bid"
	"carmandi-marketplace-client/internal/domain/chat"

	"github.com/shopspring/decimal"
)

// PlaceBidRequest carries a bid submission to the marketplace backend.
type PlaceBidRequest struct {
	AdID   string          `json:"ad_id"`
	Bidder string          `json:"bidder"`
	Amount decimal.Decimal `json:"amount"`
}

// MarketplaceAPI defines the interface to the remote ads/bids backend.
type MarketplaceAPI interface {
	// GetAd retrieves one ad record by id
	GetAd(ctx context.Context, adID string) (*ad.Ad, error)

	// ListAds retrieves the browseable listing of ads
	ListAds(ctx context.Context) ([]*ad.Ad, error)

	// GetBids retrieves the authoritative bid history for an ad
	GetBids(ctx context.Context, adID string) ([]*bid.Bid, error)

	// PlaceBid persists a new bid; success implies the bid will appear in
	// later GetBids calls and on the real-time feed
	PlaceBid(ctx context.Context, req PlaceBidRequest) (*bid.Bid, error)

	// GetMyBids retrieves the ads the authenticated user has bid on
	GetMyBids(ctx context.Context) ([]*ad.Ad, error)

	// ChatHistory retrieves the transcript between two users
	ChatHistory(ctx context.Context, user1, user2 int64) ([]chat.Message, error)
}

// CredentialStore supplies the ephemeral session credential used for
// authenticated calls. There is no persistence behind it.
type CredentialStore interface {
	// Token returns the opaque access token, or false when the user is not
	// signed in
	Token() (string, bool)

	// Bidder returns the display identity of the signed-in user
	Bidder() string
}
