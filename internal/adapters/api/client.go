package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"carmandi-marketplace-client/internal/domain/ad"
	"carmandi-marketplace-client/internal/domain/bid"
	"carmandi-marketplace-client/internal/domain/chat"
	"carmandi-marketplace-client/internal/domain/shared"
	"carmandi-marketplace-client/internal/ports/outbound"

	"github.com/rs/zerolog"
)

// Client talks to the marketplace backend over JSON/HTTP. It implements
// outbound.MarketplaceAPI.
type Client struct {
	baseURL string
	http    *http.Client
	creds   outbound.CredentialStore
	logger  zerolog.Logger
}

type ClientParams struct {
	BaseURL     string
	Timeout     time.Duration
	Credentials outbound.CredentialStore
	Logger      zerolog.Logger
}

// NewClient creates a marketplace API client
func NewClient(params ClientParams) *Client {
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL: params.BaseURL,
		http:    &http.Client{Timeout: timeout},
		creds:   params.Credentials,
		logger:  params.Logger.With().Str("component", "api_client").Logger(),
	}
}

// GetAd retrieves one ad record by id
func (c *Client) GetAd(ctx context.Context, adID string) (*ad.Ad, error) {
	var payload adPayload
	if err := c.get(ctx, "/ads/get/adById/"+url.PathEscape(adID), false, &payload); err != nil {
		return nil, err
	}
	return payload.toDomain(), nil
}

// ListAds retrieves the browseable listing of ads
func (c *Client) ListAds(ctx context.Context) ([]*ad.Ad, error) {
	var payload []adPayload
	if err := c.get(ctx, "/ads/get/ads", false, &payload); err != nil {
		return nil, err
	}

	ads := make([]*ad.Ad, 0, len(payload))
	for i := range payload {
		ads = append(ads, payload[i].toDomain())
	}
	return ads, nil
}

// GetBids retrieves the authoritative bid history for an ad
func (c *Client) GetBids(ctx context.Context, adID string) ([]*bid.Bid, error) {
	var payload []bidPayload
	if err := c.get(ctx, "/bids/getBidsByAd/"+url.PathEscape(adID), false, &payload); err != nil {
		return nil, err
	}

	bids := make([]*bid.Bid, 0, len(payload))
	for i := range payload {
		bids = append(bids, payload[i].toDomain(adID))
	}
	return bids, nil
}

// PlaceBid persists a new bid for the signed-in user
func (c *Client) PlaceBid(ctx context.Context, req outbound.PlaceBidRequest) (*bid.Bid, error) {
	amount, _ := req.Amount.Float64()
	body := map[string]interface{}{
		"ad_id":  req.AdID,
		"bidder": req.Bidder,
		"amount": amount,
	}

	var payload bidPayload
	if err := c.post(ctx, "/bids/placeBid", body, true, &payload); err != nil {
		return nil, err
	}

	placed := payload.toDomain(req.AdID)
	if placed.Bidder == "" {
		placed.Bidder = req.Bidder
	}
	if placed.Amount.IsZero() {
		placed.Amount = req.Amount
	}
	return placed, nil
}

// GetMyBids retrieves the ads the signed-in user has bid on
func (c *Client) GetMyBids(ctx context.Context) ([]*ad.Ad, error) {
	var payload []adPayload
	if err := c.get(ctx, "/bids/getMyBids", true, &payload); err != nil {
		return nil, err
	}

	ads := make([]*ad.Ad, 0, len(payload))
	for i := range payload {
		ads = append(ads, payload[i].toDomain())
	}
	return ads, nil
}

// ChatHistory retrieves the transcript between two users
func (c *Client) ChatHistory(ctx context.Context, user1, user2 int64) ([]chat.Message, error) {
	path := fmt.Sprintf("/chat/history?user1=%d&user2=%d", user1, user2)
	var messages []chat.Message
	if err := c.get(ctx, path, false, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (c *Client) get(ctx context.Context, path string, authed bool, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, authed, out)
}

func (c *Client) post(ctx context.Context, path string, body interface{}, authed bool, out interface{}) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, encoded, authed, out)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, authed bool, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if authed {
		token, ok := c.creds.Token()
		if !ok {
			return shared.ErrUnauthenticated
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.Debug().Str("method", method).Str("path", path).Msg("Calling marketplace API")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: API returned status %d", shared.ErrUnauthenticated, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(detail))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
