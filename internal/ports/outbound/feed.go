package outbound

import (
	"context"
	"fmt"
	"time"

	"carmandi-marketplace-client/internal/domain/bid"
	"carmandi-marketplace-client/internal/domain/chat"
	"carmandi-marketplace-client/internal/domain/shared"

	"github.com/shopspring/decimal"
)

// EventType represents the type of event carried on the real-time feed
type EventType string

const (
	EventTypeBidPlaced   EventType = "bid.placed"
	EventTypeChatMessage EventType = "chat.message"
	EventTypeError       EventType = "error"
)

// Event represents one feed delivery for a room
type Event struct {
	Type      EventType              `json:"type"`
	Room      string                 `json:"room"`
	Data      map[string]interface{} `json:"data"`
	Timestamp int64                  `json:"timestamp"`
}

// Feed defines the interface to the real-time broadcast service. A feed
// connection is an explicitly owned dependency of each active view: the view
// joins its room on activation and leaves it on teardown. Every subscriber
// of a room receives every published event, including the publisher itself.
type Feed interface {
	// Join subscribes to a room; events for it are delivered to events
	Join(ctx context.Context, room string, events chan<- Event) error

	// Leave drops the subscription for a room
	Leave(ctx context.Context, room string) error

	// Publish broadcasts an event to all subscribers of a room
	Publish(ctx context.Context, room string, event Event) error

	// Close tears down the underlying connection
	Close() error
}

// AuctionRoom returns the feed room key for an ad's live auction.
func AuctionRoom(adID string) string {
	return fmt.Sprintf("ad:%s", adID)
}

// NewBidEvent wraps an accepted bid for broadcast on its auction room.
func NewBidEvent(b *bid.Bid) Event {
	amount, _ := b.Amount.Float64()
	return Event{
		Type: EventTypeBidPlaced,
		Room: AuctionRoom(b.AdID),
		Data: map[string]interface{}{
			"ad_id":     b.AdID,
			"bidder":    b.Bidder,
			"amount":    amount,
			"placed_at": b.PlacedAt.UTC().Format(time.RFC3339Nano),
			"server_id": b.ServerID,
		},
		Timestamp: b.PlacedAt.Unix(),
	}
}

// BidFromEvent validates a pushed feed event and converts it into a bid.
// The feed carries loosely-typed payloads, so every field is checked here
// at the ingestion boundary; malformed events are rejected, never merged.
func BidFromEvent(ev Event) (*bid.Bid, error) {
	if ev.Type != EventTypeBidPlaced {
		return nil, fmt.Errorf("%w: %q", shared.ErrUnknownEventType, ev.Type)
	}
	adID, _ := ev.Data["ad_id"].(string)
	if adID == "" {
		return nil, shared.ErrRoomRequired
	}
	bidder, _ := ev.Data["bidder"].(string)
	if bidder == "" {
		return nil, shared.ErrBidderRequired
	}
	rawAmount, ok := ev.Data["amount"].(float64)
	if !ok || rawAmount <= 0 {
		return nil, shared.ErrInvalidAmount
	}
	placedAt, err := eventTime(ev)
	if err != nil {
		return nil, err
	}

	b := bid.New(adID, bidder, decimal.NewFromFloat(rawAmount), placedAt, bid.OriginPushed)
	if serverID, ok := ev.Data["server_id"].(string); ok {
		b.ServerID = serverID
	}
	return b, nil
}

// NewChatEvent wraps a chat message for broadcast on its room.
func NewChatEvent(room string, msg chat.Message) Event {
	return Event{
		Type: EventTypeChatMessage,
		Room: room,
		Data: map[string]interface{}{
			"senderId":   float64(msg.SenderID),
			"receiverId": float64(msg.ReceiverID),
			"text":       msg.Text,
			"sent_at":    msg.SentAt.UTC().Format(time.RFC3339Nano),
		},
		Timestamp: msg.SentAt.Unix(),
	}
}

// ChatFromEvent validates a pushed feed event and converts it into a chat
// message.
func ChatFromEvent(ev Event) (chat.Message, error) {
	if ev.Type != EventTypeChatMessage {
		return chat.Message{}, fmt.Errorf("%w: %q", shared.ErrUnknownEventType, ev.Type)
	}
	text, _ := ev.Data["text"].(string)
	if text == "" {
		return chat.Message{}, shared.ErrTextRequired
	}
	senderID, ok := ev.Data["senderId"].(float64)
	if !ok || senderID <= 0 {
		return chat.Message{}, shared.ErrSenderRequired
	}
	receiverID, _ := ev.Data["receiverId"].(float64)

	msg := chat.Message{
		SenderID:   int64(senderID),
		ReceiverID: int64(receiverID),
		Text:       text,
	}
	if sentAt, err := eventTime(ev); err == nil {
		msg.SentAt = sentAt
	}
	return msg, nil
}

func eventTime(ev Event) (time.Time, error) {
	for _, key := range []string{"placed_at", "sent_at"} {
		if raw, ok := ev.Data[key].(string); ok {
			ts, err := time.Parse(time.RFC3339Nano, raw)
			if err != nil {
				return time.Time{}, fmt.Errorf("%w: %q", shared.ErrInvalidTimestamp, raw)
			}
			return ts, nil
		}
	}
	if ev.Timestamp > 0 {
		return time.Unix(ev.Timestamp, 0), nil
	}
	return time.Time{}, shared.ErrInvalidTimestamp
}
