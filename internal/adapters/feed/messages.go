package feed

import (
	"encoding/json"
	"fmt"
	"time"

	"carmandi-marketplace-client/internal/domain/shared"
	"carmandi-marketplace-client/internal/ports/outbound"
)

type MessageType string

const (
	// Client to Service message types
	MessageTypeJoinRoom  MessageType = "join_room"
	MessageTypeLeaveRoom MessageType = "leave_room"
	MessageTypePing      MessageType = "ping"

	// Both directions
	MessageTypeNewBid      MessageType = "new_bid"
	MessageTypeChatMessage MessageType = "chat_message"

	// Service to Client message types
	MessageTypeError MessageType = "error"
	MessageTypePong  MessageType = "pong"
)

// Message is one JSON frame on the feed connection
type Message struct {
	Type      MessageType            `json:"type"`
	Room      string                 `json:"room,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Error     *string                `json:"error,omitempty"`
	Timestamp int64                  `json:"timestamp"`
}

func NewMessage(msgType MessageType, room string) *Message {
	return &Message{
		Type:      msgType,
		Room:      room,
		Data:      make(map[string]interface{}),
		Timestamp: time.Now().Unix(),
	}
}

// ParseMessage parses a JSON frame received from the feed service
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse feed message: %w", err)
	}

	if msg.Type == "" {
		return nil, shared.ErrEventTypeRequired
	}

	return &msg, nil
}

// Validate checks an inbound frame before it is allowed anywhere near view
// state. The feed pushes loosely-typed payloads, so every field a consumer
// relies on is checked here; anything malformed is rejected at this
// boundary.
func (m *Message) Validate() error {
	switch m.Type {
	case MessageTypeNewBid:
		if m.Room == "" {
			return shared.ErrRoomRequired
		}
		bidder, ok := m.Data["bidder"].(string)
		if !ok || bidder == "" {
			return shared.ErrBidderRequired
		}
		amount, ok := m.Data["amount"].(float64)
		if !ok || amount <= 0 {
			return shared.ErrInvalidAmount
		}
	case MessageTypeChatMessage:
		if m.Room == "" {
			return shared.ErrRoomRequired
		}
		text, ok := m.Data["text"].(string)
		if !ok || text == "" {
			return shared.ErrTextRequired
		}
	case MessageTypeError, MessageTypePong, MessageTypePing:

	case MessageTypeJoinRoom, MessageTypeLeaveRoom:
		if m.Room == "" {
			return shared.ErrRoomRequired
		}
	default:
		return fmt.Errorf("%w: %q", shared.ErrUnknownEventType, m.Type)
	}

	return nil
}

// Event converts a validated inbound frame into a feed event
func (m *Message) Event() outbound.Event {
	var eventType outbound.EventType
	switch m.Type {
	case MessageTypeNewBid:
		eventType = outbound.EventTypeBidPlaced
	case MessageTypeChatMessage:
		eventType = outbound.EventTypeChatMessage
	default:
		eventType = outbound.EventTypeError
	}

	return outbound.Event{
		Type:      eventType,
		Room:      m.Room,
		Data:      m.Data,
		Timestamp: m.Timestamp,
	}
}

// FrameFor converts an outgoing feed event into its wire frame
func FrameFor(room string, ev outbound.Event) *Message {
	msgType := MessageTypeNewBid
	if ev.Type == outbound.EventTypeChatMessage {
		msgType = MessageTypeChatMessage
	}

	msg := NewMessage(msgType, room)
	msg.Data = ev.Data
	if ev.Timestamp != 0 {
		msg.Timestamp = ev.Timestamp
	}
	return msg
}
