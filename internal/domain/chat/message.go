package chat

import (
	"fmt"
	"time"
)

// Message is one chat message between a buyer and a seller.
type Message struct {
	SenderID   int64     `json:"senderId"`
	ReceiverID int64     `json:"receiverId"`
	Text       string    `json:"text"`
	SentAt     time.Time `json:"sent_at"`
	Pending    bool      `json:"pending,omitempty"`
}

// RoomID returns the canonical room key for a conversation. The lower user
// id always comes first so both participants join the same room.
func RoomID(user1, user2 int64) string {
	if user2 < user1 {
		user1, user2 = user2, user1
	}
	return fmt.Sprintf("%d-%d", user1, user2)
}
