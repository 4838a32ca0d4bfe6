package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"carmandi-marketplace-client/internal/domain/chat"
	"carmandi-marketplace-client/internal/domain/shared"
	"carmandi-marketplace-client/internal/ports/outbound"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// chatAPI extends the shared fake with a configurable history hook
type chatAPI struct {
	fakeAPI
	mu          sync.Mutex
	chatHistory func(ctx context.Context, user1, user2 int64) ([]chat.Message, error)
}

func (f *chatAPI) ChatHistory(ctx context.Context, user1, user2 int64) ([]chat.Message, error) {
	f.mu.Lock()
	hook := f.chatHistory
	f.mu.Unlock()
	if hook == nil {
		return nil, nil
	}
	return hook(ctx, user1, user2)
}

type chatFixture struct {
	api  *chatAPI
	feed *fakeFeed
	view *ChatViewModel
	room string
}

func newChatFixture(t *testing.T, userID, peerID int64) *chatFixture {
	t.Helper()

	fx := &chatFixture{
		api:  &chatAPI{},
		feed: newFakeFeed(),
		room: chat.RoomID(userID, peerID),
	}
	fx.view = NewChatViewModel(ChatViewModelParams{
		UserID: userID,
		PeerID: peerID,
		API:    fx.api,
		Feed:   fx.feed,
		Clock:  clockwork.NewFakeClockAt(t0),
		Logger: zerolog.Nop(),
	})
	return fx
}

func (fx *chatFixture) activate(t *testing.T) {
	t.Helper()
	require.NoError(t, fx.view.Activate())
	t.Cleanup(fx.view.Deactivate)
}

func (fx *chatFixture) messages(t *testing.T) []chat.Message {
	t.Helper()
	msgs, err := fx.view.Messages(context.Background())
	require.NoError(t, err)
	return msgs
}

func historyMessage(sender, receiver int64, text string, at time.Time) chat.Message {
	return chat.Message{SenderID: sender, ReceiverID: receiver, Text: text, SentAt: at}
}

func TestChatView_LoadsHistoryInOrder(t *testing.T) {
	fx := newChatFixture(t, 3, 11)
	fx.api.chatHistory = func(ctx context.Context, user1, user2 int64) ([]chat.Message, error) {
		require.Equal(t, int64(3), user1)
		require.Equal(t, int64(11), user2)
		return []chat.Message{
			historyMessage(3, 11, "still available?", t0.Add(-2*time.Hour)),
			historyMessage(11, 3, "it is", t0.Add(-time.Hour)),
		}, nil
	}
	fx.activate(t)

	require.Eventually(t, func() bool {
		return len(fx.messages(t)) == 2
	}, 2*time.Second, 5*time.Millisecond)

	msgs := fx.messages(t)
	require.Equal(t, "still available?", msgs[0].Text)
	require.Equal(t, "it is", msgs[1].Text)
}

func TestChatView_JoinFailureIsFatal(t *testing.T) {
	fx := newChatFixture(t, 3, 11)
	fx.feed.joinErr = errors.New("feed down")

	err := fx.view.Activate()
	require.ErrorIs(t, err, shared.ErrFeedUnavailable)
}

func TestChatView_SendAppearsImmediatelyAndIsBroadcast(t *testing.T) {
	fx := newChatFixture(t, 3, 11)
	fx.activate(t)

	require.NoError(t, fx.view.Send(context.Background(), "  can you do 2.4?  "))

	require.Eventually(t, func() bool {
		msgs := fx.messages(t)
		return len(msgs) == 1 && msgs[0].Text == "can you do 2.4?" && msgs[0].Pending
	}, 2*time.Second, 5*time.Millisecond)

	require.Equal(t, 1, fx.feed.publishedCount())
}

func TestChatView_SendRejectsBlankText(t *testing.T) {
	fx := newChatFixture(t, 3, 11)
	fx.activate(t)

	require.ErrorIs(t, fx.view.Send(context.Background(), "   "), shared.ErrTextRequired)
	require.Equal(t, 0, fx.feed.publishedCount())
}

func TestChatView_OwnEchoClearsPendingWithoutDuplicate(t *testing.T) {
	fx := newChatFixture(t, 3, 11)
	fx.activate(t)

	require.NoError(t, fx.view.Send(context.Background(), "can you do 2.4?"))
	require.Eventually(t, func() bool {
		return len(fx.messages(t)) == 1
	}, 2*time.Second, 5*time.Millisecond)

	echo := outbound.NewChatEvent(fx.room, chat.Message{
		SenderID: 3, ReceiverID: 11, Text: "can you do 2.4?", SentAt: t0,
	})
	fx.feed.push(t, fx.room, echo)

	require.Eventually(t, func() bool {
		msgs := fx.messages(t)
		return len(msgs) == 1 && !msgs[0].Pending
	}, 2*time.Second, 5*time.Millisecond)
}

func TestChatView_PeerMessagesAppend(t *testing.T) {
	fx := newChatFixture(t, 3, 11)
	fx.activate(t)

	fx.feed.push(t, fx.room, outbound.NewChatEvent(fx.room, chat.Message{
		SenderID: 11, ReceiverID: 3, Text: "deal", SentAt: t0,
	}))

	require.Eventually(t, func() bool {
		msgs := fx.messages(t)
		return len(msgs) == 1 && msgs[0].SenderID == int64(11) && msgs[0].Text == "deal"
	}, 2*time.Second, 5*time.Millisecond)
}

func TestChatView_HistoryStaysAheadOfEarlyPushes(t *testing.T) {
	historyGate := make(chan struct{})
	fx := newChatFixture(t, 3, 11)
	fx.api.chatHistory = func(ctx context.Context, user1, user2 int64) ([]chat.Message, error) {
		<-historyGate
		return []chat.Message{historyMessage(3, 11, "still available?", t0.Add(-2 * time.Hour))}, nil
	}
	fx.activate(t)

	fx.feed.push(t, fx.room, outbound.NewChatEvent(fx.room, chat.Message{
		SenderID: 11, ReceiverID: 3, Text: "yes", SentAt: t0,
	}))
	require.Eventually(t, func() bool {
		return len(fx.messages(t)) == 1
	}, 2*time.Second, 5*time.Millisecond)

	close(historyGate)

	require.Eventually(t, func() bool {
		msgs := fx.messages(t)
		return len(msgs) == 2 && msgs[0].Text == "still available?" && msgs[1].Text == "yes"
	}, 2*time.Second, 5*time.Millisecond)
}

func TestChatView_MalformedChatEventsAreDropped(t *testing.T) {
	fx := newChatFixture(t, 3, 11)
	fx.activate(t)

	fx.feed.push(t, fx.room, outbound.Event{
		Type: outbound.EventTypeChatMessage,
		Room: fx.room,
		Data: map[string]interface{}{"senderId": float64(11)},
	})
	fx.feed.push(t, fx.room, outbound.Event{
		Type: outbound.EventTypeChatMessage,
		Room: fx.room,
		Data: map[string]interface{}{"text": "no sender"},
	})

	require.Never(t, func() bool {
		return len(fx.messages(t)) != 0
	}, 300*time.Millisecond, 20*time.Millisecond)
}

func TestChatView_MessagesAfterDeactivate(t *testing.T) {
	fx := newChatFixture(t, 3, 11)
	require.NoError(t, fx.view.Activate())
	fx.view.Deactivate()

	_, err := fx.view.Messages(context.Background())
	require.ErrorIs(t, err, shared.ErrViewClosed)
}
