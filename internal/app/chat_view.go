package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"carmandi-marketplace-client/internal/domain/chat"
	"carmandi-marketplace-client/internal/domain/shared"
	"carmandi-marketplace-client/internal/ports/outbound"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// ChatViewModel owns one buyer/seller conversation: history loaded from the
// API, pushed messages appended as they arrive, own sends applied
// optimistically. Same single-writer loop discipline as the auction view,
// just without a countdown.
type ChatViewModel struct {
	userID int64
	peerID int64
	room   string

	api    outbound.MarketplaceAPI
	feed   outbound.Feed
	clock  clockwork.Clock
	logger zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	events chan chatEvent
	wg     sync.WaitGroup
	once   sync.Once

	// loop-owned
	messages []chat.Message
	loadErr  error
}

type ChatViewModelParams struct {
	UserID int64
	PeerID int64
	API    outbound.MarketplaceAPI
	Feed   outbound.Feed
	Clock  clockwork.Clock
	Logger zerolog.Logger
}

type chatEvent struct {
	history []chat.Message
	loadErr error
	pushed  *chat.Message
	local   *chat.Message
	read    chan []chat.Message
}

// NewChatViewModel creates a conversation view between the signed-in user
// and a peer.
func NewChatViewModel(params ChatViewModelParams) *ChatViewModel {
	clock := params.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	ctx, cancel := context.WithCancel(context.Background())
	room := chat.RoomID(params.UserID, params.PeerID)

	return &ChatViewModel{
		userID: params.UserID,
		peerID: params.PeerID,
		room:   room,
		api:    params.API,
		feed:   params.Feed,
		clock:  clock,
		logger: params.Logger.With().Str("component", "chat_view").Str("room", room).Logger(),
		ctx:    ctx,
		cancel: cancel,
		events: make(chan chatEvent, 32),
	}
}

// Activate joins the conversation room and loads the transcript.
func (v *ChatViewModel) Activate() error {
	feedCh := make(chan outbound.Event, 32)
	if err := v.feed.Join(v.ctx, v.room, feedCh); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrFeedUnavailable, err)
	}

	v.wg.Add(1)
	go v.run(feedCh)

	go func() {
		history, err := v.api.ChatHistory(v.ctx, v.userID, v.peerID)
		v.deliver(chatEvent{history: history, loadErr: err})
	}()

	return nil
}

// Messages returns the transcript in arrival order.
func (v *ChatViewModel) Messages(ctx context.Context) ([]chat.Message, error) {
	ev := chatEvent{read: make(chan []chat.Message, 1)}
	select {
	case v.events <- ev:
	case <-v.ctx.Done():
		return nil, shared.ErrViewClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case msgs := <-ev.read:
		return msgs, nil
	case <-v.ctx.Done():
		return nil, shared.ErrViewClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Send appends the message locally and broadcasts it to the room.
func (v *ChatViewModel) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return shared.ErrTextRequired
	}

	msg := chat.Message{
		SenderID:   v.userID,
		ReceiverID: v.peerID,
		Text:       text,
		SentAt:     v.clock.Now(),
		Pending:    true,
	}

	select {
	case v.events <- chatEvent{local: &msg}:
	case <-v.ctx.Done():
		return shared.ErrViewClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := v.feed.Publish(ctx, v.room, outbound.NewChatEvent(v.room, msg)); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrFeedUnavailable, err)
	}
	return nil
}

// Deactivate leaves the room and stops the view.
func (v *ChatViewModel) Deactivate() {
	v.once.Do(func() {
		v.cancel()

		leaveCtx, cancelLeave := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancelLeave()
		if err := v.feed.Leave(leaveCtx, v.room); err != nil {
			v.logger.Warn().Err(err).Msg("Failed to leave chat room")
		}

		v.wg.Wait()
	})
}

func (v *ChatViewModel) deliver(ev chatEvent) {
	if v.ctx.Err() != nil {
		return
	}
	select {
	case v.events <- ev:
	case <-v.ctx.Done():
	}
}

func (v *ChatViewModel) run(feedCh <-chan outbound.Event) {
	defer v.wg.Done()

	for {
		select {
		case ev := <-v.events:
			v.handle(ev)
		case pushed, ok := <-feedCh:
			if ok {
				v.onPushed(pushed)
			}
		case <-v.ctx.Done():
			return
		}
	}
}

func (v *ChatViewModel) handle(ev chatEvent) {
	switch {
	case ev.read != nil:
		out := make([]chat.Message, len(v.messages))
		copy(out, v.messages)
		ev.read <- out
	case ev.local != nil:
		v.messages = append(v.messages, *ev.local)
	case ev.loadErr != nil:
		v.loadErr = fmt.Errorf("%w: %v", shared.ErrLoadFailed, ev.loadErr)
		v.logger.Error().Err(ev.loadErr).Msg("Failed to load chat history")
	default:
		// History goes first, messages pushed before it loaded stay behind it
		v.messages = append(ev.history, v.messages...)
	}
}

func (v *ChatViewModel) onPushed(ev outbound.Event) {
	msg, err := outbound.ChatFromEvent(ev)
	if err != nil {
		v.logger.Warn().Err(err).Msg("Dropping malformed chat event")
		return
	}

	// Own sends come back as echoes; the optimistic entry already covers them
	if msg.SenderID == v.userID {
		for i := range v.messages {
			if v.messages[i].Pending && v.messages[i].Text == msg.Text {
				v.messages[i].Pending = false
				return
			}
		}
		return
	}

	v.messages = append(v.messages, msg)
}
