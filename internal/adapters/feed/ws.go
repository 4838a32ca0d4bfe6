package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"carmandi-marketplace-client/internal/ports/outbound"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// WsFeed implements outbound.Feed over a websocket connection to the
// real-time service. Each view owns its room subscription explicitly: Join
// registers the delivery channel and tells the service to add us to the
// room, Leave does the reverse. The service echoes our own published events
// back to us like any other subscriber.
type WsFeed struct {
	conn    *websocket.Conn
	rooms   map[string]chan<- outbound.Event
	mu      sync.RWMutex
	writeMu sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	stopped bool
	logger  zerolog.Logger
}

type WsFeedParams struct {
	URL         string
	DialTimeout time.Duration
	Logger      zerolog.Logger
}

// Dial connects to the real-time feed service and starts the read loop
func Dial(ctx context.Context, params WsFeedParams) (*WsFeed, error) {
	dialer := websocket.Dialer{HandshakeTimeout: params.DialTimeout}
	conn, _, err := dialer.DialContext(ctx, params.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial feed service: %w", err)
	}

	feedCtx, cancel := context.WithCancel(context.Background())
	f := &WsFeed{
		conn:   conn,
		rooms:  make(map[string]chan<- outbound.Event),
		ctx:    feedCtx,
		cancel: cancel,
		logger: params.Logger.With().Str("component", "ws_feed").Logger(),
	}

	f.wg.Add(1)
	go f.readLoop()

	f.logger.Info().Str("url", params.URL).Msg("Connected to feed service")
	return f, nil
}

// Join subscribes to a room
func (f *WsFeed) Join(ctx context.Context, room string, events chan<- outbound.Event) error {
	f.mu.Lock()
	if f.stopped {
		f.mu.Unlock()
		return fmt.Errorf("feed connection is closed")
	}
	f.rooms[room] = events
	f.mu.Unlock()

	if err := f.send(NewMessage(MessageTypeJoinRoom, room)); err != nil {
		f.mu.Lock()
		delete(f.rooms, room)
		f.mu.Unlock()
		return fmt.Errorf("failed to join room %s: %w", room, err)
	}

	f.logger.Info().Str("room", room).Msg("Joined feed room")
	return nil
}

// Leave drops the subscription for a room
func (f *WsFeed) Leave(ctx context.Context, room string) error {
	f.mu.Lock()
	_, known := f.rooms[room]
	delete(f.rooms, room)
	stopped := f.stopped
	f.mu.Unlock()

	if !known || stopped {
		return nil
	}

	if err := f.send(NewMessage(MessageTypeLeaveRoom, room)); err != nil {
		return fmt.Errorf("failed to leave room %s: %w", room, err)
	}

	f.logger.Info().Str("room", room).Msg("Left feed room")
	return nil
}

// Publish broadcasts an event to a room
func (f *WsFeed) Publish(ctx context.Context, room string, event outbound.Event) error {
	if err := f.send(FrameFor(room, event)); err != nil {
		return fmt.Errorf("failed to publish to room %s: %w", room, err)
	}
	return nil
}

// Close tears down the connection
func (f *WsFeed) Close() error {
	f.mu.Lock()
	if f.stopped {
		f.mu.Unlock()
		return nil
	}
	f.stopped = true
	f.mu.Unlock()

	f.cancel()
	err := f.conn.Close()
	f.wg.Wait()
	return err
}

func (f *WsFeed) send(msg *Message) error {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	return f.conn.WriteJSON(msg)
}

func (f *WsFeed) readLoop() {
	defer f.wg.Done()

	for {
		select {
		case <-f.ctx.Done():
			return
		default:
		}

		_, raw, err := f.conn.ReadMessage()
		if err != nil {
			if f.ctx.Err() != nil {
				return
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				f.logger.Error().Err(err).Msg("Feed read error")
			} else {
				f.logger.Info().Str("error", err.Error()).Msg("Feed connection closed")
			}
			return
		}

		msg, err := ParseMessage(raw)
		if err != nil {
			f.logger.Warn().Err(err).Msg("Dropping unparseable feed frame")
			continue
		}
		if err := msg.Validate(); err != nil {
			f.logger.Warn().Err(err).Str("type", string(msg.Type)).Msg("Dropping malformed feed frame")
			continue
		}

		switch msg.Type {
		case MessageTypePong:
			continue
		case MessageTypeError:
			if msg.Error != nil {
				f.logger.Warn().Str("error", *msg.Error).Msg("Feed service reported an error")
			}
			continue
		}

		f.dispatch(msg)
	}
}

func (f *WsFeed) dispatch(msg *Message) {
	f.mu.RLock()
	events, ok := f.rooms[msg.Room]
	f.mu.RUnlock()

	if !ok {
		// Frame for a room we already left; cross-room bleed stops here
		f.logger.Debug().Str("room", msg.Room).Msg("Dropping frame for unsubscribed room")
		return
	}

	select {
	case events <- msg.Event():
	default:
		f.logger.Warn().Str("room", msg.Room).Msg("Room channel full, dropping event")
	}
}
