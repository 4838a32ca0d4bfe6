package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"carmandi-marketplace-client/internal/config"
	"carmandi-marketplace-client/internal/domain/ad"
	"carmandi-marketplace-client/internal/domain/bid"
	"carmandi-marketplace-client/internal/domain/shared"
	"carmandi-marketplace-client/internal/ports/inbound"
	"carmandi-marketplace-client/internal/ports/outbound"

	"github.com/alitto/pond"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// AuctionPolicy holds the bidding policy constants of a view
type AuctionPolicy struct {
	Increment            decimal.Decimal
	DefaultAuctionWindow time.Duration
	NoticeWindow         time.Duration
	TickInterval         time.Duration
	DedupTolerance       time.Duration
}

// PolicyFromConfig builds the auction policy from loaded configuration
func PolicyFromConfig(cfg config.AuctionConfig) AuctionPolicy {
	return AuctionPolicy{
		Increment:            decimal.NewFromFloat(cfg.BidIncrement),
		DefaultAuctionWindow: cfg.DefaultAuctionWindow,
		NoticeWindow:         cfg.NoticeWindow,
		TickInterval:         cfg.TickInterval,
		DedupTolerance:       cfg.DedupTolerance,
	}
}

// AuctionViewModel owns the live-auction state for a single ad. It merges
// the initial load, real-time pushes and local submissions into one
// consistent view. All state is owned by the run loop goroutine; commands
// and events reach it over a single channel, so no mutation ever races
// another.
type AuctionViewModel struct {
	adID   string
	api    outbound.MarketplaceAPI
	feed   outbound.Feed
	creds  outbound.CredentialStore
	clock  clockwork.Clock
	policy AuctionPolicy
	logger zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	events chan loopEvent
	pool   *pond.WorkerPool
	wg     sync.WaitGroup
	once   sync.Once

	// loop-owned, never touched outside run()
	st auctionState
}

type AuctionViewModelParams struct {
	AdID        string
	API         outbound.MarketplaceAPI
	Feed        outbound.Feed
	Credentials outbound.CredentialStore
	Clock       clockwork.Clock
	Policy      AuctionPolicy
	Logger      zerolog.Logger
}

// NewAuctionViewModel creates a view model for the given ad id. The view is
// inert until Activate is called.
func NewAuctionViewModel(params AuctionViewModelParams) (*AuctionViewModel, error) {
	if strings.TrimSpace(params.AdID) == "" {
		return nil, shared.ErrAdIDRequired
	}

	clock := params.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &AuctionViewModel{
		adID:   params.AdID,
		api:    params.API,
		feed:   params.Feed,
		creds:  params.Credentials,
		clock:  clock,
		policy: params.Policy,
		logger: params.Logger.With().Str("component", "auction_view").Str("ad_id", params.AdID).Logger(),
		ctx:    ctx,
		cancel: cancel,
		events: make(chan loopEvent, 64),
		pool:   pond.New(4, 16, pond.Context(ctx), pond.Strategy(pond.Balanced())),
	}, nil
}

// Activate joins the feed room, starts the run loop and kicks off the ad
// and bid-history fetches. The room is joined before either fetch begins,
// so a push arriving ahead of the history load is merged, not lost. A feed
// failure degrades the view to a static one instead of failing activation.
func (v *AuctionViewModel) Activate() error {
	feedCh := make(chan outbound.Event, 64)
	if err := v.feed.Join(v.ctx, outbound.AuctionRoom(v.adID), feedCh); err != nil {
		v.logger.Warn().Err(err).Msg("Feed room unavailable, view degrades to static")
		v.st.degraded = true
	}

	v.wg.Add(1)
	go v.run(feedCh)

	v.pool.Submit(func() {
		loaded, err := v.api.GetAd(v.ctx, v.adID)
		v.deliver(adLoaded{ad: loaded, err: err})
	})
	v.pool.Submit(func() {
		history, err := v.api.GetBids(v.ctx, v.adID)
		v.deliver(historyLoaded{bids: history, err: err})
	})

	v.logger.Info().Msg("Auction view activated")
	return nil
}

// Snapshot returns the current render state of the auction.
func (v *AuctionViewModel) Snapshot(ctx context.Context) (inbound.AuctionSnapshot, error) {
	req := snapshotReq{reply: make(chan inbound.AuctionSnapshot, 1)}
	select {
	case v.events <- req:
	case <-v.ctx.Done():
		return inbound.AuctionSnapshot{}, shared.ErrViewClosed
	case <-ctx.Done():
		return inbound.AuctionSnapshot{}, ctx.Err()
	}

	select {
	case snap := <-req.reply:
		return snap, nil
	case <-v.ctx.Done():
		return inbound.AuctionSnapshot{}, shared.ErrViewClosed
	case <-ctx.Done():
		return inbound.AuctionSnapshot{}, ctx.Err()
	}
}

// SubmitBid validates and places a bid for the signed-in user. Credential
// and amount checks happen before any network call; on success the bid is
// applied optimistically and persisted in the background.
func (v *AuctionViewModel) SubmitBid(ctx context.Context, amount string) error {
	if _, ok := v.creds.Token(); !ok {
		return shared.ErrUnauthenticated
	}

	parsed, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return fmt.Errorf("%w: %q is not a number", shared.ErrInvalidBid, amount)
	}

	cmd := submitCmd{amount: parsed, reply: make(chan error, 1)}
	select {
	case v.events <- cmd:
	case <-v.ctx.Done():
		return shared.ErrViewClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-cmd.reply:
		return err
	case <-v.ctx.Done():
		return shared.ErrViewClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Deactivate tears the view down. The feed room is left, the tick stops and
// any response still in flight is discarded instead of applied.
func (v *AuctionViewModel) Deactivate() {
	v.once.Do(func() {
		v.cancel()

		leaveCtx, cancelLeave := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancelLeave()
		if err := v.feed.Leave(leaveCtx, outbound.AuctionRoom(v.adID)); err != nil {
			v.logger.Warn().Err(err).Msg("Failed to leave feed room")
		}

		v.pool.StopAndWait()
		v.wg.Wait()
		v.logger.Info().Msg("Auction view deactivated")
	})
}

// deliver hands an event to the run loop, dropping it once the view is torn
// down so late responses can never mutate retained state.
func (v *AuctionViewModel) deliver(ev loopEvent) {
	if v.ctx.Err() != nil {
		return
	}
	select {
	case v.events <- ev:
	case <-v.ctx.Done():
	}
}

// Loop events. Exactly one of these is handled at a time, to completion,
// which is what keeps the merge free of shared-memory races.
type loopEvent interface{ isLoopEvent() }

type adLoaded struct {
	ad  *ad.Ad
	err error
}

type historyLoaded struct {
	bids []*bid.Bid
	err  error
}

type feedDelivery struct {
	event outbound.Event
}

type submitCmd struct {
	amount decimal.Decimal
	reply  chan error
}

type persistOutcome struct {
	localID   uuid.UUID
	placed    *bid.Bid
	refreshed []*bid.Bid
	err       error
}

type snapshotReq struct {
	reply chan inbound.AuctionSnapshot
}

func (adLoaded) isLoopEvent()       {}
func (historyLoaded) isLoopEvent()  {}
func (feedDelivery) isLoopEvent()   {}
func (submitCmd) isLoopEvent()      {}
func (persistOutcome) isLoopEvent() {}
func (snapshotReq) isLoopEvent()    {}

// auctionState is the loop-owned auction state
type auctionState struct {
	ad         *ad.Ad
	bids       []*bid.Bid
	auctionEnd time.Time
	endSet     bool
	phase      inbound.AuctionPhase
	notice     *inbound.BidNotice
	loadErr    error
	submitErr  error
	degraded   bool
}

func (v *AuctionViewModel) run(feedCh <-chan outbound.Event) {
	defer v.wg.Done()

	if v.st.phase == "" {
		v.st.phase = inbound.PhaseRunning
	}

	ticker := v.clock.NewTicker(v.policy.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-v.events:
			v.handleEvent(ev)
		case pushed, ok := <-feedCh:
			if ok {
				v.handleEvent(feedDelivery{event: pushed})
			}
		case now := <-ticker.Chan():
			v.onTick(now)
		case <-v.ctx.Done():
			return
		}
	}
}

func (v *AuctionViewModel) handleEvent(ev loopEvent) {
	switch e := ev.(type) {
	case adLoaded:
		v.onAdLoaded(e)
	case historyLoaded:
		v.onHistoryLoaded(e)
	case feedDelivery:
		v.onFeedDelivery(e.event)
	case submitCmd:
		v.onSubmit(e)
	case persistOutcome:
		v.onPersistOutcome(e)
	case snapshotReq:
		e.reply <- v.buildSnapshot(v.clock.Now())
	}
}

func (v *AuctionViewModel) onAdLoaded(e adLoaded) {
	if e.err != nil || e.ad == nil {
		v.logger.Error().Err(e.err).Msg("Failed to load ad")
		v.st.loadErr = fmt.Errorf("%w: %v", shared.ErrLoadFailed, e.err)
		return
	}

	v.st.ad = e.ad

	// The auction end is derived exactly once and never recomputed, so a
	// later clock skew cannot move the deadline.
	if !v.st.endSet {
		v.st.auctionEnd = e.ad.AuctionEnd(v.policy.DefaultAuctionWindow)
		v.st.endSet = true
		if v.clock.Now().Before(v.st.auctionEnd) {
			v.st.phase = inbound.PhaseRunning
		} else {
			v.st.phase = inbound.PhaseEnded
		}
	}

	v.logger.Info().
		Str("title", e.ad.Title()).
		Str("starting_price", e.ad.Price.String()).
		Time("auction_end", v.st.auctionEnd).
		Msg("Ad loaded")
}

func (v *AuctionViewModel) onHistoryLoaded(e historyLoaded) {
	if e.err != nil {
		v.logger.Error().Err(e.err).Msg("Failed to load bid history")
		v.st.loadErr = fmt.Errorf("%w: %v", shared.ErrLoadFailed, e.err)
		return
	}

	for _, b := range e.bids {
		v.ingest(b)
	}
	v.logger.Info().Int("bids", len(e.bids)).Msg("Bid history loaded")
}

// onFeedDelivery merges one pushed event. The payload is validated at this
// boundary; a malformed event is dropped, never propagated into state.
func (v *AuctionViewModel) onFeedDelivery(ev outbound.Event) {
	pushed, err := outbound.BidFromEvent(ev)
	if err != nil {
		v.logger.Warn().Err(err).Str("event_type", string(ev.Type)).Msg("Dropping malformed feed event")
		return
	}

	inserted := v.ingest(pushed)

	// One notice per distinct pushed bid from another bidder. A duplicate
	// redelivery is not inserted, so it cannot re-raise the notice, and our
	// own echoed bid never raises one.
	if inserted && pushed.Bidder != v.creds.Bidder() {
		v.st.notice = &inbound.BidNotice{
			Bidder:    pushed.Bidder,
			Amount:    pushed.Amount,
			ExpiresAt: v.clock.Now().Add(v.policy.NoticeWindow),
		}
		v.logger.Debug().Str("bidder", pushed.Bidder).Str("amount", pushed.Amount.String()).Msg("New bid notice raised")
	}
}

func (v *AuctionViewModel) onSubmit(cmd submitCmd) {
	if v.st.ad == nil {
		cmd.reply <- shared.ErrAdNotLoaded
		return
	}
	if v.st.phase == inbound.PhaseEnded {
		cmd.reply <- shared.ErrAuctionEnded
		return
	}

	minimum := v.minimumNextBid()
	if cmd.amount.LessThan(minimum) {
		cmd.reply <- fmt.Errorf("%w: minimum next bid is %s", shared.ErrInvalidBid, minimum)
		return
	}

	local := bid.New(v.adID, v.creds.Bidder(), cmd.amount, v.clock.Now(), bid.OriginOptimistic)
	v.ingest(local)
	v.st.submitErr = nil
	cmd.reply <- nil

	v.logger.Info().Str("amount", local.Amount.String()).Msg("Bid applied optimistically, persisting")

	pending := local.Clone()
	v.pool.Submit(func() {
		v.persistBid(pending)
	})
}

// persistBid runs off the loop: persist the bid, broadcast it on the feed,
// then re-fetch the authoritative history so the optimistic entry can be
// reconciled with its confirmed counterpart.
func (v *AuctionViewModel) persistBid(pending *bid.Bid) {
	placed, err := v.api.PlaceBid(v.ctx, outbound.PlaceBidRequest{
		AdID:   v.adID,
		Bidder: pending.Bidder,
		Amount: pending.Amount,
	})
	if err != nil {
		v.deliver(persistOutcome{localID: pending.ID, err: err})
		return
	}
	if placed == nil {
		placed = pending
	}

	if err := v.feed.Publish(v.ctx, outbound.AuctionRoom(v.adID), outbound.NewBidEvent(placed)); err != nil {
		v.logger.Warn().Err(err).Msg("Failed to broadcast accepted bid")
	}

	refreshed, err := v.api.GetBids(v.ctx, v.adID)
	if err != nil {
		v.logger.Warn().Err(err).Msg("Failed to re-fetch bid history after submit")
		refreshed = nil
	}

	v.deliver(persistOutcome{localID: pending.ID, placed: placed, refreshed: refreshed})
}

func (v *AuctionViewModel) onPersistOutcome(out persistOutcome) {
	local := v.findBid(out.localID)

	if out.err != nil {
		// The optimistic entry stays visible but flagged: it is on screen,
		// just not durable.
		if local != nil {
			local.MarkUnconfirmed()
		}
		v.st.submitErr = fmt.Errorf("%w: %v", shared.ErrSubmissionFailed, out.err)
		v.logger.Error().Err(out.err).Msg("Bid submission failed")
		return
	}

	if local != nil && !local.IsConfirmed() {
		local.Confirm(out.placed)
	} else {
		v.ingest(out.placed)
	}
	for _, b := range out.refreshed {
		v.ingest(b)
	}
	v.st.submitErr = nil
	v.logger.Info().Str("amount", out.placed.Amount.String()).Msg("Bid confirmed by server")
}

// onTick advances the countdown and expires the bid notice. Ticks never
// touch the bid set.
func (v *AuctionViewModel) onTick(now time.Time) {
	if v.st.endSet && v.st.phase == inbound.PhaseRunning && !now.Before(v.st.auctionEnd) {
		v.st.phase = inbound.PhaseEnded
		v.logger.Info().Time("auction_end", v.st.auctionEnd).Msg("Auction ended")
	}

	if v.st.notice != nil && !now.Before(v.st.notice.ExpiresAt) {
		v.st.notice = nil
	}
}

// ingest merges one bid into the set, deduplicating per the bidder, amount
// and placement-time rule. Inserting the same logical bid twice, in either
// order, leaves the state identical to inserting it once. A pushed or
// historical delivery matching a pending local entry confirms that entry in
// place. Returns true only when a new entry was inserted.
func (v *AuctionViewModel) ingest(b *bid.Bid) bool {
	for _, existing := range v.st.bids {
		if existing.SameBid(b, v.policy.DedupTolerance) {
			if existing.IsLocal() && !existing.IsConfirmed() && b.Origin != bid.OriginOptimistic {
				existing.Confirm(b)
			}
			return false
		}
	}
	v.st.bids = append(v.st.bids, b)
	return true
}

func (v *AuctionViewModel) findBid(id uuid.UUID) *bid.Bid {
	for _, b := range v.st.bids {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// highestBid is the max over accepted amounts and the ad's asking price
func (v *AuctionViewModel) highestBid() decimal.Decimal {
	highest := decimal.Zero
	if v.st.ad != nil {
		highest = v.st.ad.Price
	}
	for _, b := range v.st.bids {
		if b.Amount.GreaterThan(highest) {
			highest = b.Amount
		}
	}
	return highest
}

func (v *AuctionViewModel) minimumNextBid() decimal.Decimal {
	return v.highestBid().Add(v.policy.Increment)
}

func (v *AuctionViewModel) buildSnapshot(now time.Time) inbound.AuctionSnapshot {
	snap := inbound.AuctionSnapshot{
		Phase:     v.st.phase,
		Degraded:  v.st.degraded,
		LoadErr:   v.st.loadErr,
		SubmitErr: v.st.submitErr,
	}

	if v.st.ad != nil {
		adCopy := *v.st.ad
		snap.Ad = &adCopy
		snap.HighestBid = v.highestBid()
		snap.MinimumNextBid = v.minimumNextBid()
	}

	snap.Bids = make([]*bid.Bid, 0, len(v.st.bids))
	snap.History = make([]*bid.Bid, 0, len(v.st.bids))
	for _, b := range v.st.bids {
		snap.Bids = append(snap.Bids, b.Clone())
		snap.History = append(snap.History, b.Clone())
	}
	sort.Slice(snap.Bids, func(i, j int) bool {
		if !snap.Bids[i].Amount.Equal(snap.Bids[j].Amount) {
			return snap.Bids[i].Amount.GreaterThan(snap.Bids[j].Amount)
		}
		return snap.Bids[i].PlacedAt.Before(snap.Bids[j].PlacedAt)
	})
	sort.Slice(snap.History, func(i, j int) bool {
		return snap.History[i].PlacedAt.Before(snap.History[j].PlacedAt)
	})

	if v.st.endSet {
		snap.AuctionEnd = v.st.auctionEnd
		remaining := v.st.auctionEnd.Sub(now)
		if remaining < 0 || v.st.phase == inbound.PhaseEnded {
			remaining = 0
		}
		snap.TimeRemaining = remaining
		snap.Countdown = formatCountdown(remaining)
	}

	if v.st.notice != nil {
		notice := *v.st.notice
		snap.Notice = &notice
	}

	return snap
}

func formatCountdown(remaining time.Duration) string {
	if remaining <= 0 {
		return "Ended"
	}
	remaining = remaining.Round(time.Second)
	hours := int(remaining / time.Hour)
	minutes := int(remaining % time.Hour / time.Minute)
	seconds := int(remaining % time.Minute / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
