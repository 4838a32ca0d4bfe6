package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"carmandi-marketplace-client/internal/adapters/api"
	"carmandi-marketplace-client/internal/adapters/feed"
	"carmandi-marketplace-client/internal/adapters/session"
	"carmandi-marketplace-client/internal/app"
	"carmandi-marketplace-client/internal/config"
	"carmandi-marketplace-client/internal/ports/outbound"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: auction-viewer <ad-id>")
		os.Exit(2)
	}
	adID := os.Args[1]

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	initLogging(cfg)

	log.Info().Str("ad_id", adID).Msg("Starting Carmandi auction viewer...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	creds := session.NewStore(cfg.Session.Bidder, cfg.Session.Token)

	apiClient := api.NewClient(api.ClientParams{
		BaseURL:     cfg.API.BaseURL,
		Timeout:     cfg.API.Timeout,
		Credentials: creds,
		Logger:      log.Logger,
	})

	liveFeed := connectFeed(ctx, cfg)
	defer liveFeed.Close()

	view, err := app.NewAuctionViewModel(app.AuctionViewModelParams{
		AdID:        adID,
		API:         apiClient,
		Feed:        liveFeed,
		Credentials: creds,
		Policy:      app.PolicyFromConfig(cfg.Auction),
		Logger:      log.Logger,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create auction view")
	}

	if err := view.Activate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to activate auction view")
	}

	// Read bid amounts from stdin while the render loop runs
	go readBids(ctx, view)
	go renderLoop(ctx, view)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case <-ctx.Done():
	}

	view.Deactivate()
	log.Info().Msg("Auction viewer stopped")
}

// connectFeed dials the real-time service, falling back to the in-process
// loopback when no feed URL is configured or the dial fails. The view still
// works without live updates.
func connectFeed(ctx context.Context, cfg *config.Config) outbound.Feed {
	if cfg.Feed.URL == "" {
		log.Info().Msg("No feed URL configured, using loopback feed")
		return feed.NewLoopback(log.Logger)
	}

	dialCtx, cancel := context.WithTimeout(ctx, cfg.Feed.DialTimeout)
	defer cancel()

	liveFeed, err := feed.Dial(dialCtx, feed.WsFeedParams{
		URL:         cfg.Feed.URL,
		DialTimeout: cfg.Feed.DialTimeout,
		Logger:      log.Logger,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Feed service unreachable, continuing without live updates")
		return feed.NewLoopback(log.Logger)
	}
	return liveFeed
}

func renderLoop(ctx context.Context, view *app.AuctionViewModel) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			render(ctx, view)
		case <-ctx.Done():
			return
		}
	}
}

func render(ctx context.Context, view *app.AuctionViewModel) {
	snap, err := view.Snapshot(ctx)
	if err != nil {
		return
	}

	if snap.LoadErr != nil {
		fmt.Printf("\r%-100s", fmt.Sprintf("load failed: %v", snap.LoadErr))
		return
	}
	if snap.Ad == nil {
		fmt.Printf("\r%-100s", "loading...")
		return
	}

	line := fmt.Sprintf("%s | highest %s | next bid %s | %s | %d bids",
		snap.Ad.Title(), snap.HighestBid.StringFixed(2), snap.MinimumNextBid.StringFixed(2),
		snap.Countdown, len(snap.Bids))
	if snap.Notice != nil {
		line += fmt.Sprintf(" | NEW BID %s by %s", snap.Notice.Amount.StringFixed(2), snap.Notice.Bidder)
	}
	if snap.SubmitErr != nil {
		line += fmt.Sprintf(" | %v", snap.SubmitErr)
	}
	if snap.Degraded {
		line += " | (no live feed)"
	}
	fmt.Printf("\r%-100s", line)
}

func readBids(ctx context.Context, view *app.AuctionViewModel) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		amount := scanner.Text()
		if amount == "" {
			continue
		}
		if err := view.SubmitBid(ctx, amount); err != nil {
			fmt.Printf("\n%v\n", err)
			continue
		}
		fmt.Printf("\nbid %s placed\n", amount)
	}
}

func initLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Logging.Format == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		log.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	zerolog.DefaultContextLogger = &log.Logger
}
