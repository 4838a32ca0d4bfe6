package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Configuration constants
const (
	// Backend API Configuration
	APIBaseURL = "API_BASE_URL"
	APITimeout = "API_TIMEOUT"

	// Real-time Feed Configuration
	FeedURL         = "FEED_URL"
	FeedDialTimeout = "FEED_DIAL_TIMEOUT"

	// Auction Policy Configuration
	BidIncrement         = "BID_INCREMENT"
	DefaultAuctionWindow = "DEFAULT_AUCTION_WINDOW"
	NoticeWindow         = "NOTICE_WINDOW"
	TickInterval         = "TICK_INTERVAL"
	DedupTolerance       = "DEDUP_TOLERANCE"

	// Session Configuration
	SessionToken = "SESSION_TOKEN"
	BidderName   = "BIDDER_NAME"

	// Logging Configuration
	LogLevel  = "LOG_LEVEL"
	LogFormat = "LOG_FORMAT"
)

// Config holds all application configuration
type Config struct {
	API     APIConfig
	Feed    FeedConfig
	Auction AuctionConfig
	Session SessionConfig
	Logging LoggingConfig
}

// APIConfig holds marketplace backend configuration
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// FeedConfig holds real-time feed configuration. An empty URL selects the
// in-process loopback feed.
type FeedConfig struct {
	URL         string
	DialTimeout time.Duration
}

// AuctionConfig holds the bidding policy constants
type AuctionConfig struct {
	BidIncrement         float64
	DefaultAuctionWindow time.Duration
	NoticeWindow         time.Duration
	TickInterval         time.Duration
	DedupTolerance       time.Duration
}

// SessionConfig holds the externally supplied session credential
type SessionConfig struct {
	Token  string
	Bidder string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from environment variables and .envrc file
func LoadConfig() (*Config, error) {
	viper.SetConfigName(".envrc")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	// Config file is optional, env vars alone are fine
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	config := &Config{
		API: APIConfig{
			BaseURL: viper.GetString(APIBaseURL),
			Timeout: viper.GetDuration(APITimeout),
		},
		Feed: FeedConfig{
			URL:         viper.GetString(FeedURL),
			DialTimeout: viper.GetDuration(FeedDialTimeout),
		},
		Auction: AuctionConfig{
			BidIncrement:         viper.GetFloat64(BidIncrement),
			DefaultAuctionWindow: viper.GetDuration(DefaultAuctionWindow),
			NoticeWindow:         viper.GetDuration(NoticeWindow),
			TickInterval:         viper.GetDuration(TickInterval),
			DedupTolerance:       viper.GetDuration(DedupTolerance),
		},
		Session: SessionConfig{
			Token:  viper.GetString(SessionToken),
			Bidder: viper.GetString(BidderName),
		},
		Logging: LoggingConfig{
			Level:  viper.GetString(LogLevel),
			Format: viper.GetString(LogFormat),
		},
	}

	return config, nil
}

// setDefaults sets default values for configuration
func setDefaults() {
	// Backend defaults
	viper.SetDefault(APIBaseURL, "http://localhost:3000")
	viper.SetDefault(APITimeout, 30*time.Second)

	// Feed defaults
	viper.SetDefault(FeedURL, "ws://localhost:3000/feed")
	viper.SetDefault(FeedDialTimeout, 10*time.Second)

	// Auction policy defaults. The 24h window applies when an ad carries
	// no explicit auction end time.
	viper.SetDefault(BidIncrement, 0.1)
	viper.SetDefault(DefaultAuctionWindow, 24*time.Hour)
	viper.SetDefault(NoticeWindow, 10*time.Second)
	viper.SetDefault(TickInterval, time.Second)
	viper.SetDefault(DedupTolerance, 2*time.Second)

	// Session defaults
	viper.SetDefault(SessionToken, "")
	viper.SetDefault(BidderName, "")

	// Logging defaults
	viper.SetDefault(LogLevel, "info")
	viper.SetDefault(LogFormat, "console")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("API base URL is required")
	}

	if c.Auction.BidIncrement <= 0 {
		return fmt.Errorf("bid increment must be greater than 0")
	}

	if c.Auction.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be greater than 0")
	}

	if c.Auction.DefaultAuctionWindow <= 0 {
		return fmt.Errorf("default auction window must be greater than 0")
	}

	return nil
}
