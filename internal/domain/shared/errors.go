package shared

import "errors"

// Domain-specific errors
var (
	// Submission errors
	ErrUnauthenticated  = errors.New("no valid session credential")
	ErrInvalidBid       = errors.New("invalid bid")
	ErrSubmissionFailed = errors.New("bid submission failed")
	ErrAuctionEnded     = errors.New("auction has ended")

	// View lifecycle errors
	ErrAdIDRequired = errors.New("ad id is required")
	ErrAdNotLoaded  = errors.New("ad not loaded yet")
	ErrViewClosed   = errors.New("view has been deactivated")

	// Load errors
	ErrLoadFailed      = errors.New("failed to load auction data")
	ErrFeedUnavailable = errors.New("real-time feed unavailable")

	// Feed event validation errors
	ErrEventTypeRequired = errors.New("event type is required")
	ErrRoomRequired      = errors.New("room is required")
	ErrBidderRequired    = errors.New("bidder is required")
	ErrInvalidAmount     = errors.New("valid amount is required")
	ErrInvalidTimestamp  = errors.New("valid timestamp is required")
	ErrUnknownEventType  = errors.New("unknown event type")

	// Chat errors
	ErrTextRequired   = errors.New("message text is required")
	ErrSenderRequired = errors.New("sender is required")
)
