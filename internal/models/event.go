package models

import "time"

// Listing event types published after a successful write.
const (
	EventListingCreated = "listing.created"
	EventListingUpdated = "listing.updated"
	EventListingDeleted = "listing.deleted"
)

// ListingEvent is the message put on the broker when a listing changes.
type ListingEvent struct {
	Type       string    `json:"type"`
	ListingID  string    `json:"listingId"`
	VendorID   string    `json:"vendorId"`
	OccurredAt time.Time `json:"occurredAt"`
}
