package models

import (
	"time"
)

// Sentinel values stored in LocationRecord.IP when no address could be resolved.
const (
	IPUnknown     = "Unknown"
	IPUnavailable = "IP Unavailable"
)

// LocationRecord is a single captured visit. It is never updated after creation.
type LocationRecord struct {
	ID        string    `json:"id"`
	Lat       string    `json:"lat"`
	Lon       string    `json:"lon"`
	IP        string    `json:"ip"`
	ImageURL  string    `json:"imageUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

// ListOptions narrows and pages a record listing.
type ListOptions struct {
	Skip  int
	Limit int
	// IP filters by exact address when non-empty
	IP string
}
