package models

import "time"

// BlockedDate is a server-owned range during which an apartment cannot be
// booked. The admin client only lists, creates and deletes these.
type BlockedDate struct {
	ID          string    `json:"id"`
	ApartmentID string    `json:"apartmentId"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	Reason      string    `json:"reason,omitempty"`
}

// PriceOverride replaces the nightly price for an apartment over a date range.
type PriceOverride struct {
	ID          string    `json:"id"`
	ApartmentID string    `json:"apartmentId"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	Price       float64   `json:"price"`
	Currency    string    `json:"currency"`
}

// FailedReservation is a paid reservation that did not sync with the
// channel manager; surfaced as an alert until retried or resolved.
type FailedReservation struct {
	ID            string    `json:"id"`
	ApartmentID   string    `json:"apartmentId,omitempty"`
	ApartmentName string    `json:"apartmentName,omitempty"`
	GuestName     string    `json:"guestName,omitempty"`
	CheckIn       time.Time `json:"checkIn"`
	CheckOut      time.Time `json:"checkOut"`
	SyncError     string    `json:"syncError,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}
