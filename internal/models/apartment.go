package models

// Currency codes accepted by the backend.
const (
	CurrencyRON = "RON"
	CurrencyEUR = "EUR"
)

// Apartment statuses.
const (
	StatusAvailable   = "available"
	StatusUnavailable = "unavailable"
)

// Apartment is a rental listing as seen by the admin dashboard.
// ID is always the canonical server identifier; the wire layer folds
// the backend's _id/id duality into this single field on ingest.
type Apartment struct {
	ID            string   `json:"id"`
	HotelID       string   `json:"hotelId,omitempty"`
	RoomID        string   `json:"roomId,omitempty"`
	Name          string   `json:"name"`
	City          string   `json:"city"`
	Address       string   `json:"address"`
	Latitude      float64  `json:"latitude"`
	Longitude     float64  `json:"longitude"`
	Price         float64  `json:"price"`
	Currency      string   `json:"currency"`
	DescriptionRo string   `json:"descriptionRo,omitempty"`
	DescriptionEn string   `json:"descriptionEn,omitempty"`
	Amenities     []string `json:"amenities"`
	Images        []string `json:"images"` // ordered; first is the main photo
	MaxGuests     int      `json:"maxGuests"`
	Bedrooms      int      `json:"bedrooms"`
	Bathrooms     int      `json:"bathrooms"`
	Status        string   `json:"status"`
	DisplayOrder  int      `json:"displayOrder"`
}

// Validate checks the fields the admin UI is allowed to submit.
func (a *Apartment) Validate() error {
	if a.Name == "" {
		return ErrValidation("apartment name is required")
	}
	if a.City == "" {
		return ErrValidation("apartment city is required")
	}
	if a.Price < 0 {
		return ErrValidation("price must not be negative")
	}
	if a.Currency != "" && a.Currency != CurrencyRON && a.Currency != CurrencyEUR {
		return ErrValidation("currency must be RON or EUR")
	}
	if a.MaxGuests < 0 || a.Bedrooms < 0 || a.Bathrooms < 0 {
		return ErrValidation("capacity fields must not be negative")
	}
	if a.Status != "" && a.Status != StatusAvailable && a.Status != StatusUnavailable {
		return ErrValidation("status must be available or unavailable")
	}
	return nil
}

// MainImage returns the first image URL or "" when the listing has no photos.
func (a *Apartment) MainImage() string {
	if len(a.Images) == 0 {
		return ""
	}
	return a.Images[0]
}
