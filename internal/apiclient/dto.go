package apiclient

import (
	"time"

	"apartadmin/internal/models"
)

// apartmentWire mirrors the backend apartment document. The backend has
// served both Mongo-style `_id` and plain `id`, and both `displayOrder`
// and the older `position` key; everything is folded into the canonical
// model here so nothing deeper ever branches on field presence.
type apartmentWire struct {
	MongoID       string   `json:"_id,omitempty"`
	ID            string   `json:"id,omitempty"`
	HotelID       string   `json:"hotelId,omitempty"`
	RoomID        string   `json:"roomId,omitempty"`
	Name          string   `json:"name"`
	City          string   `json:"city"`
	Address       string   `json:"address"`
	Latitude      float64  `json:"latitude"`
	Longitude     float64  `json:"longitude"`
	Price         float64  `json:"price"`
	Currency      string   `json:"currency,omitempty"`
	DescriptionRo string   `json:"descriptionRo,omitempty"`
	DescriptionEn string   `json:"descriptionEn,omitempty"`
	Amenities     []string `json:"amenities,omitempty"`
	Images        []string `json:"images,omitempty"`
	MaxGuests     int      `json:"maxGuests"`
	Bedrooms      int      `json:"bedrooms"`
	Bathrooms     int      `json:"bathrooms"`
	Status        string   `json:"status,omitempty"`
	DisplayOrder  *int     `json:"displayOrder,omitempty"`
	Position      *int     `json:"position,omitempty"`
}

// toApartment normalizes the wire record. The second return value reports
// whether the backend supplied an ordering key at all; callers decide the
// fallback (array index on load, prior value on update).
func (w *apartmentWire) toApartment() (models.Apartment, bool) {
	id := w.MongoID
	if id == "" {
		id = w.ID
	}
	a := models.Apartment{
		ID:            id,
		HotelID:       w.HotelID,
		RoomID:        w.RoomID,
		Name:          w.Name,
		City:          w.City,
		Address:       w.Address,
		Latitude:      w.Latitude,
		Longitude:     w.Longitude,
		Price:         w.Price,
		Currency:      w.Currency,
		DescriptionRo: w.DescriptionRo,
		DescriptionEn: w.DescriptionEn,
		Amenities:     w.Amenities,
		Images:        w.Images,
		MaxGuests:     w.MaxGuests,
		Bedrooms:      w.Bedrooms,
		Bathrooms:     w.Bathrooms,
		Status:        w.Status,
	}
	switch {
	case w.DisplayOrder != nil:
		a.DisplayOrder = *w.DisplayOrder
		return a, true
	case w.Position != nil:
		a.DisplayOrder = *w.Position
		return a, true
	default:
		return a, false
	}
}

func apartmentToWire(a models.Apartment) apartmentWire {
	order := a.DisplayOrder
	return apartmentWire{
		ID:            a.ID,
		HotelID:       a.HotelID,
		RoomID:        a.RoomID,
		Name:          a.Name,
		City:          a.City,
		Address:       a.Address,
		Latitude:      a.Latitude,
		Longitude:     a.Longitude,
		Price:         a.Price,
		Currency:      a.Currency,
		DescriptionRo: a.DescriptionRo,
		DescriptionEn: a.DescriptionEn,
		Amenities:     a.Amenities,
		Images:        a.Images,
		MaxGuests:     a.MaxGuests,
		Bedrooms:      a.Bedrooms,
		Bathrooms:     a.Bathrooms,
		Status:        a.Status,
		DisplayOrder:  &order,
	}
}

type discountWire struct {
	MongoID        string   `json:"_id,omitempty"`
	ID             string   `json:"id,omitempty"`
	Code           string   `json:"code"`
	DiscountType   string   `json:"discountType"`
	Value          float64  `json:"value"`
	Currency       string   `json:"currency,omitempty"`
	ExpirationDate string   `json:"expirationDate"`
	ApartmentIDs   []string `json:"apartmentIds,omitempty"`
}

func (w *discountWire) toDiscount() models.Discount {
	id := w.MongoID
	if id == "" {
		id = w.ID
	}
	expires, _ := parseDate(w.ExpirationDate)
	return models.Discount{
		ID:             id,
		Code:           w.Code,
		DiscountType:   w.DiscountType,
		Value:          w.Value,
		Currency:       w.Currency,
		ExpirationDate: expires,
		ApartmentIDs:   w.ApartmentIDs,
	}
}

func discountToWire(d models.Discount) discountWire {
	return discountWire{
		ID:             d.ID,
		Code:           d.Code,
		DiscountType:   d.DiscountType,
		Value:          d.Value,
		Currency:       d.Currency,
		ExpirationDate: d.ExpirationDate.Format("2006-01-02"),
		ApartmentIDs:   d.ApartmentIDs,
	}
}

type dateRangeWire struct {
	MongoID     string  `json:"_id,omitempty"`
	ID          string  `json:"id,omitempty"`
	ApartmentID string  `json:"apartmentId,omitempty"`
	StartDate   string  `json:"startDate"`
	EndDate     string  `json:"endDate"`
	Reason      string  `json:"reason,omitempty"`
	Price       float64 `json:"price,omitempty"`
	Currency    string  `json:"currency,omitempty"`
}

func (w *dateRangeWire) canonicalID() string {
	if w.MongoID != "" {
		return w.MongoID
	}
	return w.ID
}

func (w *dateRangeWire) toBlockedDate(apartmentID string) models.BlockedDate {
	start, _ := parseDate(w.StartDate)
	end, _ := parseDate(w.EndDate)
	return models.BlockedDate{
		ID:          w.canonicalID(),
		ApartmentID: apartmentID,
		StartDate:   start,
		EndDate:     end,
		Reason:      w.Reason,
	}
}

func (w *dateRangeWire) toPriceOverride(apartmentID string) models.PriceOverride {
	start, _ := parseDate(w.StartDate)
	end, _ := parseDate(w.EndDate)
	return models.PriceOverride{
		ID:          w.canonicalID(),
		ApartmentID: apartmentID,
		StartDate:   start,
		EndDate:     end,
		Price:       w.Price,
		Currency:    w.Currency,
	}
}

type failedReservationWire struct {
	MongoID       string `json:"_id,omitempty"`
	ID            string `json:"id,omitempty"`
	ApartmentID   string `json:"apartmentId,omitempty"`
	ApartmentName string `json:"apartmentName,omitempty"`
	GuestName     string `json:"guestName,omitempty"`
	CheckIn       string `json:"checkIn"`
	CheckOut      string `json:"checkOut"`
	SyncError     string `json:"syncError,omitempty"`
	CreatedAt     string `json:"createdAt,omitempty"`
}

func (w *failedReservationWire) toFailedReservation() models.FailedReservation {
	id := w.MongoID
	if id == "" {
		id = w.ID
	}
	checkIn, _ := parseDate(w.CheckIn)
	checkOut, _ := parseDate(w.CheckOut)
	created, _ := parseDate(w.CreatedAt)
	return models.FailedReservation{
		ID:            id,
		ApartmentID:   w.ApartmentID,
		ApartmentName: w.ApartmentName,
		GuestName:     w.GuestName,
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		SyncError:     w.SyncError,
		CreatedAt:     created,
	}
}

// parseDate accepts the two formats the backend emits: bare dates and
// RFC 3339 timestamps.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
