package models

import "time"

// Discount types.
const (
	DiscountFixed      = "FIXED"
	DiscountPercentage = "PERCENTAGE"
)

// Discount is a code applicable to a subset of apartments, either a fixed
// amount (with currency) or a percentage.
type Discount struct {
	ID             string    `json:"id"`
	Code           string    `json:"code"`
	DiscountType   string    `json:"discountType"`
	Value          float64   `json:"value"`
	Currency       string    `json:"currency,omitempty"` // meaningful for FIXED only
	ExpirationDate time.Time `json:"expirationDate"`
	ApartmentIDs   []string  `json:"apartmentIds"`
}

// Validate applies the client-side rules before a save is sent out.
func (d *Discount) Validate() error {
	if d.Code == "" {
		return ErrValidation("discount code is required")
	}
	switch d.DiscountType {
	case DiscountPercentage:
		if d.Value < 0 || d.Value > 100 {
			return ErrValidation("percentage discount must be between 0 and 100")
		}
	case DiscountFixed:
		if d.Value < 0 {
			return ErrValidation("fixed discount must not be negative")
		}
	default:
		return ErrValidation("discount type must be FIXED or PERCENTAGE")
	}
	if len(d.ApartmentIDs) == 0 {
		return ErrValidation("discount must apply to at least one apartment")
	}
	return nil
}

// AppliesTo reports whether the discount covers the given apartment.
func (d *Discount) AppliesTo(apartmentID string) bool {
	for _, id := range d.ApartmentIDs {
		if id == apartmentID {
			return true
		}
	}
	return false
}
