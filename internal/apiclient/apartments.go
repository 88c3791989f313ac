package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"apartadmin/internal/models"
	"apartadmin/internal/session"
)

const apartmentsCacheKey = "apartments"

// ApartmentRecord is a normalized apartment plus a flag telling whether the
// backend supplied an ordering key. The listing store uses the flag to pick
// a fallback displayOrder.
type ApartmentRecord struct {
	models.Apartment
	OrderSet bool
}

// ApartmentClient talks to the apartment-service backend.
type ApartmentClient struct {
	*Client
}

// NewApartmentClient constructs the client; baseURL points at the service
// root, e.g. https://api.example.com/api/apartment-service.
func NewApartmentClient(baseURL string, sess *session.Session) *ApartmentClient {
	return &ApartmentClient{Client: NewClient(baseURL, sess)}
}

// List fetches every apartment.
func (c *ApartmentClient) List(ctx context.Context) ([]ApartmentRecord, error) {
	endpoint := fmt.Sprintf("%s/all", c.baseURL)

	var wires []apartmentWire
	if !c.readCache(ctx, apartmentsCacheKey, &wires) {
		if err := c.doGet(ctx, endpoint, &wires); err != nil {
			return nil, err
		}
		c.writeCache(ctx, apartmentsCacheKey, wires)
	}

	records := make([]ApartmentRecord, 0, len(wires))
	for i := range wires {
		apt, ok := wires[i].toApartment()
		records = append(records, ApartmentRecord{Apartment: apt, OrderSet: ok})
	}
	return records, nil
}

// Create submits a draft; the server assigns the identifier.
func (c *ApartmentClient) Create(ctx context.Context, draft models.Apartment) (ApartmentRecord, error) {
	var wire apartmentWire
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL, apartmentToWire(draft), &wire); err != nil {
		return ApartmentRecord{}, err
	}
	c.dropCache(ctx, apartmentsCacheKey)
	apt, ok := wire.toApartment()
	return ApartmentRecord{Apartment: apt, OrderSet: ok}, nil
}

// Update replaces the full record (no partial patches).
func (c *ApartmentClient) Update(ctx context.Context, apartment models.Apartment) (ApartmentRecord, error) {
	endpoint := fmt.Sprintf("%s/%s", c.baseURL, url.PathEscape(apartment.ID))
	var wire apartmentWire
	if err := c.doJSON(ctx, http.MethodPut, endpoint, apartmentToWire(apartment), &wire); err != nil {
		return ApartmentRecord{}, err
	}
	c.dropCache(ctx, apartmentsCacheKey)
	apt, ok := wire.toApartment()
	return ApartmentRecord{Apartment: apt, OrderSet: ok}, nil
}

// Delete removes the apartment by id.
func (c *ApartmentClient) Delete(ctx context.Context, id string) error {
	endpoint := fmt.Sprintf("%s/%s", c.baseURL, url.PathEscape(id))
	if err := c.doDelete(ctx, endpoint); err != nil {
		return err
	}
	c.dropCache(ctx, apartmentsCacheKey)
	return nil
}

// ListBlockedDates returns the blocked ranges for one apartment.
func (c *ApartmentClient) ListBlockedDates(ctx context.Context, apartmentID string) ([]models.BlockedDate, error) {
	endpoint := fmt.Sprintf("%s/%s/blocked-dates", c.baseURL, url.PathEscape(apartmentID))
	var wires []dateRangeWire
	if err := c.doGet(ctx, endpoint, &wires); err != nil {
		return nil, err
	}
	out := make([]models.BlockedDate, 0, len(wires))
	for i := range wires {
		out = append(out, wires[i].toBlockedDate(apartmentID))
	}
	return out, nil
}

// CreateBlockedDate blocks a date range for an apartment.
func (c *ApartmentClient) CreateBlockedDate(ctx context.Context, b models.BlockedDate) (models.BlockedDate, error) {
	endpoint := fmt.Sprintf("%s/%s/blocked-dates", c.baseURL, url.PathEscape(b.ApartmentID))
	body := dateRangeWire{
		StartDate: b.StartDate.Format("2006-01-02"),
		EndDate:   b.EndDate.Format("2006-01-02"),
		Reason:    b.Reason,
	}
	var wire dateRangeWire
	if err := c.doJSON(ctx, http.MethodPost, endpoint, body, &wire); err != nil {
		return models.BlockedDate{}, err
	}
	return wire.toBlockedDate(b.ApartmentID), nil
}

// DeleteBlockedDate removes a blocked range by id.
func (c *ApartmentClient) DeleteBlockedDate(ctx context.Context, id string) error {
	endpoint := fmt.Sprintf("%s/blocked-dates/%s", c.baseURL, url.PathEscape(id))
	return c.doDelete(ctx, endpoint)
}

// ListPriceOverrides returns the price overrides for one apartment.
func (c *ApartmentClient) ListPriceOverrides(ctx context.Context, apartmentID string) ([]models.PriceOverride, error) {
	endpoint := fmt.Sprintf("%s/%s/price-overrides", c.baseURL, url.PathEscape(apartmentID))
	var wires []dateRangeWire
	if err := c.doGet(ctx, endpoint, &wires); err != nil {
		return nil, err
	}
	out := make([]models.PriceOverride, 0, len(wires))
	for i := range wires {
		out = append(out, wires[i].toPriceOverride(apartmentID))
	}
	return out, nil
}

// CreatePriceOverride sets an override price for a date range.
func (c *ApartmentClient) CreatePriceOverride(ctx context.Context, o models.PriceOverride) (models.PriceOverride, error) {
	endpoint := fmt.Sprintf("%s/%s/price-override", c.baseURL, url.PathEscape(o.ApartmentID))
	body := dateRangeWire{
		StartDate: o.StartDate.Format("2006-01-02"),
		EndDate:   o.EndDate.Format("2006-01-02"),
		Price:     o.Price,
		Currency:  o.Currency,
	}
	var wire dateRangeWire
	if err := c.doJSON(ctx, http.MethodPost, endpoint, body, &wire); err != nil {
		return models.PriceOverride{}, err
	}
	return wire.toPriceOverride(o.ApartmentID), nil
}

// DeletePriceOverride removes an override by id.
func (c *ApartmentClient) DeletePriceOverride(ctx context.Context, id string) error {
	endpoint := fmt.Sprintf("%s/price-overrides/%s", c.baseURL, url.PathEscape(id))
	return c.doDelete(ctx, endpoint)
}
