package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"apartadmin/internal/models"
	"apartadmin/internal/session"
)

const discountsCacheKey = "discounts"

// DiscountClient talks to the discount-code-service backend.
type DiscountClient struct {
	*Client
}

// NewDiscountClient constructs the client; baseURL points at the service
// root, e.g. https://api.example.com/api/discount-code-service.
func NewDiscountClient(baseURL string, sess *session.Session) *DiscountClient {
	return &DiscountClient{Client: NewClient(baseURL, sess)}
}

// List fetches every discount code.
func (c *DiscountClient) List(ctx context.Context) ([]models.Discount, error) {
	endpoint := fmt.Sprintf("%s/all", c.baseURL)

	var wires []discountWire
	if !c.readCache(ctx, discountsCacheKey, &wires) {
		if err := c.doGet(ctx, endpoint, &wires); err != nil {
			return nil, err
		}
		c.writeCache(ctx, discountsCacheKey, wires)
	}

	out := make([]models.Discount, 0, len(wires))
	for i := range wires {
		out = append(out, wires[i].toDiscount())
	}
	return out, nil
}

// Save creates or updates a discount. The backend exposes a single save
// endpoint; a record carrying an id is treated as an update.
func (c *DiscountClient) Save(ctx context.Context, d models.Discount) (models.Discount, error) {
	var wire discountWire
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL, discountToWire(d), &wire); err != nil {
		return models.Discount{}, err
	}
	c.dropCache(ctx, discountsCacheKey)
	return wire.toDiscount(), nil
}

// Delete removes a discount by id.
func (c *DiscountClient) Delete(ctx context.Context, id string) error {
	endpoint := fmt.Sprintf("%s/%s", c.baseURL, url.PathEscape(id))
	if err := c.doDelete(ctx, endpoint); err != nil {
		return err
	}
	c.dropCache(ctx, discountsCacheKey)
	return nil
}
