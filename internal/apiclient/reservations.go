package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"apartadmin/internal/models"
	"apartadmin/internal/session"
)

// ReservationClient exposes the failed-reservation alert feed of the
// reservation-service backend.
type ReservationClient struct {
	*Client
}

// NewReservationClient constructs the client; baseURL points at the service
// root, e.g. https://api.example.com/api/reservation-service.
func NewReservationClient(baseURL string, sess *session.Session) *ReservationClient {
	return &ReservationClient{Client: NewClient(baseURL, sess)}
}

// ListFailed returns reservations that were paid but did not sync with the
// channel manager.
func (c *ReservationClient) ListFailed(ctx context.Context) ([]models.FailedReservation, error) {
	endpoint := fmt.Sprintf("%s/failed", c.baseURL)
	var wires []failedReservationWire
	if err := c.doGet(ctx, endpoint, &wires); err != nil {
		return nil, err
	}
	out := make([]models.FailedReservation, 0, len(wires))
	for i := range wires {
		out = append(out, wires[i].toFailedReservation())
	}
	return out, nil
}

type syncResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// RetrySync asks the backend to retry syncing one reservation.
func (c *ReservationClient) RetrySync(ctx context.Context, reservationID string) error {
	endpoint := fmt.Sprintf("%s/%s/retry-sync", c.baseURL, url.PathEscape(reservationID))
	var res syncResult
	if err := c.doJSON(ctx, http.MethodPost, endpoint, struct{}{}, &res); err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("retry sync failed: %s", res.Message)
	}
	return nil
}

// MarkResolved marks a failed reservation as manually handled.
func (c *ReservationClient) MarkResolved(ctx context.Context, reservationID, notes string) error {
	endpoint := fmt.Sprintf("%s/%s/mark-resolved", c.baseURL, url.PathEscape(reservationID))
	body := map[string]string{"notes": notes}
	var res syncResult
	if err := c.doJSON(ctx, http.MethodPost, endpoint, body, &res); err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("mark resolved failed: %s", res.Message)
	}
	return nil
}
