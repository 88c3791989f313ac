package store

import (
	"context"
	"fmt"

	"apartadmin/internal/events"
	"apartadmin/internal/metrics"
	"apartadmin/internal/models"
)

// SaveApartment creates or updates one apartment, disambiguated by the
// presence of a server id on the draft. The server response is the source
// of truth for every field; the draft is provisional until echoed back.
// Returns the user-facing status message.
func (s *Listing) SaveApartment(ctx context.Context, draft models.Apartment) (string, error) {
	if err := draft.Validate(); err != nil {
		metrics.IncMutation("apartment", "save", "validation_error")
		return "", err
	}

	if draft.ID == "" {
		return s.createApartment(ctx, draft)
	}
	return s.updateApartment(ctx, draft)
}

func (s *Listing) createApartment(ctx context.Context, draft models.Apartment) (string, error) {
	// New listings go to the end of the current order.
	s.mu.RLock()
	draft.DisplayOrder = len(s.aptList)
	s.mu.RUnlock()

	rec, err := s.apartments.Create(ctx, draft)
	if err != nil {
		metrics.IncMutation("apartment", "create", "error")
		s.logger.Error().Err(err).Str("name", draft.Name).Msg("failed to create apartment")
		return "", fmt.Errorf("error saving apartment: %w", err)
	}

	saved := rec.Apartment
	if !rec.OrderSet {
		saved.DisplayOrder = draft.DisplayOrder
	}

	s.mu.Lock()
	s.aptList = append(s.aptList, saved)
	sortByDisplayOrder(s.aptList)
	s.editingApt = ""
	s.mu.Unlock()

	metrics.IncMutation("apartment", "create", "success")
	s.publish(events.TypeApartmentCreated, saved)
	s.logger.Info().Str("id", saved.ID).Str("name", saved.Name).Msg("apartment created")
	return fmt.Sprintf("Apartment '%s' added successfully.", saved.Name), nil
}

func (s *Listing) updateApartment(ctx context.Context, draft models.Apartment) (string, error) {
	rec, err := s.apartments.Update(ctx, draft)
	if err != nil {
		metrics.IncMutation("apartment", "update", "error")
		s.logger.Error().Err(err).Str("id", draft.ID).Msg("failed to update apartment")
		return "", fmt.Errorf("error saving apartment: %w", err)
	}

	saved := rec.Apartment

	s.mu.Lock()
	for i := range s.aptList {
		if s.aptList[i].ID != draft.ID {
			continue
		}
		if !rec.OrderSet {
			// Server omitted the ordering key; keep the one we had.
			saved.DisplayOrder = s.aptList[i].DisplayOrder
		}
		s.aptList[i] = saved
		break
	}
	sortByDisplayOrder(s.aptList)
	s.editingApt = ""
	s.mu.Unlock()

	metrics.IncMutation("apartment", "update", "success")
	s.publish(events.TypeApartmentUpdated, saved)
	s.logger.Info().Str("id", saved.ID).Str("name", saved.Name).Msg("apartment updated")
	return fmt.Sprintf("Apartment '%s' updated successfully.", saved.Name), nil
}

// DeleteApartment removes one apartment by id. An empty id fails locally
// without touching the network.
func (s *Listing) DeleteApartment(ctx context.Context, id string) (string, error) {
	if id == "" {
		metrics.IncMutation("apartment", "delete", "validation_error")
		return "", models.ErrValidation("cannot delete apartment, id is missing")
	}

	if err := s.apartments.Delete(ctx, id); err != nil {
		metrics.IncMutation("apartment", "delete", "error")
		s.logger.Error().Err(err).Str("id", id).Msg("failed to delete apartment")
		return "", fmt.Errorf("error deleting apartment: %w", err)
	}

	s.mu.Lock()
	kept := s.aptList[:0]
	for _, a := range s.aptList {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	s.aptList = kept
	s.editingApt = ""
	s.mu.Unlock()

	metrics.IncMutation("apartment", "delete", "success")
	s.publish(events.TypeApartmentDeleted, map[string]string{"id": id})
	s.logger.Info().Str("id", id).Msg("apartment deleted")
	return "Apartment deleted successfully.", nil
}

// SaveDiscount creates or updates a discount code. The backend exposes a
// single save operation; presence of an id selects the update path.
func (s *Listing) SaveDiscount(ctx context.Context, draft models.Discount) (string, error) {
	if err := draft.Validate(); err != nil {
		metrics.IncMutation("discount", "save", "validation_error")
		return "", err
	}

	saved, err := s.discounts.Save(ctx, draft)
	if err != nil {
		metrics.IncMutation("discount", "save", "error")
		s.logger.Error().Err(err).Str("code", draft.Code).Msg("failed to save discount")
		return "", fmt.Errorf("error saving discount: %w", err)
	}

	s.mu.Lock()
	if draft.ID != "" {
		for i := range s.discList {
			if s.discList[i].ID == draft.ID {
				s.discList[i] = saved
				break
			}
		}
	} else {
		s.discList = append(s.discList, saved)
	}
	s.editingDisc = ""
	s.mu.Unlock()

	op := "create"
	msg := fmt.Sprintf("Discount code '%s' added successfully.", saved.Code)
	if draft.ID != "" {
		op = "update"
		msg = fmt.Sprintf("Discount code '%s' updated successfully.", draft.Code)
	}
	metrics.IncMutation("discount", op, "success")
	s.publish(events.TypeDiscountSaved, saved)
	s.logger.Info().Str("id", saved.ID).Str("code", saved.Code).Msg("discount saved")
	return msg, nil
}

// DeleteDiscount removes one discount code by id.
func (s *Listing) DeleteDiscount(ctx context.Context, id string) (string, error) {
	if id == "" {
		metrics.IncMutation("discount", "delete", "validation_error")
		return "", models.ErrValidation("cannot delete discount, id is missing")
	}

	if err := s.discounts.Delete(ctx, id); err != nil {
		metrics.IncMutation("discount", "delete", "error")
		s.logger.Error().Err(err).Str("id", id).Msg("failed to delete discount")
		return "", fmt.Errorf("error deleting discount: %w", err)
	}

	s.mu.Lock()
	kept := s.discList[:0]
	for _, d := range s.discList {
		if d.ID != id {
			kept = append(kept, d)
		}
	}
	s.discList = kept
	s.editingDisc = ""
	s.mu.Unlock()

	metrics.IncMutation("discount", "delete", "success")
	s.publish(events.TypeDiscountDeleted, map[string]string{"id": id})
	s.logger.Info().Str("id", id).Msg("discount deleted")
	return "Discount deleted successfully.", nil
}
