package store

import (
	"context"
	"fmt"

	"apartadmin/internal/apiclient"
	"apartadmin/internal/events"
	"apartadmin/internal/metrics"
	"apartadmin/internal/models"
)

// ErrCrossCity rejects a reorder between two different city groups.
var ErrCrossCity = models.ErrValidation("Cannot move apartment to a different city.")

// SwapOutcome tags the result of a swap so callers can tell a clean commit
// from the two-call failure window.
type SwapOutcome string

const (
	// SwapApplied means both updates were confirmed and local state moved.
	SwapApplied SwapOutcome = "applied"
	// SwapNoop means there was nothing to do (self-swap or list edge).
	SwapNoop SwapOutcome = "noop"
	// SwapPartialFailure means exactly one of the two updates failed; the
	// backend's displayOrder values may now disagree until the next Load.
	SwapPartialFailure SwapOutcome = "partial_failure"
	// SwapFailed means both updates failed; the backend is still consistent.
	SwapFailed SwapOutcome = "failed"
)

// SwapResult reports what happened to a swap request. FailedIDs names the
// record(s) whose persist call failed; on partial failure the caller should
// reconcile by reloading.
type SwapResult struct {
	Outcome   SwapOutcome
	FailedIDs []string
	Message   string
}

// MoveDirection selects the up/down control of the reorder engine.
type MoveDirection string

const (
	MoveUp   MoveDirection = "up"
	MoveDown MoveDirection = "down"
)

// Swap exchanges the displayOrder of two apartments in the same city. The
// two update calls are issued concurrently and local state changes only
// after both succeed. A cross-city pair is rejected before any network call.
func (s *Listing) Swap(ctx context.Context, aID, bID string) (SwapResult, error) {
	if aID == bID {
		return SwapResult{Outcome: SwapNoop}, nil
	}

	a, okA := s.Apartment(aID)
	b, okB := s.Apartment(bID)
	if !okA || !okB {
		metrics.IncReorder("not_found")
		return SwapResult{Outcome: SwapFailed}, models.ErrValidation("apartment not found")
	}
	if a.City != b.City {
		metrics.IncReorder("rejected")
		return SwapResult{Outcome: SwapFailed}, ErrCrossCity
	}

	// Exact two-element transposition of the ordering keys.
	a.DisplayOrder, b.DisplayOrder = b.DisplayOrder, a.DisplayOrder

	type updateResult struct {
		id  string
		rec apiclient.ApartmentRecord
		err error
	}
	results := make(chan updateResult, 2)
	for _, apt := range []models.Apartment{a, b} {
		go func(apt models.Apartment) {
			rec, err := s.apartments.Update(ctx, apt)
			results <- updateResult{id: apt.ID, rec: rec, err: err}
		}(apt)
	}

	confirmed := make(map[string]apiclient.ApartmentRecord, 2)
	var failed []string
	for i := 0; i < 2; i++ {
		res := <-results
		if res.err != nil {
			s.logger.Error().Err(res.err).Str("id", res.id).Msg("reorder update failed")
			failed = append(failed, res.id)
			continue
		}
		confirmed[res.id] = res.rec
	}

	if len(failed) > 0 {
		outcome := SwapFailed
		if len(failed) == 1 {
			// The other write went through; server-side order is now
			// internally inconsistent until the next Load.
			outcome = SwapPartialFailure
		}
		metrics.IncReorder(string(outcome))
		return SwapResult{Outcome: outcome, FailedIDs: failed},
			fmt.Errorf("error moving apartment: %d of 2 updates failed", len(failed))
	}

	s.mu.Lock()
	for i := range s.aptList {
		rec, ok := confirmed[s.aptList[i].ID]
		if !ok {
			continue
		}
		saved := rec.Apartment
		if !rec.OrderSet {
			saved.DisplayOrder = s.orderSentFor(saved.ID, a, b)
		}
		s.aptList[i] = saved
	}
	sortByDisplayOrder(s.aptList)
	s.mu.Unlock()

	metrics.IncReorder(string(SwapApplied))
	s.publish(events.TypeApartmentsReordered, map[string]string{"a": aID, "b": bID})
	s.logger.Info().Str("a", aID).Str("b", bID).Msg("apartments reordered")
	return SwapResult{Outcome: SwapApplied, Message: "Apartment position updated successfully."}, nil
}

// Move shifts one apartment a single slot within the global displayed
// order. The edges are hard bounds, no wraparound; the underlying effect is
// the same swap, so crossing into a neighboring city group is rejected.
func (s *Listing) Move(ctx context.Context, id string, direction MoveDirection) (SwapResult, error) {
	s.mu.RLock()
	idx := -1
	for i, apt := range s.aptList {
		if apt.ID == id {
			idx = i
			break
		}
	}
	var neighborID string
	if idx >= 0 {
		step := 1
		if direction == MoveUp {
			step = -1
		}
		if j := idx + step; j >= 0 && j < len(s.aptList) {
			neighborID = s.aptList[j].ID
		}
	}
	s.mu.RUnlock()

	if idx == -1 {
		return SwapResult{Outcome: SwapFailed}, models.ErrValidation("apartment not found")
	}
	if neighborID == "" {
		return SwapResult{Outcome: SwapNoop}, nil
	}
	return s.Swap(ctx, id, neighborID)
}

// orderSentFor recovers the displayOrder we submitted for an id when the
// server echo omitted the key.
func (s *Listing) orderSentFor(id string, a, b models.Apartment) int {
	if a.ID == id {
		return a.DisplayOrder
	}
	return b.DisplayOrder
}
