package alerts

import (
	"context"
	"fmt"
	"sync"
	"time"

	"apartadmin/internal/metrics"
	"apartadmin/internal/models"

	"github.com/rs/zerolog"
)

// ReservationAPI is the slice of the reservation-service client the
// watcher needs.
type ReservationAPI interface {
	ListFailed(ctx context.Context) ([]models.FailedReservation, error)
	RetrySync(ctx context.Context, reservationID string) error
	MarkResolved(ctx context.Context, reservationID, notes string) error
}

// Config holds configuration for the failed-reservation watcher.
type Config struct {
	// PollInterval is how often the alert feed is refreshed.
	// Default: 30 seconds.
	PollInterval time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{PollInterval: 30 * time.Second}
}

// Watcher polls the failed-reservation feed on a fixed interval and keeps
// the latest snapshot. There is no merge logic: the last response wins,
// and a failed poll keeps the previous snapshot.
type Watcher struct {
	config       Config
	reservations ReservationAPI
	logger       *zerolog.Logger

	mu      sync.RWMutex
	current []models.FailedReservation
	lastErr error

	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool
}

// NewWatcher creates a watcher; it does not start polling until Start.
func NewWatcher(config Config, reservations ReservationAPI, logger *zerolog.Logger) *Watcher {
	if config.PollInterval <= 0 {
		config.PollInterval = 30 * time.Second
	}
	return &Watcher{
		config:       config,
		reservations: reservations,
		logger:       logger,
		stopCh:       make(chan struct{}),
	}
}

// Start begins the poll loop. Safe to call once.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	w.wg.Add(1)
	go w.loop(ctx)

	w.logger.Info().Dur("interval", w.config.PollInterval).Msg("failed-reservation watcher started")
}

// Stop halts the poll loop and waits for it to finish.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	w.wg.Wait()
	w.logger.Info().Msg("failed-reservation watcher stopped")
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	// Run immediately on start.
	w.Refresh(ctx)

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.Refresh(ctx)
		}
	}
}

// Refresh fetches the feed once and replaces the snapshot on success.
func (w *Watcher) Refresh(ctx context.Context) {
	failed, err := w.reservations.ListFailed(ctx)
	if err != nil {
		metrics.IncAlertPoll("error")
		w.logger.Error().Err(err).Msg("failed to poll failed reservations")
		w.mu.Lock()
		w.lastErr = err
		w.mu.Unlock()
		return
	}

	metrics.IncAlertPoll("success")
	metrics.SetFailedReservations(len(failed))

	w.mu.Lock()
	w.current = failed
	w.lastErr = nil
	w.mu.Unlock()
}

// Current returns the latest snapshot of failed reservations.
func (w *Watcher) Current() []models.FailedReservation {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]models.FailedReservation, len(w.current))
	copy(out, w.current)
	return out
}

// LastError returns the error of the most recent poll, nil when it succeeded.
func (w *Watcher) LastError() error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastErr
}

// Retry asks the backend to re-sync one reservation and drops it from the
// snapshot on success.
func (w *Watcher) Retry(ctx context.Context, reservationID string) error {
	if err := w.reservations.RetrySync(ctx, reservationID); err != nil {
		return fmt.Errorf("error retrying reservation sync: %w", err)
	}
	w.drop(reservationID)
	return nil
}

// Resolve marks one reservation as manually handled and drops it from the
// snapshot on success.
func (w *Watcher) Resolve(ctx context.Context, reservationID, notes string) error {
	if err := w.reservations.MarkResolved(ctx, reservationID, notes); err != nil {
		return fmt.Errorf("error resolving reservation: %w", err)
	}
	w.drop(reservationID)
	return nil
}

func (w *Watcher) drop(reservationID string) {
	w.mu.Lock()
	kept := w.current[:0]
	for _, r := range w.current {
		if r.ID != reservationID {
			kept = append(kept, r)
		}
	}
	w.current = kept
	metrics.SetFailedReservations(len(kept))
	w.mu.Unlock()
}
