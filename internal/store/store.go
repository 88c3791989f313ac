package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"apartadmin/internal/apiclient"
	"apartadmin/internal/models"

	"github.com/rs/zerolog"
)

// ApartmentAPI is the slice of the apartment-service client the store needs.
type ApartmentAPI interface {
	List(ctx context.Context) ([]apiclient.ApartmentRecord, error)
	Create(ctx context.Context, draft models.Apartment) (apiclient.ApartmentRecord, error)
	Update(ctx context.Context, apartment models.Apartment) (apiclient.ApartmentRecord, error)
	Delete(ctx context.Context, id string) error
}

// DiscountAPI is the slice of the discount-code-service client the store needs.
type DiscountAPI interface {
	List(ctx context.Context) ([]models.Discount, error)
	Save(ctx context.Context, d models.Discount) (models.Discount, error)
	Delete(ctx context.Context, id string) error
}

// EventPublisher receives a JSON event for every committed mutation.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// Listing maintains the authoritative client-side view of apartments and
// discounts between server round-trips. All reads return copies; mutations
// commit only server-confirmed state.
type Listing struct {
	apartments ApartmentAPI
	discounts  DiscountAPI
	bus        EventPublisher
	logger     *zerolog.Logger

	mu          sync.RWMutex
	loaded      bool
	aptList     []models.Apartment
	discList    []models.Discount
	editingApt  string // id of the apartment being edited, "" when none
	editingDisc string
}

// NewListing constructs an empty store. bus may be nil when no audit trail
// is attached.
func NewListing(apartments ApartmentAPI, discounts DiscountAPI, bus EventPublisher, logger *zerolog.Logger) *Listing {
	return &Listing{
		apartments: apartments,
		discounts:  discounts,
		bus:        bus,
		logger:     logger,
	}
}

// Load fetches all apartments and discounts and replaces the in-memory view.
// Records missing an ordering key get a fallback displayOrder equal to their
// array index; the result is stably sorted ascending by displayOrder. Any
// fetch failure leaves the previous state untouched.
func (s *Listing) Load(ctx context.Context) error {
	records, err := s.apartments.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load apartments")
		return fmt.Errorf("error loading data: %w", err)
	}

	discounts, err := s.discounts.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load discounts")
		return fmt.Errorf("error loading data: %w", err)
	}

	apartments := make([]models.Apartment, 0, len(records))
	for i, rec := range records {
		apt := rec.Apartment
		if !rec.OrderSet {
			apt.DisplayOrder = i
		}
		apartments = append(apartments, apt)
	}
	sortByDisplayOrder(apartments)

	s.mu.Lock()
	s.aptList = apartments
	s.discList = discounts
	s.loaded = true
	s.mu.Unlock()

	s.logger.Info().Int("apartments", len(apartments)).Int("discounts", len(discounts)).Msg("listing loaded")
	return nil
}

// Loaded reports whether at least one Load has succeeded.
func (s *Listing) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Apartments returns the full ordered apartment list.
func (s *Listing) Apartments() []models.Apartment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Apartment, len(s.aptList))
	copy(out, s.aptList)
	return out
}

// Discounts returns the current discount list.
func (s *Listing) Discounts() []models.Discount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Discount, len(s.discList))
	copy(out, s.discList)
	return out
}

// Apartment looks up one apartment by id.
func (s *Listing) Apartment(id string) (models.Apartment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.aptList {
		if a.ID == id {
			return a, true
		}
	}
	return models.Apartment{}, false
}

// CityGroup is one city's ordered slice of the listing.
type CityGroup struct {
	City       string             `json:"city"`
	Apartments []models.Apartment `json:"apartments"`
}

// ByCity projects the listing into city groups: cities sorted
// lexicographically, apartments within each city in display order. The
// grouping is computed on demand, never stored.
func (s *Listing) ByCity() []CityGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()

	grouped := make(map[string][]models.Apartment)
	for _, a := range s.aptList {
		grouped[a.City] = append(grouped[a.City], a)
	}

	cities := make([]string, 0, len(grouped))
	for city := range grouped {
		cities = append(cities, city)
	}
	sort.Strings(cities)

	out := make([]CityGroup, 0, len(cities))
	for _, city := range cities {
		out = append(out, CityGroup{City: city, Apartments: grouped[city]})
	}
	return out
}

// SetEditingApartment marks an apartment as currently being edited.
func (s *Listing) SetEditingApartment(id string) {
	s.mu.Lock()
	s.editingApt = id
	s.mu.Unlock()
}

// EditingApartment returns the id of the apartment under edit, "" when none.
func (s *Listing) EditingApartment() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.editingApt
}

// SetEditingDiscount marks a discount as currently being edited.
func (s *Listing) SetEditingDiscount(id string) {
	s.mu.Lock()
	s.editingDisc = id
	s.mu.Unlock()
}

// EditingDiscount returns the id of the discount under edit, "" when none.
func (s *Listing) EditingDiscount() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.editingDisc
}

func sortByDisplayOrder(apartments []models.Apartment) {
	sort.SliceStable(apartments, func(i, j int) bool {
		return apartments[i].DisplayOrder < apartments[j].DisplayOrder
	})
}

func (s *Listing) publish(eventType string, payload interface{}) {
	if s.bus == nil {
		return
	}
	if err := s.bus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Msg("failed to publish event")
	}
}
