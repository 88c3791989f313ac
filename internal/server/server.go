package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"apartadmin/internal/alerts"
	"apartadmin/internal/apiclient"
	"apartadmin/internal/audit"
	"apartadmin/internal/imagehost"
	"apartadmin/internal/models"
	"apartadmin/internal/session"
	"apartadmin/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// AuthAPI is the login slice of the backend auth service.
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (string, error)
}

// DateAPI is the blocked-date / price-override pass-through of the
// apartment service.
type DateAPI interface {
	ListBlockedDates(ctx context.Context, apartmentID string) ([]models.BlockedDate, error)
	CreateBlockedDate(ctx context.Context, b models.BlockedDate) (models.BlockedDate, error)
	DeleteBlockedDate(ctx context.Context, id string) error
	ListPriceOverrides(ctx context.Context, apartmentID string) ([]models.PriceOverride, error)
	CreatePriceOverride(ctx context.Context, o models.PriceOverride) (models.PriceOverride, error)
	DeletePriceOverride(ctx context.Context, id string) error
}

// Server is the admin HTTP surface: a thin JSON layer over the listing
// store, the reorder engine and the alert watcher.
type Server struct {
	sess    *session.Session
	auth    AuthAPI
	listing *store.Listing
	watcher *alerts.Watcher
	dates   DateAPI
	images  imagehost.Uploader // optional
	trail   *audit.Store       // optional
	logger  *zerolog.Logger
}

// New constructs the server. images and trail may be nil when image uploads
// or auditing are disabled.
func New(
	sess *session.Session,
	auth AuthAPI,
	listing *store.Listing,
	watcher *alerts.Watcher,
	dates DateAPI,
	images imagehost.Uploader,
	trail *audit.Store,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		sess:    sess,
		auth:    auth,
		listing: listing,
		watcher: watcher,
		dates:   dates,
		images:  images,
		trail:   trail,
		logger:  logger,
	}
}

// Router builds the chi routing tree.
func (s *Server) Router(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.requireSession)

		r.Post("/reload", s.handleReload)

		r.Route("/apartments", func(r chi.Router) {
			r.Get("/", s.handleListApartments)
			r.Post("/", s.handleSaveApartment)
			r.Post("/reorder", s.handleSwap)
			r.Route("/{id}", func(r chi.Router) {
				r.Put("/", s.handleSaveApartment)
				r.Delete("/", s.handleDeleteApartment)
				r.Post("/move", s.handleMove)
				r.Post("/images", s.handleUploadImages)
				r.Get("/blocked-dates", s.handleListBlockedDates)
				r.Post("/blocked-dates", s.handleCreateBlockedDate)
				r.Get("/price-overrides", s.handleListPriceOverrides)
				r.Post("/price-overrides", s.handleCreatePriceOverride)
			})
		})
		r.Delete("/blocked-dates/{id}", s.handleDeleteBlockedDate)
		r.Delete("/price-overrides/{id}", s.handleDeletePriceOverride)

		r.Route("/discounts", func(r chi.Router) {
			r.Get("/", s.handleListDiscounts)
			r.Post("/", s.handleSaveDiscount)
			r.Delete("/{id}", s.handleDeleteDiscount)
		})

		r.Route("/alerts", func(r chi.Router) {
			r.Get("/", s.handleListAlerts)
			r.Post("/{id}/retry", s.handleRetryAlert)
			r.Post("/{id}/resolve", s.handleResolveAlert)
		})

		r.Get("/audit", s.handleListAudit)
	})

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

// requireSession rejects requests while no admin is logged in, mirroring
// the forced-logout contract of the backend.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.sess.Valid() {
			writeError(w, http.StatusUnauthorized, session.ErrUnauthorized.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeFailure maps an error onto the admin API taxonomy: validation
// errors are 400, an expired session is 401, backend rejections are 502.
func writeFailure(w http.ResponseWriter, err error) {
	var validation models.ErrValidation
	var apiErr *apiclient.APIError
	switch {
	case errors.Is(err, session.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &apiErr):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeBody(r *http.Request, out interface{}) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}
